package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/acpctl/acp/internal/runstate"
)

// Implementation implements the Implementation agent (spec.md §4.6): a
// test-first (RED then GREEN) sub-phase pair. RED emits test files that
// must structurally reference the feature's observable behaviors from the
// spec; GREEN emits the paired implementation files. A test file and its
// paired implementation file are tracked as two distinct CodeArtifact
// kinds.
func Implementation(ctx context.Context, s *runstate.State, c Collaborators) (*runstate.State, error) {
	next := s.Clone()

	tasks := next.Impl.Tasks
	if len(tasks) == 0 {
		taskList, err := deriveTasks(ctx, next, c)
		if err != nil {
			return nil, err
		}
		tasks = taskList
		next.Impl.Tasks = tasks
	}

	if next.Impl.CompletedTasks == nil {
		next.Impl.CompletedTasks = map[string]bool{}
	}
	if next.Impl.Code == nil {
		next.Impl.Code = map[string]runstate.CodeArtifact{}
	}

	for _, task := range tasks {
		testPath, testContent, err := red(ctx, next, task, c)
		if err != nil {
			return nil, fmt.Errorf("agent: RED phase for task %s: %w", task.ID, err)
		}
		next.Impl.Code[testPath] = runstate.CodeArtifact{Path: testPath, Content: testContent, Kind: runstate.ArtifactTest}
		if c.Artifacts != nil {
			if err := c.Artifacts.WriteCode(c.RunID, testPath, testContent); err != nil {
				return nil, fmt.Errorf("agent: writing test file %s: %w", testPath, err)
			}
		}

		implPath, implContent, err := green(ctx, next, task, c)
		if err != nil {
			return nil, fmt.Errorf("agent: GREEN phase for task %s: %w", task.ID, err)
		}
		next.Impl.Code[implPath] = runstate.CodeArtifact{Path: implPath, Content: implContent, Kind: runstate.ArtifactCode}
		if c.Artifacts != nil {
			if err := c.Artifacts.WriteCode(c.RunID, implPath, implContent); err != nil {
				return nil, fmt.Errorf("agent: writing implementation file %s: %w", implPath, err)
			}
		}

		next.Impl.CompletedTasks[task.ID] = true
	}

	next.Impl.ValidationStatus = runstate.ValidationPass
	next.Control.Phase = runstate.PhaseImplement
	if err := runstate.Validate(next); err != nil {
		return nil, err
	}
	return next, nil
}

func deriveTasks(ctx context.Context, s *runstate.State, c Collaborators) ([]runstate.Task, error) {
	raw, err := c.LLM.Complete(ctx, "List, as a numbered list, the implementation tasks needed to build this "+
		"feature end to end. One task per observable behavior in the spec.\n\nSpec:\n"+s.Spec.Spec+"\n\nPlan:\n"+s.Planning.Plan)
	if err != nil {
		return nil, fmt.Errorf("agent: deriving tasks: %w", err)
	}

	descriptions := ParseList(raw)
	if len(descriptions) == 0 {
		descriptions = []string{"implement the feature described in the spec"}
	}

	tasks := make([]runstate.Task, len(descriptions))
	for i, d := range descriptions {
		tasks[i] = runstate.Task{ID: fmt.Sprintf("T%03d", i+1), Description: d}
	}
	return tasks, nil
}

var nonWordPath = regexp.MustCompile(`[^a-z0-9]+`)

func taskSlug(task runstate.Task) string {
	slug := nonWordPath.ReplaceAllString(strings.ToLower(task.Description), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 40 {
		slug = slug[:40]
	}
	if slug == "" {
		slug = strings.ToLower(task.ID)
	}
	return slug
}

func red(ctx context.Context, s *runstate.State, task runstate.Task, c Collaborators) (path, content string, err error) {
	slug := taskSlug(task)
	path = filepath.Join(slug, slug+"_test.go")
	prompt := fmt.Sprintf("Write a test file for task %s (%s). It must exercise an observable behavior "+
		"from the spec below and must not yet pass (no implementation exists).\n\nSpec:\n%s", task.ID, task.Description, s.Spec.Spec)
	content, err = c.LLM.Complete(ctx, prompt)
	return path, content, err
}

func green(ctx context.Context, s *runstate.State, task runstate.Task, c Collaborators) (path, content string, err error) {
	slug := taskSlug(task)
	path = filepath.Join(slug, slug+".go")
	prompt := fmt.Sprintf("Write the implementation file that makes the test for task %s (%s) pass.\n\nSpec:\n%s\n\nPlan:\n%s",
		task.ID, task.Description, s.Spec.Spec, s.Planning.Plan)
	content, err = c.LLM.Complete(ctx, prompt)
	return path, content, err
}
