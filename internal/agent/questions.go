package agent

import (
	"regexp"
	"strings"

	"github.com/acpctl/acp/internal/runstate"
)

// questionLinePattern matches an LLM's numbered-list output, e.g.
// "1. Which identity providers should be supported?".
var questionLinePattern = regexp.MustCompile(`^\s*\d+[.)]\s*(.+?)\s*$`)

// ParseQuestions extracts up to runstate.MaxPreflightQuestions questions
// from a numbered-list LLM response, one per non-empty matching line.
func ParseQuestions(text string) []runstate.PreflightQuestion {
	var questions []runstate.PreflightQuestion
	for _, item := range ParseList(text) {
		questions = append(questions, runstate.PreflightQuestion{
			Index: len(questions) + 1,
			Text:  item,
		})
		if len(questions) == runstate.MaxPreflightQuestions {
			break
		}
	}
	return questions
}

// bulletLinePattern matches a "- item" or "* item" list line.
var bulletLinePattern = regexp.MustCompile(`^\s*[-*]\s*(.+?)\s*$`)

// ParseList extracts items from either a numbered or a bulleted LLM list
// response, one per matching line, in order.
func ParseList(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		if m := questionLinePattern.FindStringSubmatch(line); m != nil {
			items = append(items, m[1])
			continue
		}
		if m := bulletLinePattern.FindStringSubmatch(line); m != nil {
			items = append(items, m[1])
		}
	}
	return items
}
