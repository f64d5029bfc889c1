package runstate

// CurrentSchemaVersion is the schema version written by this build. Load
// walks the migration registry from whatever version is stored up to this
// one before validating.
const CurrentSchemaVersion = "1.0.0"

// MaxRetries bounds the error counter before a run transitions to failed.
const MaxRetries = 3

// MaxPreflightQuestions bounds the number of clarifying questions the
// Specification agent may ask in a single run.
const MaxPreflightQuestions = 10

// ArtifactKind tags a piece of generated or source text with the role it
// plays, so the Governance Validator can select the right rule set and the
// State can group violations by artifact.
type ArtifactKind string

// Recognized artifact kinds.
const (
	ArtifactSpec      ArtifactKind = "spec"
	ArtifactResearch  ArtifactKind = "research"
	ArtifactPlan      ArtifactKind = "plan"
	ArtifactDataModel ArtifactKind = "data-model"
	ArtifactContract  ArtifactKind = "contract"
	ArtifactQuickstart ArtifactKind = "quickstart"
	ArtifactTest      ArtifactKind = "test"
	ArtifactCode      ArtifactKind = "code"
)

// Severity ranks a Violation. Severities have a total order so reports can
// be sorted worst-first.
type Severity string

// Recognized severities, most to least severe.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// rank gives Severity its total ordering; lower ranks first.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
}

// Less reports whether s is more severe than other (for sort.Slice).
func (s Severity) Less(other Severity) bool {
	return severityRank[s] < severityRank[other]
}

// Violation is a structured finding from the Governance Validator.
type Violation struct {
	PrincipleID  string   `json:"principle_id"`
	Artifact     string   `json:"artifact"`
	Line         int      `json:"line,omitempty"`
	Description  string   `json:"description"`
	SuggestedFix string   `json:"suggested_fix"`
	Severity     Severity `json:"severity"`
}

// PreflightQuestion is a clarifying question emitted by the Specification
// agent before it generates the spec.
type PreflightQuestion struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// Answer is a non-empty response to a PreflightQuestion.
type Answer string

// Clarification pairs a question with its collected answer.
type Clarification struct {
	Question PreflightQuestion `json:"question"`
	Answer   Answer            `json:"answer"`
}

// ErrorInfo records the node, message, and phase of the most recent failure,
// for display after a run transitions to failed or pauses mid-retry.
type ErrorInfo struct {
	Node    string `json:"node"`
	Message string `json:"message"`
	Phase   Phase  `json:"phase"`
}

// Task is one unit of implementation work tracked through the TDD
// implementation phase.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// CodeArtifact is one generated file in the implementation code tree, kept
// distinct from other code artifacts by Kind (test vs. implementation) so a
// test file and its paired implementation file can both be tracked.
type CodeArtifact struct {
	Path    string       `json:"path"`
	Content string       `json:"content"`
	Kind    ArtifactKind `json:"kind"`
}

// ValidationStatus is the outcome of running the implementation's own test
// suite, as tracked by the State (distinct from governance_passes, which is
// the constitution gate rather than a test-runner result).
type ValidationStatus string

// Recognized validation statuses.
const (
	ValidationPending ValidationStatus = "pending"
	ValidationPass    ValidationStatus = "pass"
	ValidationFail    ValidationStatus = "fail"
)

// ConstitutionState carries the loaded governing principles text and the
// latest governance verdict.
type ConstitutionState struct {
	Text             string `json:"text"`
	GovernancePasses bool   `json:"governance_passes"`
}

// SpecificationState carries the original feature description, the
// generated spec, and the clarifications collected before generation.
type SpecificationState struct {
	Description    string          `json:"description"`
	Spec           string          `json:"spec"`
	Clarifications []Clarification `json:"clarifications"`
}

// PlanningState carries the Architect agent's outputs.
type PlanningState struct {
	Research   string            `json:"research"`
	Plan       string            `json:"plan"`
	DataModel  string            `json:"data_model"`
	Contracts  map[string]string `json:"contracts"`
	Quickstart string            `json:"quickstart"`
	Unknowns   []string          `json:"unknowns"`
}

// ImplementationState carries the Implementation agent's outputs.
type ImplementationState struct {
	Tasks            []Task                  `json:"tasks"`
	CompletedTasks   map[string]bool         `json:"completed_tasks"`
	Code             map[string]CodeArtifact `json:"code"`
	ValidationStatus ValidationStatus        `json:"validation_status"`
}

// ControlState carries the fields the workflow engine uses for routing and
// retry bookkeeping.
type ControlState struct {
	Phase      Phase      `json:"phase"`
	ErrorCount int        `json:"error_count"`
	LastError  *ErrorInfo `json:"last_error,omitempty"`
}

// State is the full payload carried through the graph and persisted at
// checkpoint boundaries. It is both the "inside the graph" working copy and
// the canonical serialization shape: per the Design Notes, the dual
// fast/validating representation collapses into this one struct plus
// Validate.
type State struct {
	SchemaVersion string `json:"schema_version"`

	Constitution ConstitutionState   `json:"constitution"`
	Spec         SpecificationState  `json:"specification"`
	Planning     PlanningState       `json:"planning"`
	Impl         ImplementationState `json:"implementation"`
	Control      ControlState        `json:"control"`

	// Violations groups the latest Governance Validator findings by
	// artifact name, so they survive a checkpoint and can be displayed
	// post-resume even though the originating agent run is gone.
	Violations map[string][]Violation `json:"violations"`
}

// New returns a zero-value State stamped with the current schema version.
func New() *State {
	return &State{
		SchemaVersion: CurrentSchemaVersion,
		Planning: PlanningState{
			Contracts: map[string]string{},
		},
		Impl: ImplementationState{
			CompletedTasks: map[string]bool{},
			Code:           map[string]CodeArtifact{},
		},
		Violations: map[string][]Violation{},
	}
}

// Clone returns a deep-enough copy of s: safe to mutate without affecting
// the original, for use as the "working copy" a node mutates between
// Transition boundaries.
func (s *State) Clone() *State {
	if s == nil {
		return New()
	}
	clone := *s

	clone.Spec.Clarifications = append([]Clarification(nil), s.Spec.Clarifications...)

	clone.Planning.Contracts = make(map[string]string, len(s.Planning.Contracts))
	for k, v := range s.Planning.Contracts {
		clone.Planning.Contracts[k] = v
	}
	clone.Planning.Unknowns = append([]string(nil), s.Planning.Unknowns...)

	clone.Impl.Tasks = append([]Task(nil), s.Impl.Tasks...)
	clone.Impl.CompletedTasks = make(map[string]bool, len(s.Impl.CompletedTasks))
	for k, v := range s.Impl.CompletedTasks {
		clone.Impl.CompletedTasks[k] = v
	}
	clone.Impl.Code = make(map[string]CodeArtifact, len(s.Impl.Code))
	for k, v := range s.Impl.Code {
		clone.Impl.Code[k] = v
	}

	clone.Violations = make(map[string][]Violation, len(s.Violations))
	for k, v := range s.Violations {
		clone.Violations[k] = append([]Violation(nil), v...)
	}

	if s.Control.LastError != nil {
		errCopy := *s.Control.LastError
		clone.Control.LastError = &errCopy
	}

	return &clone
}

// Reduce implements the graph.Reducer[*State] shape the workflow engine
// requires. Every phase agent and node builds its Delta by cloning the
// current state and mutating the fields it owns (see Transition), so the
// Delta it returns is already a complete next state — Reduce is therefore a
// full replace, not a field-by-field merge. A field-by-field "non-zero wins"
// merge was tried first and rejected: it cannot distinguish "ErrorCount
// reset to zero" from "ErrorCount left unset", which would silently break
// the invariant that the retry counter resets on every governance pass.
func Reduce(prev, delta *State) *State {
	if delta == nil {
		if prev == nil {
			return New()
		}
		return prev
	}
	return delta
}
