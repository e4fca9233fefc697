package models

// GradingMode selects how a task's run is scored.
type GradingMode string

const (
	GradingAutomated GradingMode = "automated"
	GradingLLMJudge  GradingMode = "llm_judge"
	GradingHybrid    GradingMode = "hybrid"
)

// Valid reports whether m is one of the known grading modes.
func (m GradingMode) Valid() bool {
	switch m {
	case GradingAutomated, GradingLLMJudge, GradingHybrid:
		return true
	}
	return false
}

// WorkspaceFile describes one file to place in the task workspace before a
// run. Either Content+Path is set (inline file) or Source+Dest (copied from
// the assets directory).
type WorkspaceFile struct {
	Source  string `mapstructure:"source" json:"source,omitempty"`
	Dest    string `mapstructure:"dest" json:"dest,omitempty"`
	Path    string `mapstructure:"path" json:"path,omitempty"`
	Content string `mapstructure:"content" json:"content,omitempty"`
}

// Task is a single benchmark scenario. Tasks are immutable once loaded.
type Task struct {
	TaskID         string          `json:"task_id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	GradingMode    GradingMode     `json:"grading_mode"`
	TimeoutSec     int             `json:"timeout_seconds"`
	WorkspaceFiles []WorkspaceFile `json:"workspace_files,omitempty"`

	Prompt           string   `json:"prompt"`
	ExpectedBehavior string   `json:"expected_behavior"`
	GradingCriteria  []string `json:"grading_criteria,omitempty"`

	// AutomatedChecks is the raw markdown of the "Automated Checks" section;
	// the grading source is a fenced code block inside it.
	AutomatedChecks string `json:"-"`

	// JudgeRubric is the raw markdown of the "LLM Judge Rubric" section.
	JudgeRubric string `json:"-"`

	// GradingWeights holds per-mode weights for hybrid grading
	// (keys "automated" and "llm_judge").
	GradingWeights map[string]float64 `json:"grading_weights,omitempty"`

	// FilePath is where the task was loaded from (informational).
	FilePath string `json:"-"`

	// Frontmatter is the raw frontmatter map, carried through to uploads.
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}
