package domain

type ChangeType string

const (
	ChangeAdded     ChangeType = "added"
	ChangeRemoved   ChangeType = "removed"
	ChangeModified  ChangeType = "modified"
	ChangeUnchanged ChangeType = "unchanged"
)

// Change is one classified entry in a document diff. Added changes carry
// only To, removed only From, modified both, unchanged the shared line.
type Change struct {
	Type ChangeType `json:"type"`
	From string     `json:"from,omitempty"`
	To   string     `json:"to,omitempty"`
}

type ChangeRisk struct {
	Index     int       `json:"index"`
	Level     RiskLevel `json:"level"`
	Rationale string    `json:"rationale,omitempty"`
}

// RiskAnnotation is the optional AI-derived assessment of a change set.
type RiskAnnotation struct {
	OverallRisk RiskLevel    `json:"overall_risk"`
	Changes     []ChangeRisk `json:"changes,omitempty"`
	Summary     string       `json:"summary,omitempty"`
}

type ComparisonResult struct {
	Changes    []Change        `json:"changes"`
	Added      int             `json:"added"`
	Removed    int             `json:"removed"`
	Modified   int             `json:"modified"`
	Unchanged  int             `json:"unchanged"`
	Annotation *RiskAnnotation `json:"annotation,omitempty"`
}
