package domain

import "time"

type FileFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// TaskReport aggregates a finished batch: per-type and per-level counts
// plus the list of files that did not make it.
type TaskReport struct {
	TaskID         string         `json:"task_id"`
	ByDocumentType map[string]int `json:"by_document_type"`
	ByRiskLevel    map[string]int `json:"by_risk_level"`
	Failures       []FileFailure  `json:"failures,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// FileView is the per-file slice of the task status output.
type FileView struct {
	Filename string          `json:"filename"`
	Status   FileStatus      `json:"status"`
	Result   *AnalysisResult `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// TaskView is the output shape consumed by presentation layers.
type TaskView struct {
	ID        string      `json:"id"`
	Status    TaskStatus  `json:"status"`
	Total     int         `json:"total"`
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	Error     string      `json:"error,omitempty"`
	PerFile   []FileView  `json:"per_file"`
	Aggregate *TaskReport `json:"aggregate,omitempty"`
}
