package domain

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
)

// Task is one batch submission. Counters only ever grow, and
// processed+failed never exceeds total.
type Task struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Status         TaskStatus `json:"status"`
	TotalFiles     int        `json:"total_files"`
	ProcessedFiles int        `json:"processed_files"`
	FailedFiles    int        `json:"failed_files"`
	AIEntitled     bool       `json:"ai_entitled"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// FileItem is one document inside a task, owned by exactly one task.
type FileItem struct {
	ID          string          `json:"id"`
	TaskID      string          `json:"task_id"`
	Filename    string          `json:"filename"`
	StoragePath string          `json:"storage_path"`
	Status      FileStatus      `json:"status"`
	Result      *AnalysisResult `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

func (s FileStatus) Terminal() bool {
	return s == FileStatusCompleted || s == FileStatusFailed
}
