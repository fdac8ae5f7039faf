package ports

import (
	"context"
	"io"

	"github.com/ramay1243/docscan/internal/core/domain"
)

// FileUpload is one document handed in by the submitter.
type FileUpload struct {
	Filename string
	Body     io.Reader
}

// TaskService is the inbound contract for batch submission and polling.
type TaskService interface {
	Create(ctx context.Context, ownerID string, uploads []FileUpload) (*domain.Task, error)
	GetStatus(ctx context.Context, taskID string, tier domain.ResultTier) (*domain.TaskView, error)
}

// TaskProcessor is the inbound contract for asynchronous batch processing.
type TaskProcessor interface {
	ProcessTask(ctx context.Context, taskID string) error
}

// ComparisonService compares exactly two document versions.
type ComparisonService interface {
	Compare(ctx context.Context, ownerID string, original, modified FileUpload) (*domain.ComparisonResult, error)
}
