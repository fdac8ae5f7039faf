package ports

import (
	"context"
	"io"
	"time"

	"github.com/ramay1243/docscan/internal/core/domain"
)

// TaskRepository persists task, file and report state. A worker owns
// exclusive write access to the rows of its own task.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task, files []domain.FileItem) error
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	ListFiles(ctx context.Context, taskID string) ([]domain.FileItem, error)
	SetTaskStarted(ctx context.Context, taskID string, startedAt time.Time) error
	UpdateTaskProgress(ctx context.Context, taskID string, processed, failed int) error
	FinishTask(ctx context.Context, taskID string, status domain.TaskStatus, errMessage string, completedAt time.Time) error
	UpdateFileStatus(ctx context.Context, fileID string, status domain.FileStatus, errMessage string) error
	SaveFileResult(ctx context.Context, fileID string, result domain.AnalysisResult) error
	SaveReport(ctx context.Context, taskID string, report domain.TaskReport) error
	GetReport(ctx context.Context, taskID string) (*domain.TaskReport, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue hands accepted tasks to the worker pool.
type MessageQueue interface {
	PublishTaskCreated(ctx context.Context, taskID string) error
	SubscribeTaskCreated(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, item *domain.FileItem) (string, error)
}

// DocumentClassifier maps extracted text to a document type.
type DocumentClassifier interface {
	Classify(text string) domain.DocumentType
}

// CompletionClient is the external language-model call. Implementations
// surface network failures as typed errors and never panic.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// QuotaService is the entitlement gate shared across tasks. It serializes
// its own increments.
type QuotaService interface {
	CheckQuota(ctx context.Context, ownerID string) (bool, error)
	RecordUsage(ctx context.Context, ownerID string) error
	AIEntitled(ctx context.Context, ownerID string) (bool, error)
}

// Notifier emits fire-and-forget completion signals.
type Notifier interface {
	Notify(ctx context.Context, ownerID, message string) error
}
