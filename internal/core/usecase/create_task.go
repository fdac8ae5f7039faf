package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramay1243/docscan/internal/core/domain"
	"github.com/ramay1243/docscan/internal/core/ports"
)

type CreateTaskUseCase struct {
	repo    ports.TaskRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	quota   ports.QuotaService
}

func NewCreateTaskUseCase(
	repo ports.TaskRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	quota ports.QuotaService,
) *CreateTaskUseCase {
	return &CreateTaskUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		quota:   quota,
	}
}

// Create accepts a batch submission: stores every upload, inserts the task
// with its pending file rows, and hands the task id to the queue.
func (uc *CreateTaskUseCase) Create(ctx context.Context, ownerID string, uploads []ports.FileUpload) (*domain.Task, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create task", errors.New("owner id is required"))
	}
	if len(uploads) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create task", errors.New("at least one file is required"))
	}

	entitled, err := uc.quota.AIEntitled(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check ai entitlement: %w", err)
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Status:     domain.TaskStatusPending,
		TotalFiles: len(uploads),
		AIEntitled: entitled,
		CreatedAt:  now,
	}

	files := make([]domain.FileItem, 0, len(uploads))
	for _, upload := range uploads {
		fileID := uuid.NewString()
		storageKey := fmt.Sprintf("%s_%s", fileID, sanitizeFilename(upload.Filename))

		if err := uc.storage.Save(ctx, storageKey, upload.Body); err != nil {
			return nil, fmt.Errorf("save upload %q: %w", upload.Filename, err)
		}
		files = append(files, domain.FileItem{
			ID:          fileID,
			TaskID:      task.ID,
			Filename:    upload.Filename,
			StoragePath: storageKey,
			Status:      domain.FileStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := uc.repo.CreateTask(ctx, task, files); err != nil {
		return nil, fmt.Errorf("create task rows: %w", err)
	}
	if err := uc.queue.PublishTaskCreated(ctx, task.ID); err != nil {
		return nil, fmt.Errorf("publish task event: %w", err)
	}
	return task, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	// filepath.Base turns "" and "/" into "." and ".." survives the rune
	// map, so neither is a usable storage key component.
	if base == "" || base == "." || base == ".." {
		return "document.bin"
	}
	return base
}
