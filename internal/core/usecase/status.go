package usecase

import (
	"context"
	"fmt"

	"github.com/ramay1243/docscan/internal/core/domain"
	"github.com/ramay1243/docscan/internal/core/redact"
)

// GetStatus assembles the polling view of a task. Restricted callers get
// every per-file result through the redaction tier.
func (uc *CreateTaskUseCase) GetStatus(ctx context.Context, taskID string, tier domain.ResultTier) (*domain.TaskView, error) {
	task, err := uc.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	files, err := uc.repo.ListFiles(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task files: %w", err)
	}

	view := &domain.TaskView{
		ID:        task.ID,
		Status:    task.Status,
		Total:     task.TotalFiles,
		Processed: task.ProcessedFiles,
		Failed:    task.FailedFiles,
		Error:     task.Error,
		PerFile:   make([]domain.FileView, 0, len(files)),
	}

	for _, file := range files {
		fv := domain.FileView{
			Filename: file.Filename,
			Status:   file.Status,
			Error:    file.Error,
		}
		if file.Result != nil {
			result := *file.Result
			if tier == domain.TierRestricted {
				result = redact.Redact(result)
			}
			fv.Result = &result
		}
		view.PerFile = append(view.PerFile, fv)
	}

	if task.Status == domain.TaskStatusCompleted {
		// Best effort: a task that finished before report persistence
		// succeeded still has a usable view.
		if report, err := uc.repo.GetReport(ctx, taskID); err == nil {
			view.Aggregate = report
		}
	}
	return view, nil
}
