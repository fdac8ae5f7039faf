package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ramay1243/docscan/internal/core/analyze"
	"github.com/ramay1243/docscan/internal/core/domain"
	"github.com/ramay1243/docscan/internal/core/parse"
	"github.com/ramay1243/docscan/internal/core/ports"
)

const DefaultMinTextChars = 20

// ProcessTaskUseCase owns the batch lifecycle: it walks a task's files in
// submission order, isolates per-file failures, and drives the task to a
// terminal state with an aggregate report.
type ProcessTaskUseCase struct {
	repo         ports.TaskRepository
	extractor    ports.TextExtractor
	classifier   ports.DocumentClassifier
	ai           *analyze.Adapter
	quota        ports.QuotaService
	notifier     ports.Notifier
	logger       *slog.Logger
	minTextChars int
}

func NewProcessTaskUseCase(
	repo ports.TaskRepository,
	extractor ports.TextExtractor,
	classifier ports.DocumentClassifier,
	ai *analyze.Adapter,
	quota ports.QuotaService,
	notifier ports.Notifier,
	logger *slog.Logger,
	minTextChars int,
) *ProcessTaskUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if minTextChars <= 0 {
		minTextChars = DefaultMinTextChars
	}
	return &ProcessTaskUseCase{
		repo:         repo,
		extractor:    extractor,
		classifier:   classifier,
		ai:           ai,
		quota:        quota,
		notifier:     notifier,
		logger:       logger,
		minTextChars: minTextChars,
	}
}

// ProcessTask runs the per-file loop for one task. A file failure never
// aborts the task; only a storage-level fault or cancellation does.
func (uc *ProcessTaskUseCase) ProcessTask(ctx context.Context, taskID string) error {
	task, err := uc.repo.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}
	if task.Status.Terminal() {
		// Redelivered event for a finished task.
		return nil
	}

	if err := uc.repo.SetTaskStarted(ctx, taskID, time.Now().UTC()); err != nil {
		return uc.abort(ctx, taskID, fmt.Errorf("set status=processing: %w", err))
	}

	files, err := uc.repo.ListFiles(ctx, taskID)
	if err != nil {
		return uc.abort(ctx, taskID, fmt.Errorf("list task files: %w", err))
	}

	processed, failed := 0, 0
	for i := range files {
		// Coarse cancellation: checked between files only, a file in
		// flight runs to completion.
		if err := ctx.Err(); err != nil {
			return uc.abort(ctx, taskID, fmt.Errorf("task cancelled: %w", err))
		}

		file := &files[i]
		if err := uc.repo.UpdateFileStatus(ctx, file.ID, domain.FileStatusProcessing, ""); err != nil {
			return uc.abort(ctx, taskID, fmt.Errorf("set file status=processing: %w", err))
		}

		result, fileErr := uc.processFile(ctx, task, file)
		if fileErr != nil {
			failed++
			file.Status = domain.FileStatusFailed
			file.Error = fileErr.Error()
			uc.logger.Warn("file_failed", "task_id", taskID, "file_id", file.ID, "filename", file.Filename, "error", fileErr)
			if err := uc.repo.UpdateFileStatus(ctx, file.ID, domain.FileStatusFailed, fileErr.Error()); err != nil {
				return uc.abort(ctx, taskID, fmt.Errorf("set file status=failed: %w", err))
			}
		} else {
			if err := uc.repo.SaveFileResult(ctx, file.ID, *result); err != nil {
				return uc.abort(ctx, taskID, fmt.Errorf("save file result: %w", err))
			}
			if err := uc.repo.UpdateFileStatus(ctx, file.ID, domain.FileStatusCompleted, ""); err != nil {
				return uc.abort(ctx, taskID, fmt.Errorf("set file status=completed: %w", err))
			}
			processed++
			file.Status = domain.FileStatusCompleted
			file.Result = result
			if err := uc.quota.RecordUsage(ctx, task.OwnerID); err != nil {
				uc.logger.Warn("record_usage_failed", "task_id", taskID, "owner_id", task.OwnerID, "error", err)
			}
		}

		if err := uc.repo.UpdateTaskProgress(ctx, taskID, processed, failed); err != nil {
			return uc.abort(ctx, taskID, fmt.Errorf("update task progress: %w", err))
		}
	}

	// Report and notification failures are logged but never change the
	// terminal status.
	report := BuildReport(taskID, files)
	if err := uc.repo.SaveReport(ctx, taskID, report); err != nil {
		uc.logger.Error("save_report_failed", "task_id", taskID, "error", err)
	}
	if err := uc.notifier.Notify(ctx, task.OwnerID, completionMessage(taskID, processed, failed)); err != nil {
		uc.logger.Warn("notify_failed", "task_id", taskID, "owner_id", task.OwnerID, "error", err)
	}

	if err := uc.repo.FinishTask(ctx, taskID, domain.TaskStatusCompleted, "", time.Now().UTC()); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}
	return nil
}

// processFile runs one document through the pipeline. Panics are captured
// into the returned error so a malformed document cannot take down the
// whole batch.
func (uc *ProcessTaskUseCase) processFile(ctx context.Context, task *domain.Task, file *domain.FileItem) (result *domain.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("unexpected failure processing %s: %v", file.Filename, r)
		}
	}()

	text, err := uc.extractor.Extract(ctx, file)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract text", err)
	}
	if len(strings.TrimSpace(text)) < uc.minTextChars {
		return nil, domain.WrapError(domain.ErrExtraction, "extract text", errors.New("too little usable text"))
	}

	docType := uc.classifier.Classify(text)

	raw, used, err := uc.ai.Analyze(ctx, text, docType, task.AIEntitled)
	if err != nil {
		return nil, err
	}

	var analysis domain.AnalysisResult
	if used {
		analysis = parse.Parse(raw, docType)
	} else {
		analysis = parse.BasicResult(docType)
	}

	ok, err := uc.quota.CheckQuota(ctx, task.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("check quota: %w", err)
	}
	if !ok {
		return nil, domain.WrapError(domain.ErrQuotaExceeded, "charge analysis", errors.New("owner allowance exhausted"))
	}
	return &analysis, nil
}

func (uc *ProcessTaskUseCase) abort(ctx context.Context, taskID string, cause error) error {
	wrapped := domain.WrapError(domain.ErrOrchestration, "process task", cause)
	// The abort may itself be caused by ctx expiring, so the terminal write
	// runs on a detached context. Otherwise a timed-out task would stay
	// non-terminal forever.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := uc.repo.FinishTask(finishCtx, taskID, domain.TaskStatusFailed, cause.Error(), time.Now().UTC()); err != nil {
		uc.logger.Error("mark_task_failed_failed", "task_id", taskID, "error", err)
	}
	return wrapped
}

func completionMessage(taskID string, processed, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("Analysis task %s finished: %d files analyzed.", taskID, processed)
	}
	return fmt.Sprintf("Analysis task %s finished: %d files analyzed, %d failed.", taskID, processed, failed)
}
