package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ramay1243/docscan/internal/core/domain"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *TaskRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS analysis_tasks (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	status TEXT NOT NULL,
	total_files INTEGER NOT NULL,
	processed_files INTEGER NOT NULL DEFAULT 0,
	failed_files INTEGER NOT NULL DEFAULT 0,
	ai_entitled BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS analysis_files (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL REFERENCES analysis_tasks(id),
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	result JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS task_reports (
	task_id TEXT PRIMARY KEY REFERENCES analysis_tasks(id),
	report JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_tasks_owner ON analysis_tasks(owner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_files_task ON analysis_files(task_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// CreateTask inserts the task and all its file rows in one transaction,
// so a task is never visible with a partial file set.
func (r *TaskRepository) CreateTask(ctx context.Context, task *domain.Task, files []domain.FileItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create task tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO analysis_tasks (id, owner_id, status, total_files, processed_files, failed_files, ai_entitled, error_message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, task.ID, task.OwnerID, string(task.Status), task.TotalFiles, task.ProcessedFiles, task.FailedFiles, task.AIEntitled, task.Error, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	for _, file := range files {
		_, err = tx.ExecContext(ctx, `
INSERT INTO analysis_files (id, task_id, filename, storage_path, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, file.ID, file.TaskID, file.Filename, file.StoragePath, string(file.Status), file.Error, file.CreatedAt, file.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert file %s: %w", file.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create task tx: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, status, total_files, processed_files, failed_files, ai_entitled, error_message, created_at, started_at, completed_at
FROM analysis_tasks
WHERE id = $1
`, taskID)

	var task domain.Task
	var status string
	err := row.Scan(
		&task.ID, &task.OwnerID, &status, &task.TotalFiles, &task.ProcessedFiles, &task.FailedFiles,
		&task.AIEntitled, &task.Error, &task.CreatedAt, &task.StartedAt, &task.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrTaskNotFound, "get task", fmt.Errorf("id=%s", taskID))
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Status = domain.TaskStatus(status)
	return &task, nil
}

func (r *TaskRepository) ListFiles(ctx context.Context, taskID string) ([]domain.FileItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, task_id, filename, storage_path, status, result, error_message, created_at, updated_at
FROM analysis_files
WHERE task_id = $1
ORDER BY created_at, id
`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	out := make([]domain.FileItem, 0)
	for rows.Next() {
		var file domain.FileItem
		var status string
		var resultRaw []byte
		err := rows.Scan(
			&file.ID, &file.TaskID, &file.Filename, &file.StoragePath, &status,
			&resultRaw, &file.Error, &file.CreatedAt, &file.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		file.Status = domain.FileStatus(status)
		if len(resultRaw) > 0 {
			var result domain.AnalysisResult
			if err := json.Unmarshal(resultRaw, &result); err != nil {
				return nil, fmt.Errorf("unmarshal file result: %w", err)
			}
			file.Result = &result
		}
		out = append(out, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return out, nil
}

func (r *TaskRepository) SetTaskStarted(ctx context.Context, taskID string, startedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE analysis_tasks
SET status = $2, started_at = $3
WHERE id = $1
`, taskID, string(domain.TaskStatusProcessing), startedAt)
	if err != nil {
		return fmt.Errorf("set task started: %w", err)
	}
	return requireRow(result, taskID)
}

func (r *TaskRepository) UpdateTaskProgress(ctx context.Context, taskID string, processed, failed int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE analysis_tasks
SET processed_files = $2, failed_files = $3
WHERE id = $1
`, taskID, processed, failed)
	if err != nil {
		return fmt.Errorf("update task progress: %w", err)
	}
	return requireRow(result, taskID)
}

func (r *TaskRepository) FinishTask(ctx context.Context, taskID string, status domain.TaskStatus, errMessage string, completedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE analysis_tasks
SET status = $2, error_message = $3, completed_at = $4
WHERE id = $1
`, taskID, string(status), errMessage, completedAt)
	if err != nil {
		return fmt.Errorf("finish task: %w", err)
	}
	return requireRow(result, taskID)
}

func (r *TaskRepository) UpdateFileStatus(ctx context.Context, fileID string, status domain.FileStatus, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE analysis_files
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, fileID, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update file status: %w", err)
	}
	return nil
}

func (r *TaskRepository) SaveFileResult(ctx context.Context, fileID string, result domain.AnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal file result: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
UPDATE analysis_files
SET result = $2, updated_at = $3
WHERE id = $1
`, fileID, resultJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save file result: %w", err)
	}
	return nil
}

func (r *TaskRepository) SaveReport(ctx context.Context, taskID string, report domain.TaskReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO task_reports (task_id, report, generated_at)
VALUES ($1,$2,$3)
ON CONFLICT (task_id) DO UPDATE SET report = EXCLUDED.report, generated_at = EXCLUDED.generated_at
`, taskID, reportJSON, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetReport(ctx context.Context, taskID string) (*domain.TaskReport, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT report
FROM task_reports
WHERE task_id = $1
`, taskID)

	var reportRaw []byte
	if err := row.Scan(&reportRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrTaskNotFound, "get report", fmt.Errorf("task=%s", taskID))
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	var report domain.TaskReport
	if err := json.Unmarshal(reportRaw, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

func requireRow(result sql.Result, taskID string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrTaskNotFound, "update task", fmt.Errorf("id=%s", taskID))
	}
	return nil
}
