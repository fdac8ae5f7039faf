package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ramay1243/docscan/internal/core/analyze"
	"github.com/ramay1243/docscan/internal/core/domain"
)

type repoFake struct {
	mu       sync.Mutex
	task     *domain.Task
	files    []domain.FileItem
	results  map[string]domain.AnalysisResult
	report   *domain.TaskReport
	finished struct {
		status domain.TaskStatus
		errMsg string
	}
	fileStatuses map[string][]domain.FileStatus

	getErr        error
	listErr       error
	startedErr    error
	saveReportErr error

	// Mimics database/sql: writes fail once their context is done.
	failOnDoneCtx bool
}

func newRepoFake(task *domain.Task, files []domain.FileItem) *repoFake {
	return &repoFake{
		task:         task,
		files:        files,
		results:      map[string]domain.AnalysisResult{},
		fileStatuses: map[string][]domain.FileStatus{},
	}
}

func (f *repoFake) CreateTask(context.Context, *domain.Task, []domain.FileItem) error { return nil }

func (f *repoFake) GetTask(context.Context, string) (*domain.Task, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyTask := *f.task
	return &copyTask, nil
}

func (f *repoFake) ListFiles(context.Context, string) ([]domain.FileItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.FileItem, len(f.files))
	copy(out, f.files)
	return out, nil
}

func (f *repoFake) SetTaskStarted(context.Context, string, time.Time) error { return f.startedErr }

func (f *repoFake) UpdateTaskProgress(_ context.Context, _ string, processed, failed int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if processed < f.task.ProcessedFiles || failed < f.task.FailedFiles {
		return fmt.Errorf("counters moved backward: %d/%d -> %d/%d", f.task.ProcessedFiles, f.task.FailedFiles, processed, failed)
	}
	f.task.ProcessedFiles = processed
	f.task.FailedFiles = failed
	return nil
}

func (f *repoFake) FinishTask(ctx context.Context, _ string, status domain.TaskStatus, errMessage string, _ time.Time) error {
	if f.failOnDoneCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	f.finished.status = status
	f.finished.errMsg = errMessage
	f.task.Status = status
	return nil
}

func (f *repoFake) UpdateFileStatus(_ context.Context, fileID string, status domain.FileStatus, errMessage string) error {
	f.fileStatuses[fileID] = append(f.fileStatuses[fileID], status)
	for i := range f.files {
		if f.files[i].ID == fileID {
			f.files[i].Status = status
			f.files[i].Error = errMessage
		}
	}
	return nil
}

func (f *repoFake) SaveFileResult(_ context.Context, fileID string, result domain.AnalysisResult) error {
	f.results[fileID] = result
	return nil
}

func (f *repoFake) SaveReport(_ context.Context, _ string, report domain.TaskReport) error {
	if f.saveReportErr != nil {
		return f.saveReportErr
	}
	f.report = &report
	return nil
}

func (f *repoFake) GetReport(context.Context, string) (*domain.TaskReport, error) {
	if f.report == nil {
		return nil, errors.New("no report")
	}
	return f.report, nil
}

type extractorFake struct {
	texts  map[string]string
	errs   map[string]error
	panics map[string]bool
}

func (f *extractorFake) Extract(_ context.Context, item *domain.FileItem) (string, error) {
	if f.panics[item.Filename] {
		panic("extractor blew up")
	}
	if err, ok := f.errs[item.Filename]; ok {
		return "", err
	}
	return f.texts[item.Filename], nil
}

type classifierFake struct {
	docType domain.DocumentType
}

func (f *classifierFake) Classify(string) domain.DocumentType { return f.docType }

type completionFake struct {
	response string
	err      error
	calls    int
}

func (f *completionFake) Complete(context.Context, string, string, int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type quotaFake struct {
	allowed   bool
	aiOn      bool
	usageFor  []string
	checkErr  error
	denyAfter int
	checks    int
}

func (f *quotaFake) CheckQuota(context.Context, string) (bool, error) {
	f.checks++
	if f.checkErr != nil {
		return false, f.checkErr
	}
	if f.denyAfter > 0 && f.checks > f.denyAfter {
		return false, nil
	}
	return f.allowed, nil
}

func (f *quotaFake) RecordUsage(_ context.Context, ownerID string) error {
	f.usageFor = append(f.usageFor, ownerID)
	return nil
}

func (f *quotaFake) AIEntitled(context.Context, string) (bool, error) { return f.aiOn, nil }

type notifierFake struct {
	messages []string
	err      error
}

func (f *notifierFake) Notify(_ context.Context, _, message string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

const longText = "This agreement contains enough extractable text to pass the minimum length gate for analysis."

const aiAnswer = `RISKS:
CRITICAL|Uncapped liability|The liability clause has no ceiling.
RECOMMENDATIONS:
Cap liability|Bounds exposure|urgent`

func testTask(total int) *domain.Task {
	return &domain.Task{
		ID:         "task-1",
		OwnerID:    "owner-1",
		Status:     domain.TaskStatusPending,
		TotalFiles: total,
		AIEntitled: true,
		CreatedAt:  time.Now().UTC(),
	}
}

func testFiles(names ...string) []domain.FileItem {
	files := make([]domain.FileItem, 0, len(names))
	for i, name := range names {
		files = append(files, domain.FileItem{
			ID:       fmt.Sprintf("file-%d", i+1),
			TaskID:   "task-1",
			Filename: name,
			Status:   domain.FileStatusPending,
		})
	}
	return files
}

func newProcessUC(repo *repoFake, extractor *extractorFake, completion *completionFake, quota *quotaFake, notifier *notifierFake) *ProcessTaskUseCase {
	return NewProcessTaskUseCase(
		repo,
		extractor,
		&classifierFake{docType: domain.DocTypeContract},
		analyze.NewAdapter(completion, 0, 0),
		quota,
		notifier,
		nil,
		0,
	)
}

func TestProcessTaskAllFilesSucceed(t *testing.T) {
	repo := newRepoFake(testTask(2), testFiles("a.txt", "b.txt"))
	extractor := &extractorFake{texts: map[string]string{"a.txt": longText, "b.txt": longText}}
	quota := &quotaFake{allowed: true, aiOn: true}
	notifier := &notifierFake{}
	uc := newProcessUC(repo, extractor, &completionFake{response: aiAnswer}, quota, notifier)

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if repo.finished.status != domain.TaskStatusCompleted {
		t.Fatalf("task status = %s, want completed", repo.finished.status)
	}
	if repo.task.ProcessedFiles != 2 || repo.task.FailedFiles != 0 {
		t.Fatalf("counters = %d/%d", repo.task.ProcessedFiles, repo.task.FailedFiles)
	}
	if len(repo.results) != 2 {
		t.Fatalf("expected 2 stored results, got %d", len(repo.results))
	}
	if len(quota.usageFor) != 2 {
		t.Fatalf("expected 2 usage decrements, got %d", len(quota.usageFor))
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected completion notification")
	}
}

func TestProcessTaskPartialFailureInvariant(t *testing.T) {
	// 3 files, file 2 is an unsupported binary: the task still completes,
	// file 2 is failed with a non-empty extraction message.
	repo := newRepoFake(testTask(3), testFiles("a.txt", "b.exe", "c.txt"))
	extractor := &extractorFake{
		texts: map[string]string{"a.txt": longText, "c.txt": longText},
		errs:  map[string]error{"b.exe": errors.New("unsupported format: .exe")},
	}
	quota := &quotaFake{allowed: true, aiOn: true}
	uc := newProcessUC(repo, extractor, &completionFake{response: aiAnswer}, quota, &notifierFake{})

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if repo.finished.status != domain.TaskStatusCompleted {
		t.Fatalf("task status = %s, want completed despite file failure", repo.finished.status)
	}
	if repo.task.ProcessedFiles != 2 || repo.task.FailedFiles != 1 {
		t.Fatalf("counters = %d/%d, want 2/1", repo.task.ProcessedFiles, repo.task.FailedFiles)
	}

	var failedFile *domain.FileItem
	for i := range repo.files {
		if repo.files[i].Filename == "b.exe" {
			failedFile = &repo.files[i]
		}
	}
	if failedFile.Status != domain.FileStatusFailed || failedFile.Error == "" {
		t.Fatalf("failed file not recorded: %+v", failedFile)
	}
	if !strings.Contains(failedFile.Error, "extraction failed") {
		t.Fatalf("error not typed as extraction: %q", failedFile.Error)
	}
	if len(repo.report.Failures) != 1 || repo.report.Failures[0].Filename != "b.exe" {
		t.Fatalf("report failures wrong: %+v", repo.report.Failures)
	}
}

func TestProcessTaskTooLittleTextFailsFile(t *testing.T) {
	repo := newRepoFake(testTask(1), testFiles("short.txt"))
	extractor := &extractorFake{texts: map[string]string{"short.txt": "hi"}}
	uc := newProcessUC(repo, extractor, &completionFake{response: aiAnswer}, &quotaFake{allowed: true}, &notifierFake{})

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if repo.task.FailedFiles != 1 {
		t.Fatalf("short text must fail the file, counters = %d/%d", repo.task.ProcessedFiles, repo.task.FailedFiles)
	}
}

func TestProcessTaskNoEntitlementSkipsModel(t *testing.T) {
	task := testTask(1)
	task.AIEntitled = false
	repo := newRepoFake(task, testFiles("a.txt"))
	extractor := &extractorFake{texts: map[string]string{"a.txt": longText}}
	completion := &completionFake{response: aiAnswer}
	uc := newProcessUC(repo, extractor, completion, &quotaFake{allowed: true}, &notifierFake{})

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if completion.calls != 0 {
		t.Fatalf("model must not be called without entitlement, got %d calls", completion.calls)
	}
	result := repo.results["file-1"]
	if result.AIUsed {
		t.Fatalf("expected ai_used=false result")
	}
	if len(result.Risks) != 1 || result.Risks[0].Level != domain.RiskInfo {
		t.Fatalf("expected single INFO risk, got %+v", result.Risks)
	}
}

func TestProcessTaskAIFailureFailsFileNotTask(t *testing.T) {
	repo := newRepoFake(testTask(2), testFiles("a.txt", "b.txt"))
	extractor := &extractorFake{texts: map[string]string{"a.txt": longText, "b.txt": longText}}
	uc := newProcessUC(repo, extractor, &completionFake{err: errors.New("503 from upstream")}, &quotaFake{allowed: true, aiOn: true}, &notifierFake{})

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if repo.finished.status != domain.TaskStatusCompleted {
		t.Fatalf("task must complete, got %s", repo.finished.status)
	}
	if repo.task.FailedFiles != 2 {
		t.Fatalf("both files should fail on AI unavailability, counters = %d/%d", repo.task.ProcessedFiles, repo.task.FailedFiles)
	}
	for _, file := range repo.files {
		if !strings.Contains(file.Error, "ai unavailable") {
			t.Fatalf("error not typed: %q", file.Error)
		}
	}
}

func TestProcessTaskQuotaExhaustionFailsFileOnly(t *testing.T) {
	repo := newRepoFake(testTask(2), testFiles("a.txt", "b.txt"))
	extractor := &extractorFake{texts: map[string]string{"a.txt": longText, "b.txt": longText}}
	quota := &quotaFake{allowed: true, aiOn: true, denyAfter: 1}
	uc := newProcessUC(repo, extractor, &completionFake{response: aiAnswer}, quota, &notifierFake{})

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if repo.task.ProcessedFiles != 1 || repo.task.FailedFiles != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", repo.task.ProcessedFiles, repo.task.FailedFiles)
	}
	if repo.finished.status != domain.TaskStatusCompleted {
		t.Fatalf("quota exhaustion must not fail the task")
	}
}

func TestProcessTaskPanicIsolatedToFile(t *testing.T) {
	repo := newRepoFake(testTask(2), testFiles("boom.txt", "ok.txt"))
	extractor := &extractorFake{
		texts:  map[string]string{"ok.txt": longText},
		panics: map[string]bool{"boom.txt": true},
	}
	uc := newProcessUC(repo, extractor, &completionFake{response: aiAnswer}, &quotaFake{allowed: true, aiOn: true}, &notifierFake{})

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if repo.task.ProcessedFiles != 1 || repo.task.FailedFiles != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", repo.task.ProcessedFiles, repo.task.FailedFiles)
	}
}

func TestProcessTaskStorageFaultAbortsTask(t *testing.T) {
	repo := newRepoFake(testTask(1), testFiles("a.txt"))
	repo.listErr = errors.New("connection reset")
	uc := newProcessUC(repo, &extractorFake{}, &completionFake{}, &quotaFake{allowed: true}, &notifierFake{})

	err := uc.ProcessTask(context.Background(), "task-1")
	if !domain.IsKind(err, domain.ErrOrchestration) {
		t.Fatalf("expected orchestration error, got %v", err)
	}
	if repo.finished.status != domain.TaskStatusFailed {
		t.Fatalf("task status = %s, want failed", repo.finished.status)
	}
	if repo.finished.errMsg == "" {
		t.Fatalf("task-level error message must be recorded")
	}
}

func TestProcessTaskCancellationBetweenFiles(t *testing.T) {
	repo := newRepoFake(testTask(2), testFiles("a.txt", "b.txt"))
	extractor := &extractorFake{texts: map[string]string{"a.txt": longText, "b.txt": longText}}
	uc := newProcessUC(repo, extractor, &completionFake{response: aiAnswer}, &quotaFake{allowed: true, aiOn: true}, &notifierFake{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := uc.ProcessTask(ctx, "task-1")
	if !domain.IsKind(err, domain.ErrOrchestration) {
		t.Fatalf("expected orchestration error on cancellation, got %v", err)
	}
	if repo.finished.status != domain.TaskStatusFailed {
		t.Fatalf("cancelled task should end failed, got %s", repo.finished.status)
	}
}

func TestProcessTaskCancelledContextStillReachesTerminalState(t *testing.T) {
	repo := newRepoFake(testTask(2), testFiles("a.txt", "b.txt"))
	repo.failOnDoneCtx = true
	extractor := &extractorFake{texts: map[string]string{"a.txt": longText, "b.txt": longText}}
	uc := newProcessUC(repo, extractor, &completionFake{response: aiAnswer}, &quotaFake{allowed: true, aiOn: true}, &notifierFake{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := uc.ProcessTask(ctx, "task-1")
	if !domain.IsKind(err, domain.ErrOrchestration) {
		t.Fatalf("expected orchestration error on cancellation, got %v", err)
	}
	// The terminal write must survive the cancellation that caused it.
	if repo.finished.status != domain.TaskStatusFailed {
		t.Fatalf("cancelled task left non-terminal, status %q", repo.finished.status)
	}
}

func TestProcessTaskTerminalTaskIsNoop(t *testing.T) {
	task := testTask(1)
	task.Status = domain.TaskStatusCompleted
	repo := newRepoFake(task, testFiles("a.txt"))
	uc := newProcessUC(repo, &extractorFake{}, &completionFake{}, &quotaFake{}, &notifierFake{})

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("redelivery must be a no-op, got %v", err)
	}
	if len(repo.fileStatuses) != 0 {
		t.Fatalf("no file should be touched on redelivery")
	}
}

func TestProcessTaskReportFailureDoesNotChangeStatus(t *testing.T) {
	repo := newRepoFake(testTask(1), testFiles("a.txt"))
	repo.saveReportErr = errors.New("disk full")
	extractor := &extractorFake{texts: map[string]string{"a.txt": longText}}
	uc := newProcessUC(repo, extractor, &completionFake{response: aiAnswer}, &quotaFake{allowed: true, aiOn: true}, &notifierFake{})

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	if repo.finished.status != domain.TaskStatusCompleted {
		t.Fatalf("report failure must not change terminal status, got %s", repo.finished.status)
	}
}

func TestProcessTaskFileNeverMovesBackward(t *testing.T) {
	repo := newRepoFake(testTask(1), testFiles("a.txt"))
	extractor := &extractorFake{texts: map[string]string{"a.txt": longText}}
	uc := newProcessUC(repo, extractor, &completionFake{response: aiAnswer}, &quotaFake{allowed: true, aiOn: true}, &notifierFake{})

	if err := uc.ProcessTask(context.Background(), "task-1"); err != nil {
		t.Fatalf("ProcessTask() error = %v", err)
	}
	transitions := repo.fileStatuses["file-1"]
	if len(transitions) != 2 || transitions[0] != domain.FileStatusProcessing || transitions[1] != domain.FileStatusCompleted {
		t.Fatalf("unexpected transition sequence: %v", transitions)
	}
}
