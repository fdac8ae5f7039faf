package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ramay1243/docscan/internal/core/domain"
	"github.com/ramay1243/docscan/internal/core/ports"
)

type storageFake struct {
	saved   map[string][]byte
	deleted []string
	err     error
}

func newStorageFake() *storageFake {
	return &storageFake{saved: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, _ := io.ReadAll(data)
	f.saved[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.saved[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	delete(f.saved, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishTaskCreated(_ context.Context, taskID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, taskID)
	return nil
}

func (f *queueFake) SubscribeTaskCreated(context.Context, func(context.Context, string) error) error {
	return nil
}

type createRepoFake struct {
	repoFake
	createdTask  *domain.Task
	createdFiles []domain.FileItem
	createErr    error
}

func (f *createRepoFake) CreateTask(_ context.Context, task *domain.Task, files []domain.FileItem) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.createdTask = task
	f.createdFiles = files
	return nil
}

func uploads(names ...string) []ports.FileUpload {
	out := make([]ports.FileUpload, 0, len(names))
	for _, name := range names {
		out = append(out, ports.FileUpload{Filename: name, Body: strings.NewReader("content of " + name)})
	}
	return out
}

func TestCreateTaskStoresFilesAndPublishes(t *testing.T) {
	repo := &createRepoFake{}
	storage := newStorageFake()
	queue := &queueFake{}
	uc := NewCreateTaskUseCase(repo, storage, queue, &quotaFake{aiOn: true})

	task, err := uc.Create(context.Background(), "owner-1", uploads("a.pdf", "b report.txt"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Status != domain.TaskStatusPending || task.TotalFiles != 2 {
		t.Fatalf("unexpected task: %+v", task)
	}
	if !task.AIEntitled {
		t.Fatalf("entitlement not captured at submission time")
	}
	if len(storage.saved) != 2 {
		t.Fatalf("expected 2 stored blobs, got %d", len(storage.saved))
	}
	if len(repo.createdFiles) != 2 {
		t.Fatalf("expected 2 file rows, got %d", len(repo.createdFiles))
	}
	for _, file := range repo.createdFiles {
		if file.Status != domain.FileStatusPending || file.TaskID != task.ID {
			t.Fatalf("bad file row: %+v", file)
		}
		if strings.Contains(file.StoragePath, " ") {
			t.Fatalf("storage key not sanitized: %q", file.StoragePath)
		}
	}
	if len(queue.published) != 1 || queue.published[0] != task.ID {
		t.Fatalf("task id not published: %v", queue.published)
	}
}

func TestCreateTaskRejectsEmptySubmission(t *testing.T) {
	uc := NewCreateTaskUseCase(&createRepoFake{}, newStorageFake(), &queueFake{}, &quotaFake{})
	_, err := uc.Create(context.Background(), "owner-1", nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err = uc.Create(context.Background(), " ", uploads("a.txt"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input on blank owner, got %v", err)
	}
}

func TestCreateTaskPropagatesStorageError(t *testing.T) {
	storage := newStorageFake()
	storage.err = errors.New("disk full")
	uc := NewCreateTaskUseCase(&createRepoFake{}, storage, &queueFake{}, &quotaFake{})
	if _, err := uc.Create(context.Background(), "owner-1", uploads("a.txt")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"simple.pdf":        "simple.pdf",
		"with space.txt":    "with_space.txt",
		"../../passwd":      "passwd",
		"весь-отчет.docx":   "____-_____.docx",
		"":                  "document.bin",
		".":                 "document.bin",
		"..":                "document.bin",
		"report (final).md": "report__final_.md",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
