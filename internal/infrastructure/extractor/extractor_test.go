package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/ramay1243/docscan/internal/core/domain"
)

type storageFake struct {
	objects map[string][]byte
}

func (s *storageFake) Save(ctx context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = data
	return nil
}

func (s *storageFake) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *storageFake) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func fileFor(name, path string) *domain.FileItem {
	return &domain.FileItem{ID: "f-1", TaskID: "t-1", Filename: name, StoragePath: path}
}

func TestExtractPlaintext(t *testing.T) {
	store := &storageFake{objects: map[string][]byte{"k1": []byte("contract between parties")}}
	ext := New(store)

	got, err := ext.Extract(context.Background(), fileFor("doc.txt", "k1"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "contract between parties" {
		t.Fatalf("Extract() = %q", got)
	}
}

func TestExtractRejectsBinaryAsText(t *testing.T) {
	store := &storageFake{objects: map[string][]byte{"k1": {0xff, 0xfe, 0x00, 0x80}}}
	ext := New(store)

	_, err := ext.Extract(context.Background(), fileFor("doc.txt", "k1"))
	if err == nil || !strings.Contains(err.Error(), "utf-8") {
		t.Fatalf("expected utf-8 error, got %v", err)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	store := &storageFake{objects: map[string][]byte{"k1": []byte("x")}}
	ext := New(store)

	_, err := ext.Extract(context.Background(), fileFor("tool.exe", "k1"))
	if err == nil || !strings.Contains(err.Error(), "unsupported file type") {
		t.Fatalf("expected unsupported type error, got %v", err)
	}
}

func TestExtractMissingObject(t *testing.T) {
	ext := New(&storageFake{})

	_, err := ext.Extract(context.Background(), fileFor("doc.txt", "gone"))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	_, _ = w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>First paragraph</w:t></w:r></w:p><w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	store := &storageFake{objects: map[string][]byte{"k1": buf.Bytes()}}
	ext := New(store)

	got, err := ext.Extract(context.Background(), fileFor("doc.docx", "k1"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(got, "First paragraph") || !strings.Contains(got, "Second paragraph") {
		t.Fatalf("Extract() = %q", got)
	}
	if !strings.Contains(got, "\n") {
		t.Fatalf("expected paragraph break in %q", got)
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	store := &storageFake{objects: map[string][]byte{"k1": []byte("not a pdf at all")}}
	ext := New(store)

	_, err := ext.Extract(context.Background(), fileFor("doc.pdf", "k1"))
	if err == nil {
		t.Fatalf("expected error for corrupt pdf")
	}
}

func TestExtractCancelledContext(t *testing.T) {
	store := &storageFake{objects: map[string][]byte{"k1": []byte("text")}}
	ext := New(store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ext.Extract(ctx, fileFor("doc.txt", "k1")); err == nil {
		t.Fatalf("expected context error")
	}
}
