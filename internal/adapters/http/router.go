// Package httpadapter exposes the task, comparison and report
// operations over HTTP.
package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ramay1243/docscan/internal/core/domain"
	"github.com/ramay1243/docscan/internal/core/ports"
	"github.com/ramay1243/docscan/internal/observability/metrics"
	"github.com/ramay1243/docscan/internal/report"
)

const (
	ownerHeader = "X-Owner-Id"

	serviceName = "api"
)

type Router struct {
	tasks    ports.TaskService
	compare  ports.ComparisonService
	repo     ports.TaskRepository
	renderer *report.Renderer
	metrics  *metrics.HTTPServerMetrics

	maxUploadBytes int64
	ratePerSec     int
}

type RouterConfig struct {
	MaxUploadBytes int64
	RatePerSec     int
}

func NewRouter(
	tasks ports.TaskService,
	compare ports.ComparisonService,
	repo ports.TaskRepository,
	renderer *report.Renderer,
	m *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Router{
		tasks:          tasks,
		compare:        compare,
		repo:           repo,
		renderer:       renderer,
		metrics:        m,
		maxUploadBytes: maxUploadBytes,
		ratePerSec:     cfg.RatePerSec,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/tasks", rt.createTask)
	mux.HandleFunc("/v1/tasks/", rt.taskSubresource)
	mux.HandleFunc("/v1/compare", rt.compareDocuments)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = rateLimitMiddleware(rt.ratePerSec, handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ownerID := strings.TrimSpace(r.Header.Get(ownerHeader))
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("header %s is required", ownerHeader))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	if err := r.ParseMultipartForm(rt.maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "multipart field 'files' is required")
		return
	}

	uploads := make([]ports.FileUpload, 0, len(headers))
	closers := make([]func() error, 0, len(headers))
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("open upload %s", header.Filename))
			return
		}
		closers = append(closers, f.Close)
		uploads = append(uploads, ports.FileUpload{Filename: header.Filename, Body: f})
	}

	task, err := rt.tasks.Create(r.Context(), ownerID, uploads)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordTaskCreated(serviceName, len(uploads))
	}
	writeJSON(w, http.StatusAccepted, task)
}

// taskSubresource handles GET /v1/tasks/{id} and
// GET /v1/tasks/{id}/report.xlsx.
func (rt *Router) taskSubresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/tasks/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "task id is required")
		return
	}
	if taskID, ok := strings.CutSuffix(rest, "/report.xlsx"); ok {
		rt.downloadReport(w, r, taskID)
		return
	}
	if strings.Contains(rest, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	rt.getTaskStatus(w, r, rest)
}

func (rt *Router) getTaskStatus(w http.ResponseWriter, r *http.Request, taskID string) {
	tier := domain.TierFull
	if r.URL.Query().Get("tier") == string(domain.TierRestricted) {
		tier = domain.TierRestricted
	}

	view, err := rt.tasks.GetStatus(r.Context(), taskID, tier)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) downloadReport(w http.ResponseWriter, r *http.Request, taskID string) {
	task, err := rt.repo.GetTask(r.Context(), taskID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if task.Status != domain.TaskStatusCompleted {
		writeError(w, http.StatusConflict, "report is available for completed tasks only")
		return
	}

	files, err := rt.repo.ListFiles(r.Context(), taskID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rep, err := rt.repo.GetReport(r.Context(), taskID)
	if err != nil && !domain.IsKind(err, domain.ErrTaskNotFound) {
		writeDomainError(w, err)
		return
	}

	data, err := rt.renderer.Render(task, files, rep)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(taskID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (rt *Router) compareDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ownerID := strings.TrimSpace(r.Header.Get(ownerHeader))
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("header %s is required", ownerHeader))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	original, originalHeader, err := r.FormFile("original")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'original' is required")
		return
	}
	defer original.Close()
	modified, modifiedHeader, err := r.FormFile("modified")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'modified' is required")
		return
	}
	defer modified.Close()

	result, err := rt.compare.Compare(
		r.Context(),
		ownerID,
		ports.FileUpload{Filename: originalHeader.Filename, Body: original},
		ports.FileUpload{Filename: modifiedHeader.Filename, Body: modified},
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordComparison(serviceName, result.Annotation != nil)
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, mapErrorToHTTPStatus(err), err.Error())
}
