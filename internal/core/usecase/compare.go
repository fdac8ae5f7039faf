package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ramay1243/docscan/internal/core/analyze"
	"github.com/ramay1243/docscan/internal/core/diff"
	"github.com/ramay1243/docscan/internal/core/domain"
	"github.com/ramay1243/docscan/internal/core/ports"
)

// CompareUseCase runs the two-document pipeline: extraction on both
// sides, the line diff, and the optional AI risk annotation.
type CompareUseCase struct {
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	ai        *analyze.Adapter
	quota     ports.QuotaService
}

func NewCompareUseCase(
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	ai *analyze.Adapter,
	quota ports.QuotaService,
) *CompareUseCase {
	return &CompareUseCase{
		storage:   storage,
		extractor: extractor,
		ai:        ai,
		quota:     quota,
	}
}

// Compare diffs two uploaded versions. Extraction failure on either side
// is a typed error: there is no partial comparison. Annotation failure is
// non-fatal and leaves the result unannotated.
func (uc *CompareUseCase) Compare(ctx context.Context, ownerID string, original, modified ports.FileUpload) (*domain.ComparisonResult, error) {
	originalText, err := uc.extractUpload(ctx, original)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract original", err)
	}
	modifiedText, err := uc.extractUpload(ctx, modified)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "extract modified", err)
	}

	result := diff.Compare(originalText, modifiedText)

	entitled, err := uc.quota.AIEntitled(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check ai entitlement: %w", err)
	}
	if entitled && result.Added+result.Removed+result.Modified > 0 {
		raw, used, annErr := uc.ai.AnnotateChanges(ctx, result.Changes, true)
		if annErr == nil && used {
			result.Annotation = parseAnnotation(raw)
		}
	}
	return &result, nil
}

func (uc *CompareUseCase) extractUpload(ctx context.Context, upload ports.FileUpload) (string, error) {
	key := fmt.Sprintf("compare_%s_%s", uuid.NewString(), sanitizeFilename(upload.Filename))
	if err := uc.storage.Save(ctx, key, upload.Body); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	// Comparison uploads are throwaway; the object lives only for the
	// duration of the extraction.
	defer func() {
		_ = uc.storage.Delete(context.WithoutCancel(ctx), key)
	}()

	item := &domain.FileItem{
		ID:          key,
		Filename:    upload.Filename,
		StoragePath: key,
		CreatedAt:   time.Now().UTC(),
	}
	return uc.extractor.Extract(ctx, item)
}

// parseAnnotation reads the model's JSON leniently: any shape it cannot
// make sense of yields nil rather than an error.
func parseAnnotation(raw string) *domain.RiskAnnotation {
	var payload struct {
		OverallRisk string `json:"overall_risk"`
		Changes     []struct {
			Index     int    `json:"index"`
			Level     string `json:"level"`
			Rationale string `json:"rationale"`
		} `json:"changes"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil
	}

	overall, ok := domain.ParseRiskLevel(strings.ToUpper(strings.TrimSpace(payload.OverallRisk)))
	if !ok {
		return nil
	}

	annotation := &domain.RiskAnnotation{
		OverallRisk: overall,
		Summary:     strings.TrimSpace(payload.Summary),
	}
	for _, change := range payload.Changes {
		level, ok := domain.ParseRiskLevel(strings.ToUpper(strings.TrimSpace(change.Level)))
		if !ok {
			continue
		}
		annotation.Changes = append(annotation.Changes, domain.ChangeRisk{
			Index:     change.Index,
			Level:     level,
			Rationale: strings.TrimSpace(change.Rationale),
		})
	}
	return annotation
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
