package usecase

import (
	"time"

	"github.com/ramay1243/docscan/internal/core/domain"
)

// BuildReport aggregates a finished file set: counts by document type,
// counts by risk level, and the list of failures with their reasons.
func BuildReport(taskID string, files []domain.FileItem) domain.TaskReport {
	report := domain.TaskReport{
		TaskID:         taskID,
		ByDocumentType: map[string]int{},
		ByRiskLevel:    map[string]int{},
		GeneratedAt:    time.Now().UTC(),
	}

	for _, file := range files {
		switch file.Status {
		case domain.FileStatusFailed:
			report.Failures = append(report.Failures, domain.FileFailure{
				Filename: file.Filename,
				Error:    file.Error,
			})
		case domain.FileStatusCompleted:
			if file.Result == nil {
				continue
			}
			report.ByDocumentType[string(file.Result.DocumentType)]++
			for _, risk := range file.Result.Risks {
				report.ByRiskLevel[string(risk.Level)]++
			}
		}
	}
	return report
}
