package usecase

import (
	"testing"

	"github.com/ramay1243/docscan/internal/core/domain"
)

func TestBuildReportAggregates(t *testing.T) {
	files := []domain.FileItem{
		{
			Filename: "a.pdf",
			Status:   domain.FileStatusCompleted,
			Result: &domain.AnalysisResult{
				DocumentType: domain.DocTypeContract,
				Risks: []domain.RiskItem{
					{Level: domain.RiskCritical},
					{Level: domain.RiskMedium},
				},
			},
		},
		{
			Filename: "b.pdf",
			Status:   domain.FileStatusCompleted,
			Result: &domain.AnalysisResult{
				DocumentType: domain.DocTypeContract,
				Risks:        []domain.RiskItem{{Level: domain.RiskMedium}},
			},
		},
		{Filename: "c.exe", Status: domain.FileStatusFailed, Error: "unsupported format"},
	}

	report := BuildReport("task-1", files)
	if report.ByDocumentType["contract"] != 2 {
		t.Fatalf("by type = %v", report.ByDocumentType)
	}
	if report.ByRiskLevel["CRITICAL"] != 1 || report.ByRiskLevel["MEDIUM"] != 2 {
		t.Fatalf("by level = %v", report.ByRiskLevel)
	}
	if len(report.Failures) != 1 || report.Failures[0].Error != "unsupported format" {
		t.Fatalf("failures = %+v", report.Failures)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport("task-1", nil)
	if len(report.ByDocumentType) != 0 || len(report.ByRiskLevel) != 0 || report.Failures != nil {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
