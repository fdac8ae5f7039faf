// Package redact derives the restricted guest view of an analysis result.
package redact

import (
	"fmt"

	"github.com/ramay1243/docscan/internal/core/domain"
)

const (
	maxSevereRisks = 3
	maxAnyRisks    = 2
)

// Redact projects a full result onto the restricted tier: only the top
// severe risks survive, recommendations are dropped, and long-form
// commentary is replaced with a one-line synthesis. Redacting an already
// restricted result is a no-op.
func Redact(full domain.AnalysisResult) domain.AnalysisResult {
	if full.Tier == domain.TierRestricted {
		return full
	}

	out := domain.AnalysisResult{
		DocumentType:     full.DocumentType,
		DocumentTypeName: full.DocumentTypeName,
		Risks:            selectRisks(full.Risks),
		Summary:          full.Summary,
		AIUsed:           full.AIUsed,
		Tier:             domain.TierRestricted,
	}
	out.Commentary = domain.Commentary{
		Legal: summaryLine(full),
	}
	return out
}

func selectRisks(risks []domain.RiskItem) []domain.RiskItem {
	var severe []domain.RiskItem
	for _, risk := range risks {
		if risk.Level == domain.RiskCritical || risk.Level == domain.RiskHigh {
			severe = append(severe, risk)
			if len(severe) == maxSevereRisks {
				return severe
			}
		}
	}
	if len(severe) > 0 {
		return severe
	}
	if len(risks) > maxAnyRisks {
		risks = risks[:maxAnyRisks]
	}
	return append([]domain.RiskItem(nil), risks...)
}

func summaryLine(full domain.AnalysisResult) string {
	return fmt.Sprintf("Overall risk %s: %d findings total. Full commentary and recommendations are available on the full tier.",
		full.Summary.OverallRisk, len(full.Risks))
}
