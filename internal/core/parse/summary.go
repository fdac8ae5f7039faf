package parse

import (
	"fmt"
	"strings"

	"github.com/ramay1243/docscan/internal/core/domain"
)

var summaryTemplates = map[domain.RiskLevel]struct {
	icon        string
	description string
	guidance    string
}{
	domain.RiskCritical: {
		icon:        "🔴",
		description: "Critical issues found",
		guidance:    "Do not sign or act on this document before the critical findings are resolved.",
	},
	domain.RiskHigh: {
		icon:        "🟠",
		description: "High-risk issues found",
		guidance:    "Involve a specialist before proceeding; the high-risk findings need changes.",
	},
	domain.RiskMedium: {
		icon:        "🟡",
		description: "Moderate issues found",
		guidance:    "Proceed with caution and address the flagged items during negotiation.",
	},
	domain.RiskLow: {
		icon:        "🟢",
		description: "No significant issues found",
		guidance:    "The document looks acceptable; standard review applies.",
	},
	domain.RiskInfo: {
		icon:        "⚪",
		description: "Informational review",
		guidance:    "Only an automated check ran; enable AI analysis for decision guidance.",
	},
}

// OverallLevel is the highest severity present among parsed risks.
// A result with no risks is LOW when the model answered and INFO when the
// analysis ran without AI.
func OverallLevel(risks []domain.RiskItem, aiUsed bool) domain.RiskLevel {
	if len(risks) == 0 {
		if aiUsed {
			return domain.RiskLow
		}
		return domain.RiskInfo
	}
	top := risks[0].Level
	for _, risk := range risks[1:] {
		if risk.Level.Severity() > top.Severity() {
			top = risk.Level
		}
	}
	return top
}

// BuildSummary synthesizes the executive summary from risk counts; it
// never copies model prose verbatim.
func BuildSummary(risks []domain.RiskItem, aiUsed bool) domain.ExecutiveSummary {
	level := OverallLevel(risks, aiUsed)
	tpl := summaryTemplates[level]

	return domain.ExecutiveSummary{
		OverallRisk: level,
		Icon:        tpl.icon,
		Description: fmt.Sprintf("%s: %s", tpl.description, countPhrase(risks)),
		Guidance:    tpl.guidance,
	}
}

func countPhrase(risks []domain.RiskItem) string {
	if len(risks) == 0 {
		return "no risks identified"
	}

	counts := map[domain.RiskLevel]int{}
	for _, risk := range risks {
		counts[risk.Level]++
	}

	order := []domain.RiskLevel{domain.RiskCritical, domain.RiskHigh, domain.RiskMedium, domain.RiskLow, domain.RiskInfo}
	var parts []string
	for _, level := range order {
		if counts[level] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[level], strings.ToLower(string(level))))
		}
	}
	return fmt.Sprintf("%s of %d total", strings.Join(parts, ", "), len(risks))
}
