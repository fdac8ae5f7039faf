package parse

import (
	"strings"

	"github.com/ramay1243/docscan/internal/core/domain"
)

type section int

const (
	sectionNone section = iota
	sectionLegal
	sectionFinancial
	sectionOperational
	sectionStrategic
	sectionRisks
	sectionRecommendations
	sectionAlternatives
	sectionConclusion
)

// headerPhrases is the fixed set of recognized section headers, longest
// phrases first so "legal analysis" wins over a bare "analysis"-style
// false positive in later entries.
var headerPhrases = []struct {
	phrase string
	sec    section
}{
	{"legal analysis", sectionLegal},
	{"financial analysis", sectionFinancial},
	{"operational analysis", sectionOperational},
	{"strategic analysis", sectionStrategic},
	{"recommendations", sectionRecommendations},
	{"alternatives", sectionAlternatives},
	{"conclusion", sectionConclusion},
	{"risks", sectionRisks},
}

func matchHeader(line string) (section, bool) {
	lowered := strings.ToLower(strings.TrimSpace(line))
	if lowered == "" {
		return sectionNone, false
	}
	for _, h := range headerPhrases {
		if strings.Contains(lowered, h.phrase) {
			return h.sec, true
		}
	}
	return sectionNone, false
}

// Sections reads the labeled-section answer format the analysis prompt
// asks for. Unknown lines before the first header are dropped; malformed
// entries inside a section are skipped rather than failing the parse.
type Sections struct{}

func (Sections) Parse(raw string, docType domain.DocumentType) domain.AnalysisResult {
	var result domain.AnalysisResult
	var legal, financial, operational, strategic, conclusion []string

	current := sectionNone
	for _, line := range strings.Split(raw, "\n") {
		if sec, ok := matchHeader(line); ok {
			current = sec
			// A header line may carry inline content after the colon.
			if rest := afterColon(line); rest != "" {
				line = rest
			} else {
				continue
			}
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch current {
		case sectionLegal:
			legal = append(legal, trimmed)
		case sectionFinancial:
			financial = append(financial, trimmed)
		case sectionOperational:
			operational = append(operational, trimmed)
		case sectionStrategic:
			strategic = append(strategic, trimmed)
		case sectionRisks:
			if risk, ok := parseRiskLine(trimmed); ok {
				result.Risks = append(result.Risks, risk)
			}
		case sectionRecommendations:
			if rec, ok := parseRecommendationLine(trimmed); ok {
				result.Recommendations = append(result.Recommendations, rec)
			}
		case sectionAlternatives:
			result.Alternatives = append(result.Alternatives, strings.TrimLeft(trimmed, "-* "))
		case sectionConclusion:
			conclusion = append(conclusion, trimmed)
		}
	}

	result.Commentary = domain.Commentary{
		Legal:       strings.Join(legal, " "),
		Financial:   strings.Join(financial, " "),
		Operational: strings.Join(operational, " "),
		Strategic:   strings.Join(strategic, " "),
	}
	result.Conclusion = strings.Join(conclusion, " ")
	return result
}

// parseRiskLine reads LEVEL|Title|Description. A level outside the enum
// discards the line.
func parseRiskLine(line string) (domain.RiskItem, bool) {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) < 2 {
		return domain.RiskItem{}, false
	}
	level, ok := domain.ParseRiskLevel(strings.ToUpper(strings.TrimSpace(strings.TrimLeft(parts[0], "-* "))))
	if !ok {
		return domain.RiskItem{}, false
	}
	risk := domain.RiskItem{
		Level: level,
		Title: strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		risk.Description = strings.TrimSpace(parts[2])
	}
	if risk.Title == "" {
		return domain.RiskItem{}, false
	}
	return risk, true
}

// parseRecommendationLine reads Action|Expected effect|Urgency.
func parseRecommendationLine(line string) (domain.Recommendation, bool) {
	parts := strings.SplitN(line, "|", 3)
	action := strings.TrimSpace(strings.TrimLeft(parts[0], "-* "))
	if action == "" {
		return domain.Recommendation{}, false
	}
	rec := domain.Recommendation{Action: action}
	if len(parts) > 1 {
		rec.Effect = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		rec.Urgency = strings.TrimSpace(parts[2])
	}
	return rec, true
}

func afterColon(line string) string {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}
