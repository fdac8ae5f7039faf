package parse

import (
	"strings"

	"github.com/ramay1243/docscan/internal/core/domain"
)

// minCaptureLen is how long a line must be to be grabbed as the body text
// for a preceding cue line.
const minCaptureLen = 30

var riskCues = []string{"risk", "problem", "danger", "concern", "violation"}

var recommendationCues = []string{"recommend", "should", "advise", "suggest"}

// Heuristic is the fallback for answers with no recognizable section
// headers. It scans for risk and recommendation keyword cues and greedily
// captures the next sufficiently long line as the associated text. This is
// intentionally approximate; its only guarantee is that it never fails.
type Heuristic struct{}

func (Heuristic) Parse(raw string, docType domain.DocumentType) domain.AnalysisResult {
	var result domain.AnalysisResult

	lines := strings.Split(raw, "\n")
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		lowered := strings.ToLower(trimmed)

		switch {
		case containsAny(lowered, riskCues):
			body, skip := captureNext(lines, i+1)
			result.Risks = append(result.Risks, domain.RiskItem{
				Level:       domain.RiskMedium,
				Title:       clip(trimmed, 120),
				Description: body,
			})
			i += skip
		case containsAny(lowered, recommendationCues):
			body, skip := captureNext(lines, i+1)
			result.Recommendations = append(result.Recommendations, domain.Recommendation{
				Action: clip(trimmed, 120),
				Effect: body,
			})
			i += skip
		}
	}
	return result
}

func containsAny(line string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(line, cue) {
			return true
		}
	}
	return false
}

// captureNext returns the first following line long enough to serve as
// body text, and how many lines the caller should skip.
func captureNext(lines []string, from int) (string, int) {
	for offset, j := 1, from; j < len(lines); j, offset = j+1, offset+1 {
		candidate := strings.TrimSpace(lines[j])
		if candidate == "" {
			continue
		}
		if len(candidate) >= minCaptureLen {
			return candidate, offset
		}
		return "", 0
	}
	return "", 0
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
