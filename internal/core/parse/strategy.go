// Package parse converts free-text model answers into structured analysis
// results. Parsing is a total function: any input, including empty or pure
// noise, yields a valid result, at worst with empty risk and
// recommendation lists.
package parse

import (
	"strings"

	"github.com/ramay1243/docscan/internal/core/domain"
)

// Strategy is one way of reading a raw answer. The structured section
// parser and the heuristic fallback both implement it so each can be
// tested on its own.
type Strategy interface {
	Parse(raw string, docType domain.DocumentType) domain.AnalysisResult
}

// LooksStructured reports whether the raw answer carries at least one
// recognizable section header and can go through the section parser.
func LooksStructured(raw string) bool {
	for _, line := range strings.Split(raw, "\n") {
		if _, ok := matchHeader(line); ok {
			return true
		}
	}
	return false
}

// Parse picks the strategy by inspecting the answer and finishes the
// result with derived fields.
func Parse(raw string, docType domain.DocumentType) domain.AnalysisResult {
	var strategy Strategy = Sections{}
	if !LooksStructured(raw) {
		strategy = Heuristic{}
	}
	result := strategy.Parse(raw, docType)
	finalize(&result, docType, true)
	return result
}

// BasicResult is the non-AI analysis produced when the caller is not
// entitled to model-assisted review.
func BasicResult(docType domain.DocumentType) domain.AnalysisResult {
	result := domain.AnalysisResult{
		Risks: []domain.RiskItem{
			{
				Level:       domain.RiskInfo,
				Title:       "Automated review only",
				Description: "The document was classified but not analyzed by the language model. Upgrade the plan for a full risk review.",
			},
		},
	}
	finalize(&result, docType, false)
	return result
}

func finalize(result *domain.AnalysisResult, docType domain.DocumentType, aiUsed bool) {
	result.DocumentType = docType
	result.DocumentTypeName = docType.Name()
	result.AIUsed = aiUsed
	result.Tier = domain.TierFull
	result.Summary = BuildSummary(result.Risks, aiUsed)
}
