// Package classify assigns a document type to extracted text using an
// ordered keyword ruleset. Classification is deterministic: earlier rules
// win ties, and a text matching nothing falls back to the general type.
package classify

import (
	"strings"

	"github.com/ramay1243/docscan/internal/core/domain"
)

// Rule binds a document type to the keywords that indicate it. A rule
// matches when any keyword occurs in the text, case-insensitively.
type Rule struct {
	Type     domain.DocumentType
	Keywords []string
}

// builtinRules is the static priority-ordered table. Order matters: a lease
// mentions "agreement" too, so more specific types come first.
var builtinRules = []Rule{
	{Type: domain.DocTypeNDA, Keywords: []string{"non-disclosure", "confidentiality agreement", "nda"}},
	{Type: domain.DocTypeEmployment, Keywords: []string{"employment agreement", "employment contract", "employee", "employer"}},
	{Type: domain.DocTypeLease, Keywords: []string{"lease", "landlord", "tenant", "rental"}},
	{Type: domain.DocTypeInvoice, Keywords: []string{"invoice", "amount due", "payable to", "bill to"}},
	{Type: domain.DocTypeFinancialReport, Keywords: []string{"balance sheet", "income statement", "cash flow", "fiscal year"}},
	{Type: domain.DocTypeContract, Keywords: []string{"contract", "agreement", "party of the first part", "hereinafter"}},
}

// Table is a compiled ruleset implementing ports.DocumentClassifier.
type Table struct {
	rules []Rule
}

// NewTable builds a classifier from the built-in rules plus optional
// extensions. Extensions are appended after the built-ins and so never
// shadow them.
func NewTable(extra ...Rule) *Table {
	rules := make([]Rule, 0, len(builtinRules)+len(extra))
	rules = append(rules, builtinRules...)
	rules = append(rules, extra...)
	return &Table{rules: rules}
}

// Classify returns the first rule whose keyword appears in the text.
func (t *Table) Classify(text string) domain.DocumentType {
	lowered := strings.ToLower(text)
	for _, rule := range t.rules {
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				return rule.Type
			}
		}
	}
	return domain.DocTypeGeneral
}
