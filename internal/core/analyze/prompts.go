package analyze

import (
	"fmt"
	"strings"

	"github.com/ramay1243/docscan/internal/core/domain"
)

// Bounds on how much of a change set is serialized into the annotation
// prompt. Anything beyond them is summarized by count only.
const (
	maxPromptAdded    = 5
	maxPromptRemoved  = 5
	maxPromptModified = 3
)

var typeExpertise = map[domain.DocumentType]string{
	domain.DocTypeContract:        "commercial contract review",
	domain.DocTypeInvoice:         "accounts payable and billing disputes",
	domain.DocTypeNDA:             "confidentiality and trade-secret agreements",
	domain.DocTypeEmployment:      "labor law and employment terms",
	domain.DocTypeLease:           "real-estate lease agreements",
	domain.DocTypeFinancialReport: "financial statement analysis",
	domain.DocTypeGeneral:         "general document review",
}

func buildAnalysisPrompt(text string, docType domain.DocumentType) (system, user string) {
	expertise := typeExpertise[docType]
	if expertise == "" {
		expertise = typeExpertise[domain.DocTypeGeneral]
	}

	system = fmt.Sprintf(`You are a risk analyst specializing in %s.
Answer in plain text with exactly these labeled sections, in order:
LEGAL ANALYSIS:
FINANCIAL ANALYSIS:
OPERATIONAL ANALYSIS:
STRATEGIC ANALYSIS:
RISKS:
RECOMMENDATIONS:
ALTERNATIVES:
CONCLUSION:

Inside RISKS, one risk per line as LEVEL|Title|Description where LEVEL is
one of CRITICAL, HIGH, MEDIUM, LOW, INFO.
Inside RECOMMENDATIONS, one per line as Action|Expected effect|Urgency.
No markdown, no extra sections.`, expertise)

	user = fmt.Sprintf("Analyze the following %s for risks.\n\nDocument:\n%s", docType.Name(), text)
	return system, user
}

func buildAnnotationPrompt(changes []domain.Change) (system, user string) {
	system = `You are a contract change reviewer.
Return a strict JSON object with keys:
overall_risk (one of CRITICAL, HIGH, MEDIUM, LOW, INFO),
changes (array of {index, level, rationale}),
summary (string).
No markdown, no extra keys.`

	var b strings.Builder
	var added, removed, modified int
	for idx, change := range changes {
		switch change.Type {
		case domain.ChangeAdded:
			if added >= maxPromptAdded {
				continue
			}
			added++
			fmt.Fprintf(&b, "[%d] added: %s\n", idx, change.To)
		case domain.ChangeRemoved:
			if removed >= maxPromptRemoved {
				continue
			}
			removed++
			fmt.Fprintf(&b, "[%d] removed: %s\n", idx, change.From)
		case domain.ChangeModified:
			if modified >= maxPromptModified {
				continue
			}
			modified++
			fmt.Fprintf(&b, "[%d] modified: %q -> %q\n", idx, change.From, change.To)
		}
	}

	user = fmt.Sprintf("Assess the risk of these document changes:\n\n%s", b.String())
	return system, user
}
