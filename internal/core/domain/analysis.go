package domain

// DocumentType is a closed set of supported document categories.
// Classification rules are ordered; the first matching type wins.
type DocumentType string

const (
	DocTypeContract        DocumentType = "contract"
	DocTypeInvoice         DocumentType = "invoice"
	DocTypeNDA             DocumentType = "nda"
	DocTypeEmployment      DocumentType = "employment"
	DocTypeLease           DocumentType = "lease"
	DocTypeFinancialReport DocumentType = "financial_report"
	DocTypeGeneral         DocumentType = "general"
)

var docTypeNames = map[DocumentType]string{
	DocTypeContract:        "Service contract",
	DocTypeInvoice:         "Invoice",
	DocTypeNDA:             "Non-disclosure agreement",
	DocTypeEmployment:      "Employment agreement",
	DocTypeLease:           "Lease agreement",
	DocTypeFinancialReport: "Financial report",
	DocTypeGeneral:         "General document",
}

func (t DocumentType) Name() string {
	if name, ok := docTypeNames[t]; ok {
		return name
	}
	return docTypeNames[DocTypeGeneral]
}

type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
	RiskInfo     RiskLevel = "INFO"
)

var riskSeverity = map[RiskLevel]int{
	RiskCritical: 4,
	RiskHigh:     3,
	RiskMedium:   2,
	RiskLow:      1,
	RiskInfo:     0,
}

// Severity orders levels for escalation: CRITICAL > HIGH > MEDIUM > LOW > INFO.
func (l RiskLevel) Severity() int {
	return riskSeverity[l]
}

// ParseRiskLevel maps a free-form token onto the closed enum.
// Unknown tokens are rejected, never coerced.
func ParseRiskLevel(raw string) (RiskLevel, bool) {
	switch RiskLevel(raw) {
	case RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskInfo:
		return RiskLevel(raw), true
	}
	return "", false
}

type ResultTier string

const (
	TierFull       ResultTier = "full"
	TierRestricted ResultTier = "restricted"
)

type RiskItem struct {
	Level       RiskLevel `json:"level"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

type Recommendation struct {
	Action  string `json:"action"`
	Effect  string `json:"effect"`
	Urgency string `json:"urgency"`
}

// Commentary holds the per-section expert notes extracted from the model
// answer. Empty sections stay empty.
type Commentary struct {
	Legal       string `json:"legal,omitempty"`
	Financial   string `json:"financial,omitempty"`
	Operational string `json:"operational,omitempty"`
	Strategic   string `json:"strategic,omitempty"`
}

type ExecutiveSummary struct {
	OverallRisk RiskLevel `json:"overall_risk"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	Guidance    string    `json:"guidance"`
}

// AnalysisResult is the structured outcome of analyzing one document.
type AnalysisResult struct {
	DocumentType     DocumentType     `json:"document_type"`
	DocumentTypeName string           `json:"document_type_name"`
	Risks            []RiskItem       `json:"risks"`
	Recommendations  []Recommendation `json:"recommendations,omitempty"`
	Commentary       Commentary       `json:"commentary"`
	Alternatives     []string         `json:"alternatives,omitempty"`
	Conclusion       string           `json:"conclusion,omitempty"`
	Summary          ExecutiveSummary `json:"summary"`
	AIUsed           bool             `json:"ai_used"`
	Tier             ResultTier       `json:"tier"`
}
