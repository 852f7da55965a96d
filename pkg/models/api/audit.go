package api

type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
	SeverityInfo   Severity = "INFO"
	SeverityError  Severity = "ERROR"
)

type Finding struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	File     string   `json:"file"`
	Service  string   `json:"service,omitempty"`
}

type AuditReport struct {
	Findings      []Finding        `json:"findings"`
	Summary       map[Severity]int `json:"summary"`
	TotalFiles    int              `json:"total_files"`
	TotalFindings int              `json:"total_findings"`
}

type PolicyDecision struct {
	Profile string    `json:"profile"`
	Pass    bool      `json:"pass"`
	Failing []Finding `json:"failing_findings,omitempty"`
}

type AuditResponse struct {
	Report   AuditReport    `json:"report"`
	Decision PolicyDecision `json:"decision"`
}

type RuleInfo struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

type Profile struct {
	Name        string   `json:"name"`
	ExemptRules []string `json:"exempt_rules"`
}
