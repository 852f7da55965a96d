package domain

type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
	SeverityInfo   Severity = "INFO"
	SeverityError  Severity = "ERROR"
)

// Severities lists all severities in reporting order.
var Severities = []Severity{
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
	SeverityError,
}

// Finding is one reported rule violation. Rule is the stable identifier of
// the rule that produced it; the policy gate keys exemptions off it.
type Finding struct {
	Rule     string
	Category string
	Severity Severity
	Message  string
	File     string
	Service  string
}
