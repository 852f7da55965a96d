package policy

import (
	"fmt"

	"github.com/de-tools/compose-audit/pkg/models/domain"
)

// Profile decides which findings block a run. Exemptions are keyed off the
// stable rule identifier, not the rendered message, so an exemption can
// never match an unrelated finding that happens to share a keyword.
type Profile struct {
	Name        string   `mapstructure:"name"`
	ExemptRules []string `mapstructure:"exempt_rules"`
}

// Decision is the outcome of gating one report.
type Decision struct {
	Profile string
	Pass    bool
	Failing []domain.Finding
}

// ConfigurationError indicates an unusable policy setup. It is the only
// error in the audit pipeline that aborts the run: with a broken policy the
// exit-status contract would be meaningless.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid policy configuration: %s", e.Reason)
}

// DefaultProfileName is used when the caller does not pick a profile.
const DefaultProfileName = "risk-tolerant"

// DefaultProfiles returns the built-in profiles. "risk-tolerant" exempts
// the HIGH rules whose findings are commonly accepted in self-hosted
// deployments (docker socket access, privileged helpers, host networking,
// published ports); "strict" exempts nothing.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"risk-tolerant": {
			Name: "risk-tolerant",
			ExemptRules: []string{
				"privileged",
				"privileged-command",
				"sensitive-mount",
				"host-network",
				"exposed-ports",
			},
		},
		"strict": {
			Name:        "strict",
			ExemptRules: nil,
		},
	}
}

// Decide gates a report: the run fails iff at least one HIGH finding
// remains after exemptions. Other severities never affect the decision;
// they stay in the report as information.
func Decide(report domain.AuditReport, profile Profile) Decision {
	exempt := map[string]bool{}
	for _, rule := range profile.ExemptRules {
		exempt[rule] = true
	}

	decision := Decision{Profile: profile.Name, Pass: true}
	for _, finding := range report.Findings {
		if finding.Severity != domain.SeverityHigh {
			continue
		}
		if exempt[finding.Rule] {
			continue
		}
		decision.Failing = append(decision.Failing, finding)
	}

	decision.Pass = len(decision.Failing) == 0
	return decision
}
