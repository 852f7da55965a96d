package adapters

import (
	"github.com/de-tools/compose-audit/pkg/models/api"
	"github.com/de-tools/compose-audit/pkg/models/domain"
	"github.com/de-tools/compose-audit/pkg/services/policy"
	"github.com/de-tools/compose-audit/pkg/services/rules"
)

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityMedium:
		return api.SeverityMedium
	case domain.SeverityLow:
		return api.SeverityLow
	case domain.SeverityInfo:
		return api.SeverityInfo
	default:
		return api.SeverityError
	}
}

func MapFindingDomainToApi(f domain.Finding) api.Finding {
	return api.Finding{
		Severity: MapSeverityDomainToApi(f.Severity),
		Rule:     f.Rule,
		Category: f.Category,
		Message:  f.Message,
		File:     f.File,
		Service:  f.Service,
	}
}

func MapAuditReportDomainToApi(r domain.AuditReport) api.AuditReport {
	report := api.AuditReport{
		Findings:      []api.Finding{},
		Summary:       map[api.Severity]int{},
		TotalFiles:    r.FilesScanned,
		TotalFindings: r.TotalFindings(),
	}
	for _, f := range r.Findings {
		report.Findings = append(report.Findings, MapFindingDomainToApi(f))
	}
	for severity, count := range r.SeverityCounts {
		report.Summary[MapSeverityDomainToApi(severity)] = count
	}
	return report
}

func MapDecisionDomainToApi(d policy.Decision) api.PolicyDecision {
	decision := api.PolicyDecision{
		Profile: d.Profile,
		Pass:    d.Pass,
	}
	for _, f := range d.Failing {
		decision.Failing = append(decision.Failing, MapFindingDomainToApi(f))
	}
	return decision
}

func MapRuleInfoToApi(info rules.Info) api.RuleInfo {
	return api.RuleInfo{ID: info.ID, Category: info.Category}
}

func MapProfileDomainToApi(p policy.Profile) api.Profile {
	return api.Profile{Name: p.Name, ExemptRules: p.ExemptRules}
}
