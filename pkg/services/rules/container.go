package rules

import (
	"fmt"
	"strings"

	"github.com/de-tools/compose-audit/pkg/models/domain"
)

const categoryContainer = "Container Security"

type privilegedRule struct{}

func (r *privilegedRule) ID() string       { return "privileged" }
func (r *privilegedRule) Category() string { return categoryContainer }

func (r *privilegedRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	if !svc.Privileged {
		return nil
	}
	return []domain.Finding{{
		Severity: domain.SeverityHigh,
		Message:  fmt.Sprintf("Service '%s' runs in privileged mode", name),
	}}
}

type dangerousCapabilitiesRule struct {
	settings Settings
}

func (r *dangerousCapabilitiesRule) ID() string       { return "dangerous-capabilities" }
func (r *dangerousCapabilitiesRule) Category() string { return categoryContainer }

func (r *dangerousCapabilitiesRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	var findings []domain.Finding
	for _, capability := range svc.CapabilitiesAdded {
		for _, dangerous := range r.settings.DangerousCapabilities {
			if capability == dangerous {
				findings = append(findings, domain.Finding{
					Severity: domain.SeverityMedium,
					Message:  fmt.Sprintf("Service '%s' has dangerous capability: %s", name, capability),
				})
			}
		}
	}
	return findings
}

type privilegedCommandRule struct{}

func (r *privilegedCommandRule) ID() string       { return "privileged-command" }
func (r *privilegedCommandRule) Category() string { return categoryContainer }

func (r *privilegedCommandRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	if !strings.Contains(svc.Command, "--privileged") {
		return nil
	}
	return []domain.Finding{{
		Severity: domain.SeverityHigh,
		Message:  fmt.Sprintf("Service '%s' uses --privileged in command", name),
	}}
}

type rootUserRule struct{}

func (r *rootUserRule) ID() string       { return "root-user" }
func (r *rootUserRule) Category() string { return categoryContainer }

func (r *rootUserRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	switch svc.User {
	case "root", "0":
		return []domain.Finding{{
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("Service '%s' explicitly runs as root", name),
		}}
	case "":
		return []domain.Finding{{
			Severity: domain.SeverityLow,
			Message:  fmt.Sprintf("Service '%s' doesn't specify user (may run as root)", name),
		}}
	default:
		return nil
	}
}

type hardeningOptionsRule struct{}

func (r *hardeningOptionsRule) ID() string       { return "hardening-options" }
func (r *hardeningOptionsRule) Category() string { return categoryContainer }

func (r *hardeningOptionsRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	var findings []domain.Finding

	noNewPrivileges := false
	mandatoryAccessControl := false
	for _, opt := range svc.SecurityOptions {
		if strings.Contains(opt, "no-new-privileges:true") {
			noNewPrivileges = true
		}
		lower := strings.ToLower(opt)
		if strings.Contains(lower, "apparmor") || strings.Contains(lower, "selinux") {
			mandatoryAccessControl = true
		}
	}

	if !noNewPrivileges {
		findings = append(findings, domain.Finding{
			Severity: domain.SeverityLow,
			Message:  fmt.Sprintf("Service '%s' missing 'no-new-privileges:true' security option", name),
		})
	}
	if !mandatoryAccessControl {
		findings = append(findings, domain.Finding{
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("Service '%s' could benefit from AppArmor/SELinux profile", name),
		})
	}
	return findings
}

type restartPolicyRule struct{}

func (r *restartPolicyRule) ID() string       { return "always-restart" }
func (r *restartPolicyRule) Category() string { return categoryContainer }

func (r *restartPolicyRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	if svc.RestartPolicy != "always" {
		return nil
	}
	return []domain.Finding{{
		Severity: domain.SeverityLow,
		Message:  fmt.Sprintf("Service '%s' uses 'always' restart (consider 'unless-stopped')", name),
	}}
}
