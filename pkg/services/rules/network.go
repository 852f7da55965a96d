package rules

import (
	"fmt"
	"sort"

	"github.com/de-tools/compose-audit/pkg/models/domain"
)

const categoryNetwork = "Network Security"

type hostNetworkRule struct{}

func (r *hostNetworkRule) ID() string       { return "host-network" }
func (r *hostNetworkRule) Category() string { return categoryNetwork }

func (r *hostNetworkRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	if svc.NetworkMode != "host" {
		return nil
	}
	return []domain.Finding{{
		Severity: domain.SeverityMedium,
		Message:  fmt.Sprintf("Service '%s' uses host network mode", name),
	}}
}

type defaultNetworkRule struct{}

func (r *defaultNetworkRule) ID() string       { return "default-network" }
func (r *defaultNetworkRule) Category() string { return categoryNetwork }

func (r *defaultNetworkRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	if len(svc.Networks) > 0 || svc.NetworkMode != "" {
		return nil
	}
	return []domain.Finding{{
		Severity: domain.SeverityLow,
		Message:  fmt.Sprintf("Service '%s' uses default network (consider explicit network)", name),
	}}
}

type externalNetworkRule struct{}

func (r *externalNetworkRule) ID() string       { return "external-network" }
func (r *externalNetworkRule) Category() string { return categoryNetwork }

func (r *externalNetworkRule) CheckDocument(doc *domain.ManifestDocument) []domain.Finding {
	names := make([]string, 0, len(doc.Networks))
	for name := range doc.Networks {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []domain.Finding
	for _, name := range names {
		if doc.Networks[name].External {
			findings = append(findings, domain.Finding{
				Severity: domain.SeverityInfo,
				Message:  fmt.Sprintf("Network '%s' is external - ensure it's properly secured", name),
			})
		}
	}
	return findings
}

type exposedPortsRule struct {
	settings Settings
}

func (r *exposedPortsRule) ID() string       { return "exposed-ports" }
func (r *exposedPortsRule) Category() string { return categoryNetwork }

func (r *exposedPortsRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	var findings []domain.Finding
	for _, port := range svc.Ports {
		if port.AllInterfaces() {
			findings = append(findings, domain.Finding{
				Severity: domain.SeverityMedium,
				Message:  fmt.Sprintf("Service '%s' exposes port %s to all interfaces", name, portDisplay(port)),
			})
		}
		for _, sensitive := range r.settings.SensitivePorts {
			if port.ContainerPort == sensitive {
				findings = append(findings, domain.Finding{
					Severity: domain.SeverityMedium,
					Message:  fmt.Sprintf("Service '%s' exposes sensitive port %s", name, port.ContainerPort),
				})
			}
		}
	}
	return findings
}

func portDisplay(p domain.PortBinding) string {
	if p.HostPort == "" {
		return p.ContainerPort
	}
	return p.HostPort + ":" + p.ContainerPort
}
