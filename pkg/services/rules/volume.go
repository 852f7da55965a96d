package rules

import (
	"fmt"
	"strings"

	"github.com/de-tools/compose-audit/pkg/models/domain"
)

const categoryVolume = "Volume Security"

type sensitiveMountRule struct {
	settings Settings
}

func (r *sensitiveMountRule) ID() string       { return "sensitive-mount" }
func (r *sensitiveMountRule) Category() string { return categoryVolume }

func (r *sensitiveMountRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	var findings []domain.Finding
	for _, mount := range svc.Volumes {
		if mount.Kind != domain.MountKindBind {
			continue
		}
		if severity, ok := r.settings.SensitiveMountPaths[mount.Source]; ok {
			findings = append(findings, domain.Finding{
				Severity: severity,
				Message:  fmt.Sprintf("Service '%s' mounts dangerous path: %s", name, mount.Source),
			})
		}
	}
	return findings
}

type broadMountRule struct {
	settings Settings
}

func (r *broadMountRule) ID() string       { return "broad-mount" }
func (r *broadMountRule) Category() string { return categoryVolume }

func (r *broadMountRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	var findings []domain.Finding
	for _, mount := range svc.Volumes {
		if mount.Kind != domain.MountKindBind {
			continue
		}
		if mount.Source == "/" || r.hasBroadPrefix(mount.Source) {
			findings = append(findings, domain.Finding{
				Severity: domain.SeverityHigh,
				Message:  fmt.Sprintf("Service '%s' has broad filesystem access: %s", name, mount.Source),
			})
		}
	}
	return findings
}

func (r *broadMountRule) hasBroadPrefix(source string) bool {
	for _, prefix := range r.settings.BroadMountPrefixes {
		if strings.HasPrefix(source, prefix) {
			return true
		}
	}
	return false
}
