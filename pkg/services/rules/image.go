package rules

import (
	"fmt"

	"github.com/de-tools/compose-audit/pkg/models/domain"
)

const categoryImage = "Image Security"

type unpinnedImageRule struct{}

func (r *unpinnedImageRule) ID() string       { return "unpinned-image" }
func (r *unpinnedImageRule) Category() string { return categoryImage }

func (r *unpinnedImageRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	// Build-only services carry no image reference to pin.
	if svc.Image.Repository == "" {
		return nil
	}
	if svc.Image.Tag != "latest" {
		return nil
	}
	return []domain.Finding{{
		Severity: domain.SeverityLow,
		Message:  fmt.Sprintf("Service '%s' uses 'latest' tag or no tag specified", name),
	}}
}

type untrustedRegistryRule struct {
	settings Settings
}

func (r *untrustedRegistryRule) ID() string       { return "untrusted-registry" }
func (r *untrustedRegistryRule) Category() string { return categoryImage }

func (r *untrustedRegistryRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	if svc.Image.Registry == "" {
		return nil
	}
	for _, trusted := range r.settings.TrustedRegistries {
		if svc.Image.Registry == trusted {
			return nil
		}
	}
	return []domain.Finding{{
		Severity: domain.SeverityMedium,
		Message:  fmt.Sprintf("Service '%s' uses image from potentially untrusted registry", name),
	}}
}
