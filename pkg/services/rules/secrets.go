package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/compose-audit/pkg/models/domain"
)

type hardcodedSecretRule struct {
	settings Settings
}

func (r *hardcodedSecretRule) ID() string       { return "hardcoded-secret" }
func (r *hardcodedSecretRule) Category() string { return "Secret Management" }

func (r *hardcodedSecretRule) CheckService(_ *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding {
	keys := make([]string, 0, len(svc.Environment))
	for key := range svc.Environment {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var findings []domain.Finding
	for _, key := range keys {
		value := svc.Environment[key]
		if !r.looksSecret(key) {
			continue
		}
		if value.Substitution || value.Value == "" {
			continue
		}
		if r.isPlaceholder(value.Value) {
			continue
		}
		findings = append(findings, domain.Finding{
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("Service '%s' may have hardcoded secret in %s", name, key),
		})
	}
	return findings
}

func (r *hardcodedSecretRule) looksSecret(key string) bool {
	lower := strings.ToLower(key)
	for _, indicator := range r.settings.SecretKeyIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func (r *hardcodedSecretRule) isPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, placeholder := range r.settings.PlaceholderValues {
		if lower == placeholder {
			return true
		}
	}
	return false
}
