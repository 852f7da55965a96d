package rules

import (
	"fmt"
	"sort"

	"github.com/de-tools/compose-audit/pkg/models/domain"
)

// Rule identifies one orthogonal security concern. ID is stable across
// releases; the policy gate keys exemptions off it.
type Rule interface {
	ID() string
	Category() string
}

// ServiceRule inspects a single service. Implementations are pure: no
// shared state, no dependency on evaluation order.
type ServiceRule interface {
	Rule
	CheckService(doc *domain.ManifestDocument, name string, svc domain.ServiceDefinition) []domain.Finding
}

// DocumentRule inspects document-level declarations (networks, volumes).
type DocumentRule interface {
	Rule
	CheckDocument(doc *domain.ManifestDocument) []domain.Finding
}

// Info describes a registered rule.
type Info struct {
	ID       string
	Category string
}

// Engine evaluates the registered rule set against a canonical document.
type Engine struct {
	settings Settings
	rules    []Rule
}

func NewEngine(settings Settings) *Engine {
	e := &Engine{settings: settings}
	e.rules = []Rule{
		&privilegedRule{},
		&dangerousCapabilitiesRule{settings: settings},
		&privilegedCommandRule{},
		&hostNetworkRule{},
		&sensitiveMountRule{settings: settings},
		&broadMountRule{settings: settings},
		&hardcodedSecretRule{settings: settings},
		&rootUserRule{},
		&hardeningOptionsRule{},
		&defaultNetworkRule{},
		&externalNetworkRule{},
		&exposedPortsRule{settings: settings},
		&restartPolicyRule{},
		&unpinnedImageRule{},
		&untrustedRegistryRule{settings: settings},
	}
	return e
}

// Rules returns the registry in registration order.
func (e *Engine) Rules() []Info {
	infos := make([]Info, 0, len(e.rules))
	for _, r := range e.rules {
		infos = append(infos, Info{ID: r.ID(), Category: r.Category()})
	}
	return infos
}

// Evaluate runs every rule against the document. Services are visited in
// name order so repeated runs produce identical reports. A rule failure
// never aborts the run: it is converted into one ERROR finding scoped to
// the offending service and evaluation continues.
func (e *Engine) Evaluate(doc *domain.ManifestDocument) []domain.Finding {
	var findings []domain.Finding

	names := make([]string, 0, len(doc.Services))
	for name := range doc.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, rule := range e.rules {
		switch r := rule.(type) {
		case ServiceRule:
			for _, name := range names {
				findings = append(findings, e.checkService(r, doc, name)...)
			}
		case DocumentRule:
			findings = append(findings, e.checkDocument(r, doc)...)
		}
	}

	return findings
}

func (e *Engine) checkService(r ServiceRule, doc *domain.ManifestDocument, name string) (findings []domain.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			findings = []domain.Finding{{
				Rule:     r.ID(),
				Category: r.Category(),
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("Rule '%s' failed for service '%s': %v", r.ID(), name, rec),
				File:     doc.Path,
				Service:  name,
			}}
		}
	}()

	findings = r.CheckService(doc, name, doc.Services[name])
	for i := range findings {
		findings[i].Rule = r.ID()
		findings[i].Category = r.Category()
		findings[i].File = doc.Path
		findings[i].Service = name
	}
	return findings
}

func (e *Engine) checkDocument(r DocumentRule, doc *domain.ManifestDocument) (findings []domain.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			findings = []domain.Finding{{
				Rule:     r.ID(),
				Category: r.Category(),
				Severity: domain.SeverityError,
				Message:  fmt.Sprintf("Rule '%s' failed: %v", r.ID(), rec),
				File:     doc.Path,
			}}
		}
	}()

	findings = r.CheckDocument(doc)
	for i := range findings {
		findings[i].Rule = r.ID()
		findings[i].Category = r.Category()
		findings[i].File = doc.Path
	}
	return findings
}
