package audit

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"github.com/de-tools/compose-audit/pkg/adapters"
	"github.com/de-tools/compose-audit/pkg/models/api"
	"github.com/de-tools/compose-audit/pkg/models/domain"
	"github.com/de-tools/compose-audit/pkg/services/manifest"
	"github.com/de-tools/compose-audit/pkg/services/policy"
	"github.com/de-tools/compose-audit/pkg/services/rules"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Service is the part of the audit pipeline the HTTP layer depends on.
type Service interface {
	Evaluate(doc *domain.ManifestDocument) domain.AuditReport
	Rules() []rules.Info
}

type Handler struct {
	service  Service
	profiles map[string]policy.Profile
}

func NewHandler(service Service, profiles map[string]policy.Profile) *Handler {
	if profiles == nil {
		profiles = policy.DefaultProfiles()
	}
	return &Handler{service: service, profiles: profiles}
}

// AuditManifest audits a single manifest posted as raw YAML and responds
// with the report plus the policy decision for the requested profile.
func (h *Handler) AuditManifest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var raw map[string]any
	if err := yaml.Unmarshal(body, &raw); err != nil {
		http.Error(w, "request body is not valid YAML", http.StatusBadRequest)
		return
	}

	doc, err := manifest.Normalize("request", raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	profileName := r.URL.Query().Get("profile")
	if profileName == "" {
		profileName = policy.DefaultProfileName
	}
	profile, ok := h.profiles[profileName]
	if !ok {
		http.Error(w, "unknown policy profile", http.StatusBadRequest)
		return
	}

	report := h.service.Evaluate(&doc)
	decision := policy.Decide(report, profile)

	response := api.AuditResponse{
		Report:   adapters.MapAuditReportDomainToApi(report),
		Decision: adapters.MapDecisionDomainToApi(decision),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode audit response")
	}
}

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	response := make([]api.RuleInfo, 0)
	for _, info := range h.service.Rules() {
		response = append(response, adapters.MapRuleInfoToApi(info))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode rules")
	}
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	names := make([]string, 0, len(h.profiles))
	for name := range h.profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	response := make([]api.Profile, 0, len(names))
	for _, name := range names {
		response = append(response, adapters.MapProfileDomainToApi(h.profiles[name]))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().
			Err(err).
			Msg("failed to encode profiles")
	}
}
