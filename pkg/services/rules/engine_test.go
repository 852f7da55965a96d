package rules

import (
	"sort"
	"testing"

	"github.com/de-tools/compose-audit/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hardenedService returns a service that triggers no rule, so each test can
// introduce exactly one issue.
func hardenedService() domain.ServiceDefinition {
	return domain.ServiceDefinition{
		Image:           domain.ImageRef{Registry: "ghcr.io", Repository: "acme/app", Tag: "1.2.3"},
		User:            "app",
		SecurityOptions: []string{"no-new-privileges:true", "apparmor:docker-default"},
		Networks:        []string{"backend"},
		RestartPolicy:   "unless-stopped",
	}
}

func docWith(svc domain.ServiceDefinition) *domain.ManifestDocument {
	return &domain.ManifestDocument{
		Path:     "docker-compose.yml",
		Services: map[string]domain.ServiceDefinition{"app": svc},
		Networks: map[string]domain.NetworkDeclaration{},
	}
}

func findingsForRule(findings []domain.Finding, rule string) []domain.Finding {
	var out []domain.Finding
	for _, f := range findings {
		if f.Rule == rule {
			out = append(out, f)
		}
	}
	return out
}

func TestEngine_HardenedServiceIsClean(t *testing.T) {
	engine := NewEngine(DefaultSettings())
	assert.Empty(t, engine.Evaluate(docWith(hardenedService())))
}

func TestEngine_PrivilegedService(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	svc := hardenedService()
	svc.Privileged = true

	findings := engine.Evaluate(docWith(svc))
	require.Len(t, findings, 1)
	assert.Equal(t, domain.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "Container Security", findings[0].Category)
	assert.Contains(t, findings[0].Message, "privileged mode")
	assert.Equal(t, "app", findings[0].Service)
	assert.Equal(t, "docker-compose.yml", findings[0].File)
}

func TestEngine_DangerousCapabilities(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	svc := hardenedService()
	svc.CapabilitiesAdded = []string{"SYS_ADMIN", "CHOWN", "NET_ADMIN"}

	findings := engine.Evaluate(docWith(svc))
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, domain.SeverityMedium, f.Severity)
	}
	assert.Contains(t, findings[0].Message, "SYS_ADMIN")
	assert.Contains(t, findings[1].Message, "NET_ADMIN")
}

func TestEngine_PrivilegedCommand(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	svc := hardenedService()
	svc.Command = "dockerd --privileged --host=unix:///var/run/docker.sock"

	findings := engine.Evaluate(docWith(svc))
	require.Len(t, findings, 1)
	assert.Equal(t, domain.SeverityHigh, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "--privileged")
}

func TestEngine_HostNetworkMode(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	svc := hardenedService()
	svc.Networks = nil
	svc.NetworkMode = "host"

	findings := engine.Evaluate(docWith(svc))
	require.Len(t, findings, 1)
	assert.Equal(t, "host-network", findings[0].Rule)
	assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
}

func TestEngine_VolumeMounts(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	t.Run("docker socket is HIGH", func(t *testing.T) {
		svc := hardenedService()
		svc.Volumes = []domain.VolumeMount{{
			Source: "/var/run/docker.sock",
			Target: "/var/run/docker.sock",
			Mode:   "rw",
			Kind:   domain.MountKindBind,
		}}

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, domain.SeverityHigh, findings[0].Severity)
		assert.Equal(t, "Volume Security", findings[0].Category)
		assert.Contains(t, findings[0].Message, "/var/run/docker.sock")
	})

	t.Run("other sensitive paths are MEDIUM", func(t *testing.T) {
		svc := hardenedService()
		svc.Volumes = []domain.VolumeMount{{
			Source: "/etc/shadow",
			Target: "/host/shadow",
			Mode:   "ro",
			Kind:   domain.MountKindBind,
		}}

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
	})

	t.Run("broad filesystem access is HIGH", func(t *testing.T) {
		svc := hardenedService()
		svc.Volumes = []domain.VolumeMount{
			{Source: "/", Target: "/host", Kind: domain.MountKindBind},
			{Source: "/home/user", Target: "/data", Kind: domain.MountKindBind},
		}

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 2)
		for _, f := range findings {
			assert.Equal(t, domain.SeverityHigh, f.Severity)
			assert.Equal(t, "broad-mount", f.Rule)
		}
	})

	t.Run("named volumes are ignored", func(t *testing.T) {
		svc := hardenedService()
		svc.Volumes = []domain.VolumeMount{{
			Source: "appdata",
			Target: "/data",
			Kind:   domain.MountKindVolume,
		}}

		assert.Empty(t, engine.Evaluate(docWith(svc)))
	})
}

func TestEngine_HardcodedSecrets(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	t.Run("substitution reference is not a secret", func(t *testing.T) {
		svc := hardenedService()
		svc.Environment = map[string]domain.EnvValue{
			"API_KEY": {Value: "${SECRET_KEY}", Substitution: true},
		}
		assert.Empty(t, engine.Evaluate(docWith(svc)))
	})

	t.Run("literal secret value", func(t *testing.T) {
		svc := hardenedService()
		svc.Environment = map[string]domain.EnvValue{
			"API_KEY": {Value: "sk_live_abc123"},
		}

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, domain.SeverityHigh, findings[0].Severity)
		assert.Equal(t, "Secret Management", findings[0].Category)
		assert.Contains(t, findings[0].Message, "API_KEY")
	})

	t.Run("placeholder values are skipped", func(t *testing.T) {
		svc := hardenedService()
		svc.Environment = map[string]domain.EnvValue{
			"DB_PASSWORD": {Value: "changeme"},
		}
		assert.Empty(t, engine.Evaluate(docWith(svc)))
	})

	t.Run("non-secret keys are skipped", func(t *testing.T) {
		svc := hardenedService()
		svc.Environment = map[string]domain.EnvValue{
			"DB_HOST": {Value: "postgres"},
		}
		assert.Empty(t, engine.Evaluate(docWith(svc)))
	})
}

func TestEngine_UserConfiguration(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	t.Run("explicit root", func(t *testing.T) {
		svc := hardenedService()
		svc.User = "root"

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
	})

	t.Run("numeric root", func(t *testing.T) {
		svc := hardenedService()
		svc.User = "0"

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
	})

	t.Run("unset user", func(t *testing.T) {
		svc := hardenedService()
		svc.User = ""

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, domain.SeverityLow, findings[0].Severity)
	})
}

func TestEngine_HardeningOptions(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	svc := hardenedService()
	svc.SecurityOptions = nil

	findings := engine.Evaluate(docWith(svc))
	require.Len(t, findings, 2)
	assert.Equal(t, domain.SeverityLow, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "no-new-privileges")
	assert.Equal(t, domain.SeverityInfo, findings[1].Severity)
	assert.Contains(t, findings[1].Message, "AppArmor/SELinux")
}

func TestEngine_Networks(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	t.Run("implicit default network", func(t *testing.T) {
		svc := hardenedService()
		svc.Networks = nil

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, "default-network", findings[0].Rule)
		assert.Equal(t, domain.SeverityLow, findings[0].Severity)
	})

	t.Run("external network declaration", func(t *testing.T) {
		doc := docWith(hardenedService())
		doc.Networks["shared"] = domain.NetworkDeclaration{External: true}

		findings := engine.Evaluate(doc)
		require.Len(t, findings, 1)
		assert.Equal(t, "external-network", findings[0].Rule)
		assert.Equal(t, domain.SeverityInfo, findings[0].Severity)
		assert.Empty(t, findings[0].Service)
	})
}

func TestEngine_ExposedPorts(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	t.Run("all interfaces", func(t *testing.T) {
		svc := hardenedService()
		svc.Ports = []domain.PortBinding{{HostPort: "8080", ContainerPort: "8000", Protocol: "tcp"}}

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
		assert.Contains(t, findings[0].Message, "all interfaces")
	})

	t.Run("sensitive port on loopback still flagged", func(t *testing.T) {
		svc := hardenedService()
		svc.Ports = []domain.PortBinding{{HostIP: "127.0.0.1", HostPort: "5432", ContainerPort: "5432", Protocol: "tcp"}}

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Contains(t, findings[0].Message, "sensitive port 5432")
	})

	t.Run("sensitive port on all interfaces yields both findings", func(t *testing.T) {
		svc := hardenedService()
		svc.Ports = []domain.PortBinding{{HostPort: "22", ContainerPort: "22", Protocol: "tcp"}}

		findings := engine.Evaluate(docWith(svc))
		assert.Len(t, findings, 2)
	})
}

func TestEngine_RestartPolicy(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	svc := hardenedService()
	svc.RestartPolicy = "always"

	findings := engine.Evaluate(docWith(svc))
	require.Len(t, findings, 1)
	assert.Equal(t, "always-restart", findings[0].Rule)
	assert.Equal(t, domain.SeverityLow, findings[0].Severity)
}

func TestEngine_ImageRules(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	t.Run("latest tag", func(t *testing.T) {
		svc := hardenedService()
		svc.Image = domain.ImageRef{Repository: "nginx", Tag: "latest"}

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, "unpinned-image", findings[0].Rule)
		assert.Equal(t, domain.SeverityLow, findings[0].Severity)
		assert.Equal(t, "Image Security", findings[0].Category)
	})

	t.Run("untrusted registry", func(t *testing.T) {
		svc := hardenedService()
		svc.Image = domain.ImageRef{Registry: "registry.sketchy.example", Repository: "app", Tag: "1.0"}

		findings := engine.Evaluate(docWith(svc))
		require.Len(t, findings, 1)
		assert.Equal(t, "untrusted-registry", findings[0].Rule)
		assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
	})

	t.Run("trusted registry", func(t *testing.T) {
		svc := hardenedService()
		svc.Image = domain.ImageRef{Registry: "quay.io", Repository: "acme/app", Tag: "1.0"}
		assert.Empty(t, engine.Evaluate(docWith(svc)))
	})

	t.Run("build-only service has no image findings", func(t *testing.T) {
		svc := hardenedService()
		svc.Image = domain.ImageRef{}
		assert.Empty(t, engine.Evaluate(docWith(svc)))
	})
}

func TestEngine_Determinism(t *testing.T) {
	engine := NewEngine(DefaultSettings())

	doc := &domain.ManifestDocument{
		Path: "docker-compose.yml",
		Services: map[string]domain.ServiceDefinition{
			"web":    {Privileged: true},
			"db":     {User: "root"},
			"cache":  {NetworkMode: "host"},
			"worker": {RestartPolicy: "always"},
		},
		Networks: map[string]domain.NetworkDeclaration{"shared": {External: true}},
	}

	first := engine.Evaluate(doc)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engine.Evaluate(doc))
	}
}

type panickingRule struct{}

func (r *panickingRule) ID() string       { return "panicking" }
func (r *panickingRule) Category() string { return "Test" }

func (r *panickingRule) CheckService(_ *domain.ManifestDocument, _ string, _ domain.ServiceDefinition) []domain.Finding {
	panic("malformed input")
}

func TestEngine_RuleFailureBecomesErrorFinding(t *testing.T) {
	engine := &Engine{rules: []Rule{&panickingRule{}, &privilegedRule{}}}

	doc := &domain.ManifestDocument{
		Path: "docker-compose.yml",
		Services: map[string]domain.ServiceDefinition{
			"app": {Privileged: true},
		},
	}

	findings := engine.Evaluate(doc)

	errors := findingsForRule(findings, "panicking")
	require.Len(t, errors, 1)
	assert.Equal(t, domain.SeverityError, errors[0].Severity)
	assert.Equal(t, "app", errors[0].Service)
	assert.Contains(t, errors[0].Message, "malformed input")

	// The remaining rules still ran.
	require.Len(t, findingsForRule(findings, "privileged"), 1)
}

func TestEngine_OrderIndependence(t *testing.T) {
	doc := &domain.ManifestDocument{
		Path: "docker-compose.yml",
		Services: map[string]domain.ServiceDefinition{
			"web": {Privileged: true, NetworkMode: "host", RestartPolicy: "always"},
			"db":  {User: "root", Environment: map[string]domain.EnvValue{"DB_PASSWORD": {Value: "hunter2"}}},
		},
	}

	engine := NewEngine(DefaultSettings())
	forward := engine.Evaluate(doc)

	reversed := &Engine{rules: make([]Rule, len(engine.rules))}
	for i, r := range engine.rules {
		reversed.rules[len(engine.rules)-1-i] = r
	}
	backward := reversed.Evaluate(doc)

	assert.ElementsMatch(t, forward, backward)
	assert.Equal(t, sortedFindings(forward), sortedFindings(backward))
}

func sortedFindings(findings []domain.Finding) []domain.Finding {
	out := make([]domain.Finding, len(findings))
	copy(out, findings)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rule != out[j].Rule {
			return out[i].Rule < out[j].Rule
		}
		return out[i].Message < out[j].Message
	})
	return out
}
