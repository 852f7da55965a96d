package rules

import "github.com/de-tools/compose-audit/pkg/models/domain"

// Settings contains the data tables driving the rule set. Rules read these
// instead of hardcoding paths, ports and registries, so a deployment can
// swap the tables without touching rule logic.
type Settings struct {
	// DangerousCapabilities are Linux capabilities that grant near-root
	// control when added to a container.
	DangerousCapabilities []string
	// SensitiveMountPaths maps host paths to the severity of mounting them.
	SensitiveMountPaths map[string]domain.Severity
	// BroadMountPrefixes are host path prefixes that expose whole user or
	// system trees.
	BroadMountPrefixes []string
	// SecretKeyIndicators are substrings of environment keys that suggest
	// the value is a credential.
	SecretKeyIndicators []string
	// PlaceholderValues are well-known non-secrets that never count as a
	// hardcoded credential.
	PlaceholderValues []string
	// SensitivePorts are container ports that should not be published
	// without thought.
	SensitivePorts []string
	// TrustedRegistries is the registry allowlist for image references.
	TrustedRegistries []string
}

func DefaultSettings() Settings {
	return Settings{
		DangerousCapabilities: []string{"SYS_ADMIN", "NET_ADMIN", "SYS_PTRACE", "SYS_MODULE"},
		SensitiveMountPaths: map[string]domain.Severity{
			"/var/run/docker.sock": domain.SeverityHigh,
			"/proc":                domain.SeverityMedium,
			"/sys":                 domain.SeverityMedium,
			"/etc/passwd":          domain.SeverityMedium,
			"/etc/shadow":          domain.SeverityMedium,
			"/etc/sudoers":         domain.SeverityMedium,
			"/root/.ssh":           domain.SeverityMedium,
		},
		BroadMountPrefixes: []string{"/home"},
		SecretKeyIndicators: []string{
			"password", "passwd", "secret", "key", "token",
			"credential", "auth", "private",
		},
		PlaceholderValues: []string{"changeme", "your-password", "example"},
		SensitivePorts:    []string{"22", "23", "80", "443", "3389", "5432", "3306"},
		TrustedRegistries: []string{
			"docker.io", "ghcr.io", "quay.io", "registry.redhat.io",
			"mcr.microsoft.com", "gcr.io",
		},
	}
}
