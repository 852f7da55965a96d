package domain

import "strings"

type MountKind string

const (
	MountKindVolume MountKind = "volume"
	MountKindBind   MountKind = "bind"
)

// VolumeMount is one volume entry of a service, already reduced to a single
// canonical form. Kind is derived from the source: a mount is a bind mount
// iff its source starts with "/" or "./".
type VolumeMount struct {
	Source string
	Target string
	Mode   string // rw / ro
	Kind   MountKind
}

// PortBinding describes one published port. An empty HostIP means the port
// is bound to all interfaces.
type PortBinding struct {
	HostIP        string
	HostPort      string
	ContainerPort string
	Protocol      string // tcp / udp
}

func (p PortBinding) AllInterfaces() bool {
	return p.HostIP == "" || p.HostIP == "0.0.0.0" || p.HostIP == "::"
}

// ImageRef is a parsed image reference. Tag is always populated; a reference
// without a tag resolves to "latest".
type ImageRef struct {
	Registry   string
	Repository string
	Tag        string
}

func (r ImageRef) String() string {
	var b strings.Builder
	if r.Registry != "" {
		b.WriteString(r.Registry)
		b.WriteString("/")
	}
	b.WriteString(r.Repository)
	if r.Tag != "" {
		b.WriteString(":")
		b.WriteString(r.Tag)
	}
	return b.String()
}

// EnvValue is one environment variable value. Substitution is true when the
// value is a reference like ${VAR} rather than a literal.
type EnvValue struct {
	Value        string
	Substitution bool
}

type ServiceDefinition struct {
	Image             ImageRef
	Privileged        bool
	CapabilitiesAdded []string
	Command           string
	NetworkMode       string
	Volumes           []VolumeMount
	Environment       map[string]EnvValue
	User              string
	SecurityOptions   []string
	Ports             []PortBinding
	RestartPolicy     string
	Networks          []string
	DependsOn         []string
}

type NetworkDeclaration struct {
	External bool
	Driver   string
}

// ManifestDocument is the canonical form of one compose file. It is built
// once by the normalizer and read-only afterwards.
type ManifestDocument struct {
	Path     string
	Services map[string]ServiceDefinition
	Networks map[string]NetworkDeclaration
	Volumes  []string
}
