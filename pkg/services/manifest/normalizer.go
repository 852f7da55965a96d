package manifest

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/de-tools/compose-audit/pkg/models/domain"
	"gopkg.in/yaml.v3"
)

// ParseError indicates a compose file that could not be reduced to the
// canonical model. A file without a `services` key is not a ParseError.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Load reads and normalizes a compose file.
func Load(path string) (domain.ManifestDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ManifestDocument{}, &ParseError{Path: path, Err: err}
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.ManifestDocument{}, &ParseError{Path: path, Err: err}
	}

	return Normalize(path, raw)
}

// Normalize converts a decoded compose tree into the canonical document.
// The raw tree is polymorphic (environment as list or map, volumes as
// strings or mappings, ports as ints or strings); everything is reduced
// here so rules never branch on source syntax.
func Normalize(path string, raw map[string]any) (domain.ManifestDocument, error) {
	doc := domain.ManifestDocument{
		Path:     path,
		Services: map[string]domain.ServiceDefinition{},
		Networks: map[string]domain.NetworkDeclaration{},
	}

	if raw == nil {
		return doc, nil
	}

	rawServices, ok := raw["services"]
	if !ok || rawServices == nil {
		// Nothing to audit. Compose files that only declare networks or
		// volumes are valid, so this is a graceful skip, not an error.
		doc.Networks = normalizeNetworks(raw["networks"])
		doc.Volumes = normalizeVolumeNames(raw["volumes"])
		return doc, nil
	}

	services, ok := rawServices.(map[string]any)
	if !ok {
		return domain.ManifestDocument{}, &ParseError{Path: path, Err: fmt.Errorf("services is not a mapping")}
	}

	for name, rawSvc := range services {
		cfg, ok := rawSvc.(map[string]any)
		if !ok {
			return domain.ManifestDocument{}, &ParseError{
				Path: path,
				Err:  fmt.Errorf("service %q is not a mapping", name),
			}
		}
		svc, err := normalizeService(cfg)
		if err != nil {
			return domain.ManifestDocument{}, &ParseError{
				Path: path,
				Err:  fmt.Errorf("service %q: %w", name, err),
			}
		}
		doc.Services[name] = svc
	}

	doc.Networks = normalizeNetworks(raw["networks"])
	doc.Volumes = normalizeVolumeNames(raw["volumes"])

	return doc, nil
}

func normalizeService(cfg map[string]any) (domain.ServiceDefinition, error) {
	svc := domain.ServiceDefinition{
		Image:             ParseImageRef(stringValue(cfg["image"])),
		Privileged:        boolValue(cfg["privileged"]),
		CapabilitiesAdded: stringSlice(cfg["cap_add"]),
		Command:           commandString(cfg["command"]),
		NetworkMode:       stringValue(cfg["network_mode"]),
		User:              stringValue(cfg["user"]),
		SecurityOptions:   stringSlice(cfg["security_opt"]),
		RestartPolicy:     stringValue(cfg["restart"]),
		Networks:          serviceNetworks(cfg["networks"]),
		DependsOn:         normalizeDependsOn(cfg["depends_on"]),
	}

	volumes, err := normalizeVolumes(cfg["volumes"])
	if err != nil {
		return domain.ServiceDefinition{}, err
	}
	svc.Volumes = volumes

	ports, err := normalizePorts(cfg["ports"])
	if err != nil {
		return domain.ServiceDefinition{}, err
	}
	svc.Ports = ports

	svc.Environment = normalizeEnvironment(cfg["environment"])

	return svc, nil
}

// ParseImageRef splits an image reference into registry, repository and tag.
// The first path component is a registry when it looks like a host (contains
// a dot or a port, or is "localhost"). A missing tag resolves to "latest".
func ParseImageRef(image string) domain.ImageRef {
	if image == "" {
		return domain.ImageRef{}
	}

	ref := domain.ImageRef{Repository: image, Tag: "latest"}

	if idx := strings.LastIndex(image, ":"); idx > strings.LastIndex(image, "/") {
		ref.Repository = image[:idx]
		ref.Tag = image[idx+1:]
	}

	if idx := strings.Index(ref.Repository, "/"); idx > 0 {
		host := ref.Repository[:idx]
		if strings.ContainsAny(host, ".:") || host == "localhost" {
			ref.Registry = host
			ref.Repository = ref.Repository[idx+1:]
		}
	}

	return ref
}

func normalizeEnvironment(v any) map[string]domain.EnvValue {
	if v == nil {
		return nil
	}

	env := map[string]domain.EnvValue{}
	switch vv := v.(type) {
	case []any:
		for _, item := range vv {
			entry := stringValue(item)
			key, value, found := strings.Cut(entry, "=")
			if !found {
				// Bare KEY entries inherit from the host environment.
				env[entry] = domain.EnvValue{Substitution: true}
				continue
			}
			env[key] = envValue(value)
		}
	case map[string]any:
		for key, raw := range vv {
			if raw == nil {
				env[key] = domain.EnvValue{Substitution: true}
				continue
			}
			env[key] = envValue(stringValue(raw))
		}
	}
	return env
}

func envValue(value string) domain.EnvValue {
	return domain.EnvValue{
		Value:        value,
		Substitution: strings.HasPrefix(value, "${"),
	}
}

func normalizeVolumes(v any) ([]domain.VolumeMount, error) {
	if v == nil {
		return nil, nil
	}

	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("volumes is not a list")
	}

	var mounts []domain.VolumeMount
	for _, item := range items {
		switch vv := item.(type) {
		case string:
			mounts = append(mounts, parseShortVolume(vv))
		case map[string]any:
			mount := domain.VolumeMount{
				Source: stringValue(vv["source"]),
				Target: stringValue(vv["target"]),
				Mode:   "rw",
			}
			if boolValue(vv["read_only"]) {
				mount.Mode = "ro"
			}
			mount.Kind = mountKind(mount.Source)
			mounts = append(mounts, mount)
		default:
			return nil, fmt.Errorf("unsupported volume entry %v", item)
		}
	}
	return mounts, nil
}

func parseShortVolume(s string) domain.VolumeMount {
	mount := domain.VolumeMount{Mode: "rw"}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		// Anonymous volume: only a container path.
		mount.Target = parts[0]
	case 2:
		mount.Source = parts[0]
		mount.Target = parts[1]
	default:
		mount.Source = parts[0]
		mount.Target = parts[1]
		mount.Mode = parts[2]
	}

	mount.Kind = mountKind(mount.Source)
	return mount
}

// mountKind derives bind vs named volume from the source path shape; it is
// never taken from the author-supplied `type` field.
func mountKind(source string) domain.MountKind {
	if strings.HasPrefix(source, "/") || strings.HasPrefix(source, "./") {
		return domain.MountKindBind
	}
	return domain.MountKindVolume
}

func normalizePorts(v any) ([]domain.PortBinding, error) {
	if v == nil {
		return nil, nil
	}

	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("ports is not a list")
	}

	var bindings []domain.PortBinding
	for _, item := range items {
		switch vv := item.(type) {
		case int:
			bindings = append(bindings, domain.PortBinding{
				ContainerPort: strconv.Itoa(vv),
				Protocol:      "tcp",
			})
		case string:
			bindings = append(bindings, parsePortString(vv))
		case map[string]any:
			binding := domain.PortBinding{
				HostIP:        stringValue(vv["host_ip"]),
				HostPort:      stringValue(vv["published"]),
				ContainerPort: stringValue(vv["target"]),
				Protocol:      stringValue(vv["protocol"]),
			}
			if binding.Protocol == "" {
				binding.Protocol = "tcp"
			}
			bindings = append(bindings, binding)
		default:
			return nil, fmt.Errorf("unsupported port entry %v", item)
		}
	}
	return bindings, nil
}

func parsePortString(s string) domain.PortBinding {
	binding := domain.PortBinding{Protocol: "tcp"}

	if spec, proto, found := strings.Cut(s, "/"); found {
		s = spec
		binding.Protocol = proto
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		binding.ContainerPort = parts[0]
	case 2:
		binding.HostPort = parts[0]
		binding.ContainerPort = parts[1]
	default:
		// ip:host:container; the interface may itself contain colons (IPv6).
		binding.HostIP = strings.Join(parts[:len(parts)-2], ":")
		binding.HostPort = parts[len(parts)-2]
		binding.ContainerPort = parts[len(parts)-1]
	}

	return binding
}

func normalizeDependsOn(v any) []string {
	switch vv := v.(type) {
	case []any:
		return stringSlice(vv)
	case map[string]any:
		names := make([]string, 0, len(vv))
		for name := range vv {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	default:
		return nil
	}
}

func normalizeNetworks(v any) map[string]domain.NetworkDeclaration {
	networks := map[string]domain.NetworkDeclaration{}

	decls, ok := v.(map[string]any)
	if !ok {
		return networks
	}

	for name, rawDecl := range decls {
		decl := domain.NetworkDeclaration{}
		if cfg, ok := rawDecl.(map[string]any); ok {
			decl.Driver = stringValue(cfg["driver"])
			switch ext := cfg["external"].(type) {
			case bool:
				decl.External = ext
			case map[string]any:
				// Legacy `external: {name: ...}` form.
				decl.External = true
			}
		}
		networks[name] = decl
	}
	return networks
}

func normalizeVolumeNames(v any) []string {
	decls, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(decls))
	for name := range decls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func serviceNetworks(v any) []string {
	switch vv := v.(type) {
	case []any:
		return stringSlice(vv)
	case map[string]any:
		names := make([]string, 0, len(vv))
		for name := range vv {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	default:
		return nil
	}
}

func commandString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case []any:
		return strings.Join(stringSlice(vv), " ")
	default:
		return ""
	}
}

func stringValue(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case int:
		return strconv.Itoa(vv)
	case int64:
		return strconv.FormatInt(vv, 10)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	default:
		return ""
	}
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s := stringValue(v); s != "" {
			return []string{s}
		}
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringValue(item))
	}
	return out
}

func boolValue(v any) bool {
	switch vv := v.(type) {
	case bool:
		return vv
	case string:
		b, _ := strconv.ParseBool(vv)
		return b
	default:
		return false
	}
}
