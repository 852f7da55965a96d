package policy

import (
	"fmt"

	"github.com/spf13/viper"
)

type profilesFile struct {
	Profiles []Profile `mapstructure:"profiles"`
}

// LoadProfiles reads additional profiles from a YAML file and merges them
// over the built-in ones. A profile with a built-in name replaces it.
func LoadProfiles(path string) (map[string]Profile, error) {
	profiles := DefaultProfiles()
	if path == "" {
		return profiles, nil
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("failed to read profile file %s: %v", path, err)}
	}

	var file profilesFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("failed to parse profile file %s: %v", path, err)}
	}

	for _, profile := range file.Profiles {
		if profile.Name == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("profile without a name in %s", path)}
		}
		profiles[profile.Name] = profile
	}

	return profiles, nil
}

// Resolve picks a profile by name from the merged profile set.
func Resolve(name, configPath string) (Profile, error) {
	profiles, err := LoadProfiles(configPath)
	if err != nil {
		return Profile{}, err
	}

	if name == "" {
		name = DefaultProfileName
	}

	profile, ok := profiles[name]
	if !ok {
		return Profile{}, &ConfigurationError{Reason: fmt.Sprintf("unknown profile %q", name)}
	}
	return profile, nil
}
