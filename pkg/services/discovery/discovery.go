package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Find walks root and returns every compose file beneath it, sorted and
// de-duplicated. Recognized names: docker-compose*.yml/.yaml and
// compose.yml/.yaml.
func Find(root string) ([]string, error) {
	seen := map[string]bool{}
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !isComposeFile(d.Name()) {
			return nil
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover compose files under %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func isComposeFile(name string) bool {
	if !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml") {
		return false
	}
	base := strings.TrimSuffix(strings.TrimSuffix(name, ".yml"), ".yaml")
	return strings.HasPrefix(base, "docker-compose") || base == "compose"
}
