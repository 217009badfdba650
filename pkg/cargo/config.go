package cargo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// configFileNames are read in this order at every level, so config.toml wins over config
var configFileNames = []string{"config", "config.toml"}

// ConfigFiles returns the candidate config files in ascending precedence:
// $CARGO_HOME first, then every ancestor of workingDir from the filesystem
// root down to workingDir itself. Files may not exist.
func ConfigFiles(workingDir, cargoHome string) []string {
	var dirs []string
	if cargoHome != "" {
		dirs = append(dirs, filepath.Clean(cargoHome))
	}

	if workingDir != "" {
		var ancestors []string
		dir := filepath.Clean(workingDir)
		for {
			ancestors = append(ancestors, filepath.Join(dir, ".cargo"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
		for i := len(ancestors) - 1; i >= 0; i-- {
			dirs = append(dirs, ancestors[i])
		}
	}

	seen := make(map[string]bool)
	var files []string
	for _, dir := range dirs {
		for _, name := range configFileNames {
			path := filepath.Join(dir, name)
			if seen[path] {
				continue
			}
			seen[path] = true
			files = append(files, path)
		}
	}
	return files
}

// LoadProfileDirNames collects `[profile.<name>] dir-name` entries from the
// cargo config hierarchy. Later files override earlier ones. Values that are
// not strings are ignored.
func LoadProfileDirNames(workingDir, cargoHome string) (map[string]string, error) {
	overrides := make(map[string]string)

	for _, path := range ConfigFiles(workingDir, cargoHome) {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || isDirError(path) {
				continue
			}
			return nil, &EnvironmentError{
				Op:   "failed reading",
				Path: path,
				Err:  fmt.Errorf("%w: %v", ErrConfigParse, err),
			}
		}

		entries, err := ParseProfileDirNames(data)
		if err != nil {
			return nil, &EnvironmentError{
				Op:   "failed parsing",
				Path: path,
				Err:  err,
			}
		}
		for profile, dirName := range entries {
			overrides[profile] = dirName
		}
	}

	return overrides, nil
}

// ParseProfileDirNames extracts dir-name overrides from one TOML document
func ParseProfileDirNames(data []byte) (map[string]string, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	result := make(map[string]string)
	profiles, ok := doc["profile"].(map[string]interface{})
	if !ok {
		return result, nil
	}
	for name, raw := range profiles {
		table, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if dirName, ok := table["dir-name"].(string); ok {
			result[name] = dirName
		}
	}
	return result, nil
}

func isDirError(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
