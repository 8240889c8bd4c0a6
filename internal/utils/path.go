package utils

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// DictionaryCandidates lists where a dictionary named by path may live,
// in lookup order: as given, the working directory, next to the binary,
// the binary's data/ directory, then the config directory's data/.
// Absolute paths are returned alone.
func DictionaryCandidates(path, configDir string) []string {
	if path == "" {
		return nil
	}
	if filepath.IsAbs(path) {
		return []string{path}
	}
	candidates := []string{path}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, path))
	}
	if execDir, err := GetExecutableDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(execDir, path),
			filepath.Join(execDir, "data", path))
	}
	if configDir != "" {
		candidates = append(candidates, filepath.Join(configDir, "data", path))
	}
	return candidates
}

// ResolveDictionaryPath returns the first existing regular file among
// DictionaryCandidates. When none exists the path is returned unchanged so
// that the open error names what the user asked for.
func ResolveDictionaryPath(path, configDir string) string {
	for _, candidate := range DictionaryCandidates(path, configDir) {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			if candidate != path {
				log.Debugf("Resolved dictionary %s to %s", path, candidate)
			}
			return candidate
		}
	}
	return path
}
