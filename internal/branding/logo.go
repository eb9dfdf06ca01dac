// Package branding resolves the platform logo for the dashboard frontend.
// Resolution walks a fixed, ordered list of candidate directories and
// returns an explicit present/absent outcome; nothing is swallowed.
package branding

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Theme selects the logo variant.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// ParseTheme validates a theme string from a query parameter.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeDark, ThemeLight:
		return Theme(s), nil
	default:
		return "", fmt.Errorf("unknown theme: %q", s)
	}
}

func fileFor(theme Theme) string {
	if theme == ThemeLight {
		return "miva_logo_light.png"
	}
	return "miva_logo_dark.png"
}

// Resolver locates logo files across an ordered list of candidate
// directories. The first directory containing the requested file wins.
type Resolver struct {
	candidates []string
}

// NewResolver builds the candidate list: the configured assets directory
// (when set), then an assets directory next to the executable, then one
// under the working directory.
func NewResolver(configuredDir string) *Resolver {
	var candidates []string
	if configuredDir != "" {
		candidates = append(candidates, configuredDir)
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "assets"))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "assets"))
	}
	return &Resolver{candidates: candidates}
}

// newResolverWithDirs is the test seam for a fixed candidate list.
func newResolverWithDirs(dirs []string) *Resolver {
	return &Resolver{candidates: dirs}
}

// Resolve returns the path of the logo for theme, a found flag, and an
// error only for stat failures other than file-not-exist.
func (r *Resolver) Resolve(theme Theme) (string, bool, error) {
	name := fileFor(theme)
	for _, dir := range r.candidates {
		path := filepath.Join(dir, name)
		_, err := os.Stat(path)
		if err == nil {
			return path, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return "", false, nil
}
