// Package preferences reads the preferences file of the application, the same
// file the application itself loads at startup, so the toolbox can reason about
// the paths a dev session will use.
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/ubuntu/decorate"
)

// Preferences are the application settings, as shipped in its data directory.
type Preferences struct {
	AutostartPath string            `json:"autostart_path"`
	DataPath      string            `json:"data_path"`
	DesktopPath   string            `json:"desktop_path"`
	DefaultLocale string            `json:"default_locale"`
	InstallerPath string            `json:"installer_path"`
	LivePath      string            `json:"live_path"`
	LocalePath    string            `json:"locale_path"`
	LogoPath      string            `json:"logo_path"`
	SavePath      string            `json:"save_path"`
	UIPath        string            `json:"ui_path"`
	Urls          map[string]string `json:"urls"`
}

// Load parses the preferences file at path.
func Load(path string) (p Preferences, err error) {
	defer decorate.OnError(&err, i18n.G("could not load the application preferences"))

	raw, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}

	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("couldn't parse %q: %v", path, err)
	}

	return p, nil
}

// WithDevPaths returns a copy of the preferences with the overrides the
// application applies to itself when started in dev mode, resolved under the
// project root.
func (p Preferences) WithDevPaths(root string) Preferences {
	p.DataPath = filepath.Join(root, "data")
	p.DesktopPath = filepath.Join(root, "manjaro-hello.desktop")
	p.LocalePath = filepath.Join(root, "locale")
	p.UIPath = filepath.Join(root, "ui", "manjaro-hello.glade")
	return p
}

// MissingPaths lists the filesystem paths referenced by the preferences that do
// not exist. Home-relative paths are expanded first; paths whose absence is
// normal on a development machine (live media, installer) are not considered.
func (p Preferences) MissingPaths() (missing []string) {
	for _, path := range []string{p.DataPath, p.LocalePath, p.LogoPath, p.UIPath} {
		if path == "" {
			continue
		}
		expanded, err := ExpandHome(path)
		if err != nil {
			missing = append(missing, path)
			continue
		}
		if _, err := os.Stat(expanded); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}

// State is the mutable state the application persists between runs.
type State struct {
	Locale string `json:"locale"`
}

// LoadState parses the application state file referenced by the preferences.
// A missing file is not an error: the application starts without one too.
func (p Preferences) LoadState() (st State, err error) {
	defer decorate.OnError(&err, i18n.G("could not load the application state"))

	if p.SavePath == "" {
		return st, nil
	}

	path, err := ExpandHome(p.SavePath)
	if err != nil {
		return st, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, err
	}

	if err := json.Unmarshal(raw, &st); err != nil {
		return st, fmt.Errorf("couldn't parse %q: %v", path, err)
	}

	return st, nil
}

// ExpandHome replaces a leading ~ with the home directory of the current user.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("couldn't expand %q: %v", path, err)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
