// Package project locates the application project tree and resolves the paths
// the toolbox works with.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/ubuntu/decorate"
)

// Layout describes where the translation assets and the application live inside
// the project tree. Relative paths are resolved against Root with ResolvePaths.
type Layout struct {
	// Root is the directory containing the entire project.
	Root string

	// Domain is the name of the TEXTDOMAIN of the application.
	Domain string

	// PotFile is the path to the Portable Object Template (POT) file.
	PotFile string

	// LocaleDir is the directory where all the Portable Object (PO) files are located.
	LocaleDir string

	// MoDir is the root of the tree where the Machine Object (MO) files are generated.
	MoDir string

	// Sources are the file suffixes selecting the files translatable strings
	// are extracted from.
	Sources []string

	// AppEntry is the application entry point started in dev mode.
	AppEntry string

	// SearchPath is the directory exported to the application as its module search path.
	SearchPath string

	// Preferences is the application preferences file.
	Preferences string
}

// FindRoot returns dir when provided, or else climbs from the current working
// directory until it finds a directory containing marker.
func FindRoot(dir, marker string) (root string, err error) {
	defer decorate.OnError(&err, i18n.G("could not locate the project root"))

	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", err
		}
		if s, err := os.Stat(abs); err != nil {
			return "", err
		} else if !s.IsDir() {
			return "", fmt.Errorf("%q is not a directory", abs)
		}
		return abs, nil
	}

	path, err := os.Getwd()
	if err != nil {
		return "", errors.New("could not get current working directory")
	}

	for {
		if s, err := os.Stat(filepath.Join(path, marker)); err == nil && s.IsDir() {
			return path, nil
		}

		parent := filepath.Dir(path)
		if parent == path {
			// Reached filesystem root
			return "", fmt.Errorf("no directory containing %q above the current one", marker)
		}
		path = parent
	}
}

// Validate makes a few safety checks on the layout.
func (l Layout) Validate() (err error) {
	if len(l.Root) == 0 {
		err = errors.Join(err, errors.New("layout parameter Root is empty"))
	}
	if len(l.Domain) == 0 {
		err = errors.Join(err, errors.New("layout parameter Domain is empty"))
	}
	if len(l.PotFile) == 0 {
		err = errors.Join(err, errors.New("layout parameter PotFile is empty"))
	}
	if len(l.LocaleDir) == 0 {
		err = errors.Join(err, errors.New("layout parameter LocaleDir is empty"))
	}
	if len(l.MoDir) == 0 {
		err = errors.Join(err, errors.New("layout parameter MoDir is empty"))
	}
	return err
}

// ResolvePaths takes any relative paths in the layout and makes them absolute
// under Root.
func (l *Layout) ResolvePaths() {
	for _, p := range []*string{&l.PotFile, &l.LocaleDir, &l.MoDir, &l.AppEntry, &l.SearchPath, &l.Preferences} {
		if *p == "" {
			continue
		}
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(l.Root, *p)
		}
		*p = filepath.Clean(*p)
	}
}
