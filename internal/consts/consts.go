// Package consts defines the constants used by the project
package consts

import (
	log "github.com/sirupsen/logrus"
)

const (
	// TEXTDOMAIN is the gettext domain for l10n.
	TEXTDOMAIN = `manjaro-hello`

	// DefaultLogLevel is the default logging level selected without any option.
	DefaultLogLevel = log.WarnLevel

	// DefaultLocaleDir is the directory containing the translation sources (PO files),
	// relative to the project root.
	DefaultLocaleDir = "po"

	// DefaultPotFile is the Portable Object Template the PO files derive from,
	// relative to the project root.
	DefaultPotFile = "po/manjaro-hello.pot"

	// DefaultMoDir is the root of the compiled catalog tree rebuilt on every run,
	// relative to the project root.
	DefaultMoDir = "locale"

	// DefaultSourceDir is the directory containing the application sources,
	// relative to the project root.
	DefaultSourceDir = "src"

	// DefaultAppEntry is the application entry point launched in dev mode,
	// relative to the project root.
	DefaultAppEntry = "src/manjaro_hello.py"

	// DefaultPreferencesPath is the application preferences file read by status checks,
	// relative to the project root.
	DefaultPreferencesPath = "data/preferences.json"

	// DevFlag is the flag appended to the application arguments to request dev mode.
	DevFlag = "--dev"

	// PluginEnv is the environment variable exported to the application to enable
	// the applications browser plugin.
	PluginEnv = "APPS_PLUGIN"

	// SearchPathEnv is the environment variable exported to the application with
	// the module search path of the project, so that an uninstalled tree resolves
	// its own modules first.
	SearchPathEnv = "PYTHONPATH"
)

// DefaultSources are the file suffixes translatable strings are extracted from.
var DefaultSources = []string{".py", ".glade"}

// Version is the version of the toolbox.
//
// It is set at build time using the -ldflags option.
var Version = "Dev"
