// Package system mediates the interactions of the toolbox with the host: the
// environment, the gettext toolchain and the application entry point.
package system

import (
	"os"
	"strings"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/ubuntu/decorate"
	"gopkg.in/ini.v1"
)

// System is an object with an easily pluggable back-end that allows accessing
// the environment and a few key executables.
//
// Do not replace the backend after construction, and use one of the provided
// constructors.
type System struct {
	backend Backend // Not embedding to avoid calling its backend directly
}

// Backend is the engine behind the System object, and defines the interactions
// it can perform with the operating system.
type Backend interface {
	Path(p ...string) string
	Getenv(key string) string
	LookPath(file string) (string, error)
	MsgfmtExecutable(args ...string) (string, []string)
	MsginitExecutable(args ...string) (string, []string)
	MsgmergeExecutable(args ...string) (string, []string)
	XgettextExecutable(args ...string) (string, []string)
	AppCommand(entry string, args ...string) (string, []string)
}

type options struct {
	backend Backend
}

// Option is an optional argument for New.
type Option = func(*options)

// WithTestBackend is an optional argument for New that injects a backend into the system.
// For testing purposes only.
func WithTestBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// New instantiates a stateless object that mediates interactions with the
// environment as well as a few key executables.
func New(args ...Option) System {
	opts := options{backend: realBackend{}}
	for _, f := range args {
		f(&opts)
	}

	return System{
		backend: opts.backend,
	}
}

// Path converts an absolute path into one inside the mocked filesystem.
func (s System) Path(path ...string) string {
	return s.backend.Path(path...)
}

// Getenv obtains the value of the environment variable key.
func (s System) Getenv(key string) string {
	return s.backend.Getenv(key)
}

// LookPath searches for an executable in the directories named by PATH.
func (s System) LookPath(file string) (string, error) {
	return s.backend.LookPath(file)
}

// Msgfmt returns the full command to run msgfmt with the provided arguments.
func (s System) Msgfmt(args ...string) (string, []string) {
	return s.backend.MsgfmtExecutable(args...)
}

// Msginit returns the full command to run msginit with the provided arguments.
func (s System) Msginit(args ...string) (string, []string) {
	return s.backend.MsginitExecutable(args...)
}

// Msgmerge returns the full command to run msgmerge with the provided arguments.
func (s System) Msgmerge(args ...string) (string, []string) {
	return s.backend.MsgmergeExecutable(args...)
}

// Xgettext returns the full command to run xgettext with the provided arguments.
func (s System) Xgettext(args ...string) (string, []string) {
	return s.backend.XgettextExecutable(args...)
}

// AppCommand returns the full command to run the application entry point with
// the provided arguments.
func (s System) AppCommand(entry string, args ...string) (string, []string) {
	return s.backend.AppCommand(entry, args...)
}

// DistroInfo is the information about the target distribution read from the
// lsb-release file.
type DistroInfo struct {
	ID          string
	Release     string
	Codename    string
	Description string
}

// DistroInfo parses the lsb-release file of the host.
func (s System) DistroInfo() (info DistroInfo, err error) {
	defer decorate.OnError(&err, i18n.G("could not read distribution information"))

	const fileName = "/etc/lsb-release"

	out, err := os.ReadFile(s.backend.Path(fileName))
	if err != nil {
		return info, err
	}

	var marshaller struct {
		DistribId          string //nolint:revive // ini SnackCase mapping derives DISTRIB_ID from this spelling
		DistribRelease     string
		DistribCodename    string
		DistribDescription string
	}

	if err := ini.MapToWithMapper(&marshaller, ini.SnackCase, out); err != nil {
		return info, err
	}

	info.ID = marshaller.DistribId
	info.Release = marshaller.DistribRelease
	info.Codename = marshaller.DistribCodename
	info.Description = marshaller.DistribDescription

	return info, nil
}

// SystemLocale returns the locale preferred by the host environment, without
// its encoding suffix. Lookup order is the usual LC_ALL, LC_MESSAGES, LANG.
func (s System) SystemLocale() string {
	var loc string
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := s.backend.Getenv(key); v != "" {
			loc = v
			break
		}
	}

	// en_US.UTF-8 -> en_US
	if i := strings.Index(loc, "."); i != -1 {
		loc = loc[:i]
	}
	// sr@latin -> sr
	if i := strings.Index(loc, "@"); i != -1 {
		loc = loc[:i]
	}

	if loc == "C" || loc == "POSIX" {
		return ""
	}

	return loc
}
