package system

import (
	"os"
	"os/exec"
	"path/filepath"
)

type realBackend struct{}

// Path translates an absolute path into its analogous provided for the back-end.
func (b realBackend) Path(p ...string) string {
	return filepath.Join(p...)
}

// Getenv obtains the value of the environment variable key.
func (b realBackend) Getenv(key string) string {
	return os.Getenv(key)
}

// LookPath searches for an executable in the directories named by PATH.
func (b realBackend) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// MsgfmtExecutable returns the full command to run the msgfmt executable with the provided arguments.
func (b realBackend) MsgfmtExecutable(args ...string) (string, []string) {
	return "msgfmt", args
}

// MsginitExecutable returns the full command to run the msginit executable with the provided arguments.
func (b realBackend) MsginitExecutable(args ...string) (string, []string) {
	return "msginit", args
}

// MsgmergeExecutable returns the full command to run the msgmerge executable with the provided arguments.
func (b realBackend) MsgmergeExecutable(args ...string) (string, []string) {
	return "msgmerge", args
}

// XgettextExecutable returns the full command to run the xgettext executable with the provided arguments.
func (b realBackend) XgettextExecutable(args ...string) (string, []string) {
	return "xgettext", args
}

// AppCommand returns the full command to run the application entry point with the provided arguments.
func (b realBackend) AppCommand(entry string, args ...string) (string, []string) {
	return entry, args
}
