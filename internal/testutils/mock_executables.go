package testutils

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/OutragedMetro/manjaro-hello/internal/consts"
	"github.com/OutragedMetro/manjaro-hello/internal/system"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
)

// SystemMock is used to override the system's behaviour. Its control
// parameters are not thread safe. You can modify them in test setup, but after
// that you risk a race.
type SystemMock struct {
	// FsRoot is the path to what will be used as root for the test filesystem.
	FsRoot string

	// Env is the environment the mocked Getenv reads from.
	Env map[string]string

	// MissingExecutables are the executable names the mocked LookPath cannot find.
	MissingExecutables []string

	// extraEnv are extra environment variables that will be passed to mocked executables.
	extraEnv []string
}

//go:embed filesystem_defaults/lsb-release
var defaultLsbReleaseContents []byte

// controlArg Mock-controlling constants.
type controlArg string

// Arguments that control how the mocked executables will behave.
// If none are provided, the mocks imitate the behaviour of the real thing.
const (
	MsgfmtErr   = "HELLO_DEV_MSGFMT_ERR"
	MsginitErr  = "HELLO_DEV_MSGINIT_ERR"
	MsgmergeErr = "HELLO_DEV_MSGMERGE_ERR"
	XgettextErr = "HELLO_DEV_XGETTEXT_ERR"
	AppErr      = "HELLO_DEV_APP_ERR"
)

// mockExecutable is an environment variable used so the mock executables know
// they need to be executed instead of being skipped as faux tests.
const mockExecutable = "HELLO_DEV_MOCK_EXECUTABLE"

// MockSystem sets up a system with mock executables for the gettext toolchain
// and the application, and a temporary filesystem with a default lsb-release.
func MockSystem(t *testing.T) (system.System, *SystemMock) {
	t.Helper()

	mock := &SystemMock{
		FsRoot: mockFilesystemRoot(t),
		Env: map[string]string{
			"LANG": "en_US.UTF-8",
		},
	}

	return system.New(system.WithTestBackend(mock)), mock
}

// SetControlArg adds control arguments to the mock executables.
func (m *SystemMock) SetControlArg(arg controlArg) {
	m.extraEnv = append(m.extraEnv, fmt.Sprintf("%s=1", arg))
}

// Path prepends FsRoot to a path.
func (m *SystemMock) Path(path ...string) string {
	path = append([]string{m.FsRoot}, path...)
	return filepath.Join(path...)
}

// Getenv mocks os.Getenv against the Env map.
func (m *SystemMock) Getenv(key string) string {
	return m.Env[key]
}

// LookPath mocks exec.LookPath: every executable resolves under /usr/bin
// except the ones listed as missing.
func (m *SystemMock) LookPath(file string) (string, error) {
	if slices.Contains(m.MissingExecutables, file) {
		return "", fmt.Errorf("mock executable %q not found in $PATH", file)
	}
	return filepath.Join("/usr/bin", file), nil
}

// mockExec generates a command of the form `bash -ec <SCRIPT>` that will call an alternate binary
// to the one we are mocking.
//
// At the core of the script we have
//
//	```
//	SWITCH1=1 SWITCH2=1 go test -run <FAUX_TEST> -- <ARGS...>
//	```
//
// The switches control the behaviour of the mock, and FAUX_TEST is the name of a Test* function
// that mocks the behaviour of the executable. The ARGS are the arguments that would be passed to
// the real binary, in this case being passed to the mocked one.
//
// The faux test is in charge of interpreting the switches and the args.
//
// The script has some more boilerplate to trim out text from the testing module.
// In order to make the mock work, the faux test needs to be defined in the test module,
// see the documentation on MsgfmtMock for an example.
func (m *SystemMock) mockExec(fauxTestName string, argv ...string) (string, []string) {
	// Switches
	env := make([]string, len(m.extraEnv))
	copy(env, m.extraEnv)
	env = append(env, fmt.Sprintf("%s=1", mockExecutable)) // Ensures the faux test is not skipped
	switches := strings.Join(env, " ")

	// Supplanted executable
	exec := fmt.Sprintf("go test -run ^%s$", fauxTestName)

	// Arguments
	for i := range argv {
		argv[i] = fmt.Sprintf("%q", argv[i])
	}
	args := strings.Join(argv, " ")

	// Heart of the script
	script := fmt.Sprintf("%s %s -- %s", switches, exec, args)

	// The caller may run the command from any directory, but the faux test
	// lives in the package under test.
	if wd, err := os.Getwd(); err == nil {
		script = fmt.Sprintf("cd %q && %s", wd, script)
	}

	// Trimming testing framework text
	script = fmt.Sprintf("set -o pipefail && %s | head -n -2", script)

	return "bash", []string{"-ec", script}
}

// MsgfmtExecutable mocks `msgfmt $args...`.
func (m *SystemMock) MsgfmtExecutable(args ...string) (string, []string) {
	return m.mockExec("TestWithMsgfmtMock", args...)
}

// MsginitExecutable mocks `msginit $args...`.
func (m *SystemMock) MsginitExecutable(args ...string) (string, []string) {
	return m.mockExec("TestWithMsginitMock", args...)
}

// MsgmergeExecutable mocks `msgmerge $args...`.
func (m *SystemMock) MsgmergeExecutable(args ...string) (string, []string) {
	return m.mockExec("TestWithMsgmergeMock", args...)
}

// XgettextExecutable mocks `xgettext $args...`.
func (m *SystemMock) XgettextExecutable(args ...string) (string, []string) {
	return m.mockExec("TestWithXgettextMock", args...)
}

// AppCommand mocks `$entry $args...`.
func (m *SystemMock) AppCommand(entry string, args ...string) (string, []string) {
	return m.mockExec("TestWithAppMock", append([]string{entry}, args...)...)
}

type exitCode int

const (
	exitOk       exitCode = 0  // Mock returns 0
	exitBadUsage exitCode = 5  // Mock was misused
	exitError    exitCode = 99 // Mock returns error as instructed
)

// mockPotCreationDate is the creation date the mock xgettext stamps on every
// template it writes, standing in for the real tool using the current time.
const mockPotCreationDate = "2030-01-01 10:00+0000"

// MsgfmtMock mocks the executable for `msgfmt`.
// Add it to your package_test with:
//
//	func TestWithMsgfmtMock(t *testing.T) { testutils.MsgfmtMock(t) }
//
//nolint:thelper // This is a faux test used to mock the executable `msgfmt`
func MsgfmtMock(t *testing.T) {
	if t.Name() != "TestWithMsgfmtMock" {
		panic("The MsgfmtMock faux test must be named TestWithMsgfmtMock")
	}

	mockMain(t, func(argv []string) exitCode {
		if !slices.Contains(argv, "--check") {
			fmt.Fprintln(os.Stderr, "Mock only implements the strict mode")
			return exitBadUsage
		}

		output, ok := argValue(argv, "--output-file=")
		if !ok || len(argv) < 3 {
			fmt.Fprintf(os.Stderr, "Mock not implemented for args %q\n", argv)
			return exitBadUsage
		}
		input := argv[len(argv)-1]

		if envExists(MsgfmtErr) {
			fmt.Fprintf(os.Stderr, "%s:7: 'msgstr' is not a valid C format string, unlike 'msgid'\n", input)
			fmt.Fprintln(os.Stderr, "msgfmt: found 1 fatal error")
			return exitError
		}

		content, err := os.ReadFile(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "msgfmt: error while opening %q for reading: %v\n", input, err)
			return exitError
		}

		if output != os.DevNull {
			if err := writeMoStub(output); err != nil {
				fmt.Fprintf(os.Stderr, "msgfmt: error while writing %q: %v\n", output, err)
				return exitError
			}
		}

		if slices.Contains(argv, "--statistics") {
			translated, fuzzy, untranslated := poStatistics(string(content))
			fmt.Fprintln(os.Stderr, formatStatistics(translated, fuzzy, untranslated))
		}

		return exitOk
	})
}

// MsginitMock mocks the executable for `msginit`.
// Add it to your package_test with:
//
//	func TestWithMsginitMock(t *testing.T) { testutils.MsginitMock(t) }
//
//nolint:thelper // This is a faux test used to mock the executable `msginit`
func MsginitMock(t *testing.T) {
	if t.Name() != "TestWithMsginitMock" {
		panic("The MsginitMock faux test must be named TestWithMsginitMock")
	}

	mockMain(t, func(argv []string) exitCode {
		input, okIn := argValue(argv, "--input=")
		locale, okLoc := argValue(argv, "--locale=")
		output, okOut := argValue(argv, "--output=")
		if !okIn || !okLoc || !okOut || !slices.Contains(argv, "--no-translator") {
			fmt.Fprintf(os.Stderr, "Mock not implemented for args %q\n", argv)
			return exitBadUsage
		}

		if envExists(MsginitErr) {
			fmt.Fprintln(os.Stderr, "msginit: mock instructed to fail")
			return exitError
		}

		pot, err := os.ReadFile(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "msginit: error while opening %q for reading: %v\n", input, err)
			return exitError
		}

		// The real msginit fills in the Language header from --locale.
		loc := strings.TrimSuffix(locale, ".UTF-8")
		lines := strings.Split(string(pot), "\n")
		for i, l := range lines {
			if strings.HasPrefix(l, `"Language:`) {
				lines[i] = fmt.Sprintf(`"Language: %s\n"`, loc)
			}
		}

		if err := os.WriteFile(output, []byte(strings.Join(lines, "\n")), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "msginit: error while writing %q: %v\n", output, err)
			return exitError
		}
		return exitOk
	})
}

// MsgmergeMock mocks the executable for `msgmerge`. Like the real thing, it
// stamps the template's creation date onto the merged file.
// Add it to your package_test with:
//
//	func TestWithMsgmergeMock(t *testing.T) { testutils.MsgmergeMock(t) }
//
//nolint:thelper // This is a faux test used to mock the executable `msgmerge`
func MsgmergeMock(t *testing.T) {
	if t.Name() != "TestWithMsgmergeMock" {
		panic("The MsgmergeMock faux test must be named TestWithMsgmergeMock")
	}

	mockMain(t, func(argv []string) exitCode {
		if len(argv) != 4 || argv[0] != "--update" || argv[1] != "--backup=none" {
			fmt.Fprintf(os.Stderr, "Mock not implemented for args %q\n", argv)
			return exitBadUsage
		}
		pofile, potfile := argv[2], argv[3]

		if envExists(MsgmergeErr) {
			fmt.Fprintln(os.Stderr, "msgmerge: mock instructed to fail")
			return exitError
		}

		pot, err := os.ReadFile(potfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "msgmerge: error while opening %q for reading: %v\n", potfile, err)
			return exitError
		}
		po, err := os.ReadFile(pofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "msgmerge: error while opening %q for reading: %v\n", pofile, err)
			return exitError
		}

		var potDate string
		for _, l := range strings.Split(string(pot), "\n") {
			if strings.HasPrefix(l, `"POT-Creation-Date:`) {
				potDate = l
				break
			}
		}

		lines := strings.Split(string(po), "\n")
		for i, l := range lines {
			if strings.HasPrefix(l, `"POT-Creation-Date:`) && potDate != "" {
				lines[i] = potDate
			}
		}

		if err := os.WriteFile(pofile, []byte(strings.Join(lines, "\n")), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "msgmerge: error while writing %q: %v\n", pofile, err)
			return exitError
		}
		return exitOk
	})
}

// XgettextMock mocks the executable for `xgettext`. It writes a fixed template
// carrying a fresh creation date, the way the real tool always does.
// Add it to your package_test with:
//
//	func TestWithXgettextMock(t *testing.T) { testutils.XgettextMock(t) }
//
//nolint:thelper // This is a faux test used to mock the executable `xgettext`
func XgettextMock(t *testing.T) {
	if t.Name() != "TestWithXgettextMock" {
		panic("The XgettextMock faux test must be named TestWithXgettextMock")
	}

	mockMain(t, func(argv []string) exitCode {
		var root, output, pkgName string
		var files []string
		for i := 0; i < len(argv); i++ {
			a := argv[i]
			switch {
			case a == "-D" && i+1 < len(argv):
				root = argv[i+1]
				i++
			case strings.HasPrefix(a, "--output="):
				output = strings.TrimPrefix(a, "--output=")
			case strings.HasPrefix(a, "--package-name="):
				pkgName = strings.TrimPrefix(a, "--package-name=")
			case strings.HasPrefix(a, "-"):
				// Extraction flags are irrelevant to the mock.
			default:
				files = append(files, a)
			}
		}

		if root == "" || output == "" || len(files) == 0 {
			fmt.Fprintf(os.Stderr, "Mock not implemented for args %q\n", argv)
			return exitBadUsage
		}

		if envExists(XgettextErr) {
			fmt.Fprintln(os.Stderr, "xgettext: mock instructed to fail")
			return exitError
		}

		for _, f := range files {
			if _, err := os.Stat(filepath.Join(root, f)); err != nil {
				fmt.Fprintf(os.Stderr, "xgettext: error while opening %q for reading: No such file or directory\n", f)
				return exitError
			}
		}

		if pkgName == "" {
			pkgName = "messages"
		}

		pot := fmt.Sprintf(`msgid ""
msgstr ""
"Project-Id-Version: %s\n"
"POT-Creation-Date: %s\n"
"MIME-Version: 1.0\n"
"Content-Type: text/plain; charset=UTF-8\n"
"Language: \n"

msgid "Welcome"
msgstr ""
`, pkgName, mockPotCreationDate)

		if err := os.WriteFile(output, []byte(pot), 0600); err != nil {
			fmt.Fprintf(os.Stderr, "xgettext: error while writing %q: %v\n", output, err)
			return exitError
		}
		return exitOk
	})
}

// AppMock mocks the application entry point. It prints its arguments and the
// dev environment so that tests can assert what a session hands over.
// Add it to your package_test with:
//
//	func TestWithAppMock(t *testing.T) { testutils.AppMock(t) }
//
//nolint:thelper // This is a faux test used to mock the application
func AppMock(t *testing.T) {
	if t.Name() != "TestWithAppMock" {
		panic("The AppMock faux test must be named TestWithAppMock")
	}

	mockMain(t, func(argv []string) exitCode {
		if envExists(AppErr) {
			fmt.Fprintln(os.Stderr, "mock application crashed")
			return exitError
		}

		fmt.Fprintf(os.Stdout, "argv: %s\n", strings.Join(argv, " "))
		fmt.Fprintf(os.Stdout, "%s=%s\n", consts.PluginEnv, os.Getenv(consts.PluginEnv))
		fmt.Fprintf(os.Stdout, "%s=%s\n", consts.SearchPathEnv, os.Getenv(consts.SearchPathEnv))
		return exitOk
	})
}

func envExists(arg controlArg) bool {
	return os.Getenv(string(arg)) != ""
}

// argValue extracts the value of an --arg=value flag from argv.
func argValue(argv []string, prefix string) (string, bool) {
	for _, a := range argv {
		if v, ok := strings.CutPrefix(a, prefix); ok {
			return v, true
		}
	}
	return "", false
}

// writeMoStub writes a valid, empty compiled catalog.
func writeMoStub(path string) error {
	buf := make([]byte, 28)
	binary.LittleEndian.PutUint32(buf[0:], 0x950412de) // GNU mo magic number
	// Zero strings: every table starts right past this header.
	binary.LittleEndian.PutUint32(buf[12:], 28)
	binary.LittleEndian.PutUint32(buf[16:], 28)
	binary.LittleEndian.PutUint32(buf[24:], 28)
	return os.WriteFile(path, buf, 0600)
}

// poStatistics counts entries the way msgfmt --statistics reports them. The
// first entry of a PO file is its header and does not count as a message.
func poStatistics(content string) (translated, fuzzy, untranslated int) {
	header := true
	for _, block := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n") {
		if !strings.Contains(block, "msgid") {
			continue
		}
		if header {
			header = false
			continue
		}
		switch {
		case strings.Contains(block, "#, fuzzy"):
			fuzzy++
		case strings.Contains(block, `msgstr ""`):
			untranslated++
		default:
			translated++
		}
	}
	return translated, fuzzy, untranslated
}

// formatStatistics renders counts in the exact shape msgfmt prints them.
func formatStatistics(translated, fuzzy, untranslated int) string {
	plural := func(n int, noun string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, noun)
		}
		return fmt.Sprintf("%d %ss", n, noun)
	}

	parts := []string{plural(translated, "translated message")}
	if fuzzy > 0 {
		parts = append(parts, plural(fuzzy, "fuzzy translation"))
	}
	if untranslated > 0 {
		parts = append(parts, plural(untranslated, "untranslated message"))
	}
	return strings.Join(parts, ", ") + "."
}

// mockMain performs boilerplate to mock the main function:
//
//   - ensures all paths end in os.Exit
//
//   - reparses os.Args as:
//
//     go test -run $testName [-- argv...]
//
//nolint:thelper // This is not a real test
func mockMain(t *testing.T, f func(argv []string) exitCode) {
	if !envExists(mockExecutable) {
		t.Skip("Skipped because it is not a real test, but rather a mocked executable")
	}

	var argv []string
	begin := slices.Index(os.Args, "--")
	if begin != -1 {
		argv = os.Args[begin+1:]
	}

	exit := int(f(argv))
	if exit == 0 {
		// testing library only prints this line when it fails
		// Manually printing it means that we can simply remove the last two lines to get the true output
		fmt.Fprintln(os.Stdout, "exit status 0")
	}
	syscall.Exit(exit)
}

// mockFilesystemRoot sets up a skeleton filesystem with the files the system
// package reads, and returns its root dir.
func mockFilesystemRoot(t *testing.T) (rootDir string) {
	t.Helper()

	rootDir = t.TempDir()

	err := os.MkdirAll(filepath.Join(rootDir, "etc"), 0750)
	require.NoError(t, err, "Setup: could not create mock /etc/")

	err = os.WriteFile(filepath.Join(rootDir, "etc/lsb-release"), defaultLsbReleaseContents, 0600)
	require.NoError(t, err, "Setup: could not write mock /etc/lsb-release")

	return rootDir
}
