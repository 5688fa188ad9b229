package launcher_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/OutragedMetro/manjaro-hello/internal/launcher"
	"github.com/OutragedMetro/manjaro-hello/internal/project"
	"github.com/OutragedMetro/manjaro-hello/internal/system"
	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		searchPath string
		opts       []launcher.Option

		want []string
	}{
		"Defaults":                  {searchPath: "/project/src", want: []string{"APPS_PLUGIN=1", "PYTHONPATH=/project/src"}},
		"Plugin disabled":           {searchPath: "/project/src", opts: []launcher.Option{launcher.WithPluginDisabled()}, want: []string{"PYTHONPATH=/project/src"}},
		"No search path":            {want: []string{"APPS_PLUGIN=1"}},
		"Custom variable names":     {searchPath: "/project/src", opts: []launcher.Option{launcher.WithPluginEnv("FLAG"), launcher.WithSearchPathEnv("SEARCH")}, want: []string{"FLAG=1", "SEARCH=/project/src"}},
		"Empty names keep defaults": {searchPath: "/project/src", opts: []launcher.Option{launcher.WithPluginEnv(""), launcher.WithSearchPathEnv("")}, want: []string{"APPS_PLUGIN=1", "PYTHONPATH=/project/src"}},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := launcher.New(system.New(), project.Layout{SearchPath: tc.searchPath}, tc.opts...)
			require.Equal(t, tc.want, l.Env(), "Unexpected dev environment")
		})
	}
}

func TestServe(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	outPath := filepath.Join(root, "out.txt")
	out, err := os.Create(outPath)
	require.NoError(t, err, "Setup: could not create the output file")
	defer out.Close()

	backend := &shellBackend{script: `echo "flag=${APPS_PLUGIN} path=${PYTHONPATH} pwd=$(pwd -P)"`}
	sys := system.New(system.WithTestBackend(backend))

	layout := testLayout(root)
	l := launcher.New(sys, layout,
		launcher.WithExtraArgs([]string{"--page", "home"}),
		launcher.WithStdio(out, os.Stderr),
	)

	err = l.Serve(context.Background())
	require.NoError(t, err, "Serve should return no error when the application exits cleanly")

	entry, args := backend.appCall()
	require.Equal(t, layout.AppEntry, entry, "The entry point should be handed over unchanged")
	require.Equal(t, []string{"--dev", "--page", "home"}, args, "The dev flag should come before the extra arguments")

	physRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err, "Setup: could not resolve the project root")

	got, err := os.ReadFile(outPath)
	require.NoError(t, err, "Could not read the application output")
	want := fmt.Sprintf("flag=1 path=%s pwd=%s\n", layout.SearchPath, physRoot)
	require.Equal(t, want, string(got), "Unexpected environment handed to the application")
}

func TestServeExitStatus(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		script string

		wantErr string
	}{
		"A clean exit is not an error": {script: "exit 0"},
		"A failure carries the status": {script: "exit 7", wantErr: "exited with status 7"},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			backend := &shellBackend{script: tc.script}
			sys := system.New(system.WithTestBackend(backend))

			l := launcher.New(sys, testLayout(t.TempDir()))

			err := l.Serve(context.Background())
			if tc.wantErr == "" {
				require.NoError(t, err, "Serve should return no error when the application exits cleanly")
				return
			}
			require.ErrorContains(t, err, tc.wantErr, "Serve should propagate the application exit status")
		})
	}
}

func TestServeCancel(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	started := filepath.Join(root, "started")

	backend := &shellBackend{script: fmt.Sprintf("touch %q && sleep 30", started)}
	sys := system.New(system.WithTestBackend(backend))

	l := launcher.New(sys, testLayout(root), launcher.WithGraceDelay(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- l.Serve(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(started)
		return err == nil
	}, 10*time.Second, 100*time.Millisecond, "The application should have started")

	cancel()

	select {
	case err := <-served:
		require.ErrorIs(t, err, context.Canceled, "Serve should report the context cancellation")
	case <-time.After(10 * time.Second):
		require.Fail(t, "Serve should return after the context is cancelled")
	}
}

func TestQuit(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		force bool
	}{
		"Graceful quit lets the application stop": {},
		"Force quit kills a stubborn application": {force: true},
	}

	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			started := filepath.Join(root, "started")

			script := fmt.Sprintf("touch %q && sleep 30", started)
			if tc.force {
				script = fmt.Sprintf("trap '' TERM; touch %q; sleep 30", started)
			}

			backend := &shellBackend{script: script}
			sys := system.New(system.WithTestBackend(backend))

			l := launcher.New(sys, testLayout(root), launcher.WithGraceDelay(time.Second))

			served := make(chan error, 1)
			go func() { served <- l.Serve(context.Background()) }()

			require.Eventually(t, func() bool {
				_, err := os.Stat(started)
				return err == nil
			}, 10*time.Second, 100*time.Millisecond, "The application should have started")

			l.Quit(context.Background(), tc.force)

			select {
			case err := <-served:
				require.NoError(t, err, "A quit session is not an error")
			case <-time.After(10 * time.Second):
				require.Fail(t, "Serve should return after Quit")
			}
		})
	}
}

func TestQuitBeforeServe(t *testing.T) {
	t.Parallel()

	backend := &shellBackend{script: "exit 0"}
	sys := system.New(system.WithTestBackend(backend))

	l := launcher.New(sys, testLayout(t.TempDir()))

	// Must return immediately.
	l.Quit(context.Background(), false)
	l.Quit(context.Background(), true)
}

func testLayout(root string) project.Layout {
	return project.Layout{
		Root:       root,
		Domain:     "manjaro-hello",
		PotFile:    filepath.Join(root, "po", "manjaro-hello.pot"),
		LocaleDir:  filepath.Join(root, "po"),
		MoDir:      filepath.Join(root, "locale"),
		AppEntry:   filepath.Join(root, "src", "manjaro_hello.py"),
		SearchPath: filepath.Join(root, "src"),
	}
}

// shellBackend launches a shell script in place of the application, so tests
// can script arbitrary process behaviour. The gettext toolchain is off limits.
type shellBackend struct {
	script string

	mu       sync.Mutex
	gotEntry string
	gotArgs  []string
}

func (b *shellBackend) Path(p ...string) string              { return filepath.Join(p...) }
func (b *shellBackend) Getenv(key string) string             { return os.Getenv(key) }
func (b *shellBackend) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (b *shellBackend) MsgfmtExecutable(args ...string) (string, []string) {
	panic("unexpected call to msgfmt")
}

func (b *shellBackend) MsginitExecutable(args ...string) (string, []string) {
	panic("unexpected call to msginit")
}

func (b *shellBackend) MsgmergeExecutable(args ...string) (string, []string) {
	panic("unexpected call to msgmerge")
}

func (b *shellBackend) XgettextExecutable(args ...string) (string, []string) {
	panic("unexpected call to xgettext")
}

func (b *shellBackend) AppCommand(entry string, args ...string) (string, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gotEntry = entry
	b.gotArgs = args
	return "/bin/sh", []string{"-c", b.script}
}

func (b *shellBackend) appCall() (string, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gotEntry, b.gotArgs
}
