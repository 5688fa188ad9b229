// Package launcher starts the application in dev mode and supervises it until
// it exits or the session is quit.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/OutragedMetro/manjaro-hello/internal/consts"
	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/OutragedMetro/manjaro-hello/internal/project"
	"github.com/OutragedMetro/manjaro-hello/internal/system"
	log "github.com/sirupsen/logrus"
	"github.com/ubuntu/decorate"
)

// Launcher runs the application entry point with the dev flag and the dev
// environment, forwarding its stdio.
type Launcher struct {
	sys    system.System
	layout project.Layout

	pluginEnabled bool
	pluginEnv     string
	searchPathEnv string
	extraArgs     []string
	graceDelay    time.Duration
	stdout        *os.File
	stderr        *os.File

	// Channels for internal messaging.
	started      atomic.Bool
	running      chan struct{}
	gracefulStop func()
	forceStop    func()
}

type options struct {
	pluginEnabled bool
	pluginEnv     string
	searchPathEnv string
	extraArgs     []string
	graceDelay    time.Duration
	stdout        *os.File
	stderr        *os.File
}

// Option is the function signature used to tweak the launcher creation.
type Option func(*options)

// WithPluginDisabled keeps the plugin feature flag out of the child environment.
func WithPluginDisabled() Option {
	return func(o *options) {
		o.pluginEnabled = false
	}
}

// WithPluginEnv overrides the name of the feature flag variable.
func WithPluginEnv(name string) Option {
	return func(o *options) {
		if name != "" {
			o.pluginEnv = name
		}
	}
}

// WithSearchPathEnv overrides the name of the search path variable.
func WithSearchPathEnv(name string) Option {
	return func(o *options) {
		if name != "" {
			o.searchPathEnv = name
		}
	}
}

// WithExtraArgs appends arguments to the application invocation, after the dev flag.
func WithExtraArgs(args []string) Option {
	return func(o *options) {
		o.extraArgs = args
	}
}

// WithGraceDelay overrides how long a quitting session waits for the
// application before killing it.
func WithGraceDelay(d time.Duration) Option {
	return func(o *options) {
		o.graceDelay = d
	}
}

// WithStdio redirects the application output. For testing purposes only.
func WithStdio(stdout, stderr *os.File) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// New returns a launcher for the application described by the layout.
func New(sys system.System, l project.Layout, args ...Option) *Launcher {
	opts := options{
		pluginEnabled: true,
		pluginEnv:     consts.PluginEnv,
		searchPathEnv: consts.SearchPathEnv,
		graceDelay:    5 * time.Second,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
	}
	for _, f := range args {
		f(&opts)
	}

	return &Launcher{
		sys:    sys,
		layout: l,

		pluginEnabled: opts.pluginEnabled,
		pluginEnv:     opts.pluginEnv,
		searchPathEnv: opts.searchPathEnv,
		extraArgs:     opts.extraArgs,
		graceDelay:    opts.graceDelay,
		stdout:        opts.stdout,
		stderr:        opts.stderr,
	}
}

// Env returns the variables exported to the application on top of the
// inherited environment.
func (l *Launcher) Env() []string {
	var env []string
	if l.pluginEnabled {
		env = append(env, l.pluginEnv+"=1")
	}
	if l.layout.SearchPath != "" {
		env = append(env, l.searchPathEnv+"="+l.layout.SearchPath)
	}
	return env
}

// Serve starts the application and blocks until it exits or the session is
// quit. The application exit status is propagated as an error.
func (l *Launcher) Serve(ctx context.Context) (err error) {
	defer decorate.OnError(&err, i18n.G("dev session failed"))

	gracefulStop := make(chan struct{})
	var gracefulStopOnce sync.Once
	l.gracefulStop = func() {
		gracefulStopOnce.Do(func() { close(gracefulStop) })
	}

	forceStop := make(chan struct{})
	var forceStopOnce sync.Once
	l.forceStop = func() {
		forceStopOnce.Do(func() { close(forceStop) })
	}

	l.running = make(chan struct{})
	defer close(l.running)

	l.started.Store(true)

	exe, args := l.sys.AppCommand(l.layout.AppEntry, append([]string{consts.DevFlag}, l.extraArgs...)...)

	//nolint:gosec // the entry point comes from the toolbox configuration.
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = l.layout.Root
	cmd.Env = append(os.Environ(), l.Env()...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = l.graceDelay

	log.Infof("Starting %s %s", exe, args)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("couldn't start %q: %v", exe, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return l.exitStatus(err)

	case <-gracefulStop:
		log.Info("Stopping the application")
		if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
			log.Warningf("Could not stop the application gracefully: %v", err)
			_ = cmd.Process.Kill()
		}

		select {
		case <-done:
		case <-forceStop:
			_ = cmd.Process.Kill()
			<-done
		case <-time.After(l.graceDelay):
			log.Warning("Application did not stop in time, killing it")
			_ = cmd.Process.Kill()
			<-done
		}
		return nil

	case <-forceStop:
		log.Info("Killing the application")
		_ = cmd.Process.Kill()
		<-done
		return nil
	}
}

// exitStatus translates the error of a finished application into the session error.
func (l *Launcher) exitStatus(err error) error {
	if err == nil {
		log.Debug("Application exited successfully")
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("the application exited with status %d", exitErr.ExitCode())
	}
	return err
}

// Quit stops the session. It does nothing when the session was not started.
func (l *Launcher) Quit(ctx context.Context, force bool) {
	if !l.started.Load() {
		return
	}

	if force {
		l.forceStop()
	} else {
		l.gracefulStop()
	}

	select {
	case <-l.running:
	case <-ctx.Done():
		log.Warningf("Stopped waiting for the session to exit: %v", ctx.Err())
	}
}
