// Package devtool implements the development toolbox for the application: it
// rebuilds the compiled translation catalogs and starts the application in dev
// mode, and groups the maintenance commands around the translation files.
package devtool

import (
	"context"
	"fmt"
	"strings"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/OutragedMetro/manjaro-hello/internal/launcher"
	"github.com/OutragedMetro/manjaro-hello/internal/locales"
	"github.com/OutragedMetro/manjaro-hello/internal/system"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cmdName is the binary name for the toolbox.
const cmdName = "hello-dev"

// App encapsulates commands and options of the toolbox, which can be controlled
// by env variables and config files.
type App struct {
	rootCmd cobra.Command
	viper   *viper.Viper
	config  devConfig

	sys     system.System
	session *launcher.Launcher

	ready chan struct{}
}

type options struct {
	system system.System
}

type option func(*options)

// New registers commands and returns a new App.
func New(args ...option) *App {
	opts := options{
		system: system.New(),
	}
	for _, f := range args {
		f(&opts)
	}

	a := App{
		ready: make(chan struct{}),
		sys:   opts.system,
	}
	a.rootCmd = cobra.Command{
		Use:   fmt.Sprintf("%s COMMAND", cmdName),
		Short: i18n.G("Development toolbox for Manjaro Hello"),
		Long: i18n.G(`Hello Dev rebuilds the compiled translation catalogs of the project
and starts the application in dev mode, plugin enabled, running against
the project tree instead of the installed files.`),
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Force a visit of the local flags so persistent flags for all parents are merged.
			cmd.LocalFlags()

			// command parsing has been successful. Returns to not print usage anymore.
			a.rootCmd.SilenceUsage = true

			if err := initViperConfig(cmdName, &a.rootCmd, a.viper); err != nil {
				return err
			}

			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to decode configuration into struct: %w", err)
			}

			setVerboseMode(a.config.Verbosity)
			log.Debug("Debug mode is enabled")

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.startSession(cmd.Context())
		},
		// We display usage error ourselves
		SilenceErrors: true,
	}
	a.viper = viper.New()

	installVerbosityFlag(&a.rootCmd, a.viper)
	installConfigFlag(&a.rootCmd)
	installSessionFlags(&a.rootCmd, a.viper)

	// subcommands
	a.installVersion()
	a.installLocales()
	a.installStatus()
	a.installClean()

	return &a
}

// startSession is the default command: it rebuilds the catalogs and hands over
// to the application. This call is blocking until the application exits or the
// session is quit.
func (a *App) startSession(ctx context.Context) (err error) {
	l, err := a.config.layout()
	if err != nil {
		close(a.ready)
		return err
	}

	if a.config.SkipLocales {
		log.Info("Skipping the catalog rebuild")
	} else {
		compiled, err := locales.GenerateMo(ctx, a.sys, l)
		if err != nil {
			close(a.ready)
			return err
		}
		log.Infof("Compiled catalogs: %s", strings.Join(compiled, ", "))
	}

	if a.config.Watch {
		stop, err := launcher.WatchLocales(ctx, a.sys, l)
		if err != nil {
			close(a.ready)
			return err
		}
		defer stop()
	}

	a.session = launcher.New(a.sys, l, a.launcherOptions()...)
	close(a.ready)

	return a.session.Serve(ctx)
}

// launcherOptions translates the app section of the configuration into
// launcher options.
func (a *App) launcherOptions() []launcher.Option {
	opts := []launcher.Option{
		launcher.WithPluginEnv(a.config.App.PluginEnv),
		launcher.WithSearchPathEnv(a.config.App.SearchPathEnv),
		launcher.WithExtraArgs(a.config.App.Args),
	}
	if !a.config.App.PluginEnabled {
		opts = append(opts, launcher.WithPluginDisabled())
	}
	return opts
}

// Run executes the command and associated process. It returns an error on syntax/usage error.
func (a *App) Run() error {
	return a.rootCmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.rootCmd.SilenceUsage
}

// Quit gracefully shuts down the dev session.
func (a *App) Quit() {
	a.WaitReady()
	if a.session == nil {
		return
	}
	a.session.Quit(context.Background(), false)
}

// WaitReady signals when the dev session is attached to the application.
// Note: we need to use a pointer to not copy the App object before the session
// is ready, and thus, creates a data race.
func (a *App) WaitReady() {
	<-a.ready
}

// RootCmd returns a copy of the root command for the app. Shouldn't be in
// general necessary apart when running generators.
func (a App) RootCmd() cobra.Command {
	return a.rootCmd
}

// SetArgs changes the root command args. Shouldn't be in general necessary apart for tests.
func (a *App) SetArgs(args ...string) {
	a.rootCmd.SetArgs(args)
}

// Config returns the devConfig for test purposes.
//
//nolint:revive
func (a App) Config() devConfig {
	return a.config
}
