package devtool

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OutragedMetro/manjaro-hello/internal/consts"
	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/OutragedMetro/manjaro-hello/internal/project"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ubuntu/decorate"
)

// devConfig is the configuration of the toolbox, decoded from the config file,
// the environment and the command line.
type devConfig struct {
	Verbosity int

	// ProjectRoot pins the project tree to work on. When empty, the toolbox
	// climbs from the current directory until it finds the translation sources.
	ProjectRoot string `mapstructure:"project-root"`

	SkipLocales bool `mapstructure:"skip-locales"`
	Watch       bool

	I18n struct {
		Domain    string
		PotFile   string `mapstructure:"pot-file"`
		LocaleDir string `mapstructure:"locale-dir"`
		MoDir     string `mapstructure:"mo-dir"`
		Sources   []string
	}

	App struct {
		Entry         string
		Args          []string
		PluginEnabled bool   `mapstructure:"plugin-enabled"`
		PluginEnv     string `mapstructure:"plugin-env"`
		SearchPath    string `mapstructure:"search-path"`
		SearchPathEnv string `mapstructure:"search-path-env"`
		Preferences   string
	}
}

// layout resolves the configuration into the absolute project layout the
// commands operate on.
func (c devConfig) layout() (project.Layout, error) {
	root, err := project.FindRoot(c.ProjectRoot, c.I18n.LocaleDir)
	if err != nil {
		return project.Layout{}, err
	}

	l := project.Layout{
		Root:        root,
		Domain:      c.I18n.Domain,
		PotFile:     c.I18n.PotFile,
		LocaleDir:   c.I18n.LocaleDir,
		MoDir:       c.I18n.MoDir,
		Sources:     c.I18n.Sources,
		AppEntry:    c.App.Entry,
		SearchPath:  c.App.SearchPath,
		Preferences: c.App.Preferences,
	}
	l.ResolvePaths()

	return l, l.Validate()
}

func initViperConfig(name string, cmd *cobra.Command, vip *viper.Viper) (err error) {
	defer decorate.OnError(&err, i18n.G("can't load configuration"))

	// Use command-line flag for verbosity until configuration is parsed
	v, err := cmd.Flags().GetCount("verbosity")
	if err != nil {
		return fmt.Errorf("internal error: no persistent verbosity flags installed on cmd: %w", err)
	}
	setVerboseMode(v)

	// Find a valid configuration file
	if v, err := cmd.Flags().GetString("config"); err == nil && v != "" {
		vip.SetConfigFile(v)
	} else {
		vip.SetConfigName(name)
		vip.AddConfigPath("./")
		vip.AddConfigPath("$HOME/")
		if binPath, err := os.Executable(); err != nil {
			log.Warningf("Failed to get the current executable path, not adding it as a config dir: %v", err)
		} else {
			vip.AddConfigPath(filepath.Dir(binPath))
		}
	}

	// Load the config
	if err := vip.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if errors.As(err, &e) {
			log.Infof("No configuration file: %v", e)
		} else {
			return fmt.Errorf("invalid configuration file: %v", err)
		}
	} else {
		log.Infof("Using configuration file: %v", vip.ConfigFileUsed())
	}

	// Parse environment variables
	vip.SetEnvPrefix("HELLO_DEV")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()

	setConfigDefaults(vip)

	return nil
}

// setConfigDefaults registers the layout of the upstream project so that an
// unconfigured run works out of the box from anywhere inside its tree.
func setConfigDefaults(vip *viper.Viper) {
	// Registering the key is what lets the environment override it.
	vip.SetDefault("project-root", "")

	vip.SetDefault("i18n.domain", consts.TEXTDOMAIN)
	vip.SetDefault("i18n.pot-file", consts.DefaultPotFile)
	vip.SetDefault("i18n.locale-dir", consts.DefaultLocaleDir)
	vip.SetDefault("i18n.mo-dir", consts.DefaultMoDir)
	vip.SetDefault("i18n.sources", consts.DefaultSources)
	vip.SetDefault("app.entry", consts.DefaultAppEntry)
	vip.SetDefault("app.plugin-enabled", true)
	vip.SetDefault("app.plugin-env", consts.PluginEnv)
	vip.SetDefault("app.search-path", consts.DefaultSourceDir)
	vip.SetDefault("app.search-path-env", consts.SearchPathEnv)
	vip.SetDefault("app.preferences", consts.DefaultPreferencesPath)
}

// installVerbosityFlag adds the -v and -vv options and returns the reference to it.
func installVerbosityFlag(cmd *cobra.Command, vip *viper.Viper) *int {
	r := cmd.PersistentFlags().CountP("verbosity", "v", i18n.G("issue INFO (-v), DEBUG (-vv) or DEBUG with caller (-vvv) output"))
	if err := vip.BindPFlag("verbosity", cmd.PersistentFlags().Lookup("verbosity")); err != nil {
		log.Warning(err)
	}
	return r
}

// installConfigFlag adds the --config flag to allow for custom config paths.
func installConfigFlag(cmd *cobra.Command) *string {
	return cmd.PersistentFlags().StringP("config", "c", "", i18n.G("configuration file path"))
}

// installSessionFlags adds the flags tweaking the default dev session.
func installSessionFlags(cmd *cobra.Command, vip *viper.Viper) {
	cmd.Flags().Bool("skip-locales", false, i18n.G("start the application without rebuilding the catalogs"))
	cmd.Flags().Bool("watch", false, i18n.G("rebuild the catalogs whenever a translation source changes"))

	for _, name := range []string{"skip-locales", "watch"} {
		if err := vip.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			log.Warning(err)
		}
	}
}

// setVerboseMode changes the logging level between very, middly and non verbose.
func setVerboseMode(level int) {
	var reportCaller bool
	switch level {
	case 0:
		log.SetLevel(consts.DefaultLogLevel)
	case 1:
		log.SetLevel(log.InfoLevel)
	case 3:
		reportCaller = true
		fallthrough
	default:
		log.SetLevel(log.DebugLevel)
	}
	log.SetReportCaller(reportCaller)
}
