package devtool

import (
	"fmt"
	"strings"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/OutragedMetro/manjaro-hello/internal/locales"
	"github.com/OutragedMetro/manjaro-hello/internal/preferences"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// gettextTools are the executables a fully working checkout relies on.
var gettextTools = []string{"msgfmt", "msginit", "msgmerge", "xgettext"}

func (a *App) installStatus() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: i18n.G("Shows the state of the development environment and exits"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printStatus()
		},
	}
	a.rootCmd.AddCommand(cmd)
}

// printStatus reports everything a dev session depends on: the project tree,
// the host, the toolchain, the catalogs and the application preferences.
func (a *App) printStatus() error {
	l, err := a.config.layout()
	if err != nil {
		return err
	}

	fmt.Printf(i18n.G("Project root: %s")+"\n", l.Root)

	// The application degrades to these values when the host is not readable,
	// keep the status report consistent with it.
	id, release, codename := "not Manjaro", "0.0", ""
	if info, err := a.sys.DistroInfo(); err != nil {
		log.Warningf("Could not read distribution information: %v", err)
	} else {
		id, release, codename = info.ID, info.Release, info.Codename
	}
	if codename != "" {
		codename = " (" + codename + ")"
	}
	fmt.Printf(i18n.G("Distribution: %s %s%s")+"\n", id, release, codename)

	fmt.Println(i18n.G("Toolchain:"))
	for _, tool := range gettextTools {
		path, err := a.sys.LookPath(tool)
		if err != nil {
			path = i18n.G("not found")
		}
		fmt.Printf("  %s: %s\n", tool, path)
	}

	installed, err := locales.Installed(l.MoDir, l.Domain)
	if err != nil {
		log.Debugf("No compiled catalogs: %v", err)
	}
	if len(installed) == 0 {
		fmt.Println(i18n.G("Compiled locales: none"))
	} else {
		fmt.Printf(i18n.G("Compiled locales: %s")+"\n", strings.Join(installed, ", "))
	}

	prefs, err := preferences.Load(l.Preferences)
	if err != nil {
		log.Warningf("Could not load the preferences: %v", err)
		fmt.Println(i18n.G("Preferences: not loadable"))
		return nil
	}
	prefs = prefs.WithDevPaths(l.Root)

	state, err := prefs.LoadState()
	if err != nil {
		log.Warningf("Could not load the application state: %v", err)
	}

	fallback := prefs.DefaultLocale
	if fallback == "" {
		fallback = "en"
	}
	best := locales.Best(l.MoDir, l.Domain, state.Locale, a.sys.SystemLocale(), fallback)
	fmt.Printf(i18n.G("Active locale: %s")+"\n", best)

	if missing := prefs.MissingPaths(); len(missing) > 0 {
		fmt.Println(i18n.G("Preferences: missing paths:"))
		for _, p := range missing {
			fmt.Printf("  %s\n", p)
		}
		return nil
	}
	fmt.Println(i18n.G("Preferences: OK"))

	return nil
}
