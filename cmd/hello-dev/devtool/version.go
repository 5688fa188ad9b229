package devtool

import (
	"fmt"

	"github.com/OutragedMetro/manjaro-hello/internal/consts"
	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/spf13/cobra"
)

func (a *App) installVersion() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: i18n.G("Returns version of the toolbox and exits"),
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return getVersion() },
	}
	a.rootCmd.AddCommand(cmd)
}

// getVersion returns the current toolbox version.
func getVersion() (err error) {
	fmt.Printf(i18n.G("%s\t%s")+"\n", cmdName, consts.Version)
	return nil
}
