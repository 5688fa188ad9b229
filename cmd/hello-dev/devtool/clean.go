package devtool

import (
	"fmt"
	"os"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *App) installClean() {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: i18n.G("Removes the generated catalog tree and exits"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer log.Debug("clean command finished")

			l, err := a.config.layout()
			if err != nil {
				return err
			}

			if err := os.RemoveAll(l.MoDir); err != nil {
				return fmt.Errorf(i18n.G("could not clean up %s: %v"), l.MoDir, err)
			}

			log.Infof("Removed %q", l.MoDir)
			return nil
		},
	}
	a.rootCmd.AddCommand(cmd)
}
