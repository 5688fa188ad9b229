package devtool

import (
	"errors"
	"fmt"

	"github.com/OutragedMetro/manjaro-hello/internal/i18n"
	"github.com/OutragedMetro/manjaro-hello/internal/locales"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *App) installLocales() {
	localesCmd := &cobra.Command{
		Use:   "locales COMMAND",
		Short: i18n.G("Manages the translation files of the project"),
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return cmd.Help() },
	}

	generateMo := &cobra.Command{
		Use:   "generate-mo",
		Short: i18n.G("Rebuilds the compiled catalog tree from the PO files"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.config.layout()
			if err != nil {
				return err
			}

			compiled, err := locales.GenerateMo(cmd.Context(), a.sys, l)
			if err != nil {
				return err
			}

			for _, loc := range compiled {
				fmt.Println(loc)
			}
			log.Infof("Compiled %d catalog(s) under %q", len(compiled), l.MoDir)
			return nil
		},
	}

	createPo := &cobra.Command{
		Use:   "create-po LOCALE...",
		Short: i18n.G("Bootstraps PO files for new locales from the POT template"),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.config.layout()
			if err != nil {
				return err
			}

			return locales.CreatePo(cmd.Context(), a.sys, l, args...)
		},
	}

	updatePo := &cobra.Command{
		Use:   "update-po",
		Short: i18n.G("Refreshes the POT template and the PO files from the project sources"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.config.layout()
			if err != nil {
				return err
			}

			return locales.UpdatePo(cmd.Context(), a.sys, l)
		},
	}

	check := &cobra.Command{
		Use:   "check",
		Short: i18n.G("Validates the PO files and reports how complete they are"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.config.layout()
			if err != nil {
				return err
			}

			stats, err := locales.Check(cmd.Context(), a.sys, l)
			if err != nil {
				return err
			}

			var incomplete bool
			for _, s := range stats {
				fmt.Printf(i18n.G("%s: %d translated, %d fuzzy, %d untranslated")+"\n",
					s.Locale, s.Translated, s.Fuzzy, s.Untranslated)
				if !s.Complete() {
					incomplete = true
				}
			}

			if incomplete {
				return errors.New(i18n.G("some catalogs are incomplete"))
			}
			return nil
		},
	}

	localesCmd.AddCommand(generateMo, createPo, updatePo, check)
	a.rootCmd.AddCommand(localesCmd)
}
