package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

func newValidateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the settings document for errors",
		Long: `Loads the settings document and checks it for malformed values,
duplicate device and device manager names, and device managers whose
transport is incomplete. Every problem found is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := e.loadSettings(settings.NewContext())
			if err != nil {
				return err
			}
			if err := app.Validate(); err != nil {
				return &invalidSettingsError{err}
			}

			devices := 0
			for range app.Devices().All() {
				devices++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d device managers, %d devices)\n",
				e.cfg.Settings.Path, app.DeviceManagers().Len(), devices)
			return nil
		},
	}
}
