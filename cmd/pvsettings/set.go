package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/audit"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/notify"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

func newSetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <device> <attribute> <value>",
		Short: "Change one device attribute and save the document",
		Long: `Sets name, kind, serialno, address or enabled on a device, validates
the resulting document and writes it back. With the store enabled the
change is recorded in the audit history and the snapshot is refreshed.`,
		Example: `  pvsettings set Inv1 enabled false
  pvsettings set Inv1 address 7`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := settings.NewContext()
			ctx.SetLogger(e.log)
			ctx.Subscribe(notify.NewLogObserver(e.log))

			// Held back until the document is saved
			pending := notify.NewBuffer()
			ctx.Subscribe(pending)

			app, err := e.loadSettings(ctx)
			if err != nil {
				return err
			}
			d, err := app.FindDevice(args[0])
			if err != nil {
				return err
			}
			if err := d.SetAttribute(args[1], args[2]); err != nil {
				return err
			}
			if err := app.Validate(); err != nil {
				return &invalidSettingsError{err}
			}
			if err := app.SaveFile(e.cfg.Settings.Path); err != nil {
				return fmt.Errorf("saving %s: %w", e.cfg.Settings.Path, err)
			}

			if e.cfg.Store.Enabled {
				db, err := e.openStore(cmd)
				if err != nil {
					return err
				}
				defer db.Close() //nolint:errcheck // read-mostly CLI connection

				rec := notify.NewAuditRecorder(audit.NewSQLiteRepository(db.DB), "cli")
				rec.SetLogger(e.log)
				pending.Subscribe(rec)
				pending.Flush()
				snapshots := document.NewSQLiteRepository(db.DB)
				if err := snapshots.Save(cmd.Context(), e.cfg.Store.Snapshot, app.Document()); err != nil {
					return fmt.Errorf("saving snapshot: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s.%s = %s\n", d.Name(), args[1], d.GetValue(args[1]))
			return nil
		},
	}
}
