package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

func newSnapshotCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, list, restore and delete settings snapshots in the store",
	}

	// withRepo opens the store for the duration of fn.
	withRepo := func(cmd *cobra.Command, fn func(repo *document.SQLiteRepository) error) error {
		db, err := e.openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // short-lived CLI connection
		return fn(document.NewSQLiteRepository(db.DB))
	}

	save := &cobra.Command{
		Use:   "save [name]",
		Short: "Store the settings document under name (default from store.snapshot)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := e.cfg.Store.Snapshot
			if len(args) == 1 {
				name = args[0]
			}
			app, err := e.loadSettings(settings.NewContext())
			if err != nil {
				return err
			}
			return withRepo(cmd, func(repo *document.SQLiteRepository) error {
				if err := repo.Save(cmd.Context(), name, app.Document()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved snapshot %q\n", name)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepo(cmd, func(repo *document.SQLiteRepository) error {
				infos, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSAVED\tELEMENTS")
				for _, info := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", info.Name, info.SavedAt.Format(time.RFC3339), info.Elements)
				}
				return tw.Flush()
			})
		},
	}

	restore := &cobra.Command{
		Use:   "restore <name>",
		Short: "Overwrite the settings document with a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd, func(repo *document.SQLiteRepository) error {
				doc, err := repo.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				// Refuse to write something that would not load back
				if _, err := settings.Load(settings.NewContext(), doc); err != nil {
					return &invalidSettingsError{fmt.Errorf("snapshot %q: %w", args[0], err)}
				}
				if err := doc.SaveFile(e.cfg.Settings.Path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored snapshot %q to %s\n", args[0], e.cfg.Settings.Path)
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd, func(repo *document.SQLiteRepository) error {
				if err := repo.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted snapshot %q\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(save, list, restore, del)
	return cmd
}
