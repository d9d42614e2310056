package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/audit"
)

func newHistoryCmd(e *env) *cobra.Command {
	var filter audit.Filter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded settings changes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // short-lived CLI connection

			res, err := audit.NewSQLiteRepository(db.DB).List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tSOURCE\tELEMENT\tATTRIBUTE\tVALUE")
			for _, en := range res.Entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					en.CreatedAt.Format(time.RFC3339), en.Source, en.Element, en.Attribute, en.Value)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d changes\n", len(res.Entries), res.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Tag, "tag", "", "only changes to this kind of node (device, devicemanager, ...)")
	cmd.Flags().StringVar(&filter.Element, "element", "", "only changes to this element path")
	cmd.Flags().StringVar(&filter.Session, "session", "", "only changes made in this session")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of changes to print")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "number of changes to skip")
	return cmd
}
