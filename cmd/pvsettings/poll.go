package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/modbus"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

func newPollCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "poll [manager]",
		Short: "Read and decode the register blocks of enabled devices once",
		Long: `Opens the serial line or TCP connection of a device manager, reads
every block message from each enabled device and prints the decoded
values. Without a manager name every manager is polled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.loadSettings(settings.NewContext())
			if err != nil {
				return err
			}

			p := modbus.NewPoller(app, modbus.Options{
				Timeout: e.cfg.GetModbusTimeout(),
				TCPPort: e.cfg.Modbus.TCPPort,
			})
			p.SetLogger(e.log)

			var results []modbus.DeviceResult
			if len(args) == 1 {
				m, err := app.FindDeviceManager(args[0])
				if err != nil {
					return err
				}
				if results, err = p.PollManager(cmd.Context(), m); err != nil {
					return err
				}
			} else {
				results = p.PollAll(cmd.Context())
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			return printReadings(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func printReadings(out io.Writer, results []modbus.DeviceResult) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MANAGER\tDEVICE\tREGISTER\tVALUE")
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\terror\t%v\n", res.Manager, res.Device, res.Err)
			continue
		}
		for _, r := range res.Readings {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%g\n", res.Manager, res.Device, r.Register, r.Value)
		}
	}
	return tw.Flush()
}
