package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the devices, serial ports and database of the settings document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := e.loadSettings(settings.NewContext())
			if err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), app)
		},
	}
}

func printSettings(out io.Writer, app *settings.ApplicationSettings) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "MANAGER\tPROTOCOL\tBUS\tDEVICE\tKIND\tADDRESS\tENABLED")
	for _, m := range app.DeviceManagers().All() {
		bus := busName(m)
		if m.Devices().Len() == 0 {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t\t\t\n", m.Name(), m.Protocol(), bus)
			continue
		}
		for _, d := range m.Devices().All() {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
				m.Name(), m.Protocol(), bus, d.Name(), d.Kind(), formatAddress(d), d.Enabled())
		}
	}

	if app.SerialPorts().Len() > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "SERIAL PORT\tDEVICE\tBAUD\tPARITY")
		for _, p := range app.SerialPorts().All() {
			baud := "-"
			if b, err := p.BaudRate(); err == nil && b != nil {
				baud = fmt.Sprint(*b)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name(), p.PortName(), baud, p.Parity())
		}
	}

	if el := app.Document().Root.FirstChild(settings.TagDatabase); el != nil {
		db := app.Database()
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "DATABASE\t%s\t%s%s\n", db.Type(), db.Host(), db.File())
	}

	return tw.Flush()
}

func busName(m *settings.DeviceManager) string {
	switch m.Protocol() {
	case settings.ProtocolModbusRTU:
		return m.SerialPortName()
	case settings.ProtocolModbusTCP:
		if p, err := m.Port(); err == nil && p != nil {
			return fmt.Sprintf("%s:%d", m.Host(), *p)
		}
		return m.Host()
	default:
		return "-"
	}
}

func formatAddress(d *settings.Device) string {
	a, err := d.Address()
	if err != nil || a == nil {
		return "-"
	}
	return fmt.Sprint(*a)
}
