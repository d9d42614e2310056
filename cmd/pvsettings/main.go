// Command pvsettings inspects, edits and serves the XML settings document
// that describes a PV monitoring installation: its device managers,
// devices, register layouts, serial ports and device conversations.
//
// Run "pvsettings serve" to keep the document loaded, broadcast changes over
// MQTT, record them in InfluxDB and SQLite, reload it when edited on disk,
// and poll the configured Modbus devices.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}

// execute runs the command line and maps the outcome to an exit code.
func execute(ctx context.Context, args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return exitCode(err)
	}
	return ExitCodeSuccess
}
