package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/config"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/database"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/logging"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
	"github.com/EamonHetherton/PVBeanCounter-sub003/migrations"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeInvalidSettings indicates the settings document failed to load or validate.
	ExitCodeInvalidSettings = 2
)

// errStoreDisabled is returned by commands that need the SQLite store when it is turned off.
var errStoreDisabled = errors.New("store is disabled in configuration")

// invalidSettingsError marks failures caused by the settings document itself.
type invalidSettingsError struct {
	err error
}

func (e *invalidSettingsError) Error() string { return e.err.Error() }

func (e *invalidSettingsError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var invalid *invalidSettingsError
	if errors.As(err, &invalid) {
		return ExitCodeInvalidSettings
	}
	return ExitCodeError
}

// env carries what PersistentPreRunE resolves for every subcommand.
type env struct {
	configPath   string
	settingsPath string

	cfg *config.Config
	log *logging.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:   "pvsettings",
		Short: "Manage the settings document of a PV monitoring installation",
		Long: `pvsettings loads, validates and edits the XML settings document that
describes device managers, devices, register layouts and serial ports,
and can serve it as a long-running process that broadcasts every change.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
	}
	cmd.SetVersionTemplate(`{{printf "pvsettings version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVarP(&e.configPath, "config", "c", os.Getenv("PVSETTINGS_CONFIG"),
		"service config file (YAML); defaults are used when empty")
	cmd.PersistentFlags().StringVarP(&e.settingsPath, "settings", "s", "",
		"settings document, overrides settings.path from the config")

	cmd.AddCommand(
		newValidateCmd(e),
		newShowCmd(e),
		newSetCmd(e),
		newPollCmd(e),
		newSnapshotCmd(e),
		newHistoryCmd(e),
		newServeCmd(e),
		newTokenCmd(e),
		newVersionCmd(),
	)
	return cmd
}

func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if e.settingsPath != "" {
		cfg.Settings.Path = e.settingsPath
	}
	e.cfg = cfg
	e.log = logging.NewWithWriter(cfg.Logging, version, cmd.ErrOrStderr())
	return nil
}

// loadSettings reads and builds the settings document on ctx.
func (e *env) loadSettings(ctx *settings.Context) (*settings.ApplicationSettings, error) {
	app, err := settings.LoadFile(ctx, e.cfg.Settings.Path)
	if err != nil {
		return nil, &invalidSettingsError{fmt.Errorf("loading %s: %w", e.cfg.Settings.Path, err)}
	}
	return app, nil
}

// openStore opens and migrates the SQLite store.
func (e *env) openStore(cmd *cobra.Command) (*database.DB, error) {
	if !e.cfg.Store.Enabled {
		return nil, errStoreDisabled
	}
	db, err := database.Open(database.Config{
		Path:        e.cfg.Store.Path,
		WALMode:     e.cfg.Store.WALMode,
		BusyTimeout: e.cfg.Store.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := db.Migrate(cmd.Context(), migrations.FS); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("migrating store: %w", err)
	}
	return db, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading so version always works
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pvsettings version %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
