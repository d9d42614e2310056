package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/api"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/audit"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/config"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/database"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/influxdb"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/logging"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/mqtt"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/modbus"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/notify"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/watcher"
	"github.com/EamonHetherton/PVBeanCounter-sub003/migrations"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Keep the settings document loaded and broadcast every change",
		Long: `Loads the settings document and runs until interrupted. Each change is
published over MQTT, written to InfluxDB, recorded in the SQLite history
and pushed to WebSocket clients, for whichever of those are enabled.
Device attributes can be set on <prefix>/settings/set/<device>/<attribute>
or with PATCH /api/v1/devices/<device>. The document is reloaded when
edited on disk, and enabled devices are polled when modbus.poll_interval
is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), e.cfg, e.log)
		},
	}
}

// errNotLoaded is returned by requests that arrive before the first load.
var errNotLoaded = errors.New("settings not loaded yet")

// service owns the loaded settings tree. The tree is not safe for
// concurrent use, so every access from the MQTT handler, the API, the
// watcher and the poll loop goes through mu.
//
// Change events are held in changes until the edit that raised them is on
// disk; the fan-out sinks subscribe to changes, never to sctx directly.
type service struct {
	cfg *config.Config
	log *logging.Logger

	mu        sync.Mutex
	sctx      *settings.Context
	changes   *notify.Buffer
	app       *settings.ApplicationSettings
	saved     *document.Document
	poller    *modbus.Poller
	snapshots document.Repository
	audit     *notify.AuditRecorder
	topics    mqtt.Topics
}

func newService(cfg *config.Config, log *logging.Logger) *service {
	sctx := settings.NewContext()
	sctx.SetLogger(log)
	changes := notify.NewBuffer(notify.NewLogObserver(log))
	sctx.Subscribe(changes)
	return &service{
		cfg:     cfg,
		log:     log,
		sctx:    sctx,
		changes: changes,
		topics:  mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix},
	}
}

// load reads the document from disk and validates it without installing it.
func (s *service) load() (*settings.ApplicationSettings, error) {
	app, err := settings.LoadFile(s.sctx, s.cfg.Settings.Path)
	if err != nil {
		return nil, err
	}
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

// install makes app the live tree. Callers hold mu.
func (s *service) install(ctx context.Context, app *settings.ApplicationSettings) {
	s.app = app
	s.saved = app.Document().Clone()
	s.saveSnapshot(ctx)
}

// reload replaces the live tree with the document on disk. An invalid
// document is rejected and the previous tree stays live.
func (s *service) reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, err := s.load()
	if err != nil {
		return err
	}
	s.install(ctx, app)
	return nil
}

// saveSnapshot stores the live document. Callers hold mu.
func (s *service) saveSnapshot(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, s.cfg.Store.Snapshot, s.app.Document()); err != nil {
		s.log.Error("saving settings snapshot", "snapshot", s.cfg.Store.Snapshot, "error", err)
	}
}

// revert drops the held change events and rebuilds the live tree from the
// last document that was installed or saved. Callers hold mu.
func (s *service) revert() {
	if n := s.changes.Discard(); n > 0 {
		s.log.Debug("discarded settings changes", "events", n)
	}
	app, err := settings.Load(s.sctx, s.saved.Clone())
	if err != nil {
		s.log.Error("reverting settings", "path", s.cfg.Settings.Path, "error", err)
		return
	}
	s.app = app
}

// View implements api.SettingsStore.
func (s *service) View(fn func(app *settings.ApplicationSettings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.app == nil {
		return errNotLoaded
	}
	return fn(s.app)
}

// SetDeviceAttributes implements api.SettingsStore.
func (s *service) SetDeviceAttributes(device string, attrs map[string]string) error {
	return s.setDeviceAttributes("api", device, attrs)
}

// setDeviceAttributes applies attrs in name order and records the changes
// under source. If any fails, the result does not validate or the document
// cannot be saved, the tree is rebuilt and no change event leaves the
// service.
func (s *service) setDeviceAttributes(source, device string, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.app == nil {
		return errNotLoaded
	}
	d, err := s.app.FindDevice(device)
	if err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		if err := d.SetAttribute(name, attrs[name]); err != nil {
			s.revert()
			return err
		}
	}
	if err := s.app.Validate(); err != nil {
		s.revert()
		return fmt.Errorf("%w: %w", api.ErrRejected, err)
	}
	if err := s.app.SaveFile(s.cfg.Settings.Path); err != nil {
		s.revert()
		return fmt.Errorf("saving %s: %w", s.cfg.Settings.Path, err)
	}
	s.saved = s.app.Document().Clone()

	if s.audit != nil {
		s.audit.SetSource(source)
	}
	s.changes.Flush()
	s.saveSnapshot(context.Background())
	s.log.Info("device attributes set", "device", device, "attributes", len(attrs), "source", source)
	return nil
}

// handleSet applies a <prefix>/settings/set/<device>/<attribute> command.
func (s *service) handleSet(topic string, payload []byte) error {
	device, attribute, ok := s.topics.ParseSettingsSet(topic)
	if !ok {
		return fmt.Errorf("unexpected topic %s", topic)
	}
	return s.setDeviceAttributes("mqtt", device, map[string]string{attribute: string(payload)})
}

// resultSink receives the results of one poll round.
type resultSink interface {
	Deliver(results []modbus.DeviceResult)
}

// pollOnce polls a detached copy of the live tree and hands the results to
// sinks. mu is held only while copying, so device I/O does not block
// writers.
func (s *service) pollOnce(ctx context.Context, sinks []resultSink) {
	s.mu.Lock()
	if s.app == nil {
		s.mu.Unlock()
		return
	}
	doc := s.app.Document().Clone()
	s.mu.Unlock()

	app, err := settings.Load(nil, doc)
	if err != nil {
		s.log.Error("copying settings for poll", "error", err)
		return
	}
	results := s.poller.WithSettings(app).PollAll(ctx)
	for _, sink := range sinks {
		sink.Deliver(results)
	}
}

func (s *service) pollLoop(ctx context.Context, interval time.Duration, sinks []resultSink) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx, sinks)
		}
	}
}

// runServe wires the service together and blocks until ctx is cancelled.
func runServe(ctx context.Context, cfg *config.Config, log *logging.Logger) error { //nolint:gocognit,gocyclo // linear startup sequence
	log.Info("starting pvsettings", "version", version, "commit", commit, "build_date", date)
	s := newService(cfg, log)

	// Stays an untyped nil when the store is off
	var history audit.Repository
	if cfg.Store.Enabled {
		db, err := database.Open(database.Config{
			Path:        cfg.Store.Path,
			WALMode:     cfg.Store.WALMode,
			BusyTimeout: cfg.Store.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer func() {
			log.Info("closing store")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing store", "error", closeErr)
			}
		}()
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return fmt.Errorf("migrating store: %w", err)
		}
		s.snapshots = document.NewSQLiteRepository(db.DB)

		history = audit.NewSQLiteRepository(db.DB)
		s.audit = notify.NewAuditRecorder(history, "serve")
		s.audit.SetLogger(log)
		s.changes.Subscribe(s.audit)
		log.Info("store ready", "path", cfg.Store.Path)
	}

	app, err := s.load()
	if err != nil {
		return &invalidSettingsError{fmt.Errorf("loading %s: %w", cfg.Settings.Path, err)}
	}

	var publisher notify.Publisher
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		publisher = mqttClient

		pub := notify.NewMQTTPublisher(mqttClient, s.topics)
		pub.SetLogger(log)
		s.changes.Subscribe(pub)

		if err := mqttClient.Subscribe(s.topics.AllSettingsSet(), s.handleSet); err != nil {
			return fmt.Errorf("subscribing to settings commands: %w", err)
		}
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"prefix", s.topics.Prefix,
		)
	} else {
		log.Info("MQTT disabled")
	}

	var readingWriter notify.ReadingWriter
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		readingWriter = influxClient
		s.changes.Subscribe(notify.NewInfluxRecorder(influxClient))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	sink := notify.NewReadingsSink(publisher, s.topics, readingWriter)
	sink.SetLogger(log)
	sinks := []resultSink{sink}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Security:  cfg.Security,
			Logger:    log,
			Settings:  s,
			History:   history,
			Snapshots: s.snapshots,
			Version:   version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		s.changes.Subscribe(apiServer.Hub())
		sinks = append(sinks, apiServer.Hub())
	} else {
		log.Info("API disabled")
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.GetPollInterval() > 0 {
		// Each round polls its own copy of the tree
		s.poller = modbus.NewPoller(nil, modbus.Options{
			Timeout: cfg.GetModbusTimeout(),
			TCPPort: cfg.Modbus.TCPPort,
		})
		s.poller.SetLogger(log)
	}
	s.mu.Lock()
	s.install(ctx, app)
	s.mu.Unlock()
	log.Info("settings loaded", "path", cfg.Settings.Path, "managers", app.DeviceManagers().Len())

	if apiServer != nil {
		if err := apiServer.Start(runCtx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if interval := cfg.GetPollInterval(); interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.pollLoop(runCtx, interval, sinks)
		}()
		log.Info("polling devices", "interval", interval)
	}

	if cfg.Settings.Watch {
		w, err := watcher.New(cfg.Settings.Path, cfg.GetDebounce(), s.reload)
		if err != nil {
			return err
		}
		w.SetLogger(log)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(runCtx); err != nil {
				log.Error("settings watcher stopped", "error", err)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}
