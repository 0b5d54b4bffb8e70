package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/fystack/appprefs/internal/preferences"
	"github.com/fystack/appprefs/pkg/common/config"
	"github.com/fystack/appprefs/pkg/common/logger"
	"github.com/fystack/appprefs/pkg/events"
	"github.com/fystack/appprefs/pkg/infra"
	"github.com/fystack/appprefs/pkg/kvstore"
	"github.com/fystack/appprefs/pkg/schema"
	"github.com/fystack/appprefs/pkg/settings"
	"github.com/nats-io/nats.go"
)

// App opens the stores and the NATS connection on first use, so each command only
// pays for what it touches.
type App struct {
	cfg *config.Config
	out io.Writer

	store    infra.KVStore
	settings settings.Store
	nc       *nats.Conn
	queues   *infra.NATsMessageQueueManager
	emitter  events.Emitter
	prefs    *preferences.Preferences
}

func newApp(configPath string, debug bool) (*App, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})

	if err := config.LoadEnvFile(config.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Config file not found, using defaults", "path", configPath)
		cfg, err = config.Parse([]byte("{}"))
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Config loaded", "kvstore", cfg.KVS.Type, "settings", cfg.Settings.Type, "nats", cfg.Nats.Enabled)

	return newAppFromConfig(cfg, os.Stdout), nil
}

func newAppFromConfig(cfg *config.Config, out io.Writer) *App {
	return &App{cfg: cfg, out: out}
}

func (a *App) KVStore() (infra.KVStore, error) {
	if a.store == nil {
		store, err := kvstore.NewFromConfig(a.cfg.KVS, string(a.cfg.Environment))
		if err != nil {
			return nil, err
		}
		logger.Debug("Opened kvstore", "type", store.GetName())
		a.store = store
	}
	return a.store, nil
}

func (a *App) Settings() (settings.Store, error) {
	if a.settings == nil {
		store, err := settings.NewFromConfig(a.cfg.Settings, a.cfg.Account)
		if err != nil {
			return nil, err
		}
		logger.Debug("Opened settings store", "type", store.GetName())
		a.settings = store
	}
	return a.settings, nil
}

func (a *App) Queues() (*infra.NATsMessageQueueManager, error) {
	if a.queues == nil {
		nc, err := infra.GetNATSConnection(a.cfg.Nats, string(a.cfg.Environment))
		if err != nil {
			return nil, err
		}
		a.nc = nc
		queues, err := infra.NewNATsMessageQueueManager(a.cfg.Nats.Stream, []string{a.cfg.Nats.SubjectPrefix + ".>"}, nc)
		if err != nil {
			return nil, err
		}
		a.queues = queues
	}
	return a.queues, nil
}

// Preferences returns the accessor with side effects wired to NATS when enabled.
func (a *App) Preferences() (*preferences.Preferences, error) {
	if a.prefs != nil {
		return a.prefs, nil
	}
	var (
		syncer         preferences.SyncMessageSender     = events.Nop{}
		storageService preferences.StorageServiceManager = events.Nop{}
	)
	if a.cfg.Nats.Enabled {
		queues, err := a.Queues()
		if err != nil {
			return nil, err
		}
		a.emitter = events.NewEmitter(queues.NewPublisher(), a.cfg.Nats.SubjectPrefix, a.cfg.Account)
		syncer = events.NewConfigurationSyncer(a.emitter)
		storageService = events.NewStorageServiceCoordinator(a.emitter)
	}
	a.prefs = preferences.New(preferences.NewCache(),
		preferences.WithSyncMessageSender(syncer),
		preferences.WithStorageServiceManager(storageService),
	)
	return a.prefs, nil
}

func (a *App) SchemaGuard() (*schema.Guard, error) {
	store, err := a.Settings()
	if err != nil {
		return nil, err
	}
	return schema.NewGuard(store, schema.WithDefaultVersion(a.cfg.Schema.DefaultVersion)), nil
}

func (a *App) Close() {
	if a.emitter != nil {
		a.emitter.Close()
	}
	if a.nc != nil {
		a.nc.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Error("Close kvstore failed", "err", err)
		}
	}
	if a.settings != nil {
		if err := a.settings.Close(); err != nil {
			logger.Error("Close settings store failed", "err", err)
		}
	}
}
