package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fystack/appprefs/internal/preferences"
	"github.com/fystack/appprefs/pkg/common/logger"
	"github.com/fystack/appprefs/pkg/events"
	"github.com/fystack/appprefs/pkg/infra"
	"github.com/goccy/go-yaml"
)

type GetCmd struct {
	JSON bool `help:"Print JSON instead of YAML." name:"json"`
}

func (c *GetCmd) Run(app *App) error {
	store, err := app.KVStore()
	if err != nil {
		return err
	}
	prefs, err := app.Preferences()
	if err != nil {
		return err
	}

	var snapshot preferences.Snapshot
	err = prefs.View(store, func(tx infra.ReadTx) error {
		snapshot, err = prefs.Snapshot(tx)
		return err
	})
	if err != nil {
		return err
	}

	var out []byte
	if c.JSON {
		out, err = json.MarshalIndent(snapshot, "", "  ")
		out = append(out, '\n')
	} else {
		out, err = yaml.Marshal(snapshot)
	}
	if err != nil {
		return err
	}
	_, err = app.out.Write(out)
	return err
}

type SetCmd struct {
	Name           string `arg:"" help:"Preference name, one of: ${names}."`
	Value          string `arg:"" help:"New value."`
	Sync           bool   `help:"Send a configuration sync message to linked devices." name:"sync"`
	StorageService bool   `help:"Record pending local account updates for the storage service." name:"storage-service"`
}

func (c *SetCmd) Run(app *App) error {
	opts := preferences.SyncOptions{
		SendSyncMessage:      c.Sync,
		UpdateStorageService: c.StorageService,
	}

	store, err := app.KVStore()
	if err != nil {
		return err
	}
	prefs, err := app.Preferences()
	if err != nil {
		return err
	}
	if err := prefs.Update(store, func(tx infra.WriteTx) error {
		return prefs.SetByName(tx, c.Name, c.Value, opts)
	}); err != nil {
		return err
	}
	logger.Info("Preference updated", "name", c.Name, "value", c.Value)
	return nil
}

type ClearEpochCmd struct{}

func (c *ClearEpochCmd) Run(app *App) error {
	store, err := app.KVStore()
	if err != nil {
		return err
	}
	prefs, err := app.Preferences()
	if err != nil {
		return err
	}
	return prefs.Update(store, prefs.ClearMessageRequestInteractionIDEpoch)
}

type SchemaCmd struct {
	Status     SchemaStatusCmd     `cmd:"" default:"1" help:"Print the stored and latest schema versions."`
	MarkLatest SchemaMarkLatestCmd `cmd:"" name:"mark-latest" help:"Record the latest schema version."`
	Set        SchemaSetCmd        `cmd:"" help:"Record a schema version. Lower versions are refused."`
}

type SchemaStatusCmd struct{}

func (c *SchemaStatusCmd) Run(app *App) error {
	guard, err := app.SchemaGuard()
	if err != nil {
		return err
	}
	status, err := guard.Status()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(app.out, "current: %d\nlatest: %d\nunknown: %t\n", status.Current, status.Latest, status.Unknown)
	return err
}

type SchemaMarkLatestCmd struct{}

func (c *SchemaMarkLatestCmd) Run(app *App) error {
	guard, err := app.SchemaGuard()
	if err != nil {
		return err
	}
	return guard.MarkAsLatest()
}

type SchemaSetCmd struct {
	Version uint64 `arg:"" help:"Schema version."`
}

func (c *SchemaSetCmd) Run(app *App) error {
	guard, err := app.SchemaGuard()
	if err != nil {
		return err
	}
	return guard.SetVersion(c.Version)
}

type MarkersCmd struct {
	Migrated *bool `help:"Set the migrated marker." name:"migrated"`
	EverUsed *bool `help:"Set the ever-used marker." name:"ever-used"`
}

func (c *MarkersCmd) Run(app *App) error {
	store, err := app.Settings()
	if err != nil {
		return err
	}
	markers := preferences.NewMarkers(store)

	if c.Migrated != nil {
		if err := markers.SetIsYdbMigrated(*c.Migrated); err != nil {
			return err
		}
	}
	if c.EverUsed != nil {
		if err := markers.SetDidEverUseYdb(*c.EverUsed); err != nil {
			return err
		}
	}

	migrated, err := markers.IsYdbMigrated()
	if err != nil {
		return err
	}
	everUsed, err := markers.DidEverUseYdb()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(app.out, "isYdbMigrated: %t\ndidEverUseYdb: %t\n", migrated, everUsed)
	return err
}

type WatchCmd struct {
	Consumer string `help:"Durable consumer name." default:"prefsctl-watch" name:"consumer"`
}

func (c *WatchCmd) Run(app *App) error {
	queues, err := app.Queues()
	if err != nil {
		return err
	}
	queue, err := queues.NewMessageQueue(c.Consumer, app.cfg.Nats.SubjectPrefix+".>")
	if err != nil {
		return err
	}
	defer queue.Close()

	err = queue.Dequeue(func(subject string, message []byte) error {
		event, err := events.Decode(message)
		if err != nil {
			logger.Error("Unmarshal error", "subject", subject, "err", err)
			return infra.ErrPermament
		}
		_, err = fmt.Fprintf(app.out, "[%s] type=%s account=%s ts=%d\n", subject, event.Type, event.Account, event.Timestamp)
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("Watching preference events... Press Ctrl+C to stop", "subject", app.cfg.Nats.SubjectPrefix+".>")
	<-shutdownSignal()
	return nil
}

func shutdownSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}
