package main

import (
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fystack/appprefs/internal/preferences"
)

// --- CLI definitions --- //

type CLI struct {
	ConfigPath string `help:"Path to config file." default:"configs/config.yaml" name:"config" type:"path"`
	Debug      bool   `help:"Enable debug logs." name:"debug"`

	Get        GetCmd        `cmd:"" help:"Print every preference."`
	Set        SetCmd        `cmd:"" help:"Set a preference."`
	ClearEpoch ClearEpochCmd `cmd:"" name:"clear-epoch" help:"Clear the message request interaction id epoch."`
	Schema     SchemaCmd     `cmd:"" help:"Inspect or advance the schema version."`
	Markers    MarkersCmd    `cmd:"" help:"Print or set the YDB migration markers."`
	Watch      WatchCmd      `cmd:"" help:"Print preference events published on NATS."`
	Serve      ServeCmd      `cmd:"" help:"Serve the preferences HTTP API and metrics."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("prefsctl"),
		kong.Description("Inspect and edit application preferences."),
		kong.UsageOnError(),
		kong.Vars{"names": strings.Join(preferences.Names(), ", ")},
	)

	app, err := newApp(cli.ConfigPath, cli.Debug)
	ctx.FatalIfErrorf(err)
	defer app.Close()

	err = ctx.Run(app)
	ctx.FatalIfErrorf(err)
}
