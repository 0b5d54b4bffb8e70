// Package schema tracks the newest database schema version applied on this device.
//
// The version only moves forward. A lower value is refused with a diagnostic, and a
// stored value newer than this build knows about means the data was written by a
// newer release.
package schema

import (
	"github.com/fystack/appprefs/pkg/common/logger"
	"github.com/fystack/appprefs/pkg/metrics"
	"github.com/fystack/appprefs/pkg/settings"
)

// Known schema versions, oldest first. Append only; persisted values refer to these.
const (
	VersionInitial uint64 = iota + 1
	VersionMessageRequestEpoch
	VersionContactAvatarPreference

	LatestVersion = VersionContactAvatarPreference
)

// DefaultVersion is reported when nothing has been stored yet.
const DefaultVersion uint64 = 0

const versionKey = "grdbSchemaVersion"

// Reporter receives diagnostics for anomalies that are logged rather than returned.
// *slog.Logger satisfies it.
type Reporter interface {
	Warn(msg string, args ...any)
}

// logReporter resolves the process logger on every call, so a Guard built before
// logger.Init still reports through the configured handler.
type logReporter struct{}

func (logReporter) Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

type Guard struct {
	store          settings.Store
	defaultVersion uint64
	latestVersion  uint64
	reporter       Reporter
}

type Option func(*Guard)

func WithDefaultVersion(v uint64) Option {
	return func(g *Guard) { g.defaultVersion = v }
}

// WithLatestVersion overrides LatestVersion.
func WithLatestVersion(v uint64) Option {
	return func(g *Guard) { g.latestVersion = v }
}

func WithReporter(r Reporter) Option {
	return func(g *Guard) { g.reporter = r }
}

func NewGuard(store settings.Store, opts ...Option) *Guard {
	g := &Guard{
		store:          store,
		defaultVersion: DefaultVersion,
		latestVersion:  LatestVersion,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.reporter == nil {
		g.reporter = logReporter{}
	}
	return g
}

func (g *Guard) LatestVersion() uint64 {
	return g.latestVersion
}

// CurrentVersion returns the stored version, or the default when none is stored.
func (g *Guard) CurrentVersion() (uint64, error) {
	return settings.GetUint(g.store, versionKey, g.defaultVersion)
}

// MarkAsLatest records that every migration known to this build has run.
func (g *Guard) MarkAsLatest() error {
	return g.SetVersion(g.latestVersion)
}

// SetVersion stores v if it is newer than the current version.
// Equal is a no-op; lower is reported and ignored.
func (g *Guard) SetVersion(v uint64) error {
	current, err := g.CurrentVersion()
	if err != nil {
		return err
	}
	if v == current {
		return nil
	}
	if v < current {
		metrics.SchemaAnomalies.WithLabelValues("downgrade").Inc()
		g.reporter.Warn("Refusing to revert to earlier schema version", "current", current, "requested", v)
		return nil
	}

	logger.Info("Updating schema version", "from", current, "to", v)
	return settings.SetUint(g.store, versionKey, v)
}

// HasUnknownSchema reports whether the stored version is newer than this build's latest.
func (g *Guard) HasUnknownSchema() (bool, error) {
	current, err := g.CurrentVersion()
	if err != nil {
		return false, err
	}
	if current > g.latestVersion {
		metrics.SchemaAnomalies.WithLabelValues("unknown").Inc()
		g.reporter.Warn("Stored schema version is newer than this build supports", "current", current, "latest", g.latestVersion)
		return true, nil
	}
	return false, nil
}

type Status struct {
	Current uint64 `json:"current"`
	Latest  uint64 `json:"latest"`
	Unknown bool   `json:"unknown"`
}

func (g *Guard) Status() (Status, error) {
	current, err := g.CurrentVersion()
	if err != nil {
		return Status{}, err
	}
	unknown, err := g.HasUnknownSchema()
	if err != nil {
		return Status{}, err
	}
	return Status{Current: current, Latest: g.latestVersion, Unknown: unknown}, nil
}
