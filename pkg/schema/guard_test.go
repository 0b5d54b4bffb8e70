package schema

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/fystack/appprefs/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	messages []string
}

func (r *recordingReporter) Warn(msg string, args ...any) {
	r.messages = append(r.messages, fmt.Sprint(append([]any{msg}, args...)...))
}

// countingStore wraps a settings store and counts writes.
type countingStore struct {
	settings.Store
	sets int
}

func (c *countingStore) Set(key, value string) error {
	c.sets++
	return c.Store.Set(key, value)
}

func newTestGuard(t *testing.T, opts ...Option) (*Guard, *countingStore, *recordingReporter) {
	t.Helper()
	file, err := settings.NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	store := &countingStore{Store: file}
	reporter := &recordingReporter{}
	opts = append([]Option{WithReporter(reporter)}, opts...)
	return NewGuard(store, opts...), store, reporter
}

func TestCurrentVersion_Default(t *testing.T) {
	g, _, _ := newTestGuard(t)
	v, err := g.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, v)

	g, _, _ = newTestGuard(t, WithDefaultVersion(2))
	v, err = g.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
}

func TestMarkAsLatest(t *testing.T) {
	g, _, _ := newTestGuard(t)
	require.NoError(t, g.MarkAsLatest())

	v, err := g.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, LatestVersion, v)
}

func TestSetVersion_Idempotent(t *testing.T) {
	g, store, reporter := newTestGuard(t)

	require.NoError(t, g.SetVersion(2))
	require.NoError(t, g.SetVersion(2))

	assert.Equal(t, 1, store.sets)
	assert.Empty(t, reporter.messages)
}

func TestSetVersion_RefusesDowngrade(t *testing.T) {
	g, store, reporter := newTestGuard(t)

	require.NoError(t, g.SetVersion(3))
	require.NoError(t, g.SetVersion(1))

	v, err := g.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
	assert.Equal(t, 1, store.sets)
	require.Len(t, reporter.messages, 1)
	assert.Contains(t, reporter.messages[0], "Refusing to revert")
}

func TestDefaultReporterFollowsProcessLogger(t *testing.T) {
	file, err := settings.NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	g := NewGuard(file)

	// installed after the guard was built
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, g.SetVersion(3))
	require.NoError(t, g.SetVersion(1))
	assert.Contains(t, buf.String(), "Refusing to revert")
}

func TestSetVersion_BelowDefaultIsDowngrade(t *testing.T) {
	g, store, reporter := newTestGuard(t, WithDefaultVersion(2))

	require.NoError(t, g.SetVersion(1))
	assert.Equal(t, 0, store.sets)
	assert.Len(t, reporter.messages, 1)
}

func TestHasUnknownSchema(t *testing.T) {
	g, _, reporter := newTestGuard(t)

	unknown, err := g.HasUnknownSchema()
	require.NoError(t, err)
	assert.False(t, unknown)

	require.NoError(t, g.SetVersion(LatestVersion))
	unknown, err = g.HasUnknownSchema()
	require.NoError(t, err)
	assert.False(t, unknown)
	assert.Empty(t, reporter.messages)

	require.NoError(t, g.SetVersion(LatestVersion+1))
	unknown, err = g.HasUnknownSchema()
	require.NoError(t, err)
	assert.True(t, unknown)
	require.Len(t, reporter.messages, 1)
	assert.Contains(t, reporter.messages[0], "newer than this build")
}

func TestStatus(t *testing.T) {
	g, _, _ := newTestGuard(t, WithLatestVersion(5))
	require.NoError(t, g.SetVersion(6))

	status, err := g.Status()
	require.NoError(t, err)
	assert.Equal(t, Status{Current: 6, Latest: 5, Unknown: true}, status)
}

type brokenStore struct {
	settings.Store
}

func (brokenStore) Get(string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestStoreErrorsArePropagated(t *testing.T) {
	g := NewGuard(brokenStore{}, WithReporter(&recordingReporter{}))

	_, err := g.CurrentVersion()
	assert.Error(t, err)
	assert.Error(t, g.SetVersion(1))
	_, err = g.HasUnknownSchema()
	assert.Error(t, err)
}
