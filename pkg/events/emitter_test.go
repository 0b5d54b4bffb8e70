package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fystack/appprefs/pkg/infra"
	"github.com/fystack/appprefs/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	topic   string
	message []byte
	options *infra.EnqueueOptions
}

type fakeQueue struct {
	messages []enqueued
	err      error
	closed   bool
}

func (q *fakeQueue) Enqueue(topic string, message []byte, options *infra.EnqueueOptions) error {
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, enqueued{topic: topic, message: message, options: options})
	return nil
}

func (q *fakeQueue) Dequeue(func(subject string, message []byte) error) error {
	return infra.ErrNoConsumer
}

func (q *fakeQueue) Close() {
	q.closed = true
}

func newTestEmitter(q *fakeQueue) *emitter {
	e := NewEmitter(q, "preferences", "alice").(*emitter)
	e.now = func() time.Time { return time.Unix(1700000000, 0) }
	e.newID = func() string { return "evt-1" }
	return e
}

func TestEmitter_EmitConfigurationSync(t *testing.T) {
	q := &fakeQueue{}
	e := newTestEmitter(q)

	require.NoError(t, e.EmitConfigurationSync())
	require.Len(t, q.messages, 1)
	assert.Equal(t, "preferences.configuration.sync", q.messages[0].topic)

	event, err := Decode(q.messages[0].message)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", event.ID)
	assert.Equal(t, TypeConfigurationSync, event.Type)
	assert.Equal(t, "alice", event.Account)
	assert.Equal(t, int64(1700000000), event.Timestamp)
	assert.Nil(t, event.Data)

	require.NotNil(t, q.messages[0].options)
	assert.Equal(t, "evt-1", q.messages[0].options.IdempotententKey)
}

func TestEmitter_GeneratesUniqueIDs(t *testing.T) {
	q := &fakeQueue{}
	e := NewEmitter(q, "preferences", "alice")

	require.NoError(t, e.EmitConfigurationSync())
	require.NoError(t, e.EmitConfigurationSync())
	require.Len(t, q.messages, 2)

	first, err := Decode(q.messages[0].message)
	require.NoError(t, err)
	second, err := Decode(q.messages[1].message)
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestEmitter_EmitPendingAccountUpdates(t *testing.T) {
	q := &fakeQueue{}
	e := newTestEmitter(q)

	require.NoError(t, e.EmitPendingAccountUpdates())
	require.Len(t, q.messages, 1)
	assert.Equal(t, "preferences.storage.account.pending", q.messages[0].topic)
}

func TestEmitter_KeepsExplicitFields(t *testing.T) {
	q := &fakeQueue{}
	e := newTestEmitter(q)

	require.NoError(t, e.Emit(PreferenceEvent{
		Type:      "custom",
		Account:   "bob",
		Data:      map[string]bool{"areLinkPreviewsEnabled": false},
		Timestamp: 42,
	}))

	event, err := Decode(q.messages[0].message)
	require.NoError(t, err)
	assert.Equal(t, "bob", event.Account)
	assert.Equal(t, int64(42), event.Timestamp)
	assert.JSONEq(t, `{"areLinkPreviewsEnabled":false}`, string(event.Data.(json.RawMessage)))
}

func TestEmitter_Close(t *testing.T) {
	q := &fakeQueue{}
	NewEmitter(q, "preferences", "alice").Close()
	assert.True(t, q.closed)
}

func TestNotifiers_SwallowErrors(t *testing.T) {
	q := &fakeQueue{err: errors.New("nats down")}
	e := newTestEmitter(q)

	failures := metrics.EventsPublished.WithLabelValues(TypeConfigurationSync, metrics.ResultError)
	before := testutil.ToFloat64(failures)

	assert.NotPanics(t, func() {
		NewConfigurationSyncer(e).SendConfigurationSyncMessage()
		NewStorageServiceCoordinator(e).RecordPendingLocalAccountUpdates()
	})
	assert.Empty(t, q.messages)
	assert.Equal(t, before+1, testutil.ToFloat64(failures))
}

func TestNotifiers_Publish(t *testing.T) {
	q := &fakeQueue{}
	e := newTestEmitter(q)

	NewConfigurationSyncer(e).SendConfigurationSyncMessage()
	NewStorageServiceCoordinator(e).RecordPendingLocalAccountUpdates()

	require.Len(t, q.messages, 2)
	assert.Equal(t, "preferences.configuration.sync", q.messages[0].topic)
	assert.Equal(t, "preferences.storage.account.pending", q.messages[1].topic)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("{"))
	assert.Error(t, err)
}
