package events

import (
	"encoding/json"
	"time"

	"github.com/fystack/appprefs/pkg/infra"
	"github.com/fystack/appprefs/pkg/metrics"
	"github.com/google/uuid"
)

type Emitter interface {
	EmitConfigurationSync() error
	EmitPendingAccountUpdates() error
	Emit(event PreferenceEvent) error
	Close()
}

type emitter struct {
	queue         infra.MessageQueue
	subjectPrefix string
	account       string
	now           func() time.Time
	newID         func() string
}

// NewEmitter publishes events on "<subjectPrefix>.<event type>".
func NewEmitter(queue infra.MessageQueue, subjectPrefix, account string) Emitter {
	return &emitter{
		queue:         queue,
		subjectPrefix: subjectPrefix,
		account:       account,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

func (e *emitter) EmitConfigurationSync() error {
	return e.Emit(PreferenceEvent{Type: TypeConfigurationSync})
}

func (e *emitter) EmitPendingAccountUpdates() error {
	return e.Emit(PreferenceEvent{Type: TypePendingAccountUpdates})
}

func (e *emitter) Emit(event PreferenceEvent) error {
	if event.ID == "" {
		event.ID = e.newID()
	}
	if event.Account == "" {
		event.Account = e.account
	}
	if event.Timestamp == 0 {
		event.Timestamp = e.now().UTC().Unix()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = e.queue.Enqueue(e.Subject(event.Type), data, &infra.EnqueueOptions{IdempotententKey: event.ID})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(event.Type, metrics.ResultError).Inc()
		return err
	}
	metrics.EventsPublished.WithLabelValues(event.Type, metrics.ResultOK).Inc()
	return nil
}

func (e *emitter) Subject(eventType string) string {
	return e.subjectPrefix + "." + eventType
}

func (e *emitter) Close() {
	if e.queue != nil {
		e.queue.Close()
	}
}
