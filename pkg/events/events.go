package events

import (
	"encoding/json"

	"github.com/fystack/appprefs/pkg/common/constant"
)

const (
	TypeConfigurationSync     = constant.EventConfigurationSync
	TypePendingAccountUpdates = constant.EventPendingAccountUpdates
)

// PreferenceEvent is the envelope published for every preference side effect.
type PreferenceEvent struct {
	// ID doubles as the JetStream de-duplication key.
	ID        string `json:"id"`
	Type      string `json:"type"`
	Account   string `json:"account"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Decode parses an envelope received from the queue. Data is left as raw JSON.
func Decode(data []byte) (PreferenceEvent, error) {
	var raw struct {
		PreferenceEvent
		Data json.RawMessage `json:"data,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return PreferenceEvent{}, err
	}
	event := raw.PreferenceEvent
	if len(raw.Data) > 0 {
		event.Data = raw.Data
	}
	return event, nil
}
