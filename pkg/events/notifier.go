package events

import (
	"github.com/fystack/appprefs/pkg/common/logger"
)

// ConfigurationSyncer asks linked devices to pull the current configuration.
// Failures are logged and dropped; callers never wait on delivery.
type ConfigurationSyncer struct {
	emitter Emitter
}

func NewConfigurationSyncer(emitter Emitter) *ConfigurationSyncer {
	return &ConfigurationSyncer{emitter: emitter}
}

func (s *ConfigurationSyncer) SendConfigurationSyncMessage() {
	if err := s.emitter.EmitConfigurationSync(); err != nil {
		logger.Error("Failed to send configuration sync message", "err", err)
		return
	}
	logger.Debug("Configuration sync message sent")
}

// StorageServiceCoordinator flags the local account record as changed so the
// storage service picks it up on its next pass.
type StorageServiceCoordinator struct {
	emitter Emitter
}

func NewStorageServiceCoordinator(emitter Emitter) *StorageServiceCoordinator {
	return &StorageServiceCoordinator{emitter: emitter}
}

func (c *StorageServiceCoordinator) RecordPendingLocalAccountUpdates() {
	if err := c.emitter.EmitPendingAccountUpdates(); err != nil {
		logger.Error("Failed to record pending local account updates", "err", err)
		return
	}
	logger.Debug("Pending local account updates recorded")
}

// Nop satisfies both notifier roles without doing anything. Used when NATS is disabled.
type Nop struct{}

func (Nop) SendConfigurationSyncMessage() {}

func (Nop) RecordPendingLocalAccountUpdates() {}
