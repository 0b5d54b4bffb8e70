package preferences

// SyncMessageSender asks linked devices to pull the current configuration.
type SyncMessageSender interface {
	SendConfigurationSyncMessage()
}

// StorageServiceManager marks the local account record as changed for the storage service.
type StorageServiceManager interface {
	RecordPendingLocalAccountUpdates()
}

// SyncOptions selects the side effects a setter triggers.
type SyncOptions struct {
	// SendSyncMessage sends a configuration sync message to linked devices.
	SendSyncMessage bool
	// UpdateStorageService records pending local account updates for the storage service.
	UpdateStorageService bool
}

var (
	// NoSync writes locally only.
	NoSync = SyncOptions{}
	// SyncEverywhere propagates a change to linked devices and to the storage service.
	SyncEverywhere = SyncOptions{SendSyncMessage: true, UpdateStorageService: true}
)

type Option func(*Preferences)

func WithSyncMessageSender(s SyncMessageSender) Option {
	return func(p *Preferences) { p.syncer = s }
}

func WithStorageServiceManager(m StorageServiceManager) Option {
	return func(p *Preferences) { p.storageService = m }
}

// WithCollection overrides the collection name the preferences are stored under.
func WithCollection(name string) Option {
	return func(p *Preferences) { p.collectionName = name }
}

type nopNotifier struct{}

func (nopNotifier) SendConfigurationSyncMessage() {}

func (nopNotifier) RecordPendingLocalAccountUpdates() {}
