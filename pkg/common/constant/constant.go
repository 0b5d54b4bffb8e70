package constant

const (
	EnvProduction  = "prod"
	EnvStaging     = "stag"
	EnvDevelopment = "dev"

	// PreferencesCollection is the persisted collection name for transactional preferences.
	// Changing it orphans every stored value.
	PreferencesCollection = "SSKPreferences"

	DefaultAccount = "local"
)

// Preference event types, appended to the configured NATS subject prefix.
const (
	EventConfigurationSync     = "configuration.sync"
	EventPendingAccountUpdates = "storage.account.pending"
)
