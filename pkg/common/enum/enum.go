package enum

type KVStoreType string
type SettingsStoreType string

const (
	KVStoreTypeBadger KVStoreType = "badger"
	KVStoreTypeConsul KVStoreType = "consul"
	KVStoreTypeSQL    KVStoreType = "sql"
)

const (
	SettingsStoreTypeFile   SettingsStoreType = "file"
	SettingsStoreTypeRedis  SettingsStoreType = "redis"
	SettingsStoreTypeDynamo SettingsStoreType = "dynamodb"
)
