package settings

import (
	"context"
	"fmt"

	"github.com/fystack/appprefs/pkg/common/config"
	"github.com/fystack/appprefs/pkg/common/enum"
	"github.com/fystack/appprefs/pkg/infra"
)

// NewFromConfig constructs a Store based on settings configuration. account
// namespaces the keys of shared backends (redis, dynamodb).
func NewFromConfig(cfg config.SettingsConfig, account string) (Store, error) {
	switch cfg.Type {
	case enum.SettingsStoreTypeFile:
		if cfg.File.Path == "" {
			return nil, fmt.Errorf("settings.file.path is required")
		}
		return NewFileStore(cfg.File.Path)
	case enum.SettingsStoreTypeRedis:
		client, err := infra.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, redisHashKey(cfg.Redis.Key, account)), nil
	case enum.SettingsStoreTypeDynamo:
		return NewDynamoStore(context.Background(), cfg.Dynamo, account)
	default:
		return nil, fmt.Errorf("unsupported settings store type: %s", cfg.Type)
	}
}
