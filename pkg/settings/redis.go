package settings

import (
	"errors"

	"github.com/fystack/appprefs/pkg/common/enum"
	"github.com/fystack/appprefs/pkg/infra"
)

// RedisStore keeps settings as fields of one redis hash.
type RedisStore struct {
	client  infra.RedisClient
	hashKey string
}

func NewRedisStore(client infra.RedisClient, hashKey string) *RedisStore {
	return &RedisStore{client: client, hashKey: hashKey}
}

// redisHashKey scopes the settings hash to one account so accounts sharing a
// redis keep separate schema versions and markers.
func redisHashKey(base, account string) string {
	if account == "" {
		return base
	}
	return base + ":" + account
}

func (r *RedisStore) GetName() string {
	return string(enum.SettingsStoreTypeRedis)
}

func (r *RedisStore) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrKeyEmpty
	}
	v, err := r.client.HGet(r.hashKey, key)
	if err != nil {
		if errors.Is(err, infra.ErrRedisNil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisStore) Set(key, value string) error {
	if key == "" {
		return ErrKeyEmpty
	}
	return r.client.HSet(r.hashKey, key, value)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
