package kvstore

import (
	"fmt"

	"github.com/fystack/appprefs/pkg/common/config"
	"github.com/fystack/appprefs/pkg/common/enum"
	"github.com/fystack/appprefs/pkg/infra"
	"github.com/hashicorp/consul/api"
)

// NewFromConfig constructs an infra.KVStore based on kvstore configuration.
func NewFromConfig(cfg config.KVSConfig, environment string) (infra.KVStore, error) {
	switch cfg.Type {
	case enum.KVStoreTypeBadger:
		if cfg.Badger.InMemory {
			return NewInMemoryBadgerStore(cfg.Badger.Prefix)
		}
		if cfg.Badger.Directory == "" {
			return nil, fmt.Errorf("kvstore.badger.directory is required")
		}
		return NewBadgerStore(cfg.Badger.Directory, cfg.Badger.Prefix)
	case enum.KVStoreTypeConsul:
		return NewConsulStore(Options{
			Scheme:  cfg.Consul.Scheme,
			Address: cfg.Consul.Address,
			Folder:  cfg.Consul.Folder,
			Token:   cfg.Consul.Token,
			HttpAuth: &api.HttpBasicAuth{
				Username: cfg.Consul.HttpAuth.Username,
				Password: cfg.Consul.HttpAuth.Password,
			},
		})
	case enum.KVStoreTypeSQL:
		db, err := infra.NewDBConnection(cfg.SQL.Driver, cfg.SQL.DSN, environment)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db, "")
	default:
		return nil, fmt.Errorf("unsupported kvstore type: %s", cfg.Type)
	}
}
