package kvstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/fystack/appprefs/pkg/common/enum"
	"github.com/fystack/appprefs/pkg/infra"
	"github.com/fystack/appprefs/pkg/model"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSQLConflict is returned when postgres rejects a write because a concurrent
// transaction touched the same key.
var ErrSQLConflict = errors.New("conflicting concurrent write")

// postgres error codes, see https://github.com/jackc/pgerrcode/blob/master/errcode.go
const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
)

// SQLStore implements infra.KVStore on a single gorm table (kv_entries).
type SQLStore struct {
	db     *gorm.DB
	prefix string
}

// NewSQLStore migrates the kv_entries table and returns a store over it.
func NewSQLStore(db *gorm.DB, prefix string) (*SQLStore, error) {
	if err := db.AutoMigrate(&model.KVEntry{}); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, prefix: prefix}, nil
}

func (s *SQLStore) fullKey(k string) (string, error) {
	if k == "" {
		return "", ErrKeyEmpty
	}
	if s.prefix != "" {
		return s.prefix + "/" + k, nil
	}
	return k, nil
}

func (s *SQLStore) GetName() string {
	return string(enum.KVStoreTypeSQL)
}

func (s *SQLStore) View(fn func(tx infra.ReadTx) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(sqlReadTx{db: tx, store: s})
	})
}

func (s *SQLStore) Update(fn func(tx infra.WriteTx) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(sqlWriteTx{sqlReadTx{db: tx, store: s}})
	})
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type sqlReadTx struct {
	db    *gorm.DB
	store *SQLStore
}

func (t sqlReadTx) Get(key string) ([]byte, bool, error) {
	k, err := t.store.fullKey(key)
	if err != nil {
		return nil, false, err
	}

	var entry model.KVEntry
	err = t.db.Where("kv_key = ?", k).Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, wrapSQLError("get", k, err)
	}
	return entry.Value, true, nil
}

type sqlWriteTx struct {
	sqlReadTx
}

func (t sqlWriteTx) Set(key string, value []byte) error {
	k, err := t.store.fullKey(key)
	if err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	now := time.Now().UTC()
	entry := model.KVEntry{Key: k, Value: value, CreatedAt: now, UpdatedAt: now}
	err = t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kv_value", "updated_at"}),
	}).Create(&entry).Error
	return wrapSQLError("set", k, err)
}

func (t sqlWriteTx) Delete(key string) error {
	k, err := t.store.fullKey(key)
	if err != nil {
		return err
	}
	return wrapSQLError("delete", k, t.db.Where("kv_key = ?", k).Delete(&model.KVEntry{}).Error)
}

func wrapSQLError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation, serializationFailure:
			return fmt.Errorf("%s %s: %w: %s", op, key, ErrSQLConflict, pgErr.Message)
		}
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}
