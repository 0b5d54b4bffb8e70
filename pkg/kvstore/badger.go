package kvstore

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/fystack/appprefs/pkg/common/enum"
	"github.com/fystack/appprefs/pkg/infra"
)

type BadgerStore struct {
	db     *badger.DB
	prefix string
}

// NewBadgerStore opens (or creates) a badger database in path.
func NewBadgerStore(path string, prefix string) (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions(path).WithLogger(nil), prefix)
}

// NewInMemoryBadgerStore opens a badger database that lives only as long as the process.
func NewInMemoryBadgerStore(prefix string) (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil), prefix)
}

func openBadger(opts badger.Options, prefix string) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{
		db:     db,
		prefix: prefix,
	}, nil
}

func (b *BadgerStore) fullKey(k string) ([]byte, error) {
	if k == "" {
		return nil, ErrKeyEmpty
	}
	if b.prefix != "" {
		return []byte(b.prefix + "/" + k), nil
	}
	return []byte(k), nil
}

func (b *BadgerStore) GetName() string {
	return string(enum.KVStoreTypeBadger)
}

func (b *BadgerStore) View(fn func(tx infra.ReadTx) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		return fn(badgerReadTx{txn: txn, store: b})
	})
}

func (b *BadgerStore) Update(fn func(tx infra.WriteTx) error) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return fn(badgerWriteTx{badgerReadTx{txn: txn, store: b}})
	})
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

type badgerReadTx struct {
	txn   *badger.Txn
	store *BadgerStore
}

func (t badgerReadTx) Get(key string) ([]byte, bool, error) {
	k, err := t.store.fullKey(key)
	if err != nil {
		return nil, false, err
	}

	item, err := t.txn.Get(k)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

type badgerWriteTx struct {
	badgerReadTx
}

func (t badgerWriteTx) Set(key string, value []byte) error {
	k, err := t.store.fullKey(key)
	if err != nil {
		return err
	}
	return t.txn.Set(k, value)
}

func (t badgerWriteTx) Delete(key string) error {
	k, err := t.store.fullKey(key)
	if err != nil {
		return err
	}
	return t.txn.Delete(k)
}
