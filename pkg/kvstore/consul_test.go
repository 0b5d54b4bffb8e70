package kvstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fystack/appprefs/pkg/infra"
	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConsulKV applies transactions atomically to an in-memory map.
type fakeConsulKV struct {
	data     map[string][]byte
	txnCalls int
	failTxn  bool
	getErr   error
}

func newFakeConsulKV() *fakeConsulKV {
	return &fakeConsulKV{data: make(map[string][]byte)}
}

func (f *fakeConsulKV) Get(key string, _ *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error) {
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, &api.QueryMeta{}, nil
	}
	return &api.KVPair{Key: key, Value: v}, &api.QueryMeta{}, nil
}

func (f *fakeConsulKV) Txn(ops api.KVTxnOps, _ *api.QueryOptions) (bool, *api.KVTxnResponse, *api.QueryMeta, error) {
	f.txnCalls++
	if f.failTxn {
		return false, &api.KVTxnResponse{Errors: api.TxnErrors{{OpIndex: 0, What: "cas failed"}}}, nil, nil
	}
	for _, op := range ops {
		switch op.Verb {
		case api.KVSet:
			f.data[op.Key] = op.Value
		case api.KVDelete:
			delete(f.data, op.Key)
		default:
			return false, nil, nil, fmt.Errorf("unexpected verb %s", op.Verb)
		}
	}
	return true, &api.KVTxnResponse{}, nil, nil
}

func TestConsulStore_Contract(t *testing.T) {
	store := newConsulStore(newFakeConsulKV(), "/appprefs/")
	assert.Equal(t, "consul", store.GetName())
	runStoreContract(t, store)
}

func TestConsulStore_FolderPrefix(t *testing.T) {
	kv := newFakeConsulKV()
	store := newConsulStore(kv, "appprefs")

	require.NoError(t, store.Update(func(tx infra.WriteTx) error {
		return tx.Set("Preferences/hasSavedThread", []byte("true"))
	}))
	assert.Equal(t, []byte("true"), kv.data["appprefs/Preferences/hasSavedThread"])
}

func TestConsulStore_SingleTxnPerUpdate(t *testing.T) {
	kv := newFakeConsulKV()
	store := newConsulStore(kv, "")

	require.NoError(t, store.Update(func(tx infra.WriteTx) error {
		for i := 0; i < 5; i++ {
			if err := tx.Set(fmt.Sprintf("k%d", i), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	}))
	assert.Equal(t, 1, kv.txnCalls)

	// read-only updates do not hit the server
	require.NoError(t, store.Update(func(tx infra.WriteTx) error {
		_, _, err := tx.Get("k1")
		return err
	}))
	assert.Equal(t, 1, kv.txnCalls)
}

func TestConsulStore_RepeatedWritesCollapse(t *testing.T) {
	kv := newFakeConsulKV()
	store := newConsulStore(kv, "")

	require.NoError(t, store.Update(func(tx infra.WriteTx) error {
		for i := 0; i < maxConsulTxnOps*2; i++ {
			if err := tx.Set("same", []byte(fmt.Sprint(i))); err != nil {
				return err
			}
		}
		return nil
	}))
	assert.Equal(t, []byte(fmt.Sprint(maxConsulTxnOps*2-1)), kv.data["same"])
}

func TestConsulStore_TooManyWrites(t *testing.T) {
	kv := newFakeConsulKV()
	store := newConsulStore(kv, "")

	err := store.Update(func(tx infra.WriteTx) error {
		for i := 0; i <= maxConsulTxnOps; i++ {
			if err := tx.Set(fmt.Sprintf("k%d", i), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrTooManyWrites)
	assert.Equal(t, 0, kv.txnCalls)
	assert.Empty(t, kv.data)
}

func TestConsulStore_RolledBackTxn(t *testing.T) {
	kv := newFakeConsulKV()
	kv.failTxn = true
	store := newConsulStore(kv, "")

	err := store.Update(func(tx infra.WriteTx) error {
		return tx.Set("k", []byte("v"))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cas failed")
}

func TestConsulStore_GetError(t *testing.T) {
	kv := newFakeConsulKV()
	kv.getErr = errors.New("connection refused")
	store := newConsulStore(kv, "")

	err := store.View(func(tx infra.ReadTx) error {
		_, _, err := tx.Get("k")
		return err
	})
	assert.ErrorIs(t, err, kv.getErr)
}
