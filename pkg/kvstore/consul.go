package kvstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fystack/appprefs/pkg/common/enum"
	"github.com/fystack/appprefs/pkg/infra"
	"github.com/hashicorp/consul/api"
)

// maxConsulTxnOps is the server-side limit on operations in one KV transaction.
const maxConsulTxnOps = 64

var ErrTooManyWrites = fmt.Errorf("consul transaction exceeds %d operations", maxConsulTxnOps)

// consulKV is the subset of *api.KV used by ConsulStore.
type consulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
	Txn(txn api.KVTxnOps, q *api.QueryOptions) (bool, *api.KVTxnResponse, *api.QueryMeta, error)
}

// ConsulStore implements infra.KVStore on Consul KV.
//
// Reads inside View go straight to Consul and are not isolated from concurrent writers.
// Writes inside Update are buffered and committed in a single Consul transaction
// once the closure returns nil, so either all of them land or none do.
type ConsulStore struct {
	kv     consulKV
	folder string
}

// Options are the options for the Consul client.
type Options struct {
	// URI scheme for the Consul server.
	// Optional ("http" by default).
	Scheme string
	// Address of the Consul server, including port number.
	// Optional ("127.0.0.1:8500" by default).
	Address string
	// Directory under which to store the key-value pairs.
	// The Consul UI calls this "folder".
	// Optional (none by default).
	Folder string

	// Client token
	Token    string
	HttpAuth *api.HttpBasicAuth
}

// DefaultConsulOptions is an Options object with default values.
var DefaultConsulOptions = Options{
	Scheme:  "http",
	Address: "127.0.0.1:8500",
}

// NewConsulStore creates a Consul-backed store and checks the agent has a leader.
func NewConsulStore(options Options) (*ConsulStore, error) {
	if options.Scheme == "" {
		options.Scheme = DefaultConsulOptions.Scheme
	}
	if options.Address == "" {
		options.Address = DefaultConsulOptions.Address
	}

	config := api.DefaultConfig()
	config.Scheme = options.Scheme
	config.Address = options.Address
	config.WaitTime = 10 * time.Second
	if options.Token != "" {
		config.Token = options.Token
	}
	if options.HttpAuth != nil && options.HttpAuth.Username != "" {
		config.HttpAuth = options.HttpAuth
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	// Ping the Consul server to verify connectivity
	if _, err := client.Status().Leader(); err != nil {
		return nil, fmt.Errorf("failed to connect to Consul: %w", err)
	}

	return newConsulStore(client.KV(), options.Folder), nil
}

func newConsulStore(kv consulKV, folder string) *ConsulStore {
	return &ConsulStore{
		kv:     kv,
		folder: strings.Trim(folder, "/"),
	}
}

func (c *ConsulStore) fullKey(k string) (string, error) {
	if k == "" {
		return "", ErrKeyEmpty
	}
	if c.folder != "" {
		return c.folder + "/" + k, nil
	}
	return k, nil
}

func (c *ConsulStore) GetName() string {
	return string(enum.KVStoreTypeConsul)
}

func (c *ConsulStore) View(fn func(tx infra.ReadTx) error) error {
	return fn(consulReadTx{store: c})
}

func (c *ConsulStore) Update(fn func(tx infra.WriteTx) error) error {
	tx := &consulWriteTx{
		consulReadTx: consulReadTx{store: c},
		pending:      make(map[string]*api.KVTxnOp),
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

// Close is a no-op; the Consul client holds no resources that need releasing.
func (c *ConsulStore) Close() error {
	return nil
}

type consulReadTx struct {
	store *ConsulStore
}

func (t consulReadTx) Get(key string) ([]byte, bool, error) {
	k, err := t.store.fullKey(key)
	if err != nil {
		return nil, false, err
	}
	kvPair, _, err := t.store.kv.Get(k, nil)
	if err != nil {
		return nil, false, err
	}
	if kvPair == nil {
		return nil, false, nil
	}
	return kvPair.Value, true, nil
}

type consulWriteTx struct {
	consulReadTx
	pending map[string]*api.KVTxnOp
	order   []string
}

func (t *consulWriteTx) Get(key string) ([]byte, bool, error) {
	k, err := t.store.fullKey(key)
	if err != nil {
		return nil, false, err
	}
	if op, ok := t.pending[k]; ok {
		if op.Verb == api.KVDelete {
			return nil, false, nil
		}
		return op.Value, true, nil
	}
	return t.consulReadTx.Get(key)
}

func (t *consulWriteTx) Set(key string, value []byte) error {
	k, err := t.store.fullKey(key)
	if err != nil {
		return err
	}
	return t.stage(&api.KVTxnOp{Verb: api.KVSet, Key: k, Value: value})
}

func (t *consulWriteTx) Delete(key string) error {
	k, err := t.store.fullKey(key)
	if err != nil {
		return err
	}
	return t.stage(&api.KVTxnOp{Verb: api.KVDelete, Key: k})
}

func (t *consulWriteTx) stage(op *api.KVTxnOp) error {
	if _, ok := t.pending[op.Key]; !ok {
		if len(t.order) >= maxConsulTxnOps {
			return ErrTooManyWrites
		}
		t.order = append(t.order, op.Key)
	}
	t.pending[op.Key] = op
	return nil
}

func (t *consulWriteTx) commit() error {
	if len(t.order) == 0 {
		return nil
	}
	ops := make(api.KVTxnOps, 0, len(t.order))
	for _, k := range t.order {
		ops = append(ops, t.pending[k])
	}

	ok, resp, _, err := t.store.kv.Txn(ops, nil)
	if err != nil {
		return fmt.Errorf("consul txn: %w", err)
	}
	if !ok {
		msgs := make([]string, 0)
		if resp != nil {
			for _, e := range resp.Errors {
				msgs = append(msgs, e.What)
			}
		}
		return errors.New("consul txn rolled back: " + strings.Join(msgs, "; "))
	}
	return nil
}
