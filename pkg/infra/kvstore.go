package infra

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
)

// ReadTx is a read-only view of a KVStore, valid only inside KVStore.View or KVStore.Update.
// Keys are flat strings; callers namespace them (see kvstore.Collection).
type ReadTx interface {
	// Get returns found=false, not an error, when the key does not exist.
	Get(key string) (value []byte, found bool, err error)
}

// WriteTx is a read-write view of a KVStore, valid only inside KVStore.Update.
// Reads observe writes made earlier in the same transaction.
type WriteTx interface {
	ReadTx
	Set(key string, value []byte) error
	// Delete of a missing key is not an error.
	Delete(key string) error
}

// KVStore is a transactional key-value store.
// There are multiple implementations available: Badger, Consul, SQL (gorm).
type KVStore interface {
	GetName() string
	// View runs fn in a read-only transaction.
	View(fn func(tx ReadTx) error) error
	// Update runs fn in a read-write transaction. Writes are committed only when fn
	// returns nil.
	Update(fn func(tx WriteTx) error) error
	Close() error
}

// Codec encodes/decodes Go values to/from slices of bytes.
type Codec interface {
	// Marshal encodes a Go value to a slice of bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes a slice of bytes into a Go value.
	Unmarshal(data []byte, v any) error
}

// Convenience variables
var (
	// JSON is a JSONcodec that encodes/decodes Go values to/from JSON.
	JSON = JSONcodec{}
	// Gob is a GobCodec that encodes/decodes Go values to/from gob.
	Gob = GobCodec{}
)

// JSONcodec encodes/decodes Go values to/from JSON.
type JSONcodec struct{}

// Marshal encodes a Go value to JSON.
func (c JSONcodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes a JSON value into a Go value.
func (c JSONcodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// GobCodec encodes/decodes Go values to/from gob.
type GobCodec struct{}

// Marshal encodes a Go value to gob.
func (c GobCodec) Marshal(v any) ([]byte, error) {
	buffer := new(bytes.Buffer)
	encoder := gob.NewEncoder(buffer)
	err := encoder.Encode(v)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Unmarshal decodes a gob value into a Go value.
func (c GobCodec) Unmarshal(data []byte, v any) error {
	reader := bytes.NewReader(data)
	decoder := gob.NewDecoder(reader)
	return decoder.Decode(v)
}
