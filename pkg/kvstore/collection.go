package kvstore

import (
	"fmt"

	"github.com/fystack/appprefs/pkg/infra"
)

// Collection namespaces keys inside a KVStore and encodes values with a Codec.
// Stored keys have the form "<name>/<key>".
type Collection struct {
	name  string
	codec infra.Codec
}

// NewCollection returns a collection; a nil codec means infra.JSON.
func NewCollection(name string, codec infra.Codec) Collection {
	if codec == nil {
		codec = infra.JSON
	}
	return Collection{name: name, codec: codec}
}

func (c Collection) Name() string {
	return c.name
}

func (c Collection) key(k string) (string, error) {
	if c.name == "" {
		return "", ErrCollectionEmpty
	}
	if k == "" {
		return "", ErrKeyEmpty
	}
	return c.name + "/" + k, nil
}

// Get returns the value stored under key, or def when nothing is stored.
func Get[T any](tx infra.ReadTx, c Collection, key string, def T) (T, error) {
	v, found, err := GetOptional[T](tx, c, key)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

// GetOptional returns the value stored under key and whether one was stored.
func GetOptional[T any](tx infra.ReadTx, c Collection, key string) (T, bool, error) {
	var v T
	k, err := c.key(key)
	if err != nil {
		return v, false, err
	}
	data, found, err := tx.Get(k)
	if err != nil || !found {
		return v, false, err
	}
	if err := c.codec.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", k, err)
	}
	return v, true, nil
}

// Set stores v under key, replacing any existing value.
func Set[T any](tx infra.WriteTx, c Collection, key string, v T) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	data, err := c.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	return tx.Set(k, data)
}

// Remove deletes key. Removing a missing key is not an error.
func Remove(tx infra.WriteTx, c Collection, key string) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	return tx.Delete(k)
}

func (c Collection) GetBool(tx infra.ReadTx, key string, def bool) (bool, error) {
	return Get(tx, c, key, def)
}

func (c Collection) SetBool(tx infra.WriteTx, key string, v bool) error {
	return Set(tx, c, key, v)
}

func (c Collection) GetInt(tx infra.ReadTx, key string, def int64) (int64, error) {
	return Get(tx, c, key, def)
}

func (c Collection) GetOptionalInt(tx infra.ReadTx, key string) (int64, bool, error) {
	return GetOptional[int64](tx, c, key)
}

func (c Collection) SetInt(tx infra.WriteTx, key string, v int64) error {
	return Set(tx, c, key, v)
}

func (c Collection) RemoveValue(tx infra.WriteTx, key string) error {
	return Remove(tx, c, key)
}
