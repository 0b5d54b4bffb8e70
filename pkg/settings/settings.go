// Package settings is a small persisted key/value store for process-level values that
// live outside the transactional preference store, such as the schema version.
// Every call is atomic on its own; there are no transactions.
package settings

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrKeyEmpty = errors.New("settings key is empty")

type Store interface {
	GetName() string
	// Get returns found=false, not an error, when key has never been set.
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Close() error
}

// GetBool returns the boolean stored under key, or def when unset.
func GetBool(s Store, key string, def bool) (bool, error) {
	raw, found, err := s.Get(key)
	if err != nil || !found {
		return def, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("settings %s: %w", key, err)
	}
	return v, nil
}

func SetBool(s Store, key string, v bool) error {
	return s.Set(key, strconv.FormatBool(v))
}

// GetUint returns the unsigned integer stored under key, or def when unset.
func GetUint(s Store, key string, def uint64) (uint64, error) {
	raw, found, err := s.Get(key)
	if err != nil || !found {
		return def, err
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return def, fmt.Errorf("settings %s: %w", key, err)
	}
	return v, nil
}

func SetUint(s Store, key string, v uint64) error {
	return s.Set(key, strconv.FormatUint(v, 10))
}
