package kvstore

import "errors"

var (
	ErrKeyEmpty        = errors.New("key is empty")
	ErrCollectionEmpty = errors.New("collection is empty")
)
