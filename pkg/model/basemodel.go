package model

import (
	"time"
)

// KVEntry is one row of the SQL-backed key-value store.
// Key already carries the collection namespace ("<collection>/<key>").
type KVEntry struct {
	Key       string    `gorm:"column:kv_key;primaryKey;size:512" json:"key"`
	Value     []byte    `gorm:"column:kv_value;not null"          json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
