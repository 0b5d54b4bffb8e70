package preferences

import "sync"

// slot holds one cached value. A loaded slot may still be absent (optional values).
type slot[T any] struct {
	loaded  bool
	present bool
	value   T
}

func (s *slot[T]) get() (value T, present bool, loaded bool) {
	return s.value, s.present, s.loaded
}

func (s *slot[T]) set(v T) {
	s.loaded = true
	s.present = true
	s.value = v
}

func (s *slot[T]) setAbsent() {
	var zero T
	s.loaded = true
	s.present = false
	s.value = zero
}

// Cache holds the preferences that are read on hot paths.
//
// The stores do not serialise transactions, so Preferences.View and
// Preferences.Update hold mu for the whole transaction. A slot is therefore never
// filled from a snapshot older than the last write made through the same Cache.
// Share one Cache per store; a Cache paired with a different store will serve that
// store stale values.
type Cache struct {
	mu sync.Mutex

	hasSavedThread                   slot[bool]
	includeMutedThreadsInBadgeCount  slot[bool]
	preferContactAvatars             slot[bool]
	messageRequestInteractionIDEpoch slot[int64]
}

func NewCache() *Cache {
	return &Cache{}
}

// Invalidate drops every cached value so the next read goes to the store.
// It must not be called from inside Preferences.View or Preferences.Update.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate()
}

// invalidate requires mu.
func (c *Cache) invalidate() {
	c.hasSavedThread = slot[bool]{}
	c.includeMutedThreadsInBadgeCount = slot[bool]{}
	c.preferContactAvatars = slot[bool]{}
	c.messageRequestInteractionIDEpoch = slot[int64]{}
}
