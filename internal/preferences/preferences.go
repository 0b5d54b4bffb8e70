// Package preferences exposes the named application preferences kept in the
// transactional key-value store.
//
// Reads take an infra.ReadTx and writes take an infra.WriteTx, so a setter cannot be
// called outside a write transaction. A few hot values are cached in a Cache that
// the caller owns and shares with every Preferences built for the same store.
//
// Open transactions with Preferences.View and Preferences.Update rather than on the
// store directly: they serialise cache access and run the sync side effects only
// once the write has committed.
package preferences

import (
	"github.com/fystack/appprefs/pkg/common/constant"
	"github.com/fystack/appprefs/pkg/common/logger"
	"github.com/fystack/appprefs/pkg/infra"
	"github.com/fystack/appprefs/pkg/kvstore"
	"github.com/fystack/appprefs/pkg/metrics"
)

const (
	areLinkPreviewsEnabledKey           = "areLinkPreviewsEnabled"
	areLegacyLinkPreviewsEnabledKey     = "areLegacyLinkPreviewsEnabled"
	hasSavedThreadKey                   = "hasSavedThread"
	includeMutedThreadsInBadgeCountKey  = "includeMutedThreadsInBadgeCount"
	preferContactAvatarsKey             = "preferContactAvatarsKey"
	messageRequestInteractionIDEpochKey = "messageRequestInteractionIdEpoch"
)

const (
	defaultLinkPreviewsEnabled        = true
	defaultLegacyLinkPreviewsEnabled  = true
	defaultHasSavedThread             = false
	defaultIncludeMutedThreadsInBadge = false
	defaultPreferContactAvatars       = false
)

type Preferences struct {
	collectionName string
	collection     kvstore.Collection
	cache          *Cache
	syncer         SyncMessageSender
	storageService StorageServiceManager
}

// New returns preferences backed by cache. A nil cache gets a fresh one.
func New(cache *Cache, opts ...Option) *Preferences {
	if cache == nil {
		cache = NewCache()
	}
	p := &Preferences{
		collectionName: constant.PreferencesCollection,
		cache:          cache,
		syncer:         nopNotifier{},
		storageService: nopNotifier{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.syncer == nil {
		p.syncer = nopNotifier{}
	}
	if p.storageService == nil {
		p.storageService = nopNotifier{}
	}
	p.collection = kvstore.NewCollection(p.collectionName, infra.JSON)
	return p
}

func (p *Preferences) Cache() *Cache {
	return p.cache
}

// View runs fn in a read transaction on store while holding the cache lock.
func (p *Preferences) View(store infra.KVStore, fn func(tx infra.ReadTx) error) error {
	p.cache.mu.Lock()
	defer p.cache.mu.Unlock()
	return store.View(fn)
}

// Update runs fn in a write transaction on store while holding the cache lock.
// Setters update the cache before the commit, so a failed transaction (including a
// commit conflict) invalidates it. Side effects queued by the setters run after a
// successful commit, outside the lock, and are dropped when the transaction fails.
func (p *Preferences) Update(store infra.KVStore, fn func(tx infra.WriteTx) error) error {
	var effects []sideEffect
	err := p.update(store, func(tx infra.WriteTx) error {
		effects = effects[:0]
		return fn(&pendingTx{WriteTx: tx, effects: &effects})
	})
	if err != nil {
		return err
	}
	for _, e := range effects {
		p.fire(e)
	}
	return nil
}

func (p *Preferences) update(store infra.KVStore, fn func(tx infra.WriteTx) error) error {
	p.cache.mu.Lock()
	defer p.cache.mu.Unlock()
	err := store.Update(fn)
	if err != nil {
		p.cache.invalidate()
	}
	return err
}

// MARK: link previews

func (p *Preferences) AreLinkPreviewsEnabled(tx infra.ReadTx) (bool, error) {
	return p.collection.GetBool(tx, areLinkPreviewsEnabledKey, defaultLinkPreviewsEnabled)
}

// SetAreLinkPreviewsEnabled stores v and queues the side effects selected by opts,
// whether or not the value changed.
func (p *Preferences) SetAreLinkPreviewsEnabled(tx infra.WriteTx, v bool, opts SyncOptions) error {
	if err := p.collection.SetBool(tx, areLinkPreviewsEnabledKey, v); err != nil {
		return err
	}
	p.notify(tx, areLinkPreviewsEnabledKey, opts)
	return nil
}

// AreLegacyLinkPreviewsEnabled is only kept so the value survives storage-service round trips.
func (p *Preferences) AreLegacyLinkPreviewsEnabled(tx infra.ReadTx) (bool, error) {
	return p.collection.GetBool(tx, areLegacyLinkPreviewsEnabledKey, defaultLegacyLinkPreviewsEnabled)
}

func (p *Preferences) SetAreLegacyLinkPreviewsEnabled(tx infra.WriteTx, v bool) error {
	return p.collection.SetBool(tx, areLegacyLinkPreviewsEnabledKey, v)
}

// MARK: cached flags

func (p *Preferences) HasSavedThread(tx infra.ReadTx) (bool, error) {
	return p.cachedBool(tx, &p.cache.hasSavedThread, hasSavedThreadKey, defaultHasSavedThread)
}

func (p *Preferences) SetHasSavedThread(tx infra.WriteTx, v bool) error {
	return p.setCachedBool(tx, &p.cache.hasSavedThread, hasSavedThreadKey, v)
}

func (p *Preferences) IncludeMutedThreadsInBadgeCount(tx infra.ReadTx) (bool, error) {
	return p.cachedBool(tx, &p.cache.includeMutedThreadsInBadgeCount, includeMutedThreadsInBadgeCountKey, defaultIncludeMutedThreadsInBadge)
}

func (p *Preferences) SetIncludeMutedThreadsInBadgeCount(tx infra.WriteTx, v bool) error {
	return p.setCachedBool(tx, &p.cache.includeMutedThreadsInBadgeCount, includeMutedThreadsInBadgeCountKey, v)
}

func (p *Preferences) PreferContactAvatars(tx infra.ReadTx) (bool, error) {
	return p.cachedBool(tx, &p.cache.preferContactAvatars, preferContactAvatarsKey, defaultPreferContactAvatars)
}

// SetPreferContactAvatars stores v. The side effects in opts run only when v differs
// from the value previously in the store.
func (p *Preferences) SetPreferContactAvatars(tx infra.WriteTx, v bool, opts SyncOptions) error {
	// compare against the store, not the cache
	old, err := p.collection.GetBool(tx, preferContactAvatarsKey, defaultPreferContactAvatars)
	if err != nil {
		return err
	}
	if err := p.setCachedBool(tx, &p.cache.preferContactAvatars, preferContactAvatarsKey, v); err != nil {
		return err
	}
	if old != v {
		p.notify(tx, preferContactAvatarsKey, opts)
	}
	return nil
}

// MARK: message request interaction id epoch

// MessageRequestInteractionIDEpoch returns the epoch and whether one is set.
func (p *Preferences) MessageRequestInteractionIDEpoch(tx infra.ReadTx) (int64, bool, error) {
	s := &p.cache.messageRequestInteractionIDEpoch
	if v, present, loaded := s.get(); loaded {
		return v, present, nil
	}
	v, found, err := p.collection.GetOptionalInt(tx, messageRequestInteractionIDEpochKey)
	if err != nil {
		return 0, false, err
	}
	if found {
		s.set(v)
	} else {
		s.setAbsent()
	}
	return v, found, nil
}

func (p *Preferences) SetMessageRequestInteractionIDEpoch(tx infra.WriteTx, v int64) error {
	if err := p.collection.SetInt(tx, messageRequestInteractionIDEpochKey, v); err != nil {
		return err
	}
	p.cache.messageRequestInteractionIDEpoch.set(v)
	return nil
}

// ClearMessageRequestInteractionIDEpoch removes the epoch; later reads report it absent.
func (p *Preferences) ClearMessageRequestInteractionIDEpoch(tx infra.WriteTx) error {
	if err := p.collection.RemoveValue(tx, messageRequestInteractionIDEpochKey); err != nil {
		return err
	}
	p.cache.messageRequestInteractionIDEpoch.setAbsent()
	return nil
}

func (p *Preferences) cachedBool(tx infra.ReadTx, s *slot[bool], key string, def bool) (bool, error) {
	if v, _, loaded := s.get(); loaded {
		return v, nil
	}
	v, err := p.collection.GetBool(tx, key, def)
	if err != nil {
		return def, err
	}
	s.set(v)
	return v, nil
}

func (p *Preferences) setCachedBool(tx infra.WriteTx, s *slot[bool], key string, v bool) error {
	if err := p.collection.SetBool(tx, key, v); err != nil {
		return err
	}
	s.set(v)
	return nil
}

type sideEffect struct {
	key  string
	opts SyncOptions
}

// pendingTx is the WriteTx handed out by Update. Setters queue side effects on it.
type pendingTx struct {
	infra.WriteTx
	effects *[]sideEffect
}

// notify queues the side effects until Update commits. A transaction opened on the
// store directly has no commit hook, so the effects run immediately.
func (p *Preferences) notify(tx infra.WriteTx, key string, opts SyncOptions) {
	if !opts.SendSyncMessage && !opts.UpdateStorageService {
		return
	}
	e := sideEffect{key: key, opts: opts}
	if ptx, ok := tx.(*pendingTx); ok {
		*ptx.effects = append(*ptx.effects, e)
		return
	}
	p.fire(e)
}

func (p *Preferences) fire(e sideEffect) {
	if e.opts.SendSyncMessage {
		logger.Debug("Sending configuration sync message", "preference", e.key)
		metrics.SideEffects.WithLabelValues(e.key, "sync_message").Inc()
		p.syncer.SendConfigurationSyncMessage()
	}
	if e.opts.UpdateStorageService {
		logger.Debug("Recording pending local account updates", "preference", e.key)
		metrics.SideEffects.WithLabelValues(e.key, "storage_service").Inc()
		p.storageService.RecordPendingLocalAccountUpdates()
	}
}
