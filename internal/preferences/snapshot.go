package preferences

import "github.com/fystack/appprefs/pkg/infra"

// Snapshot is every preference read in one transaction.
type Snapshot struct {
	AreLinkPreviewsEnabled           bool   `json:"areLinkPreviewsEnabled" yaml:"areLinkPreviewsEnabled"`
	AreLegacyLinkPreviewsEnabled     bool   `json:"areLegacyLinkPreviewsEnabled" yaml:"areLegacyLinkPreviewsEnabled"`
	HasSavedThread                   bool   `json:"hasSavedThread" yaml:"hasSavedThread"`
	IncludeMutedThreadsInBadgeCount  bool   `json:"includeMutedThreadsInBadgeCount" yaml:"includeMutedThreadsInBadgeCount"`
	PreferContactAvatars             bool   `json:"preferContactAvatars" yaml:"preferContactAvatars"`
	MessageRequestInteractionIDEpoch *int64 `json:"messageRequestInteractionIdEpoch,omitempty" yaml:"messageRequestInteractionIdEpoch,omitempty"`
}

func (p *Preferences) Snapshot(tx infra.ReadTx) (Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.AreLinkPreviewsEnabled, err = p.AreLinkPreviewsEnabled(tx); err != nil {
		return s, err
	}
	if s.AreLegacyLinkPreviewsEnabled, err = p.AreLegacyLinkPreviewsEnabled(tx); err != nil {
		return s, err
	}
	if s.HasSavedThread, err = p.HasSavedThread(tx); err != nil {
		return s, err
	}
	if s.IncludeMutedThreadsInBadgeCount, err = p.IncludeMutedThreadsInBadgeCount(tx); err != nil {
		return s, err
	}
	if s.PreferContactAvatars, err = p.PreferContactAvatars(tx); err != nil {
		return s, err
	}
	epoch, found, err := p.MessageRequestInteractionIDEpoch(tx)
	if err != nil {
		return s, err
	}
	if found {
		s.MessageRequestInteractionIDEpoch = &epoch
	}
	return s, nil
}
