package preferences

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/fystack/appprefs/pkg/infra"
	"github.com/samber/lo"
)

var ErrUnknownPreference = errors.New("unknown preference")

// EpochPreference is the external name of the message request interaction id epoch.
const EpochPreference = "message-request-epoch"

type boolSetter func(p *Preferences, tx infra.WriteTx, v bool, opts SyncOptions) error

// external names used by the CLI and the HTTP API
var boolSetters = map[string]boolSetter{
	"link-previews": func(p *Preferences, tx infra.WriteTx, v bool, opts SyncOptions) error {
		return p.SetAreLinkPreviewsEnabled(tx, v, opts)
	},
	"legacy-link-previews": func(p *Preferences, tx infra.WriteTx, v bool, _ SyncOptions) error {
		return p.SetAreLegacyLinkPreviewsEnabled(tx, v)
	},
	"saved-thread": func(p *Preferences, tx infra.WriteTx, v bool, _ SyncOptions) error {
		return p.SetHasSavedThread(tx, v)
	},
	"muted-in-badge-count": func(p *Preferences, tx infra.WriteTx, v bool, _ SyncOptions) error {
		return p.SetIncludeMutedThreadsInBadgeCount(tx, v)
	},
	"contact-avatars": func(p *Preferences, tx infra.WriteTx, v bool, opts SyncOptions) error {
		return p.SetPreferContactAvatars(tx, v, opts)
	},
}

// Names returns every name SetByName accepts, sorted.
func Names() []string {
	names := append(lo.Keys(boolSetters), EpochPreference)
	slices.Sort(names)
	return names
}

// SetByName parses raw for the named preference and writes it. opts only matters
// for preferences that have side effects.
func (p *Preferences) SetByName(tx infra.WriteTx, name, raw string, opts SyncOptions) error {
	if name == EpochPreference {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return p.SetMessageRequestInteractionIDEpoch(tx, v)
	}

	setter, ok := boolSetters[name]
	if !ok {
		return fmt.Errorf("%w %q, expected one of: %s", ErrUnknownPreference, name, strings.Join(Names(), ", "))
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return setter(p, tx, v, opts)
}
