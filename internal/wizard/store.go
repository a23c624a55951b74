package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kpr/internal/kv"
)

// ErrCorruptDraft is returned by Load when the stored payload cannot be
// decoded.
var ErrCorruptDraft = errors.New("stored draft is corrupt")

// DraftStore persists draft snapshots in a kv.Store under SlotKey(userID).
type DraftStore struct {
	kv  kv.Store
	ttl time.Duration
}

// NewDraftStore creates a DraftStore. A ttl of zero keeps drafts forever.
func NewDraftStore(store kv.Store, ttl time.Duration) *DraftStore {
	return &DraftStore{kv: store, ttl: ttl}
}

// Load returns the stored draft, or a fresh one when nothing is stored.
func (s *DraftStore) Load(ctx context.Context, userID string) (*Draft, error) {
	raw, ok, err := s.kv.Get(ctx, SlotKey(userID))
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return NewDraft(), nil
	}
	d, err := UnmarshalSnapshot([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDraft, err)
	}
	return d, nil
}

// Save writes the snapshot of d.
func (s *DraftStore) Save(ctx context.Context, userID string, d *Draft) error {
	data, err := d.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.kv.Set(ctx, SlotKey(userID), string(data), s.ttl); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Delete removes the stored draft.
func (s *DraftStore) Delete(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, SlotKey(userID)); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
