package wizard

import (
	"encoding/json"
	"fmt"
)

// StorageSlot is the fixed name drafts are persisted under.
const StorageSlot = "kpr-apply-store"

// SlotKey is the per-user storage key.
func SlotKey(userID string) string {
	return StorageSlot + ":" + userID
}

// Snapshot returns the persistable projection of d: a copy whose form omits
// every attachment field. d itself is not modified.
func (d *Draft) Snapshot() *Draft {
	out := &Draft{
		CurrentStep: d.CurrentStep,
		FormData:    make(FormData, len(d.FormData)),
		UserID:      d.UserID,
		PropertyID:  d.PropertyID,
	}
	for k, v := range d.FormData {
		if IsAttachmentField(k) {
			continue
		}
		out.FormData[k] = v
	}
	if d.Property != nil {
		p := *d.Property
		out.Property = &p
	}
	return out
}

// MarshalSnapshot serializes the projection returned by Snapshot.
func (d *Draft) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(d.Snapshot())
}

// UnmarshalSnapshot rehydrates a draft. The step is re-clamped and any
// attachment field that slipped into the payload is dropped.
func UnmarshalSnapshot(data []byte) (*Draft, error) {
	d := NewDraft()
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if d.FormData == nil {
		d.FormData = FormData{}
	}
	d.SetCurrentStep(d.CurrentStep)
	return d.Snapshot(), nil
}
