package models

import "time"

// SyncState is the opaque cursor blob persisted between runs. Cursors
// map each VIN to the newest recall report date already emitted
// (RFC 3339); a recall is "new" when its date is strictly later.
type SyncState struct {
	LastSyncedAt time.Time         `json:"last_synced_at"`
	Cursors      map[string]string `json:"cursors,omitempty"`
}

// NewSyncState returns an empty state for a first run.
func NewSyncState() *SyncState {
	return &SyncState{Cursors: make(map[string]string)}
}

// CursorFor returns the stored cursor for a VIN, or the zero time when
// none exists.
func (s *SyncState) CursorFor(vin string) time.Time {
	if s == nil || s.Cursors == nil {
		return time.Time{}
	}
	raw, ok := s.Cursors[vin]
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AdvanceCursor moves a VIN's cursor forward; older dates are ignored.
func (s *SyncState) AdvanceCursor(vin string, t time.Time) {
	if t.IsZero() {
		return
	}
	if s.Cursors == nil {
		s.Cursors = make(map[string]string)
	}
	if cur := s.CursorFor(vin); t.After(cur) {
		s.Cursors[vin] = t.UTC().Format(time.RFC3339)
	}
}
