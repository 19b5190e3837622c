package domain

import "time"

// Snapshot is the shape exchanged with persistence and sync: every task
// across all dates plus one anchor instant per date.
type Snapshot struct {
	Tasks       []Task               `json:"tasks"`
	AnchorTimes map[string]time.Time `json:"anchorTimes,omitempty"`

	// AnchorTime is the single anchor written by older versions.
	// It is read on load and never written.
	AnchorTime time.Time `json:"anchorTime,omitzero"`
}

// Empty returns true when the snapshot carries neither tasks nor anchors.
func (s Snapshot) Empty() bool {
	return len(s.Tasks) == 0 && len(s.AnchorTimes) == 0 && s.AnchorTime.IsZero()
}
