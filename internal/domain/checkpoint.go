package domain

import "sort"

// CheckpointEntry is the persisted progress of one collection.
// StartAt is the offset of the next page to request.
type CheckpointEntry struct {
	StartAt   int  `json:"start_at"`
	Completed bool `json:"completed"`
}

// CheckpointState maps collection ids to their progress.
type CheckpointState map[string]*CheckpointEntry

// NewCheckpointState returns an empty state.
func NewCheckpointState() CheckpointState {
	return make(CheckpointState)
}

// Ensure returns the entry for id, creating a fresh one if absent.
// The second return value reports whether the entry was created.
func (s CheckpointState) Ensure(id string) (*CheckpointEntry, bool) {
	if e, ok := s[id]; ok && e != nil {
		return e, false
	}
	e := &CheckpointEntry{}
	s[id] = e
	return e, true
}

// Get returns the entry for id or nil.
func (s CheckpointState) Get(id string) *CheckpointEntry {
	return s[id]
}

// IDs returns the collection ids in lexical order.
func (s CheckpointState) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the state.
func (s CheckpointState) Clone() CheckpointState {
	out := make(CheckpointState, len(s))
	for id, e := range s {
		if e == nil {
			continue
		}
		c := *e
		out[id] = &c
	}
	return out
}

// Advance moves the entry forward to next and marks it completed when next
// reaches total. A completed entry or a smaller offset is rejected.
func (e *CheckpointEntry) Advance(next, total int) error {
	if e.Completed {
		return ErrCollectionCompleted
	}
	if next < e.StartAt {
		return ErrOffsetRegression
	}
	e.StartAt = next
	e.Completed = next >= total
	return nil
}

// Complete marks the collection as fully fetched.
func (e *CheckpointEntry) Complete() {
	e.Completed = true
}
