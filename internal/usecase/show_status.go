package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// ShowStatusInput contains the input for the ShowStatus use case.
type ShowStatusInput struct{}

// CollectionStatus is the checkpoint of one collection.
type CollectionStatus struct {
	Collection string
	StartAt    int
	Completed  bool
	Configured bool // Listed in fetch.collections
	Tracked    bool // Has a checkpoint entry
}

// ShowStatusOutput contains the output of the ShowStatus use case.
type ShowStatusOutput struct {
	StateWarning error
	Collections  []CollectionStatus
}

// ShowStatus reports the fetch progress of every known collection.
type ShowStatus struct {
	store       domain.CheckpointStore
	collections []string
}

// NewShowStatus creates a new ShowStatus use case.
func NewShowStatus(store domain.CheckpointStore, collections []string) *ShowStatus {
	return &ShowStatus{
		store:       store,
		collections: collections,
	}
}

// Execute lists configured collections in order, followed by collections
// that only exist in the checkpoint.
func (uc *ShowStatus) Execute(_ context.Context, _ ShowStatusInput) (*ShowStatusOutput, error) {
	out := &ShowStatusOutput{}
	state, err := uc.store.Load()
	if err != nil {
		if !errors.Is(err, domain.ErrCorruptCheckpoint) {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		out.StateWarning = err
	}

	for _, id := range uc.collections {
		s := CollectionStatus{Collection: id, Configured: true}
		if e := state.Get(id); e != nil {
			s.StartAt, s.Completed, s.Tracked = e.StartAt, e.Completed, true
		}
		out.Collections = append(out.Collections, s)
	}
	for _, id := range state.IDs() {
		if slices.Contains(uc.collections, id) {
			continue
		}
		e := state.Get(id)
		if e == nil {
			continue
		}
		out.Collections = append(out.Collections, CollectionStatus{
			Collection: id,
			StartAt:    e.StartAt,
			Completed:  e.Completed,
			Tracked:    true,
		})
	}
	return out, nil
}
