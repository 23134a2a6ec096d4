package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// HarvestInput contains the input for the Harvest use case.
type HarvestInput struct {
	// Collections restricts the run to a subset of the configured
	// collections. Configuration order is kept. Empty means all.
	Collections []string
}

// CollectionSummary reports what happened to one collection.
type CollectionSummary struct {
	AbortErr   error // Remote failure that ended the collection early
	Collection string
	Fetched    int // Records appended in this run
	StartAt    int // Persisted offset at the end of the run
	Skipped    bool
	Completed  bool
}

// HarvestOutput contains the output of the Harvest use case.
type HarvestOutput struct {
	// StateWarning is set when the checkpoint could not be read and the run
	// started from an empty state.
	StateWarning error
	Collections  []CollectionSummary
}

// Aborted returns the summaries of collections that were abandoned.
func (o *HarvestOutput) Aborted() []CollectionSummary {
	var out []CollectionSummary
	for _, s := range o.Collections {
		if s.AbortErr != nil {
			out = append(out, s)
		}
	}
	return out
}

// Harvest runs the fetch loop over every configured collection in order.
type Harvest struct {
	store       domain.CheckpointStore
	fetch       *FetchCollection
	logger      domain.Logger
	collections []string
}

// NewHarvest creates a new Harvest use case.
func NewHarvest(store domain.CheckpointStore, fetch *FetchCollection, logger domain.Logger, collections []string) *Harvest {
	return &Harvest{
		store:       store,
		fetch:       fetch,
		logger:      logger,
		collections: collections,
	}
}

// Execute loads the checkpoint once and fetches each collection sequentially.
// Completed collections are skipped. A remote failure only abandons its own
// collection; a returned error stops the run.
func (uc *Harvest) Execute(ctx context.Context, in HarvestInput) (*HarvestOutput, error) {
	targets, err := selectCollections(uc.collections, in.Collections)
	if err != nil {
		return nil, err
	}

	out := &HarvestOutput{}
	state, err := uc.store.Load()
	if err != nil {
		if !errors.Is(err, domain.ErrCorruptCheckpoint) {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		uc.logger.Warn("", "harvest", fmt.Sprintf("%v; starting from an empty state", err))
		out.StateWarning = err
	}
	if state == nil {
		state = domain.NewCheckpointState()
	}

	for _, id := range targets {
		entry, created := state.Ensure(id)
		if created {
			if err := uc.store.Save(state); err != nil {
				delete(state, id)
				return out, fmt.Errorf("save checkpoint: %w", err)
			}
			uc.logger.Info(id, "harvest", "new collection, starting at offset 0")
		}

		if entry.Completed {
			uc.logger.Info(id, "harvest", "already completed, skipping")
			out.Collections = append(out.Collections, CollectionSummary{
				Collection: id,
				StartAt:    entry.StartAt,
				Skipped:    true,
				Completed:  true,
			})
			continue
		}

		uc.logger.Info(id, "harvest", fmt.Sprintf("fetching from offset %d", entry.StartAt))
		res, err := uc.fetch.Execute(ctx, FetchCollectionInput{State: state, Collection: id})
		if res != nil {
			out.Collections = append(out.Collections, CollectionSummary{
				Collection: id,
				Fetched:    res.Fetched,
				StartAt:    res.StartAt,
				Completed:  res.Completed,
				AbortErr:   res.AbortErr,
			})
		}
		if err != nil {
			return out, fmt.Errorf("%s: %w", id, err)
		}
		if res.Aborted() {
			uc.logger.Warn(id, "harvest", "collection aborted, continuing with the next one")
		}
	}
	return out, nil
}

// selectCollections returns the configured collections named in subset, in
// configuration order. An empty subset selects all of them.
func selectCollections(configured, subset []string) ([]string, error) {
	if len(configured) == 0 {
		return nil, domain.ErrNoCollections
	}
	if len(subset) == 0 {
		return configured, nil
	}
	for _, id := range subset {
		if !slices.Contains(configured, id) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCollection, id)
		}
	}
	var out []string
	for _, id := range configured {
		if slices.Contains(subset, id) {
			out = append(out, id)
		}
	}
	return out, nil
}
