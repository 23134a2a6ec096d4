// Package usecase contains the application use cases.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// FetchCollectionInput contains the input for the FetchCollection use case.
type FetchCollectionInput struct {
	// State is the run's checkpoint state. The entry for Collection is
	// mutated in place and persisted after every page.
	State      domain.CheckpointState
	Collection string
}

// FetchCollectionOutput contains the output of the FetchCollection use case.
type FetchCollectionOutput struct {
	AbortErr  error // Remote failure that ended the collection early
	Fetched   int   // Records appended during this call
	StartAt   int   // Persisted offset after the call
	Completed bool
}

// Aborted reports whether the collection was abandoned without completing.
func (o *FetchCollectionOutput) Aborted() bool {
	return o.AbortErr != nil
}

// FetchCollection pages through one collection, appending records to the raw
// log and checkpointing the offset after each page.
type FetchCollection struct {
	source   domain.IssueSource
	rawLog   domain.RawLog
	store    domain.CheckpointStore
	sleeper  domain.Sleeper
	logger   domain.Logger
	progress domain.Progress
	cfg      domain.FetchConfig
}

// NewFetchCollection creates a new FetchCollection use case.
func NewFetchCollection(
	source domain.IssueSource,
	rawLog domain.RawLog,
	store domain.CheckpointStore,
	sleeper domain.Sleeper,
	logger domain.Logger,
	progress domain.Progress,
	cfg domain.FetchConfig,
) *FetchCollection {
	return &FetchCollection{
		source:   source,
		rawLog:   rawLog,
		store:    store,
		sleeper:  sleeper,
		logger:   logger,
		progress: progress,
		cfg:      cfg,
	}
}

// Execute fetches pages from the persisted offset until the collection is
// exhausted or a remote failure aborts it.
//
// A returned error is fatal to the whole run: local persistence failed or ctx
// was cancelled. Remote failures are reported through AbortErr instead.
func (uc *FetchCollection) Execute(ctx context.Context, in FetchCollectionInput) (*FetchCollectionOutput, error) {
	if err := domain.ValidateCollectionID(in.Collection); err != nil {
		return nil, err
	}
	if in.State == nil {
		return nil, errors.New("checkpoint state is nil")
	}

	id := in.Collection
	entry, _ := in.State.Ensure(id)
	out := &FetchCollectionOutput{StartAt: entry.StartAt, Completed: entry.Completed}
	if entry.Completed {
		return out, nil
	}

	var rateLimited, transportFailures int
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		outcome := uc.source.FetchPage(ctx, domain.PageRequest{
			Collection: id,
			StartAt:    entry.StartAt,
			MaxResults: uc.cfg.PageSize,
		})

		switch outcome.Kind {
		case domain.OutcomeRateLimited:
			rateLimited++
			if uc.cfg.MaxRateLimitRetries > 0 && rateLimited > uc.cfg.MaxRateLimitRetries {
				out.AbortErr = fmt.Errorf("%w after %d attempts", domain.ErrRateLimitExhausted, rateLimited)
				uc.logger.Error(id, "fetch", fmt.Sprintf("aborting at offset %d: %v", entry.StartAt, out.AbortErr))
				return out, nil
			}
			wait := outcome.RetryAfter
			if wait <= 0 {
				wait = uc.cfg.RateLimitWait
			}
			uc.logger.Warn(id, "fetch", fmt.Sprintf("rate limited at offset %d, waiting %s", entry.StartAt, wait))
			if err := uc.sleeper.Sleep(ctx, wait); err != nil {
				return out, err
			}
			continue

		case domain.OutcomeFatal:
			if err := ctx.Err(); err != nil {
				return out, err
			}
			if errors.Is(outcome.Err, domain.ErrTransport) && transportFailures < uc.cfg.NetworkRetries {
				wait := backoff(uc.cfg.Delay, transportFailures)
				transportFailures++
				uc.logger.Warn(id, "fetch", fmt.Sprintf("%v; retry %d/%d in %s", outcome.Err, transportFailures, uc.cfg.NetworkRetries, wait))
				if err := uc.sleeper.Sleep(ctx, wait); err != nil {
					return out, err
				}
				continue
			}
			out.AbortErr = outcome.Err
			uc.logger.Error(id, "fetch", fmt.Sprintf("aborting at offset %d: %v", entry.StartAt, outcome.Err))
			return out, nil
		}

		rateLimited, transportFailures = 0, 0
		page := outcome.Page

		if page == nil || page.Empty() {
			if err := uc.complete(in.State, entry); err != nil {
				return out, err
			}
			out.Completed = true
			uc.logger.Info(id, "fetch", fmt.Sprintf("no more issues at offset %d, collection completed", entry.StartAt))
			return out, nil
		}

		if err := uc.rawLog.Append(id, page.Issues); err != nil {
			return out, fmt.Errorf("append raw log %s: %w", id, err)
		}
		if err := uc.advance(in.State, entry, len(page.Issues), page.Total); err != nil {
			return out, err
		}
		out.Fetched += len(page.Issues)
		out.StartAt = entry.StartAt
		out.Completed = entry.Completed

		uc.progress.PageFetched(id, entry.StartAt, page.Total)
		uc.logger.Debug(id, "fetch", fmt.Sprintf("scraped %d/%d", entry.StartAt, page.Total))

		if entry.Completed {
			uc.logger.Info(id, "fetch", fmt.Sprintf("collection completed with %d issues", entry.StartAt))
			return out, nil
		}
		if err := uc.sleeper.Sleep(ctx, uc.cfg.Delay); err != nil {
			return out, err
		}
	}
}

// advance moves entry past n records and persists the state.
// On save failure the entry keeps its last durable value.
func (uc *FetchCollection) advance(state domain.CheckpointState, entry *domain.CheckpointEntry, n, total int) error {
	prev := *entry
	if err := entry.Advance(entry.StartAt+n, total); err != nil {
		return err
	}
	if err := uc.store.Save(state); err != nil {
		*entry = prev
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (uc *FetchCollection) complete(state domain.CheckpointState, entry *domain.CheckpointEntry) error {
	prev := *entry
	entry.Complete()
	if err := uc.store.Save(state); err != nil {
		*entry = prev
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// backoff returns base doubled attempt times.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	return base << attempt
}
