package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/runoshun/issue-harvest/internal/domain"
	"github.com/runoshun/issue-harvest/internal/testutil"
	"github.com/runoshun/issue-harvest/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchFixture struct {
	source   *testutil.MockIssueSource
	rawLog   *testutil.MockRawLog
	store    *testutil.MockCheckpointStore
	sleeper  *testutil.MockSleeper
	logger   *testutil.MockLogger
	progress *testutil.MockProgress
	cfg      domain.FetchConfig
}

func newFetchFixture() *fetchFixture {
	return &fetchFixture{
		source:   testutil.NewMockIssueSource(),
		rawLog:   testutil.NewMockRawLog(),
		store:    testutil.NewMockCheckpointStore(),
		sleeper:  &testutil.MockSleeper{},
		logger:   &testutil.MockLogger{},
		progress: &testutil.MockProgress{},
		cfg: domain.FetchConfig{
			PageSize:       50,
			Delay:          time.Second,
			RateLimitWait:  time.Minute,
			NetworkRetries: 3,
		},
	}
}

func (f *fetchFixture) useCase() *usecase.FetchCollection {
	return usecase.NewFetchCollection(f.source, f.rawLog, f.store, f.sleeper, f.logger, f.progress, f.cfg)
}

func TestFetchCollection_AllPages(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 120)
	state := domain.NewCheckpointState()

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.False(t, out.Aborted())
	assert.Equal(t, 120, out.Fetched)
	assert.Equal(t, 120, out.StartAt)

	require.Len(t, f.source.Requests, 3)
	assert.Equal(t, []int{0, 50, 100}, []int{f.source.Requests[0].StartAt, f.source.Requests[1].StartAt, f.source.Requests[2].StartAt})
	assert.Equal(t, 50, f.source.Requests[0].MaxResults)

	lines := f.rawLog.Lines("SPARK")
	require.Len(t, lines, 120)
	assert.Equal(t, string(testutil.Issue("SPARK", 1)), lines[0])
	assert.Equal(t, string(testutil.Issue("SPARK", 120)), lines[119])

	assert.Equal(t, &domain.CheckpointEntry{StartAt: 120, Completed: true}, f.store.Saved["SPARK"])
	assert.Equal(t, 3, f.store.SaveCalls)
	// Courtesy delay between pages, none after the last one
	assert.Equal(t, []time.Duration{time.Second, time.Second}, f.sleeper.Slept)
	assert.Equal(t, []testutil.PageEvent{
		{Collection: "SPARK", Fetched: 50, Total: 120},
		{Collection: "SPARK", Fetched: 100, Total: 120},
		{Collection: "SPARK", Fetched: 120, Total: 120},
	}, f.progress.Pages)
}

func TestFetchCollection_EmptyPageCompletes(t *testing.T) {
	f := newFetchFixture()
	state := domain.NewCheckpointState()

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "EMPTY"})
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.Zero(t, out.Fetched)
	assert.Empty(t, f.rawLog.Lines("EMPTY"))
	assert.Equal(t, &domain.CheckpointEntry{StartAt: 0, Completed: true}, f.store.Saved["EMPTY"])
}

func TestFetchCollection_CompletedIsNoop(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 10)
	state := domain.CheckpointState{"SPARK": {StartAt: 10, Completed: true}}

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.Empty(t, f.source.Requests)
	assert.Zero(t, f.store.SaveCalls)
}

func TestFetchCollection_ResumesFromOffset(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 120)
	state := domain.CheckpointState{"SPARK": {StartAt: 100}}

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)

	require.Len(t, f.source.Requests, 1)
	assert.Equal(t, 100, f.source.Requests[0].StartAt)
	assert.Equal(t, 20, out.Fetched)
	assert.True(t, out.Completed)
	lines := f.rawLog.Lines("SPARK")
	require.Len(t, lines, 20)
	assert.Equal(t, string(testutil.Issue("SPARK", 101)), lines[0])
}

func TestFetchCollection_RateLimitDoesNotAdvance(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 30)
	f.source.Script["SPARK"] = []domain.FetchOutcome{
		domain.RateLimited(17 * time.Second),
		domain.RateLimited(0),
	}
	var savesBeforeSuccess []int
	f.source.OnFetch = func(domain.PageRequest) { savesBeforeSuccess = append(savesBeforeSuccess, f.store.SaveCalls) }
	state := domain.NewCheckpointState()

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)

	require.Len(t, f.source.Requests, 3)
	for _, req := range f.source.Requests {
		assert.Equal(t, 0, req.StartAt)
	}
	assert.Equal(t, []int{0, 0, 0}, savesBeforeSuccess)
	// Retry-After when given, rate_limit_wait otherwise
	assert.Equal(t, []time.Duration{17 * time.Second, time.Minute}, f.sleeper.Slept)
	assert.True(t, out.Completed)
	assert.Len(t, f.rawLog.Lines("SPARK"), 30)
	assert.Len(t, f.logger.ByLevel("WARN"), 2)
}

func TestFetchCollection_RateLimitRetriesExhausted(t *testing.T) {
	f := newFetchFixture()
	f.cfg.MaxRateLimitRetries = 2
	f.source.AddIssues("SPARK", 30)
	f.source.Script["SPARK"] = []domain.FetchOutcome{
		domain.RateLimited(time.Second),
		domain.RateLimited(time.Second),
		domain.RateLimited(time.Second),
	}
	state := domain.CheckpointState{"SPARK": {StartAt: 0}}

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)

	assert.True(t, out.Aborted())
	assert.ErrorIs(t, out.AbortErr, domain.ErrRateLimitExhausted)
	assert.False(t, out.Completed)
	assert.Len(t, f.source.Requests, 3)
	assert.Zero(t, f.store.SaveCalls)
	assert.Equal(t, &domain.CheckpointEntry{}, state["SPARK"])
}

func TestFetchCollection_TransportRetriedWithBackoff(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 30)
	f.source.Script["SPARK"] = []domain.FetchOutcome{
		domain.Fatal(domain.ErrTransport),
		domain.Fatal(domain.ErrTransport),
	}
	state := domain.NewCheckpointState()

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.sleeper.Slept)
	assert.Len(t, f.rawLog.Lines("SPARK"), 30)
}

func TestFetchCollection_TransportRetriesExhausted(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 30)
	for range 4 {
		f.source.Script["SPARK"] = append(f.source.Script["SPARK"], domain.Fatal(domain.ErrTransport))
	}
	state := domain.NewCheckpointState()

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)

	assert.True(t, out.Aborted())
	assert.ErrorIs(t, out.AbortErr, domain.ErrTransport)
	assert.False(t, out.Completed)
	assert.Len(t, f.source.Requests, 4)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, f.sleeper.Slept)
}

func TestFetchCollection_HTTPErrorAborts(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 120)
	state := domain.CheckpointState{"SPARK": {StartAt: 50}}
	f.source.Script["SPARK"] = []domain.FetchOutcome{
		domain.Fatal(&domain.HTTPError{StatusCode: http.StatusInternalServerError}),
	}

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)

	var httpErr *domain.HTTPError
	require.True(t, errors.As(out.AbortErr, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.False(t, out.Completed)
	assert.Len(t, f.source.Requests, 1)
	assert.Empty(t, f.sleeper.Slept)
	assert.Empty(t, f.rawLog.Lines("SPARK"))
	assert.Equal(t, &domain.CheckpointEntry{StartAt: 50}, state["SPARK"])
	assert.Len(t, f.logger.ByLevel("ERROR"), 1)
}

func TestFetchCollection_SaveFailureIsFatal(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 120)
	f.store.SaveErr = errors.New("disk full")
	f.store.FailSaveAt = 2
	state := domain.NewCheckpointState()

	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// The in-memory entry keeps the last durable offset
	assert.Equal(t, &domain.CheckpointEntry{StartAt: 50}, state["SPARK"])
	assert.Equal(t, &domain.CheckpointEntry{StartAt: 50}, f.store.Saved["SPARK"])
	assert.Equal(t, 50, out.StartAt)
	assert.Len(t, f.source.Requests, 2)
}

func TestFetchCollection_AppendFailureIsFatal(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 30)
	f.rawLog.AppendErr = errors.New("read-only file system")
	state := domain.NewCheckpointState()

	_, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.Error(t, err)

	assert.Zero(t, f.store.SaveCalls)
	assert.Equal(t, &domain.CheckpointEntry{}, state["SPARK"])
}

func TestFetchCollection_CancelledDuringDelay(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 120)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.sleeper.Cancel = cancel
	state := domain.NewCheckpointState()

	out, err := f.useCase().Execute(ctx, usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 50, out.StartAt)
	assert.False(t, out.Completed)
	assert.Equal(t, &domain.CheckpointEntry{StartAt: 50}, f.store.Saved["SPARK"])
}

func TestFetchCollection_RestartAfterInterruption(t *testing.T) {
	f := newFetchFixture()
	f.source.AddIssues("SPARK", 120)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.sleeper.Cancel = cancel

	_, err := f.useCase().Execute(ctx, usecase.FetchCollectionInput{State: domain.NewCheckpointState(), Collection: "SPARK"})
	require.ErrorIs(t, err, context.Canceled)

	// A new run resumes from what was persisted
	state, err := f.store.Load()
	require.NoError(t, err)
	out, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.Equal(t, 70, out.Fetched)
	lines := f.rawLog.Lines("SPARK")
	require.Len(t, lines, 120)
	for i, line := range lines {
		assert.Equal(t, string(testutil.Issue("SPARK", i+1)), line)
	}

	// A third run does nothing
	state, err = f.store.Load()
	require.NoError(t, err)
	requests := len(f.source.Requests)
	_, err = f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: state, Collection: "SPARK"})
	require.NoError(t, err)
	assert.Len(t, f.source.Requests, requests)
	assert.Len(t, f.rawLog.Lines("SPARK"), 120)
}

func TestFetchCollection_InvalidInput(t *testing.T) {
	f := newFetchFixture()

	_, err := f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{State: domain.NewCheckpointState(), Collection: ""})
	assert.ErrorIs(t, err, domain.ErrEmptyCollection)

	_, err = f.useCase().Execute(context.Background(), usecase.FetchCollectionInput{Collection: "SPARK"})
	assert.Error(t, err)
}
