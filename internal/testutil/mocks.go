// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/runoshun/issue-harvest/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockCheckpointStore is a test double for domain.CheckpointStore.
// Saved holds a deep copy of the last successful save.
type MockCheckpointStore struct {
	Saved     domain.CheckpointState
	LoadState domain.CheckpointState
	LoadErr   error
	SaveErr   error
	// FailSaveAt makes the n-th Save (1-based) fail with SaveErr. Zero means
	// every Save fails when SaveErr is set.
	FailSaveAt int
	SaveCalls  int
}

// NewMockCheckpointStore creates a new MockCheckpointStore with an empty state.
func NewMockCheckpointStore() *MockCheckpointStore {
	return &MockCheckpointStore{
		LoadState: domain.NewCheckpointState(),
	}
}

// Load returns a copy of LoadState, or of the last saved state if any.
func (m *MockCheckpointStore) Load() (domain.CheckpointState, error) {
	if m.Saved != nil {
		return m.Saved.Clone(), m.LoadErr
	}
	if m.LoadState == nil {
		return domain.NewCheckpointState(), m.LoadErr
	}
	return m.LoadState.Clone(), m.LoadErr
}

// Save records a copy of state.
func (m *MockCheckpointStore) Save(state domain.CheckpointState) error {
	m.SaveCalls++
	if m.SaveErr != nil && (m.FailSaveAt == 0 || m.FailSaveAt == m.SaveCalls) {
		return m.SaveErr
	}
	m.Saved = state.Clone()
	return nil
}

// MockIssueSource is a test double for domain.IssueSource.
// Scripted outcomes are returned first, in order. Once exhausted, pages are
// served from Issues by offset.
type MockIssueSource struct {
	Issues   map[string][]json.RawMessage
	Script   map[string][]domain.FetchOutcome
	Requests []domain.PageRequest
	// OnFetch is called before the outcome is chosen.
	OnFetch func(req domain.PageRequest)
}

// NewMockIssueSource creates a new MockIssueSource.
func NewMockIssueSource() *MockIssueSource {
	return &MockIssueSource{
		Issues: make(map[string][]json.RawMessage),
		Script: make(map[string][]domain.FetchOutcome),
	}
}

// AddIssues registers n generated issues for collection.
func (m *MockIssueSource) AddIssues(collection string, n int) {
	for i := len(m.Issues[collection]); n > 0; i, n = i+1, n-1 {
		m.Issues[collection] = append(m.Issues[collection], Issue(collection, i+1))
	}
}

// FetchPage returns the next scripted outcome or a page of Issues.
func (m *MockIssueSource) FetchPage(ctx context.Context, req domain.PageRequest) domain.FetchOutcome {
	m.Requests = append(m.Requests, req)
	if m.OnFetch != nil {
		m.OnFetch(req)
	}
	if err := ctx.Err(); err != nil {
		return domain.Fatal(err)
	}
	if script := m.Script[req.Collection]; len(script) > 0 {
		m.Script[req.Collection] = script[1:]
		return script[0]
	}

	all := m.Issues[req.Collection]
	page := &domain.Page{Total: len(all)}
	if req.StartAt < len(all) {
		end := min(req.StartAt+req.MaxResults, len(all))
		page.Issues = all[req.StartAt:end]
	}
	return domain.Success(page)
}

// Issue returns a minimal raw issue for collection with the given number.
func Issue(collection string, n int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":"%d","key":"%s-%d","fields":{"summary":"Issue %d"}}`, n, collection, n, n))
}

// MockSleeper is a test double for domain.Sleeper that records every call.
type MockSleeper struct {
	Err    error
	Slept  []time.Duration
	Cancel context.CancelFunc // called on the first Sleep when set
}

// Sleep records d without blocking.
func (m *MockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	m.Slept = append(m.Slept, d)
	if m.Cancel != nil {
		m.Cancel()
		m.Cancel = nil
	}
	if m.Err != nil {
		return m.Err
	}
	return ctx.Err()
}

// MockRawLog is an in-memory domain.RawLog.
type MockRawLog struct {
	Logs      map[string]*bytes.Buffer
	AppendErr error
	ListErr   error
	OpenErr   error
	mu        sync.Mutex
}

// NewMockRawLog creates a new empty MockRawLog.
func NewMockRawLog() *MockRawLog {
	return &MockRawLog{Logs: make(map[string]*bytes.Buffer)}
}

// Append writes one line per record.
func (m *MockRawLog) Append(collection string, records []json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	buf, ok := m.Logs[collection]
	if !ok {
		buf = &bytes.Buffer{}
		m.Logs[collection] = buf
	}
	for _, r := range records {
		buf.Write(r)
		buf.WriteByte('\n')
	}
	return nil
}

// Put replaces a collection's log content.
func (m *MockRawLog) Put(collection, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs[collection] = bytes.NewBufferString(content)
}

// Lines returns the appended lines of collection.
func (m *MockRawLog) Lines(collection string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.Logs[collection]
	if !ok {
		return nil
	}
	lines := bytes.Split(bytes.TrimSuffix(buf.Bytes(), []byte("\n")), []byte("\n"))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, string(l))
	}
	return out
}

// List returns the collections with a log, sorted.
func (m *MockRawLog) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	ids := make([]string, 0, len(m.Logs))
	for id := range m.Logs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Open returns a reader over a copy of the log.
func (m *MockRawLog) Open(collection string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	buf, ok := m.Logs[collection]
	if !ok {
		return nil, fmt.Errorf("open %s: not found", collection)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(buf.Bytes()))), nil
}

// MockSink is an in-memory domain.TransformedSink.
// Committed holds the committed output per collection.
type MockSink struct {
	Committed map[string]string
	CreateErr error
	// WriteErr is returned by writers created for these collections.
	WriteErr map[string]error
	Aborted  []string
	mu       sync.Mutex
}

// NewMockSink creates a new empty MockSink.
func NewMockSink() *MockSink {
	return &MockSink{
		Committed: make(map[string]string),
		WriteErr:  make(map[string]error),
	}
}

// Create returns an in-memory writer for collection.
func (m *MockSink) Create(collection string) (domain.OutputWriter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return &mockOutput{sink: m, collection: collection, writeErr: m.WriteErr[collection]}, nil
}

type mockOutput struct {
	writeErr   error
	sink       *MockSink
	collection string
	buf        bytes.Buffer
}

func (o *mockOutput) Write(p []byte) (int, error) {
	if o.writeErr != nil {
		return 0, o.writeErr
	}
	return o.buf.Write(p)
}

func (o *mockOutput) Commit() error {
	o.sink.mu.Lock()
	defer o.sink.mu.Unlock()
	o.sink.Committed[o.collection] = o.buf.String()
	return nil
}

func (o *mockOutput) Abort() error {
	o.sink.mu.Lock()
	defer o.sink.mu.Unlock()
	o.sink.Aborted = append(o.sink.Aborted, o.collection)
	return nil
}

func (o *mockOutput) Path() string {
	return o.collection + "_transformed.jsonl"
}

// LogEntry is one message captured by MockLogger.
type LogEntry struct {
	Level      string
	Collection string
	Category   string
	Msg        string
}

// MockLogger is a test double for domain.Logger that captures entries.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

func (m *MockLogger) add(level, collection, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, Collection: collection, Category: category, Msg: msg})
}

// Debug records a debug entry.
func (m *MockLogger) Debug(collection, category, msg string) { m.add("DEBUG", collection, category, msg) }

// Info records an info entry.
func (m *MockLogger) Info(collection, category, msg string) { m.add("INFO", collection, category, msg) }

// Warn records a warning entry.
func (m *MockLogger) Warn(collection, category, msg string) { m.add("WARN", collection, category, msg) }

// Error records an error entry.
func (m *MockLogger) Error(collection, category, msg string) { m.add("ERROR", collection, category, msg) }

// ByLevel returns the captured entries at level.
func (m *MockLogger) ByLevel(level string) []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LogEntry
	for _, e := range m.Entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// PageEvent is one PageFetched call.
type PageEvent struct {
	Collection string
	Fetched    int
	Total      int
}

// MockProgress is a test double for domain.Progress.
type MockProgress struct {
	Files map[string]domain.TransformStats
	Pages []PageEvent
	mu    sync.Mutex
}

// PageFetched records the event.
func (m *MockProgress) PageFetched(collection string, fetched, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pages = append(m.Pages, PageEvent{Collection: collection, Fetched: fetched, Total: total})
}

// FileTransformed records the stats.
func (m *MockProgress) FileTransformed(collection string, stats domain.TransformStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Files == nil {
		m.Files = make(map[string]domain.TransformStats)
	}
	m.Files[collection] = stats
}

// MockConfigLoader is a test double for domain.ConfigLoader.
type MockConfigLoader struct {
	Config *domain.Config
	Err    error
}

// Load returns the configured config.
func (m *MockConfigLoader) Load() (*domain.Config, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Config == nil {
		return domain.NewDefaultConfig(), nil
	}
	return m.Config, nil
}

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	InitErr    error
	RenderErr  error
	ConfigInfo domain.ConfigInfo
	InitCalled bool
}

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		ConfigInfo: domain.ConfigInfo{Path: domain.ConfigFileName},
	}
}

// Info returns ConfigInfo.
func (m *MockConfigManager) Info() domain.ConfigInfo {
	return m.ConfigInfo
}

// Init records the call and returns InitErr.
func (m *MockConfigManager) Init() error {
	m.InitCalled = true
	return m.InitErr
}

// Render returns a fixed representation of cfg.
func (m *MockConfigManager) Render(cfg *domain.Config) ([]byte, error) {
	if m.RenderErr != nil {
		return nil, m.RenderErr
	}
	return []byte(fmt.Sprintf("page_size = %d\n", cfg.Fetch.PageSize)), nil
}

// Compile-time interface checks.
var (
	_ domain.Clock           = (*MockClock)(nil)
	_ domain.CheckpointStore = (*MockCheckpointStore)(nil)
	_ domain.IssueSource     = (*MockIssueSource)(nil)
	_ domain.Sleeper         = (*MockSleeper)(nil)
	_ domain.RawLog          = (*MockRawLog)(nil)
	_ domain.TransformedSink = (*MockSink)(nil)
	_ domain.Logger          = (*MockLogger)(nil)
	_ domain.Progress        = (*MockProgress)(nil)
	_ domain.ConfigLoader    = (*MockConfigLoader)(nil)
	_ domain.ConfigManager   = (*MockConfigManager)(nil)
)
