package chapters

import (
	"context"
	"errors"
	"scripture-api-go/services/bible"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeFetcher counts calls per key. When gate is set, each call blocks until
// the gate is closed or its context is cancelled.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	gate    chan struct{}
	started chan string
	fail    map[string]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls:   make(map[string]int),
		started: make(chan string, 32),
		fail:    make(map[string]error),
	}
}

func (f *fakeFetcher) FetchChapter(ctx context.Context, book string, chapter int) (*bible.Chapter, error) {
	key := Key(book, chapter)

	f.mu.Lock()
	f.calls[key]++
	gate := f.gate
	failErr := f.fail[key]
	f.mu.Unlock()

	f.started <- key

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failErr != nil {
		return nil, failErr
	}
	return &bible.Chapter{
		Reference: book + " " + time.Now().Format(time.RFC3339Nano),
		Verses:    []bible.Verse{{Chapter: chapter, Verse: 1, Text: "text"}},
	}, nil
}

func (f *fakeFetcher) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeFetcher) setFailure(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, key)
		return
	}
	f.fail[key] = err
}

func (f *fakeFetcher) blockCalls() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeFetcher) unblockCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = nil
}

func waitStarted(t *testing.T, f *fakeFetcher, expected string) {
	t.Helper()
	select {
	case key := <-f.started:
		if key != expected {
			t.Fatalf("Expected request for %s, got %s", expected, key)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for request to %s", expected)
	}
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", desc)
		}
		time.Sleep(time.Millisecond)
	}
}

type fetchResult struct {
	chapter *bible.Chapter
	outcome Outcome
	err     error
}

func fetchAsync(ctx context.Context, c *Cache, book string, chapter int) <-chan fetchResult {
	out := make(chan fetchResult, 1)
	go func() {
		ch, outcome, err := c.FetchWithOutcome(ctx, book, chapter)
		out <- fetchResult{ch, outcome, err}
	}()
	return out
}

func receive(t *testing.T, results <-chan fetchResult) fetchResult {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for fetch result")
		return fetchResult{}
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		book     string
		chapter  int
		expected string
	}{
		{"john", 3, "john:3"},
		{"genesis", 1, "genesis:1"},
		{"  1 samuel ", 17, "1 samuel:17"},
	}

	for _, tt := range tests {
		if got := Key(tt.book, tt.chapter); got != tt.expected {
			t.Errorf("Key(%q, %d) = %q, want %q", tt.book, tt.chapter, got, tt.expected)
		}
	}
}

func TestFetch_FirstRequestIssuesOneCall(t *testing.T) {
	f := newFakeFetcher()
	c := New(f)

	ch, outcome, err := c.FetchWithOutcome(context.Background(), "john", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ch == nil {
		t.Fatal("Expected a chapter")
	}
	if outcome != OutcomeMiss {
		t.Errorf("Expected MISS, got %s", outcome)
	}
	if calls := f.callCount("john:3"); calls != 1 {
		t.Errorf("Expected 1 network call, got %d", calls)
	}
}

func TestFetch_SuccessIsCachedPermanently(t *testing.T) {
	f := newFakeFetcher()
	c := New(f)

	first, err := c.Fetch(context.Background(), "psalms", 23)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		again, outcome, err := c.FetchWithOutcome(context.Background(), "psalms", 23)
		if err != nil {
			t.Fatalf("Unexpected error on repeat %d: %v", i, err)
		}
		if again != first {
			t.Errorf("Expected the previously resolved payload on repeat %d", i)
		}
		if outcome != OutcomeHit {
			t.Errorf("Expected HIT on repeat %d, got %s", i, outcome)
		}
	}

	if calls := f.callCount("psalms:23"); calls != 1 {
		t.Errorf("Expected 1 network call, got %d", calls)
	}
	if stats := c.Stats(); stats.Hits != 3 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestFetch_ConcurrentCallersShareOneRequest(t *testing.T) {
	f := newFakeFetcher()
	gate := f.blockCalls()
	c := New(f)

	first := fetchAsync(context.Background(), c, "john", 3)
	waitStarted(t, f, "john:3")

	second := fetchAsync(context.Background(), c, "john", 3)
	waitFor(t, "second caller to join", func() bool { return c.Stats().Shared == 1 })

	close(gate)

	a := receive(t, first)
	b := receive(t, second)

	if a.err != nil || b.err != nil {
		t.Fatalf("Unexpected errors: %v, %v", a.err, b.err)
	}
	if a.chapter != b.chapter {
		t.Error("Expected both callers to observe the same payload")
	}
	if a.outcome != OutcomeMiss || b.outcome != OutcomeShared {
		t.Errorf("Expected MISS/SHARED, got %s/%s", a.outcome, b.outcome)
	}
	if calls := f.callCount("john:3"); calls != 1 {
		t.Errorf("Expected 1 network call, got %d", calls)
	}
}

func TestFetch_ManyConcurrentCallers(t *testing.T) {
	f := newFakeFetcher()
	gate := f.blockCalls()
	c := New(f)

	const callers = 20
	results := make([]<-chan fetchResult, callers)
	results[0] = fetchAsync(context.Background(), c, "romans", 8)
	waitStarted(t, f, "romans:8")
	for i := 1; i < callers; i++ {
		results[i] = fetchAsync(context.Background(), c, "romans", 8)
	}
	waitFor(t, "callers to join", func() bool { return c.Stats().Shared == callers-1 })

	close(gate)

	var payload *bible.Chapter
	for i, ch := range results {
		r := receive(t, ch)
		if r.err != nil {
			t.Fatalf("caller %d: unexpected error %v", i, r.err)
		}
		if payload == nil {
			payload = r.chapter
		} else if r.chapter != payload {
			t.Errorf("caller %d observed a different payload", i)
		}
	}
	if calls := f.callCount("romans:8"); calls != 1 {
		t.Errorf("Expected 1 network call, got %d", calls)
	}
}

func TestFetch_FailureIsEvictedAndRetried(t *testing.T) {
	f := newFakeFetcher()
	c := New(f)
	networkErr := errors.New("simulated network error")
	f.setFailure("genesis:1", networkErr)

	_, err := c.Fetch(context.Background(), "genesis", 1)
	if !errors.Is(err, networkErr) {
		t.Fatalf("Expected simulated network error, got %v", err)
	}

	if _, ok := c.Peek("genesis", 1); ok {
		t.Error("Expected no cached entry after failure")
	}
	if stats := c.Stats(); stats.Entries != 0 || stats.Pending != 0 || stats.Failures != 1 {
		t.Errorf("Expected empty cache with one failure, got %+v", stats)
	}

	f.setFailure("genesis:1", nil)

	ch, outcome, err := c.FetchWithOutcome(context.Background(), "genesis", 1)
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if ch == nil || outcome != OutcomeMiss {
		t.Errorf("Expected a fresh MISS, got %s", outcome)
	}
	if calls := f.callCount("genesis:1"); calls != 2 {
		t.Errorf("Expected 2 network calls, got %d", calls)
	}
}

func TestFetch_FailureReachesEveryObserver(t *testing.T) {
	f := newFakeFetcher()
	gate := f.blockCalls()
	c := New(f)
	providerErr := bible.NewProviderError("mark", 1, 503, "failed to load chapter", nil)
	f.setFailure("mark:1", providerErr)

	first := fetchAsync(context.Background(), c, "mark", 1)
	waitStarted(t, f, "mark:1")
	second := fetchAsync(context.Background(), c, "mark", 1)
	waitFor(t, "second caller to join", func() bool { return c.Stats().Shared == 1 })

	close(gate)

	for i, r := range []fetchResult{receive(t, first), receive(t, second)} {
		var perr *bible.ProviderError
		if !errors.As(r.err, &perr) {
			t.Errorf("caller %d: expected provider error, got %v", i, r.err)
		}
		if IsCanceled(r.err) {
			t.Errorf("caller %d: provider failure must not look like a cancellation", i)
		}
	}
	if len(c.Keys()) != 0 {
		t.Errorf("Expected no keys after failure, got %v", c.Keys())
	}
}

func TestFetch_CancelledCallerIsSuppressible(t *testing.T) {
	f := newFakeFetcher()
	f.blockCalls()
	c := New(f)

	ctx, cancel := context.WithCancel(context.Background())
	pending := fetchAsync(ctx, c, "john", 3)
	waitStarted(t, f, "john:3")

	cancel()
	r := receive(t, pending)

	if !IsCanceled(r.err) {
		t.Fatalf("Expected a cancellation error, got %v", r.err)
	}
	var perr *bible.ProviderError
	if errors.As(r.err, &perr) {
		t.Error("Cancellation must not surface as a provider error")
	}

	// The only observer left, so the request is aborted and the entry evicted
	// once the request has returned.
	waitFor(t, "abort to settle", func() bool {
		s := c.Stats()
		return s.Aborted == 1 && s.Pending == 0
	})
	if s := c.Stats(); s.Failures != 0 || s.Cancellations != 1 {
		t.Errorf("Expected a cancellation and no failures, got %+v", s)
	}

	f.unblockCalls()
	if _, err := c.Fetch(context.Background(), "john", 3); err != nil {
		t.Fatalf("Expected follow-up fetch to succeed, got %v", err)
	}
	if calls := f.callCount("john:3"); calls != 2 {
		t.Errorf("Expected a new network call after abort, got %d calls", calls)
	}
}

// unwindingFetcher blocks its first call until ctx is done and then takes a
// while to return, like an HTTP request tearing down its connection. Later
// calls succeed at once. It records how many calls overlapped.
type unwindingFetcher struct {
	mu          sync.Mutex
	calls       int
	returned    int
	inFlight    int
	maxInFlight int
	overlapped  bool
	started     chan struct{}
}

func newUnwindingFetcher() *unwindingFetcher {
	return &unwindingFetcher{started: make(chan struct{}, 1)}
}

func (f *unwindingFetcher) FetchChapter(ctx context.Context, book string, chapter int) (*bible.Chapter, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	if f.returned != n-1 {
		f.overlapped = true
	}
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.returned++
		f.mu.Unlock()
	}()

	if n == 1 {
		f.started <- struct{}{}
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil, ctx.Err()
	}
	return &bible.Chapter{
		Reference: book,
		Verses:    []bible.Verse{{Chapter: chapter, Verse: 1, Text: "text"}},
	}, nil
}

func (f *unwindingFetcher) snapshot() (calls, maxInFlight int, overlapped bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.maxInFlight, f.overlapped
}

func TestFetch_AbortedRequestFinishesBeforeNextStarts(t *testing.T) {
	f := newUnwindingFetcher()
	c := New(f)

	ctx, cancel := context.WithCancel(context.Background())
	first := fetchAsync(ctx, c, "john", 3)
	<-f.started
	cancel()
	if r := receive(t, first); !IsCanceled(r.err) {
		t.Fatalf("Expected a cancellation error, got %v", r.err)
	}

	// The aborted request is still unwinding; this caller must wait for it.
	ch, outcome, err := c.FetchWithOutcome(context.Background(), "john", 3)
	if err != nil {
		t.Fatalf("Expected follow-up fetch to succeed, got %v", err)
	}
	if ch == nil || outcome != OutcomeMiss {
		t.Errorf("Expected a fresh MISS with a payload, got %v %+v", outcome, ch)
	}

	calls, maxInFlight, overlapped := f.snapshot()
	if calls != 2 {
		t.Errorf("Expected 2 network calls, got %d", calls)
	}
	if maxInFlight != 1 || overlapped {
		t.Errorf("Expected at most one network call in flight for john:3, got %d (overlapped=%v)", maxInFlight, overlapped)
	}
	if s := c.Stats(); s.Aborted != 1 || s.Failures != 0 || s.Entries != 1 {
		t.Errorf("Expected one abort, no failures and one cached entry, got %+v", s)
	}
}

func TestFetch_CallerGivingUpWhileAbortUnwinds(t *testing.T) {
	f := newUnwindingFetcher()
	c := New(f)

	ctx, cancel := context.WithCancel(context.Background())
	first := fetchAsync(ctx, c, "genesis", 1)
	<-f.started
	cancel()
	receive(t, first)

	waiting, stop := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer stop()
	if _, err := c.Fetch(waiting, "genesis", 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context.DeadlineExceeded, got %v", err)
	}

	waitFor(t, "aborted request to unwind", func() bool { return c.Stats().Pending == 0 })

	if calls, _, _ := f.snapshot(); calls != 1 {
		t.Errorf("Expected no new network call while the abort unwound, got %d calls", calls)
	}
	if len(c.Keys()) != 0 {
		t.Errorf("Expected the aborted entry to be evicted, got %v", c.Keys())
	}
	if s := c.Stats(); s.Cancellations != 2 || s.Failures != 0 {
		t.Errorf("Expected two cancellations and no failures, got %+v", s)
	}
}

func TestFetch_OneObserverCancellingKeepsRequestAlive(t *testing.T) {
	f := newFakeFetcher()
	gate := f.blockCalls()
	c := New(f)

	ctx, cancel := context.WithCancel(context.Background())
	superseded := fetchAsync(ctx, c, "luke", 15)
	waitStarted(t, f, "luke:15")
	patient := fetchAsync(context.Background(), c, "luke", 15)
	waitFor(t, "second caller to join", func() bool { return c.Stats().Shared == 1 })

	cancel()
	if r := receive(t, superseded); !IsCanceled(r.err) {
		t.Fatalf("Expected cancellation for superseded caller, got %v", r.err)
	}

	close(gate)

	r := receive(t, patient)
	if r.err != nil {
		t.Fatalf("Expected remaining observer to succeed, got %v", r.err)
	}
	if _, ok := c.Peek("luke", 15); !ok {
		t.Error("Expected the chapter to be cached")
	}
	if s := c.Stats(); s.Aborted != 0 {
		t.Errorf("Expected no aborted requests, got %d", s.Aborted)
	}
	if calls := f.callCount("luke:15"); calls != 1 {
		t.Errorf("Expected 1 network call, got %d", calls)
	}
}

func TestFetch_CancelledAfterResolutionKeepsEntry(t *testing.T) {
	f := newFakeFetcher()
	c := New(f)

	if _, err := c.Fetch(context.Background(), "acts", 2); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Fetch(ctx, "acts", 2); !IsCanceled(err) {
		t.Fatalf("Expected cancellation for already-cancelled context, got %v", err)
	}
	if _, ok := c.Peek("acts", 2); !ok {
		t.Error("A cancelled caller must not evict a resolved entry")
	}
	if calls := f.callCount("acts:2"); calls != 1 {
		t.Errorf("Expected 1 network call, got %d", calls)
	}
}

func TestFetch_DifferentKeysAreIndependent(t *testing.T) {
	f := newFakeFetcher()
	gate := f.blockCalls()
	c := New(f)

	john := fetchAsync(context.Background(), c, "john", 1)
	genesis := fetchAsync(context.Background(), c, "genesis", 1)

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case key := <-f.started:
			seen[key] = true
		case <-time.After(2 * time.Second):
			t.Fatal("Timed out waiting for both requests to start")
		}
	}
	if !seen["john:1"] || !seen["genesis:1"] {
		t.Fatalf("Expected both keys in flight, got %v", seen)
	}
	if s := c.Stats(); s.Pending != 2 {
		t.Errorf("Expected 2 pending entries, got %d", s.Pending)
	}

	close(gate)

	if r := receive(t, john); r.err != nil {
		t.Errorf("john: %v", r.err)
	}
	if r := receive(t, genesis); r.err != nil {
		t.Errorf("genesis: %v", r.err)
	}
}

func TestFetch_InvalidRequest(t *testing.T) {
	f := newFakeFetcher()
	c := New(f)

	tests := []struct {
		name    string
		book    string
		chapter int
	}{
		{"empty book", "", 1},
		{"blank book", "   ", 1},
		{"zero chapter", "john", 0},
		{"negative chapter", "john", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Fetch(context.Background(), tt.book, tt.chapter)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Expected ErrInvalidRequest, got %v", err)
			}
		})
	}

	if s := c.Stats(); s.Misses != 0 || s.Entries != 0 {
		t.Errorf("Invalid requests must not touch the cache, got %+v", s)
	}
}

func TestFetch_NilPayloadIsFailure(t *testing.T) {
	c := New(FetcherFunc(func(ctx context.Context, book string, chapter int) (*bible.Chapter, error) {
		return nil, nil
	}))

	if _, err := c.Fetch(context.Background(), "jude", 1); err == nil {
		t.Fatal("Expected an error for an empty payload")
	}
	if _, ok := c.Peek("jude", 1); ok {
		t.Error("Expected empty payload not to be cached")
	}
}

func TestForgetClearAndKeys(t *testing.T) {
	f := newFakeFetcher()
	c := New(f)

	for _, book := range []string{"john", "genesis", "exodus"} {
		if _, err := c.Fetch(context.Background(), book, 1); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	keys := c.Keys()
	expected := []string{"exodus:1", "genesis:1", "john:1"}
	if len(keys) != len(expected) {
		t.Fatalf("Expected keys %v, got %v", expected, keys)
	}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Errorf("key %d: expected %q, got %q", i, expected[i], keys[i])
		}
	}

	if !c.Forget("john", 1) {
		t.Error("Expected Forget to remove john:1")
	}
	if c.Forget("john", 1) {
		t.Error("Expected second Forget to report nothing removed")
	}

	if removed := c.Clear(); removed != 2 {
		t.Errorf("Expected Clear to remove 2 entries, got %d", removed)
	}
	if len(c.Keys()) != 0 {
		t.Errorf("Expected no keys after Clear, got %v", c.Keys())
	}

	if _, err := c.Fetch(context.Background(), "genesis", 1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls := f.callCount("genesis:1"); calls != 2 {
		t.Errorf("Expected a new network call after Clear, got %d calls", calls)
	}
}

func TestClear_LeavesPendingEntries(t *testing.T) {
	f := newFakeFetcher()
	gate := f.blockCalls()
	c := New(f)

	pending := fetchAsync(context.Background(), c, "hebrews", 11)
	waitStarted(t, f, "hebrews:11")

	if removed := c.Clear(); removed != 0 {
		t.Errorf("Expected Clear to skip pending entries, removed %d", removed)
	}
	if c.Forget("hebrews", 11) {
		t.Error("Expected Forget to skip pending entries")
	}

	close(gate)
	if r := receive(t, pending); r.err != nil {
		t.Fatalf("Unexpected error: %v", r.err)
	}
	if _, ok := c.Peek("hebrews", 11); !ok {
		t.Error("Expected pending entry to be cached once resolved")
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		expected string
	}{
		{OutcomeMiss, "MISS"},
		{OutcomeShared, "SHARED"},
		{OutcomeHit, "HIT"},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, true},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped canceled", errors.Join(errors.New("fetch john 3"), context.Canceled), true},
		{"provider error", bible.NewProviderError("john", 3, 500, "failed", nil), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCanceled(tt.err); got != tt.expected {
				t.Errorf("IsCanceled(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}
