// Package chapters holds the chapter fetch cache: one shared network request
// per (book, chapter) key, permanent caching of successes, and eviction of
// failures so the next caller retries.
package chapters

import (
	"context"
	"errors"
	"fmt"
	"scripture-api-go/logcolors"
	"scripture-api-go/services/bible"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// ErrInvalidRequest is returned for an empty book id or a non-positive chapter.
var ErrInvalidRequest = errors.New("invalid chapter request")

// Fetcher performs the network request for one chapter.
type Fetcher interface {
	FetchChapter(ctx context.Context, book string, chapter int) (*bible.Chapter, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, book string, chapter int) (*bible.Chapter, error)

func (f FetcherFunc) FetchChapter(ctx context.Context, book string, chapter int) (*bible.Chapter, error) {
	return f(ctx, book, chapter)
}

// Outcome describes how a Fetch was served.
type Outcome int

const (
	OutcomeMiss   Outcome = iota // this call started the network request
	OutcomeShared                // joined a request another caller started
	OutcomeHit                   // served from a resolved entry
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "HIT"
	case OutcomeShared:
		return "SHARED"
	default:
		return "MISS"
	}
}

// entry is one pending-or-resolved fetch. done is closed exactly once, after
// chapter/err are set and, on failure, after the entry left the map.
//
// An aborting entry lost all its observers; it stays in the map until its
// request has returned so no second request for the key can start meanwhile.
type entry struct {
	done      chan struct{}
	chapter   *bible.Chapter
	err       error
	observers int
	aborting  bool
	cancel    context.CancelFunc
}

func (e *entry) resolved() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Entries       int   `json:"entries"`
	Pending       int   `json:"pending"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Shared        int64 `json:"shared"`
	Failures      int64 `json:"failures"`
	Cancellations int64 `json:"cancellations"`
	Aborted       int64 `json:"aborted"`
}

// Cache deduplicates chapter fetches. The zero value is not usable; call New.
type Cache struct {
	fetcher Fetcher

	mu      sync.Mutex
	entries map[string]*entry

	hits          atomic.Int64
	misses        atomic.Int64
	shared        atomic.Int64
	failures      atomic.Int64
	cancellations atomic.Int64
	aborted       atomic.Int64
}

// New creates an empty cache backed by fetcher.
func New(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[string]*entry),
	}
}

// Key returns the cache key for a chapter, e.g. "john:3".
func Key(book string, chapter int) string {
	return strings.TrimSpace(book) + ":" + strconv.Itoa(chapter)
}

// IsCanceled reports whether err came from the caller's own cancellation
// rather than from the provider.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Fetch returns the chapter, issuing at most one network request per key.
func (c *Cache) Fetch(ctx context.Context, book string, chapter int) (*bible.Chapter, error) {
	ch, _, err := c.FetchWithOutcome(ctx, book, chapter)
	return ch, err
}

// FetchWithOutcome is Fetch that also reports how the call was served.
//
// Resolved entries are returned immediately. A pending entry gains one more
// observer. An aborting entry is waited out and the key looked up again.
// Otherwise a new entry is stored and its request started before the lock is
// released, so concurrent callers for the same key always find it.
//
// If ctx is done first, this caller gets ctx.Err(). The request itself is
// aborted only when its last observer leaves.
func (c *Cache) FetchWithOutcome(ctx context.Context, book string, chapter int) (*bible.Chapter, Outcome, error) {
	book = strings.TrimSpace(book)
	if book == "" || chapter <= 0 {
		return nil, OutcomeMiss, fmt.Errorf("%w: book=%q chapter=%d", ErrInvalidRequest, book, chapter)
	}
	if err := ctx.Err(); err != nil {
		c.cancellations.Add(1)
		return nil, OutcomeMiss, err
	}

	key := Key(book, chapter)

	c.mu.Lock()
	e, ok := c.entries[key]
	for ok && e.aborting && !e.resolved() {
		c.mu.Unlock()
		log.Debugf("%s Waiting for aborted request for %s to unwind", logcolors.LogCancel, key)
		select {
		case <-e.done:
		case <-ctx.Done():
			c.cancellations.Add(1)
			return nil, OutcomeMiss, ctx.Err()
		}
		c.mu.Lock()
		e, ok = c.entries[key]
	}

	outcome := OutcomeMiss
	switch {
	case ok && e.resolved():
		c.mu.Unlock()
		c.hits.Add(1)
		return e.chapter, OutcomeHit, nil
	case ok:
		e.observers++
		outcome = OutcomeShared
		c.shared.Add(1)
	default:
		fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		e = &entry{done: make(chan struct{}), observers: 1, cancel: cancel}
		c.entries[key] = e
		c.misses.Add(1)
		go c.run(fetchCtx, key, e, book, chapter)
	}
	c.mu.Unlock()

	if outcome == OutcomeShared {
		log.Debugf("%s Joining in-flight request for %s", logcolors.LogCacheChapter, key)
	}

	select {
	case <-e.done:
		return e.chapter, outcome, e.err
	case <-ctx.Done():
		c.leave(key, e)
		c.cancellations.Add(1)
		return nil, outcome, ctx.Err()
	}
}

func (c *Cache) run(ctx context.Context, key string, e *entry, book string, chapter int) {
	defer e.cancel()

	ch, err := c.fetcher.FetchChapter(ctx, book, chapter)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil && ch == nil {
		err = fmt.Errorf("fetch %s: empty payload", key)
	}
	if err != nil {
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		e.err = err
		if ctx.Err() == nil {
			c.failures.Add(1)
			log.Warnf("%s Fetch failed for %s, entry evicted: %v", logcolors.LogCacheChapter, key, err)
		}
	} else {
		e.chapter = ch
		if c.entries[key] == e {
			log.Infof("%s Cached %s", logcolors.LogCacheChapter, key)
		}
	}
	close(e.done)
}

// leave drops one observer. The last observer of a pending entry aborts the
// request; run evicts the entry once the request has returned.
func (c *Cache) leave(key string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.observers--
	if e.observers > 0 || e.resolved() {
		return
	}
	e.aborting = true
	e.cancel()
	c.aborted.Add(1)
	log.Debugf("%s All observers left %s, request aborted", logcolors.LogCancel, key)
}

// Peek returns a resolved chapter without touching the network.
func (c *Cache) Peek(book string, chapter int) (*bible.Chapter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[Key(book, chapter)]
	if !ok || !e.resolved() || e.err != nil {
		return nil, false
	}
	return e.chapter, true
}

// Forget drops one resolved entry. Pending entries are left alone.
func (c *Cache) Forget(book string, chapter int) bool {
	key := Key(book, chapter)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.resolved() {
		return false
	}
	delete(c.entries, key)
	return true
}

// Clear drops every resolved entry and returns how many were removed.
// Pending requests finish normally and are cached.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.resolved() {
			delete(c.entries, key)
			removed++
		}
	}
	log.Infof("%s Removed %d cached chapters", logcolors.LogCacheClear, removed)
	return removed
}

// Keys returns the keys of resolved entries in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key, e := range c.entries {
		if e.resolved() {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries, pending := 0, 0
	for _, e := range c.entries {
		if e.resolved() {
			entries++
		} else {
			pending++
		}
	}
	c.mu.Unlock()

	return Stats{
		Entries:       entries,
		Pending:       pending,
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Shared:        c.shared.Load(),
		Failures:      c.failures.Load(),
		Cancellations: c.cancellations.Load(),
		Aborted:       c.aborted.Load(),
	}
}
