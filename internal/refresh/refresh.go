// Package refresh runs the fetch-merge-score cycle: every configured feed is
// fetched through the proxy, normalized, keyword-matched and merged into the
// board's story list.
package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/statewatch/statewatch/internal/activity"
	"github.com/statewatch/statewatch/internal/appdata"
	"github.com/statewatch/statewatch/internal/board"
	"github.com/statewatch/statewatch/internal/feed"
	"github.com/statewatch/statewatch/internal/observability"
	"github.com/statewatch/statewatch/internal/story"
)

// ItemFetcher retrieves one feed's raw items. A nil result means the fetch
// failed; an empty non-nil slice means the feed had no items.
type ItemFetcher interface {
	FetchItems(ctx context.Context, feedURL string) []feed.Item
}

// Pipeline coordinates one refresh cycle and the recurring loop.
type Pipeline struct {
	fetcher ItemFetcher
	board   *board.Board
	scorer  *activity.Scorer
	metrics *observability.Metrics
	stagger time.Duration
	clock   clockwork.Clock
}

func New(fetcher ItemFetcher, b *board.Board, scorer *activity.Scorer, metrics *observability.Metrics, stagger time.Duration) *Pipeline {
	return NewWithClock(fetcher, b, scorer, metrics, stagger, clockwork.NewRealClock())
}

func NewWithClock(fetcher ItemFetcher, b *board.Board, scorer *activity.Scorer, metrics *observability.Metrics, stagger time.Duration, clock clockwork.Clock) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		board:   b,
		scorer:  scorer,
		metrics: metrics,
		stagger: stagger,
		clock:   clock,
	}
}

// RunOnce fetches all configured feeds concurrently, each goroutine delayed
// by its index times the stagger interval, and merges the result into the
// board once every fetch has settled. Failed feeds contribute nothing.
// Returns the number of stories added by this cycle.
func (p *Pipeline) RunOnce(ctx context.Context) int {
	start := p.clock.Now()
	p.metrics.RefreshRunning.Set(1)
	defer p.metrics.RefreshRunning.Set(0)

	snap := p.board.Snapshot()

	results := make([][]story.Story, len(snap.Feeds))
	var wg sync.WaitGroup
	for i, f := range snap.Feeds {
		wg.Add(1)
		go func(i int, f appdata.Feed) {
			defer wg.Done()
			if delay := time.Duration(i) * p.stagger; delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-p.clock.After(delay):
				}
			}
			results[i] = p.fetchOne(ctx, f)
		}(i, f)
	}
	wg.Wait()

	var incoming []story.Story
	for _, r := range results {
		incoming = append(incoming, r...)
	}
	feed.MarkDefcon(incoming, snap.Keywords)

	existing := p.board.Stories()
	merged := story.Merge(existing, incoming)
	added := len(merged) - len(existing)

	p.metrics.StoriesMerged.Add(float64(added))
	p.board.SetStories(merged, p.clock.Now())
	p.scorer.Invalidate()

	p.metrics.RefreshDuration.Observe(p.clock.Since(start).Seconds())
	log.Printf("Refresh complete: %d feeds, %d new stories, %d total", len(snap.Feeds), added, len(merged))
	return added
}

func (p *Pipeline) fetchOne(ctx context.Context, f appdata.Feed) []story.Story {
	start := p.clock.Now()
	items := p.fetcher.FetchItems(ctx, f.URL)
	p.metrics.FetchDuration.Observe(p.clock.Since(start).Seconds())

	switch {
	case items == nil:
		p.metrics.FeedsFetched.WithLabelValues("error").Inc()
	case len(items) == 0:
		p.metrics.FeedsFetched.WithLabelValues("empty").Inc()
	default:
		p.metrics.FeedsFetched.WithLabelValues("success").Inc()
	}
	return feed.Normalize(f, items)
}

// fallbackInterval replaces a non-positive refresh interval, which can come
// from a persisted settings override. NewTicker panics on those.
const fallbackInterval = 5 * time.Minute

// Run executes one cycle immediately, then repeats on the given interval
// until the context is cancelled. Cycles are started without an overlap
// guard; a cycle that outlasts the interval overlaps the next one, which
// Merge tolerates since already-seen stories are kept as-is.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.Printf("Refresh interval %v is not positive, using %v", interval, fallbackInterval)
		interval = fallbackInterval
	}

	p.RunOnce(ctx)

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			go p.RunOnce(ctx)
		}
	}
}
