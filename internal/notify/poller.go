package notify

import (
	"context"
	"sync"
	"time"

	"github.com/abelbrown/harbor/internal/logging"
	"github.com/abelbrown/harbor/internal/otel"
)

// DefaultPollInterval is the time between unread-count refreshes.
const DefaultPollInterval = time.Minute

// pollTimeout bounds each refresh.
const pollTimeout = 15 * time.Second

// Poller keeps the unread counter fresh in the background.
// Context cancellation is the only stop mechanism.
type Poller struct {
	feed     *Feed
	interval time.Duration
	enabled  func() bool
	onCount  func(int)
	wg       sync.WaitGroup
}

// NewPoller creates a Poller. enabled gates each tick (poll only while
// signed in); onCount, if set, receives the counter after each refresh.
func NewPoller(feed *Feed, interval time.Duration, enabled func() bool, onCount func(int)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{feed: feed, interval: interval, enabled: enabled, onCount: onCount}
}

// Start refreshes immediately, then every interval until ctx is done.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.poll(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) poll(ctx context.Context) {
	if p.enabled != nil && !p.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	if err := p.feed.FetchUnreadCount(ctx); err != nil {
		if ctx.Err() == nil {
			logging.Warn("Unread count poll failed", "error", err)
		}
		p.feed.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindNotifyPoll, Comp: "notify", Err: err.Error()})
		return
	}
	n := p.feed.Snapshot().UnreadCount()
	p.feed.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindNotifyPoll, Comp: "notify", Count: n})
	if p.onCount != nil {
		p.onCount(n)
	}
}
