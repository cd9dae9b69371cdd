// Package poll provides the cancellable ticker loop behind every refresh
// cycle in the client. Polling substitutes for server push: the backend has
// no event channel, so collections are re-fetched on a fixed cadence.
package poll

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller runs a tick function on a fixed interval until stopped. Tick
// failures are logged and discarded — a missed poll corrects itself on the
// next cycle, and surfacing every blip would spam the user.
type Poller struct {
	name     string
	interval time.Duration
	tick     func(ctx context.Context) error
	logger   *zap.Logger
	cancel   context.CancelFunc
}

// New creates a poller. tick runs once immediately on Start, then on every
// interval.
func New(name string, interval time.Duration, logger *zap.Logger, tick func(ctx context.Context) error) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		tick:     tick,
		logger:   logger,
	}
}

// Start launches the polling loop. Calling Start on a running poller
// restarts it.
func (p *Poller) Start(ctx context.Context) {
	p.Stop()
	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Stop cancels the loop. The owning view must call it on teardown so no
// tick fires against dead state.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) loop(ctx context.Context) {
	p.run(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.run(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) run(ctx context.Context) {
	if err := p.tick(ctx); err != nil && ctx.Err() == nil {
		p.logger.Warn("poll tick failed", zap.String("poller", p.name), zap.Error(err))
	}
}
