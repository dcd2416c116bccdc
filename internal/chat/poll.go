package chat

import (
	"context"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// DefaultPollInterval is how often a Poller checks for new messages.
const DefaultPollInterval = 3 * time.Second

// Poller delivers new messages of one conversation by listing it on a fixed
// interval. Latency is bounded by the interval.
type Poller struct {
	Channel  *Channel
	ClaimID  int64
	ViewerID int64
	Interval time.Duration

	// After is the ID of the last delivered message.
	After int64
}

// Run polls until ctx is done or fn returns an error. fn receives each batch
// of new messages in order. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context, fn func([]model.Message) error) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		msgs, err := p.Channel.ListSince(ctx, p.ClaimID, p.ViewerID, p.After)
		if err != nil {
			return err
		}
		if len(msgs) > 0 {
			if err := fn(msgs); err != nil {
				return err
			}
			p.After = msgs[len(msgs)-1].ID
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
