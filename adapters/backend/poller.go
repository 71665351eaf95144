package backend

import (
	"context"
	"sync/atomic"
	"time"

	"ncsresearch/internal"
)

// Poller re-probes the backend's health endpoint on a fixed interval. Each
// tick is an independent fire-and-forget request with its own timeout; there
// is no ordering guarantee against foreground calls, so consumers must
// tolerate a stale online/offline flip. Last write wins.
type Poller struct {
	client   *Client
	interval time.Duration
	timeout  time.Duration
	online   atomic.Bool
	onChange func(online bool)
	log      *internal.Logger
}

// NewPoller creates a poller over the given client. onChange may be nil.
func NewPoller(client *Client, interval time.Duration, onChange func(online bool)) *Poller {
	return &Poller{
		client:   client,
		interval: interval,
		timeout:  3 * time.Second,
		onChange: onChange,
		log:      internal.DefaultLogger.Named("poller"),
	}
}

// Online reports the last observed backend availability
func (p *Poller) Online() bool {
	return p.online.Load()
}

// Start launches the polling loop. It stops when ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	p.probe(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *Poller) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp := p.client.Health(probeCtx)
	previous := p.online.Swap(resp.Success)
	if previous != resp.Success {
		if resp.Success {
			p.log.Info("backend %s is online", p.client.BaseURL())
		} else {
			p.log.Warn("backend %s went offline: %s", p.client.BaseURL(), resp.Error)
		}
		if p.onChange != nil {
			p.onChange(resp.Success)
		}
	}
}
