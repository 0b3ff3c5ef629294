package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/inkctl/internal/command"
	"github.com/danmuck/inkctl/internal/observability"
	"github.com/danmuck/inkctl/internal/protocol"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is the pause between polls.
const DefaultInterval = 2 * time.Second

// Sink receives every snapshot, in poll order, on the polling goroutine.
type Sink func(Snapshot)

// Poller reads /engine/real on a fixed interval.
type Poller struct {
	client   *command.Client
	interval time.Duration
	sinks    []Sink
	seq      uint64
	now      func() time.Time
}

func NewPoller(client *command.Client, interval time.Duration, sinks ...Sink) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		client:   client,
		interval: interval,
		sinks:    sinks,
		now:      time.Now,
	}
}

// Poll performs one status call and returns its snapshot without
// delivering it to the sinks.
func (p *Poller) Poll(ctx context.Context) Snapshot {
	snap, _ := p.poll(ctx)
	return snap
}

func (p *Poller) poll(ctx context.Context) (Snapshot, error) {
	resp, err := p.client.PrintStatus(ctx)
	snap := ParseRealtime(resp)
	p.seq++
	snap.Seq = p.seq
	snap.Time = p.now()
	snap.Outcome = outcome(resp, err)
	if err != nil {
		snap.Error = err.Error()
	}
	observability.RecordMonitorPoll(snap.Outcome)
	return snap, err
}

// Run polls until ctx is done or the session is lost. The context is checked
// before each poll and while sleeping; a poll in flight finishes under its own
// timeout. A connection error is delivered to the sinks and then returned;
// reconnecting is up to the caller.
func (p *Poller) Run(ctx context.Context) error {
	log.Info().Msgf("monitor.Poller.Run interval=%s", p.interval)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			log.Info().Msgf("monitor.Poller.Run stopped polls=%d", p.seq)
			return nil
		}

		snap, err := p.poll(context.WithoutCancel(ctx))
		if snap.Error != "" {
			log.Warn().Msgf("monitor.Poller.Run seq=%d outcome=%s err=%s", snap.Seq, snap.Outcome, snap.Error)
		} else {
			log.Debug().Msgf("monitor.Poller.Run seq=%d state=%s output=%d", snap.Seq, snap.State, snap.Output)
		}
		for _, sink := range p.sinks {
			sink(snap)
		}
		if errors.Is(err, protocol.ErrConnection) {
			log.Warn().Msgf("monitor.Poller.Run session lost polls=%d", p.seq)
			return fmt.Errorf("monitor: poll %d: %w", snap.Seq, err)
		}
		timer.Reset(p.interval)
	}
}

func outcome(resp protocol.Response, err error) string {
	switch {
	case err == nil && resp == nil:
		return observability.OutcomeNoResponse
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, protocol.ErrDevice):
		return observability.OutcomeDevice
	case errors.Is(err, protocol.ErrTimeout):
		return observability.OutcomeTimeout
	case errors.Is(err, protocol.ErrProtocol):
		return observability.OutcomeProtocol
	case errors.Is(err, context.Canceled):
		return observability.OutcomeCanceled
	}
	return observability.OutcomeConnection
}
