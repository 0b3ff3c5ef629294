package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/danmuck/inkctl/internal/observability"
	"github.com/danmuck/inkctl/internal/protocol"
	"github.com/danmuck/inkctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Caller is the one operation the command layer needs from a transport.
// A nil Response with a nil error means the device sent nothing back.
type Caller interface {
	Call(ctx context.Context, req protocol.Request) (protocol.Response, error)
}

// Conn is one open printer session.
type Conn struct {
	cfg    Config
	conn   net.Conn
	reader *bufio.Reader
	broken error
	// stale is set after a read timeout: the reply to that request may
	// still arrive and must not be taken as the answer to the next one.
	stale bool
	mu    sync.Mutex
}

// Open dials the printer. Failures wrap protocol.ErrConnection.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	raw, err := dialer.DialContext(ctx, "tcp", cfg.Address())
	if err != nil {
		log.Warn().Msgf("session.Open dial addr=%q err=%v", cfg.Address(), err)
		return nil, fmt.Errorf("%w: dial %s: %v", protocol.ErrConnection, cfg.Address(), err)
	}
	log.Debug().Msgf("session.Open connected addr=%q", cfg.Address())
	return &Conn{
		cfg:    cfg,
		conn:   raw,
		reader: bufio.NewReader(raw),
	}, nil
}

func (c *Conn) Config() Config {
	return c.cfg
}

// Broken reports the error that made the session unusable, if any.
func (c *Conn) Broken() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

// Close is safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if c.broken == nil {
		c.broken = errors.New("session closed")
	}
	return err
}

// Call sends req and waits for exactly one response.
//
// Outcomes:
//   - (resp, nil): a decoded response, ok or not
//   - (nil, nil): the peer answered with nothing
//   - protocol.ErrTimeout: no terminator before the deadline; the session stays usable
//   - protocol.ErrProtocol: bytes arrived but were not a JSON object
//   - protocol.ErrConnection: the session is gone and must be reopened
//   - context.Canceled: ctx was cancelled before anything was sent
//
// After a timeout the next call first waits up to ReadTimeout for the late
// reply and drops it, so each call reads only its own response.
func (c *Conn) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("session: encode request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	resp, outcome, err := c.exchange(ctx, payload)
	observability.RecordProtocolCall(string(req.Verb), req.Path, outcome, time.Since(start))
	log.Debug().
		Str("verb", string(req.Verb)).
		Str("path", req.Path).
		Str("outcome", outcome).
		Dur("elapsed", time.Since(start)).
		Msg("session.Conn.Call")
	return resp, err
}

func (c *Conn) exchange(ctx context.Context, payload []byte) (protocol.Response, string, error) {
	if c.conn == nil || c.broken != nil {
		return nil, observability.OutcomeConnection, c.brokenErr()
	}
	if outcome, err := checkContext(ctx); err != nil {
		return nil, outcome, err
	}
	if outcome, err := c.dropLateReply(ctx); err != nil {
		return nil, outcome, err
	}

	if err := c.conn.SetWriteDeadline(c.deadline(ctx, c.cfg.WriteTimeout)); err != nil {
		return nil, observability.OutcomeConnection, c.fail(err)
	}
	if err := frame.WriteFrame(c.conn, payload, c.cfg.Limits); err != nil {
		if errors.Is(err, frame.ErrPayloadTooLarge) || errors.Is(err, frame.ErrEmbeddedTerminator) {
			return nil, observability.OutcomeProtocol, fmt.Errorf("session: %w", err)
		}
		return nil, observability.OutcomeConnection, c.fail(err)
	}

	if err := c.conn.SetReadDeadline(c.deadline(ctx, c.cfg.ReadTimeout)); err != nil {
		return nil, observability.OutcomeConnection, c.fail(err)
	}
	fr, err := frame.ReadFrame(c.reader, c.cfg.Limits)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.stale = true
			return nil, observability.OutcomeTimeout, fmt.Errorf("%w: no response within deadline", protocol.ErrTimeout)
		}
		if errors.Is(err, frame.ErrPayloadTooLarge) {
			// the rest of the oversized document is still on the stream
			return nil, observability.OutcomeProtocol, c.fail(err)
		}
		return nil, observability.OutcomeConnection, c.fail(err)
	}
	if !fr.Terminated {
		c.broken = fmt.Errorf("peer closed the connection")
	}

	resp, err := protocol.DecodeResponse(fr.Payload)
	if err != nil {
		return nil, observability.OutcomeProtocol, err
	}
	switch {
	case resp == nil:
		return nil, observability.OutcomeNoResponse, nil
	case !resp.OK():
		return resp, observability.OutcomeDevice, nil
	}
	return resp, observability.OutcomeOK, nil
}

func checkContext(ctx context.Context) (string, error) {
	err := ctx.Err()
	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, context.DeadlineExceeded):
		return observability.OutcomeTimeout, fmt.Errorf("%w: %v", protocol.ErrTimeout, err)
	}
	return observability.OutcomeCanceled, fmt.Errorf("session: call canceled: %w", err)
}

// dropLateReply discards whatever answers an earlier timed-out request.
// Without a pending timeout it only drops unsolicited buffered bytes.
func (c *Conn) dropLateReply(ctx context.Context) (string, error) {
	if !c.stale {
		if n := c.reader.Buffered(); n > 0 {
			_, _ = c.reader.Discard(n)
			log.Debug().Msgf("session.Conn dropped unsolicited bytes=%d", n)
		}
		return "", nil
	}
	if err := c.conn.SetReadDeadline(c.deadline(ctx, c.cfg.ReadTimeout)); err != nil {
		return observability.OutcomeConnection, c.fail(err)
	}
	fr, err := frame.ReadFrame(c.reader, c.cfg.Limits)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			if outcome, err := checkContext(ctx); err != nil {
				// the late reply may still come; the next call waits again
				return outcome, err
			}
			c.stale = false
			log.Debug().Msgf("session.Conn no late reply addr=%q", c.cfg.Address())
			return "", nil
		}
		return observability.OutcomeConnection, c.fail(err)
	}
	c.stale = false
	if !fr.Terminated {
		c.broken = fmt.Errorf("peer closed the connection")
		return observability.OutcomeConnection, c.brokenErr()
	}
	log.Debug().Msgf("session.Conn dropped late reply bytes=%d", len(fr.Payload))
	return "", nil
}

func (c *Conn) deadline(ctx context.Context, d time.Duration) time.Time {
	deadline := time.Now().Add(d)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	return deadline
}

func (c *Conn) fail(err error) error {
	c.broken = err
	log.Warn().Msgf("session.Conn broken addr=%q err=%v", c.cfg.Address(), err)
	return fmt.Errorf("%w: %v", protocol.ErrConnection, err)
}

func (c *Conn) brokenErr() error {
	if c.broken != nil {
		return fmt.Errorf("%w: %v", protocol.ErrConnection, c.broken)
	}
	return fmt.Errorf("%w: session not open", protocol.ErrConnection)
}
