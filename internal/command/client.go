package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/inkctl/internal/protocol"
	"github.com/danmuck/inkctl/internal/protocol/session"
)

var (
	ErrMissingField = errors.New("command: missing required field")
	ErrInvalidKind  = errors.New("command: invalid entity kind")
	ErrNoResponse   = errors.New("command: no response")
	ErrMissingID    = errors.New("command: response carries no id")
)

// HashFunc produces the advisory hash token of creation requests.
type HashFunc func() int64

// DefaultHash derives the token from the wall clock in milliseconds.
func DefaultHash() int64 {
	return time.Now().UnixMilli() % 10_000_000
}

// Client issues typed actions over one Caller.
type Client struct {
	caller session.Caller
	hash   HashFunc
}

// Option is a function that configures the client.
type Option func(*Client)

// WithHash overrides the hash token source.
func WithHash(h HashFunc) Option {
	return func(c *Client) {
		if h != nil {
			c.hash = h
		}
	}
}

func New(caller session.Caller, opts ...Option) *Client {
	c := &Client{
		caller: caller,
		hash:   DefaultHash,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends a prepared request. A non-ok status comes back as a
// *protocol.DeviceError together with the response.
func (c *Client) Do(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	resp, err := c.caller.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := protocol.CheckStatus(req, resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// Created extracts the device-assigned id from a creation response.
func Created(resp protocol.Response) (int, error) {
	if resp == nil {
		return 0, ErrNoResponse
	}
	id, ok := resp.ID()
	if !ok {
		return 0, ErrMissingID
	}
	return id, nil
}

func (c *Client) create(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	req.Hash = c.hash()
	return c.Do(ctx, req)
}

func missing(path, field string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMissingField, path, field)
}

// decode fetches and unmarshals one response into out.
func (c *Client) decode(ctx context.Context, req protocol.Request, out any) (protocol.Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return resp, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNoResponse, req.Verb, req.Path)
	}
	if err := resp.Decode(out); err != nil {
		return resp, fmt.Errorf("%w: %s %s: %v", protocol.ErrProtocol, req.Verb, req.Path, err)
	}
	return resp, nil
}
