package fakeprinter

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/danmuck/inkctl/internal/protocol"
)

// Direct calls a Handler in-process, skipping the socket. It satisfies
// session.Caller.
type Direct struct {
	Handler Handler

	mu       sync.Mutex
	requests []map[string]any
}

func NewDirect(handler Handler) *Direct {
	return &Direct{Handler: handler}
}

func (d *Direct) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.requests = append(d.requests, doc)
	d.mu.Unlock()

	reply := d.Handler(doc)
	if reply.Silent {
		return nil, protocol.ErrTimeout
	}
	return protocol.DecodeResponse(reply.Body)
}

// Requests returns the requests seen so far, as they went over the wire.
func (d *Direct) Requests() []map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]map[string]any, len(d.requests))
	copy(out, d.requests)
	return out
}

// Paths lists "verb path" of each request in order.
func (d *Direct) Paths() []string {
	reqs := d.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		verb, _ := r["request_type"].(string)
		path, _ := r["path"].(string)
		out[i] = verb + " " + path
	}
	return out
}
