// Package fakeprinter is a loopback TCP stand-in for the printer used by tests.
package fakeprinter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"
)

// Reply scripts how the fake answers one request.
type Reply struct {
	Body         []byte
	NoTerminator bool
	Delay        time.Duration
	Silent       bool
	CloseAfter   bool
	Chunks       int
}

// Handler maps one decoded request to a reply.
type Handler func(req map[string]any) Reply

// Server accepts connections and answers CR LF framed JSON requests.
type Server struct {
	ln      net.Listener
	handler Handler

	mu       sync.Mutex
	requests []map[string]any
	conns    []net.Conn
	wg       sync.WaitGroup
}

// Start listens on 127.0.0.1 and stops with the test.
func Start(t testing.TB, handler Handler) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{ln: ln, handler: handler}
	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.ln.Addr().String())
	return host
}

func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Requests returns every decoded request received so far, in arrival order.
func (s *Server) Requests() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}
		line = bytes.TrimRight(line, "\r\n")
		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		reply := s.handler(req)
		if reply.Delay > 0 {
			time.Sleep(reply.Delay)
		}
		if !reply.Silent {
			out := append([]byte(nil), reply.Body...)
			if !reply.NoTerminator {
				out = append(out, '\r', '\n')
			}
			if err := writeChunks(conn, out, reply.Chunks); err != nil {
				return
			}
		}
		if reply.CloseAfter {
			return
		}
	}
}

func writeChunks(conn net.Conn, out []byte, chunks int) error {
	if chunks <= 1 || len(out) < chunks {
		_, err := conn.Write(out)
		return err
	}
	size := len(out) / chunks
	for len(out) > 0 {
		n := size
		if n > len(out) || len(out)-n < size {
			n = len(out)
		}
		if _, err := conn.Write(out[:n]); err != nil {
			return err
		}
		out = out[n:]
		time.Sleep(2 * time.Millisecond)
	}
	return nil
}

// JSON encodes v as a reply body.
func JSON(v any) Reply {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Body: body}
}

// OK replies {"status":"ok"} merged with fields.
func OK(fields map[string]any) Reply {
	doc := map[string]any{"status": "ok"}
	for k, v := range fields {
		doc[k] = v
	}
	return JSON(doc)
}

// Status replies with a non-ok status.
func Status(status string) Reply {
	return JSON(map[string]any{"status": status})
}
