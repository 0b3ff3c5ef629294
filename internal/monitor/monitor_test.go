package monitor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/inkctl/internal/command"
	"github.com/danmuck/inkctl/internal/observability"
	"github.com/danmuck/inkctl/internal/protocol"
	"github.com/danmuck/inkctl/internal/protocol/session"
	"github.com/danmuck/inkctl/internal/testutil/fakeprinter"
	"github.com/danmuck/inkctl/internal/testutil/testlog"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runningReply(map[string]any) fakeprinter.Reply {
	return fakeprinter.OK(map[string]any{
		"state":       "running",
		"data_name":   "Pharma",
		"data_id":     103,
		"output":      42,
		"ink_used":    1.5,
		"start_time":  1700000000,
		"reprint":     true,
		"trans_ready": false,
		"source_info": []map[string]any{
			{"id": 7, "type": "counter", "name": "n", "content": 12, "current": 12, "alarm_status": true},
		},
	})
}

func TestParseRealtimeRunning(t *testing.T) {
	testlog.Start(t)
	direct := fakeprinter.NewDirect(runningReply)
	resp, err := command.New(direct).PrintStatus(context.Background())
	require.NoError(t, err)

	snap := ParseRealtime(resp)
	assert.True(t, snap.Printing())
	assert.Equal(t, "ok", snap.Status)
	assert.Equal(t, "Pharma", snap.DataName)
	assert.Equal(t, 103, snap.DataID)
	assert.Equal(t, 42, snap.Output)
	assert.Equal(t, 1.5, snap.InkUsed)
	require.NotNil(t, snap.StartTime)
	assert.Equal(t, int64(1700000000), snap.StartTime.Unix())
	assert.True(t, snap.Reprint)
	require.NotNil(t, snap.TransReady)
	assert.False(t, *snap.TransReady)
	require.Len(t, snap.Sources, 1)
	assert.Equal(t, "12", snap.Sources[0].Content)
	require.NotNil(t, snap.Sources[0].Alarm)
	assert.True(t, *snap.Sources[0].Alarm)

	assert.Equal(t, Snapshot{}, ParseRealtime(nil))
}

func TestPollClassifiesOutcomes(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		reply   fakeprinter.Reply
		outcome string
	}{
		{fakeprinter.OK(map[string]any{"state": "stopped"}), observability.OutcomeOK},
		{fakeprinter.Status("busy"), observability.OutcomeDevice},
		{fakeprinter.Reply{}, observability.OutcomeNoResponse},
		{fakeprinter.Reply{Silent: true}, observability.OutcomeTimeout},
		{fakeprinter.Reply{Body: []byte("nope")}, observability.OutcomeProtocol},
	}
	for _, tc := range cases {
		reply := tc.reply
		p := NewPoller(command.New(fakeprinter.NewDirect(func(map[string]any) fakeprinter.Reply { return reply })), time.Second)
		snap := p.Poll(context.Background())
		assert.Equal(t, tc.outcome, snap.Outcome)
		assert.Equal(t, uint64(1), snap.Seq)
		assert.Equal(t, tc.outcome != observability.OutcomeOK && tc.outcome != observability.OutcomeNoResponse, snap.Error != "")
	}
}

func TestRunDeliversSnapshotsAndStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	dev := fakeprinter.NewDevice()
	direct := fakeprinter.NewDirect(dev.Handle)

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var seen []Snapshot
	sink := func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
		if len(seen) == 3 {
			cancel()
		}
	}
	p := NewPoller(command.New(direct), 5*time.Millisecond, sink)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	for i, s := range seen {
		assert.Equal(t, uint64(i+1), s.Seq)
		assert.Equal(t, StateStopped, s.State)
	}
	assert.Len(t, direct.Requests(), 3)
	assert.Equal(t, protocol.PathRealtime, direct.Requests()[0]["path"])
}

func TestRunStopsWhenPeerClosesSession(t *testing.T) {
	testlog.Start(t)
	srv := fakeprinter.Start(t, func(map[string]any) fakeprinter.Reply {
		r := fakeprinter.OK(map[string]any{"state": "stopped"})
		r.CloseAfter = true
		return r
	})
	cfg := session.DefaultConfig()
	cfg.Host = srv.Host()
	cfg.Port = srv.Port()
	conn, err := session.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var seen []Snapshot
	p := NewPoller(command.New(conn), 5*time.Millisecond, func(s Snapshot) { seen = append(seen, s) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = p.Run(ctx)
	require.ErrorIs(t, err, protocol.ErrConnection)
	require.NoError(t, ctx.Err(), "run should end on its own, not on the deadline")

	require.NotEmpty(t, seen)
	assert.LessOrEqual(t, len(seen), 3)
	assert.Equal(t, observability.OutcomeOK, seen[0].Outcome)
	assert.Equal(t, observability.OutcomeConnection, seen[len(seen)-1].Outcome)
	assert.NotEmpty(t, seen[len(seen)-1].Error)
}

func TestRunReturnsImmediatelyWhenAlreadyCancelled(t *testing.T) {
	testlog.Start(t)
	direct := fakeprinter.NewDirect(runningReply)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, NewPoller(command.New(direct), time.Hour).Run(ctx))
	assert.LessOrEqual(t, len(direct.Requests()), 1)
}

func TestFeedStatusHealthAndMetrics(t *testing.T) {
	testlog.Start(t)
	feed := NewFeed(nil)
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	p := NewPoller(command.New(fakeprinter.NewDirect(runningReply)), time.Second, feed.Publish)
	feed.Publish(p.Poll(context.Background()))

	resp, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pharma", snap.DataName)
	assert.Equal(t, observability.OutcomeOK, snap.Outcome)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "inkctl_monitor_polls_total")
}

func TestFeedStreamsSnapshotsOverWebSocket(t *testing.T) {
	testlog.Start(t)
	feed := NewFeed([]string{"http://dashboard.local"})
	srv := httptest.NewServer(feed.Handler())
	defer srv.Close()

	feed.Publish(Snapshot{Seq: 1, State: StateStopped})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, uint64(1), first.Seq)

	feed.Publish(Snapshot{Seq: 2, State: StateRunning})
	var second Snapshot
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, StateRunning, second.State)

	last, ok := feed.Last()
	require.True(t, ok)
	assert.Equal(t, uint64(2), last.Seq)
}

func TestOriginChecker(t *testing.T) {
	testlog.Start(t)
	check := originChecker([]string{"http://dashboard.local"})
	req := httptest.NewRequest(http.MethodGet, "http://printer.local/ws", nil)
	assert.True(t, check(req))
	req.Header.Set("Origin", "http://dashboard.local")
	assert.True(t, check(req))
	req.Header.Set("Origin", "http://printer.local")
	assert.True(t, check(req))
	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))
}
