package monitor

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/inkctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	subscriberBuffer = 8
	writeWait        = 5 * time.Second
)

// Feed holds the last snapshot and fans new ones out to WebSocket clients.
type Feed struct {
	router   *gin.Engine
	upgrader websocket.Upgrader
	appeared time.Time

	mu   sync.RWMutex
	last *Snapshot
	subs map[chan Snapshot]struct{}
}

func NewFeed(corsOrigins []string) *Feed {
	observability.RegisterMetrics()
	origins := normalizeOrigins(corsOrigins)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger, "monitor.Feed"))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	f := &Feed{
		router:   r,
		appeared: time.Now(),
		subs:     make(map[chan Snapshot]struct{}),
	}
	f.upgrader = websocket.Upgrader{CheckOrigin: originChecker(origins)}
	f.registerRoutes()
	return f
}

// Handler is the feed's HTTP handler.
func (f *Feed) Handler() http.Handler {
	return f.router
}

// Publish stores s as the latest snapshot and offers it to every
// subscriber. Slow subscribers miss snapshots rather than block the poller.
func (f *Feed) Publish(s Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := s
	f.last = &snap
	for ch := range f.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Last returns the latest snapshot, if any.
func (f *Feed) Last() (Snapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.last == nil {
		return Snapshot{}, false
	}
	return *f.last, true
}

// Serve listens on addr until ctx is done.
func (f *Feed) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           f.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("monitor.Feed.Serve addr=%q", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (f *Feed) registerRoutes() {
	f.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(f.appeared).String(),
			"service": "inkctl-monitor",
		})
	})

	f.router.GET("/status", func(c *gin.Context) {
		snap, ok := f.Last()
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	f.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	f.router.GET("/ws", f.stream)
}

func (f *Feed) subscribe() chan Snapshot {
	ch := make(chan Snapshot, subscriberBuffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	if f.last != nil {
		ch <- *f.last
	}
	f.mu.Unlock()
	return ch
}

func (f *Feed) unsubscribe(ch chan Snapshot) {
	f.mu.Lock()
	delete(f.subs, ch)
	f.mu.Unlock()
}

// stream sends the latest snapshot, then each new one, until the client
// goes away.
func (f *Feed) stream(c *gin.Context) {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Msgf("monitor.Feed.stream upgrade failed err=%v", err)
		return
	}
	defer conn.Close()

	ch := f.subscribe()
	defer f.unsubscribe(ch)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Debug().Msgf("monitor.Feed.stream client=%q", c.ClientIP())
	for {
		select {
		case <-closed:
			return
		case snap := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				log.Debug().Msgf("monitor.Feed.stream write failed err=%v", err)
				return
			}
		}
	}
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:3000"}
	}
	return out
}

// originChecker admits same-host requests, requests without an Origin, and
// the configured origins.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed["*"] || allowed[origin] {
			return true
		}
		return strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://") == r.Host
	}
}
