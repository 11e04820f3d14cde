// Package progress provides an optional live-progress surface for a
// running session: a WebSocket feed of download/upload snapshots, and,
// when enabled, a Prometheus /metrics endpoint — both ambient, neither
// part of the tee-with-backpressure core, grounded on the teacher's
// internal/server WebSocket progress stream and internal/ui terminal
// progress bar.
package progress

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zulfikawr/transload/internal/logging"
)

// Snapshot is one progress update, broadcast to every connected client.
type Snapshot struct {
	URL             string `json:"url"`
	Filename        string `json:"filename"`
	ContentLength   uint64 `json:"contentLength"`
	BytesDownloaded uint64 `json:"bytesDownloaded"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// activeConnections tracks connected progress-feed clients across all
// Broadcasters in the process.
var activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "transload_progress_connections",
	Help: "Number of clients connected to the live progress feed",
})

// Broadcaster serves a WebSocket progress feed and, optionally, a
// Prometheus /metrics handler, for the lifetime of one Session.Run call.
type Broadcaster struct {
	logger *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}

	listener net.Listener
	server   *http.Server
}

// New constructs a Broadcaster. Start must be called to begin serving.
func New(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		logger: logging.Pick(logger),
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Start listens on addr and begins serving the progress feed (and, if
// enableMetrics, a /metrics endpoint) in the background.
func (b *Broadcaster) Start(addr string, enableMetrics bool) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	b.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", b.handleWebSocket)
	if enableMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	b.server = &http.Server{Handler: mux}

	go func() {
		if err := b.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			b.logger.Warn("progress server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the actual listening address, useful when addr passed to
// Start used port 0.
func (b *Broadcaster) Addr() string {
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// Stop shuts the progress server down, closing all connected clients.
func (b *Broadcaster) Stop(ctx context.Context) error {
	b.mu.Lock()
	for c := range b.conns {
		c.Close()
	}
	b.conns = make(map[*websocket.Conn]struct{})
	b.mu.Unlock()

	if b.server == nil {
		return nil
	}
	return b.server.Shutdown(ctx)
}

// Broadcast pushes a snapshot to every connected client, dropping any
// connection that errors on write.
func (b *Broadcaster) Broadcast(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.conns {
		if err := c.WriteJSON(s); err != nil {
			c.Close()
			delete(b.conns, c)
			activeConnections.Dec()
		}
	}
}

func (b *Broadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	b.conns[conn] = struct{}{}
	b.mu.Unlock()
	activeConnections.Inc()
}
