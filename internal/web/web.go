// Package web serves the browser version of the test. Every WebSocket
// connection plays its own session; the page only renders snapshots and
// forwards clicks.
package web

import (
	_ "embed"
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/tomz197/clicktest/internal/level"
	"github.com/tomz197/clicktest/internal/loop/server"
)

//go:embed index.html
var htmlPage string

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024
)

// Options configures the handler.
type Options struct {
	Server  server.GameServer
	SSHHost string // Shown on the page as the terminal alternative
	Seed    int64  // Non-zero makes ball placement reproducible per connection
	Logger  *log.Logger
}

// Handler serves the page, the WebSocket endpoint and the leaderboard.
type Handler struct {
	mux      *http.ServeMux
	page     string
	server   server.GameServer
	upgrader websocket.Upgrader
	seed     int64
	conns    atomic.Int64
	logger   *log.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	h := &Handler{
		mux:    http.NewServeMux(),
		page:   strings.ReplaceAll(htmlPage, "{{.SSHHost}}", opts.SSHHost),
		server: opts.Server,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		seed:   opts.Seed,
		logger: logger,
	}

	h.mux.HandleFunc("GET /{$}", h.servePage)
	h.mux.HandleFunc("GET /ws", h.serveWS)
	h.mux.HandleFunc("GET /api/scores", h.serveScores)
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(h.page))
}

func (h *Handler) serveScores(w http.ResponseWriter, r *http.Request) {
	snap := h.server.GetSnapshot()
	resp := scoresResponse{
		Players:   snap.Players,
		Finished:  snap.Finished,
		Passed:    snap.Passed,
		TopScores: snap.TopScores,
	}
	if resp.TopScores == nil {
		resp.TopScores = []server.TopScoreEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("Failed to write scores", "err", err)
	}
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	handle := h.server.RegisterClient("web:" + r.RemoteAddr)
	defer h.server.UnregisterClient(handle.ID)

	logger := h.logger.With("remote", r.RemoteAddr, "client", handle.ID)
	logger.Info("Browser connected")

	p := newPlayer(conn, handle, h.server, h.newRand(), logger)
	p.run()

	logger.Info("Browser disconnected")
}

func (h *Handler) newRand() level.Rand {
	n := h.conns.Add(1)
	if h.seed != 0 {
		return rand.New(rand.NewSource(h.seed + n))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano() + n))
}
