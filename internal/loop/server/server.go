package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/clicktest/internal/loop"
	"github.com/tomz197/clicktest/internal/loop/config"
	"github.com/tomz197/clicktest/internal/store"
)

// GameServer is the interface clients use to communicate with the server.
// Decouples the Client from the concrete Server implementation, enabling
// testing and potential network-based server implementations.
type GameServer interface {
	RegisterClient(username string) *ClientHandle
	UnregisterClient(clientID int)
	Submit(rec store.Record)
	GetSnapshot() *Snapshot
}

// Server tracks connected clients, forwards finished results to the
// persistence sink and keeps a leaderboard. Every client plays its own
// session; nothing about gameplay is shared.
type Server struct {
	snapshot     atomic.Pointer[Snapshot]
	clients      map[int]*ClientHandle
	nextClientID int
	registerCh   chan *ClientHandle
	unregisterCh chan int
	mu           sync.RWMutex
	closing      bool // Set once Shutdown starts

	stats  Stats
	sink   loop.ResultSink
	logger *log.Logger
}

// Compile-time checks.
var (
	_ GameServer      = (*Server)(nil)
	_ loop.ResultSink = (*Server)(nil)
)

// ClientHandle represents a client's connection to the server.
type ClientHandle struct {
	ID       int
	Username string           // SSH user or "local"
	EventsCh chan ClientEvent // Events sent to client
}

// ClientEvent represents an event sent from server to client.
type ClientEvent struct {
	Type ClientEventType
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventServerShutdown ClientEventType = iota
)

// NewServer creates a server forwarding results to sink (may be nil).
func NewServer(sink loop.ResultSink, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		clients:      make(map[int]*ClientHandle),
		nextClientID: 1,
		registerCh:   make(chan *ClientHandle, 16),
		unregisterCh: make(chan int, 16),
		sink:         sink,
		logger:       logger,
	}
	s.snapshot.Store(&Snapshot{})
	return s
}

// Run processes registrations and publishes snapshots. Blocks until the
// context is cancelled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(config.ServerTickTime)
	defer ticker.Stop()

	for {
		s.processRegistrations()
		s.createSnapshot()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown gracefully shuts down the server by notifying all connected clients
// and waiting for them to disconnect (up to the given timeout).
// The caller should cancel the server context after Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.processRegistrations()

	// Notify all connected clients about the shutdown
	s.mu.RLock()
	for _, handle := range s.clients {
		notifyShutdown(handle)
	}
	s.mu.RUnlock()

	// Wait for all clients to disconnect, or timeout
	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			s.processRegistrations()
			s.mu.RLock()
			remaining := len(s.clients)
			s.mu.RUnlock()
			if remaining == 0 {
				return
			}
		}
	}
}

func notifyShutdown(handle *ClientHandle) {
	select {
	case handle.EventsCh <- ClientEvent{Type: EventServerShutdown}:
	default:
	}
}

// RegisterClient registers a new client with the given username and returns its handle.
// Once Shutdown has started the client is not registered and its handle
// already carries the shutdown event.
func (s *Server) RegisterClient(username string) *ClientHandle {
	s.mu.Lock()
	id := s.nextClientID
	s.nextClientID++
	closing := s.closing
	s.mu.Unlock()

	handle := &ClientHandle{
		ID:       id,
		Username: username,
		EventsCh: make(chan ClientEvent, 16),
	}
	if closing {
		notifyShutdown(handle)
		s.logger.Debug("Client refused during shutdown", "id", id, "user", username)
		return handle
	}

	s.registerCh <- handle
	return handle
}

// UnregisterClient removes a client from the server.
func (s *Server) UnregisterClient(clientID int) {
	s.mu.RLock()
	closing := s.closing
	s.mu.RUnlock()
	if !closing {
		s.unregisterCh <- clientID
		return
	}
	// Run may have stopped draining the channels.
	s.processRegistrations()
	s.removeClient(clientID)
}

// Submit records a finished session on the leaderboard and hands it to the sink.
func (s *Server) Submit(rec store.Record) {
	s.mu.Lock()
	s.stats.Add(rec, config.TopScoresCount)
	s.mu.Unlock()
	s.createSnapshot()

	if s.sink != nil {
		s.sink.Submit(rec)
	}
}

// GetSnapshot returns the current server snapshot.
func (s *Server) GetSnapshot() *Snapshot {
	return s.snapshot.Load()
}

// processRegistrations handles pending client registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.clients[handle.ID] = handle
			if s.closing {
				notifyShutdown(handle)
			}
			s.mu.Unlock()
			s.logger.Debug("Client registered", "id", handle.ID, "user", handle.Username)
		case clientID := <-s.unregisterCh:
			s.removeClient(clientID)
		default:
			return
		}
	}
}

func (s *Server) removeClient(clientID int) {
	s.mu.Lock()
	if handle, ok := s.clients[clientID]; ok {
		close(handle.EventsCh)
		delete(s.clients, clientID)
	}
	s.mu.Unlock()
	s.logger.Debug("Client unregistered", "id", clientID)
}

// createSnapshot publishes an immutable copy of the server state.
func (s *Server) createSnapshot() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top := make([]TopScoreEntry, len(s.stats.TopScores))
	copy(top, s.stats.TopScores)

	s.snapshot.Store(&Snapshot{
		Players:   len(s.clients),
		Finished:  s.stats.Finished,
		Passed:    s.stats.Passed,
		TopScores: top,
	})
}
