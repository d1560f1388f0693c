package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/clicktest/internal/audio"
	"github.com/tomz197/clicktest/internal/config"
	"github.com/tomz197/clicktest/internal/draw"
	applog "github.com/tomz197/clicktest/internal/logging"
	"github.com/tomz197/clicktest/internal/loop/client"
	"github.com/tomz197/clicktest/internal/loop/server"
	"github.com/tomz197/clicktest/internal/store"
)

// Shared by all SSH sessions
var (
	gameServer *server.Server
	logger     *log.Logger
	seed       int64
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ./clicktest.{yaml,toml,json})")
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var logCloser io.Closer
	logger, logCloser = applog.New(cfg.Log, os.Stderr)
	defer logCloser.Close()
	seed = cfg.Game.Seed

	workingDir, workErr := os.Getwd()
	if workErr != nil {
		logger.Warn("Failed to get working directory", "err", workErr)
	}
	logger.Info("SSH config", "host", cfg.SSH.Host, "port", cfg.SSH.Port,
		"hostKey", cfg.SSH.HostKey, "workingDir", workingDir, "configFile", loader.ConfigFile())

	loader.Watch(func(s config.Settings) {
		applog.Apply(logger, s.Log)
		logger.Info("Config reloaded", "level", s.Log.Level)
	})

	results, err := store.Open(store.Options{
		Driver:  cfg.Store.Driver,
		URL:     cfg.Store.URL,
		APIKey:  cfg.Store.APIKey,
		Table:   cfg.Store.Table,
		Path:    cfg.Store.Path,
		File:    store.FileOptions{MaxSize: cfg.Log.MaxSize, MaxBackups: cfg.Log.MaxBackups, MaxAge: cfg.Log.MaxAge},
		Timeout: cfg.Store.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to open result store", "err", err)
	}
	if c, ok := results.(io.Closer); ok {
		defer c.Close()
	}
	recorder := store.NewRecorder(results, cfg.Store.Timeout, logger)
	logger.Info("Result store ready", "driver", cfg.Store.Driver)

	// Start the shared server
	serverCtx, cancelServer := context.WithCancel(context.Background())
	gameServer = server.NewServer(recorder, logger)
	go gameServer.Run(serverCtx)
	logger.Info("Game server started")

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(cfg.SSH.Host, cfg.SSH.Port)),
		wish.WithMiddleware(
			gameMiddleware,
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger),
		),
		// Set TCP_NODELAY to reduce latency for clicks
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if cfg.SSH.HostKey != "" {
		opts = append(opts, wish.WithHostKeyPath(cfg.SSH.HostKey))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("Failed to create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Starting SSH server", "addr", net.JoinHostPort(cfg.SSH.Host, cfg.SSH.Port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("Server error", "err", err)
		}
	}()

	<-done
	logger.Info("Shutting down server...")

	// Notify players and wait for them to disconnect
	logger.Info("Notifying connected players about shutdown...")
	gameServer.Shutdown(15 * time.Second)
	cancelServer()
	logger.Info("Game server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "err", err)
	}
	if err := recorder.Wait(ctx); err != nil {
		logger.Error("Pending results not saved", "err", err)
	}
}

// gameMiddleware handles SSH sessions and runs the game client.
func gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		logger.Info("New session", "user", sess.User(), "term", pty.Term,
			"width", pty.Window.Width, "height", pty.Window.Height)

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

		// Listen for window size changes in a goroutine
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		reader := bufio.NewReader(sess)
		clientOpts := client.ClientOptions{
			TermSizeFunc: sizeTracker.getSize,
			Username:     sess.User(),
			Cues:         audio.NewBell(sess),
			Logger:       logger,
		}
		if seed != 0 {
			clientOpts.Rand = newSeededRand(seed)
		}

		// Create a new client connected to the shared game server
		c := client.NewClient(gameServer, reader, sess, clientOpts)
		if err := c.Run(); err != nil {
			logger.Error("Game error", "user", sess.User(), "err", err)
		}

		logger.Info("Session ended", "user", sess.User())
		next(sess)
	}
}

var sessionCount atomic.Int64

// newSeededRand gives every session its own reproducible sequence.
func newSeededRand(base int64) *rand.Rand {
	return rand.New(rand.NewSource(base + sessionCount.Add(1)))
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
