package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomz197/clicktest/internal/config"
	applog "github.com/tomz197/clicktest/internal/logging"
	"github.com/tomz197/clicktest/internal/loop/server"
	"github.com/tomz197/clicktest/internal/store"
	"github.com/tomz197/clicktest/internal/web"
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

	logger, logCloser := applog.New(cfg.Log, os.Stderr)
	defer logCloser.Close()

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

	serverCtx, cancelServer := context.WithCancel(context.Background())
	gs := server.NewServer(recorder, logger)
	go gs.Run(serverCtx)

	handler := web.NewHandler(web.Options{
		Server:  gs,
		SSHHost: cfg.Web.SSHDisplayHost,
		Seed:    cfg.Game.Seed,
		Logger:  logger,
	})

	addr := net.JoinHostPort(cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Starting web server", "url", "http://"+addr, "store", cfg.Store.Driver)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", "err", err)
		}
	}()

	<-done
	logger.Info("Shutting down server...")

	// Stop accepting first. WebSocket connections are hijacked, so this does
	// not wait for players; the game server notifies them below.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "err", err)
	}

	gs.Shutdown(5 * time.Second)
	cancelServer()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := recorder.Wait(waitCtx); err != nil {
		logger.Error("Pending results not saved", "err", err)
	}
}
