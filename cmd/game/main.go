package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/user"
	"time"

	"golang.org/x/term"

	"github.com/tomz197/clicktest/internal/audio"
	"github.com/tomz197/clicktest/internal/audio/tone"
	"github.com/tomz197/clicktest/internal/config"
	applog "github.com/tomz197/clicktest/internal/logging"
	"github.com/tomz197/clicktest/internal/loop/client"
	"github.com/tomz197/clicktest/internal/loop/server"
	"github.com/tomz197/clicktest/internal/store"
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

	// Stdout belongs to the game, so logs only go to a file.
	logger, logCloser := applog.New(cfg.Log, io.Discard)
	defer logCloser.Close()

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
		fmt.Fprintf(os.Stderr, "failed to open result store: %v\n", err)
		os.Exit(1)
	}
	if c, ok := results.(io.Closer); ok {
		defer c.Close()
	}
	recorder := store.NewRecorder(results, cfg.Store.Timeout, logger)

	var cues audio.Cues = audio.NewBell(os.Stdout)
	var sp *tone.Speaker
	if cfg.Audio.Enabled {
		sp, err = tone.NewSpeaker(cfg.Audio.Volume)
		if err != nil {
			logger.Warn("Speaker unavailable, using the terminal bell", "err", err)
		} else {
			defer sp.Close()
			cues = sp
		}
	}

	loader.Watch(func(s config.Settings) {
		applog.Apply(logger, s.Log)
		if sp != nil {
			sp.SetVolume(s.Audio.Volume)
		}
	})

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gs := server.NewServer(recorder, logger)
	go gs.Run(ctx)

	opts := client.ClientOptions{
		Username: localUser(),
		Cues:     cues,
		Logger:   logger,
	}
	if cfg.Game.Seed != 0 {
		opts.Rand = rand.New(rand.NewSource(cfg.Game.Seed))
	}

	reader := bufio.NewReader(os.Stdin)
	runErr := client.NewClient(gs, reader, os.Stdout, opts).Run()

	// Give a just finished result a chance to reach the store.
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := recorder.Wait(waitCtx); err != nil {
		logger.Error("Pending results not saved", "err", err)
	}

	if runErr != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", runErr)
		os.Exit(1)
	}
}

func localUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "local"
}
