// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Command chatpane is the relay daemon. It connects a Matrix room to
// the interactive processes running in tmux sessions on this machine:
// room messages become routed commands and keystrokes, hook events
// from the sessions become room notifications.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/chatpane/chatpane/bridge"
	"github.com/chatpane/chatpane/lib/clock"
	"github.com/chatpane/chatpane/lib/config"
	"github.com/chatpane/chatpane/lib/hookipc"
	"github.com/chatpane/chatpane/lib/tmux"
	"github.com/chatpane/chatpane/lib/version"
	"github.com/chatpane/chatpane/messaging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("chatpane", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to chatpane.yaml (overrides CHATPANE_CONFIG)")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *showVersion {
		fmt.Printf("chatpane %s\n", version.Info())
		return nil
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.Transport.Enabled {
		return fmt.Errorf("transport is disabled in configuration; a relay with no endpoint has nothing to do")
	}

	token, err := cfg.ResolveAccessToken()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Transport.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	session, err := client.SessionFromToken(token)
	if err != nil {
		return err
	}
	gateway, err := messaging.NewGateway(session, cfg.Transport.RoomID, logger)
	if err != nil {
		return err
	}

	transport := bridge.NewMatrixTransport(gateway, logger)
	if err := transport.Start(ctx); err != nil {
		return fmt.Errorf("starting transport: %w", err)
	}

	host := bridge.NewTmuxHost(tmux.NewServer(cfg.Tmux.SocketPath, cfg.Tmux.ConfigFile))
	realClock := clock.Real()
	registry := bridge.NewRegistry(host, realClock, logger)

	// Prime the registry so the first command routes against live
	// data. A failed probe is not fatal: the tmux server may simply
	// not be running yet.
	if _, err := registry.Refresh(ctx); err != nil {
		logger.Warn("initial session probe failed", "error", err)
	}

	hooks := &hookipc.Listener{
		SocketPath: cfg.Hooks.SocketPath,
		Logger:     logger,
	}
	if err := hooks.Start(ctx); err != nil {
		return err
	}
	defer hooks.Stop()

	supervisor := &bridge.Supervisor{
		Transport:  transport,
		Host:       host,
		Registry:   registry,
		Dispatcher: bridge.NewDispatcher(host, registry, cfg.Limits, logger),
		Picker:     bridge.NewPicker(realClock, cfg.Picker.Duration(), logger),
		Formatter:  bridge.NewFormatter(cfg.Limits),
		Hooks:      hooks.Events(),

		AllowedSender:  cfg.Transport.AllowedSender,
		DefaultSession: cfg.Defaults.Session,
		Logger:         logger,
	}

	logger.Info("chatpane started",
		"version", version.Info(),
		"room_id", cfg.Transport.RoomID,
		"tmux_socket", cfg.Tmux.SocketPath,
		"hook_socket", cfg.Hooks.SocketPath,
	)

	err = supervisor.Run(ctx)
	if ctx.Err() != nil {
		logger.Info("chatpane stopped")
		return nil
	}
	return err
}
