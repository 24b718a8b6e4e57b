// Package main provides the HTTP+SSE entry point for refineloopd.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/refineloop/internal/config"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/httpapi"
	"github.com/thebtf/refineloop/internal/mcp"
	"github.com/thebtf/refineloop/internal/registry"
	"github.com/thebtf/refineloop/internal/sse"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure data directory")
	}
	cfg := config.Get()

	reg := registry.New()
	hub := sse.NewHub()
	mcpServer := mcp.NewServer(reg, fsys.OS{}, hub, Version)

	srv, err := httpapi.New(mcpServer, hub, cfg.TokenAuthEnabled)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build HTTP server")
	}

	if cfg.TokenAuthEnabled {
		log.Info().Str("token", srv.Token()).Msg("token auth enabled; clients must send X-Auth-Token")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	log.Info().Str("version", Version).Str("addr", addr).Msg("starting refineloopd")

	if err := srv.Serve(ctx, addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("refineloopd shutdown complete")
}
