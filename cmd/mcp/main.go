// Package main provides the MCP stdio server entry point for refineloopd.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/refineloop/internal/config"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/mcp"
	"github.com/thebtf/refineloop/internal/registry"
	"github.com/thebtf/refineloop/internal/sse"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// MCP uses stdout for JSON-RPC framing, so logging always goes to stderr.
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure data directory")
	}
	cfg := config.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutting down MCP server")
		cancel()
	}()

	reg := registry.New()
	hub := sse.NewHub()
	server := mcp.NewServer(reg, fsys.OS{}, hub, Version)

	log.Info().Str("version", Version).Str("tokenizerModel", cfg.TokenizerModel).Msg("starting refineloopd MCP server")

	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("MCP server error")
	}
}
