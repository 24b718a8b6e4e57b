package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/soheilhy/cmux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/thebtf/refineloop/internal/mcp"
	"github.com/thebtf/refineloop/internal/sse"
)

// readHeaderTimeout bounds slow-header DoS attempts; WriteTimeout is
// left at zero, matched across both listeners, since SSE connections
// are long-lived by design.
const readHeaderTimeout = 10 * time.Second

// Server wires the MCP Streamable HTTP transport, the classic MCP SSE
// transport, per-session event streams and a health check behind one
// chi router.
type Server struct {
	router *chi.Mux
	auth   *TokenAuth
	hub    *sse.Hub
	mcpSSE *mcp.SSEHandler
}

// New builds the router. mcpHandler serves POST /mcp; hub serves
// GET /sessions/{id}/events.
func New(mcpServer *mcp.Server, hub *sse.Hub, tokenAuthEnabled bool) (*Server, error) {
	auth, err := NewTokenAuth(tokenAuthEnabled)
	if err != nil {
		return nil, fmt.Errorf("create token auth: %w", err)
	}

	s := &Server{router: chi.NewRouter(), auth: auth, hub: hub, mcpSSE: mcp.NewSSEHandler(mcpServer)}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(SecurityHeaders)
	s.router.Use(MaxBodySize(10 * 1024 * 1024))
	s.router.Use(auth.Middleware)

	s.router.Get("/healthz", s.handleHealthz)

	streamable := mcp.NewStreamableHandler(mcpServer)
	s.router.Post("/mcp", streamable.ServeHTTP)

	s.router.Get("/sessions/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		hub.HandleSSE(sessionID, w, r)
	})

	// Classic MCP SSE transport, for clients that predate Streamable HTTP.
	s.router.Get("/sse", s.mcpSSE.ServeHTTP)
	s.router.Post("/message", s.mcpSSE.ServeHTTP)
	s.router.Options("/sse", s.mcpSSE.ServeHTTP)
	s.router.Options("/message", s.mcpSSE.ServeHTTP)

	return s, nil
}

// Token returns the generated auth token, if token auth is enabled.
func (s *Server) Token() string { return s.auth.Token() }

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// Serve splits one TCP listener between plain HTTP/1.1 clients
// (the common case for curl/fetch-based MCP clients) and h2c clients
// that want a single multiplexed connection for many concurrent
// per-session SSE streams, so a long poll on one session's event
// stream never head-of-line-blocks another session's submitCandidate
// call sharing the same connection.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	m := cmux.New(lis)
	http1Lis := m.Match(cmux.HTTP1Fast())
	h2cLis := m.Match(cmux.Any())

	h2s := &http2.Server{}
	h2cServer := &http.Server{
		Handler:           h2c.NewHandler(s.router, h2s),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	http1Server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 3)
	go func() { errCh <- http1Server.Serve(http1Lis) }()
	go func() { errCh <- h2cServer.Serve(h2cLis) }()
	go func() { errCh <- m.Serve() }()

	log.Info().Str("addr", addr).Msg("refineloopd listening (HTTP/1.1 + h2c, multiplexed via cmux)")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = http1Server.Shutdown(shutdownCtx)
		_ = h2cServer.Shutdown(shutdownCtx)
		lis.Close()
		return nil
	case err := <-errCh:
		if err == cmux.ErrListenerClosed || err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
