// Package mcp provides the MCP (Model Context Protocol) server
// exposing the refinement engine's tool surface (spec.md §6).
package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/refineloop/internal/config"
	"github.com/thebtf/refineloop/internal/fsys"
	"github.com/thebtf/refineloop/internal/registry"
	"github.com/thebtf/refineloop/internal/sse"
	"github.com/thebtf/refineloop/internal/tokenbudget"
	"github.com/thebtf/refineloop/pkg/models"
)

// Server is the MCP server that exposes the refinement engine's 15
// session tools.
type Server struct {
	stdin     io.Reader
	stdout    io.Writer
	registry  *registry.Registry
	fsys      fsys.FS
	hub       *sse.Hub
	version   string
	tokens    *tokenbudget.Estimator
	maxTokens int
}

// NewServer creates a new MCP server bound to the given session
// registry, filesystem and per-session event hub. Token-budget
// warnings on validateCandidate are sized from the process
// configuration (tokenizer model, max candidate tokens).
func NewServer(reg *registry.Registry, fsImpl fsys.FS, hub *sse.Hub, version string) *Server {
	cfg := config.Get()
	return &Server{
		registry:  reg,
		fsys:      fsImpl,
		hub:       hub,
		version:   version,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		tokens:    tokenbudget.New(cfg.TokenizerModel),
		maxTokens: cfg.MaxCandidateTokens,
	}
}

// Request represents a JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC response.
type Response struct {
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	JSONRPC string `json:"jsonrpc"`
}

// Error represents a JSON-RPC error.
type Error struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ToolCallParams represents parameters for tools/call method.
type ToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Tool represents an MCP tool definition.
type Tool struct {
	InputSchema map[string]any `json:"inputSchema"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
}

// Run starts the MCP stdio server loop.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	scanDone := make(chan error, 1)

	go func() {
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				scanDone <- ctx.Err()
				return
			default:
			}

			line := scanner.Text()
			if line == "" {
				continue
			}

			var req Request
			if err := json.Unmarshal([]byte(line), &req); err != nil {
				s.sendError(nil, -32700, "Parse error", err)
				continue
			}

			resp := s.handleRequest(ctx, &req)
			s.sendResponse(resp)
		}
		scanDone <- scanner.Err()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-scanDone:
		if err != nil {
			return fmt.Errorf("scanner error: %w", err)
		}
		return nil
	}
}

// handleRequest dispatches the request to the appropriate handler.
func (s *Server) handleRequest(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &Error{
				Code:    -32601,
				Message: "Method not found",
			},
		}
	}
}

// handleInitialize handles the initialize request.
func (s *Server) handleInitialize(req *Request) *Response {
	result := map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "refineloopd",
			"version": s.version,
		},
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

// handleToolsList returns the list of available tools.
func (s *Server) handleToolsList(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]any{
			"tools": toolDefinitions(),
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &Error{
				Code:    -32602,
				Message: "Invalid params",
				Data:    err.Error(),
			},
		}
	}

	result, err := s.callTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &Error{
				Code:    -32000,
				Message: "Tool error",
				Data:    err.Error(),
			},
		}
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

// callTool dispatches to the appropriate tool handler.
func (s *Server) callTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	switch name {
	case "startSession":
		return s.toolStartSession(ctx, args)
	case "submitCandidate":
		return s.toolSubmitCandidate(ctx, args)
	case "validateCandidate":
		return s.toolValidateCandidate(args)
	case "getFileContent":
		return s.toolGetFileContent(args)
	case "getFileLines":
		return s.toolGetFileLines(args)
	case "getState":
		return s.toolGetState(args)
	case "shouldHalt":
		return s.toolShouldHalt(args)
	case "getSuggestions":
		return s.toolGetSuggestions(ctx, args)
	case "saveCheckpoint":
		return s.toolSaveCheckpoint(args)
	case "restoreCheckpoint":
		return s.toolRestoreCheckpoint(ctx, args)
	case "listCheckpoints":
		return s.toolListCheckpoints(args)
	case "resetToBaseline":
		return s.toolResetToBaseline(ctx, args)
	case "undoLastCandidate":
		return s.toolUndoLastCandidate(ctx, args)
	case "suggestFix":
		return s.toolSuggestFix(args)
	case "endSession":
		return s.toolEndSession(args)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) sendResponse(resp *Response) {
	if resp == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		return
	}
	fmt.Fprintln(s.stdout, string(data))
}

func (s *Server) sendError(id any, code int, message string, data any) {
	s.sendResponse(&Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: fmt.Sprint(data)},
	})
}

// entry looks up id in the registry, acquiring its single-flight
// lock for the duration of the mutating tool call per spec.md §5.
func (s *Server) entry(ctx context.Context, id string) (*registry.Entry, func(), error) {
	e, ok := s.registry.Get(id)
	if !ok {
		return nil, nil, unknownSessionErr(id)
	}
	if err := e.Lock.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	return e, func() { e.Lock.Release(1) }, nil
}

func unknownSessionErr(id string) error {
	return fmt.Errorf("UnknownSession: no session with id %q", id)
}

func checkpointSummary(cp *models.Checkpoint) map[string]any {
	return map[string]any{
		"id":          cp.ID,
		"createdAt":   cp.CreatedAt,
		"step":        cp.Step,
		"score":       cp.Score,
		"emaScore":    cp.EmaScore,
		"description": cp.Description,
		"fingerprint": cp.Fingerprint,
	}
}
