// Package server exposes a domain adapter as a set of MCP tools.
//
// For a domain named "diagram" it registers four tools: "diagram" (batch op
// execution), "diagram_query", "diagram_session" and "diagram_help". The
// main tool description embeds the reference card so agents can discover the
// op-string syntax without a round trip.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/opcmd/internal/logging"
	"github.com/aretw0/opcmd/pkg/format"
	"github.com/aretw0/opcmd/pkg/op"
	"github.com/aretw0/opcmd/pkg/ports"
	"github.com/aretw0/opcmd/pkg/registry"
	"github.com/aretw0/opcmd/pkg/session"
)

// Server wraps one domain adapter and one session as an MCP server.
type Server[M, E any] struct {
	domain    string
	adapter   ports.Adapter[M, E]
	registry  *registry.Registry
	session   *session.Dispatcher[M, E]
	extra     []registry.Section
	card      string
	mcpServer *mcpserver.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option[M, E any] func(*Server[M, E])

// WithSections appends static sections to the reference card (selector
// syntax, value tables, and similar).
func WithSections[M, E any](sections []registry.Section) Option[M, E] {
	return func(s *Server[M, E]) {
		s.extra = sections
	}
}

// WithLogger configures a logger for server events.
func WithLogger[M, E any](logger *slog.Logger) Option[M, E] {
	return func(s *Server[M, E]) {
		s.logger = logger
	}
}

// adapterHooks bridges the full Adapter contract to the narrow SessionHooks
// view the session dispatcher needs.
type adapterHooks[M, E any] struct {
	adapter ports.Adapter[M, E]
}

func (h adapterHooks[M, E]) OnNew(params map[string]string) (M, error) {
	title := params["title"]
	if title == "" {
		title = "Untitled"
	}
	rest := make(map[string]string, len(params))
	for k, v := range params {
		if k != "title" {
			rest[k] = v
		}
	}
	return h.adapter.CreateEmpty(title, rest)
}

func (h adapterHooks[M, E]) OnOpen(path string) (M, error) {
	return h.adapter.Deserialize(path)
}

func (h adapterHooks[M, E]) OnSave(model M, path string) error {
	return h.adapter.Serialize(model, path)
}

func (h adapterHooks[M, E]) OnRebuildIndices(model M) {
	h.adapter.RebuildIndices(model)
}

func (h adapterHooks[M, E]) Digest(model M) string {
	return h.adapter.Digest(model)
}

// New creates a fully wired MCP server for the given domain. The domain name
// becomes the tool name prefix.
func New[M, E any](
	domain, version string,
	adapter ports.Adapter[M, E],
	verbs []registry.VerbSpec,
	opts ...Option[M, E],
) *Server[M, E] {
	reg := registry.NewRegistry()
	reg.RegisterMany(verbs)

	s := &Server[M, E]{
		domain:   domain,
		adapter:  adapter,
		registry: reg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.session = session.New[M, E](
		adapterHooks[M, E]{adapter: adapter},
		adapter.ReverseEvent,
		adapter.ReplayEvent,
		session.WithLogger[M, E](s.logger),
	)
	s.card = reg.ReferenceCard(s.extra)
	s.mcpServer = mcpserver.NewMCPServer(domain, strings.TrimSpace(version))
	s.registerTools()
	return s
}

// Session returns the server's session dispatcher.
func (s *Server[M, E]) Session() *session.Dispatcher[M, E] {
	return s.session
}

// HelpCard returns the rendered reference card.
func (s *Server[M, E]) HelpCard() string {
	return s.card
}

// toolDescription builds the inline description for the main tool, embedding
// the reference card.
func (s *Server[M, E]) toolDescription() string {
	header := fmt.Sprintf(
		"Execute %s operations. Each op string follows: VERB TARGET [key:value ...]\n"+
			"Call %s_help for the full reference card.\n\n",
		s.domain, s.domain)
	return header + s.card
}

// ExecuteOps runs a batch of op strings against the current model and
// returns the joined result lines. If the adapter supports snapshots, the
// batch is atomic: the first failure rolls the model back and reports how
// many ops were reverted.
func (s *Server[M, E]) ExecuteOps(ops []string) string {
	model, ok := s.session.Model()
	if !ok {
		return format.Result(false, "No model loaded. Use session 'new' or 'open' first.")
	}

	var snapshot any
	snapshotter, atomic := s.adapter.(ports.Snapshotter[M])
	if atomic {
		snapshot = snapshotter.Snapshot(model)
		atomic = snapshot != nil
	}

	rollback := func(i int, opStr, errMsg string) string {
		snapshotter.Restore(model, snapshot)
		s.adapter.RebuildIndices(model)
		return fmt.Sprintf("! Batch failed at op %d: %s. Error: %s. State rolled back (%d ops reverted).",
			i+1, opStr, errMsg, i)
	}

	var results []string
	for i, opStr := range ops {
		parsed, err := op.Parse(opStr)
		if err != nil {
			if atomic {
				return rollback(i, opStr, err.Error())
			}
			results = append(results, format.Result(false, err.Error()))
			continue
		}

		result := s.adapter.DispatchOp(parsed, model, s.session.Log())
		if !result.Success && result.Message != "" && atomic {
			return rollback(i, opStr, result.Message)
		}

		line := format.Result(result.Success, result.Message)
		if result.Prefix != "" {
			line = format.WithPrefix(result.Prefix, result.Message)
		}
		if strings.TrimSpace(line) != "" {
			results = append(results, line)
		}
	}
	return strings.Join(results, "\n")
}

// ExecuteQuery answers a read-only query against the current model.
func (s *Server[M, E]) ExecuteQuery(query string) string {
	model, ok := s.session.Model()
	if !ok {
		return format.Result(false, "No model loaded.")
	}
	return s.adapter.DispatchQuery(query, model)
}

// ExecuteSession routes a session lifecycle command.
func (s *Server[M, E]) ExecuteSession(action string) string {
	return s.session.Dispatch(action)
}

func (s *Server[M, E]) registerTools() {
	opsTool := mcp.NewTool(s.domain,
		mcp.WithDescription(s.toolDescription()),
		mcp.WithArray("ops", mcp.Required(),
			mcp.Description("Op strings to execute in order"),
			mcp.WithStringItems(),
		),
	)
	s.mcpServer.AddTool(opsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := request.GetArguments()["ops"].([]any)
		if !ok {
			return mcp.NewToolResultError("ops must be an array of strings"), nil
		}
		ops := make([]string, 0, len(raw))
		for _, item := range raw {
			str, ok := item.(string)
			if !ok {
				return mcp.NewToolResultError("ops must be an array of strings"), nil
			}
			ops = append(ops, str)
		}
		return mcp.NewToolResultText(s.ExecuteOps(ops)), nil
	})

	queryTool := mcp.NewTool(s.domain+"_query",
		mcp.WithDescription(fmt.Sprintf("Query %s state.", s.domain)),
		mcp.WithString("q", mcp.Required(), mcp.Description("Query string")),
	)
	s.mcpServer.AddTool(queryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, _ := request.GetArguments()["q"].(string)
		return mcp.NewToolResultText(s.ExecuteQuery(q)), nil
	})

	sessionTool := mcp.NewTool(s.domain+"_session",
		mcp.WithDescription(`Session lifecycle: 'new "Title"', 'open ./file', 'save', 'checkpoint v1', 'undo', 'redo'`),
		mcp.WithString("action", mcp.Required(), mcp.Description("Session action string")),
	)
	s.mcpServer.AddTool(sessionTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		action, _ := request.GetArguments()["action"].(string)
		return mcp.NewToolResultText(s.ExecuteSession(action)), nil
	})

	helpTool := mcp.NewTool(s.domain+"_help",
		mcp.WithDescription(fmt.Sprintf("Returns the %s reference card with all syntax.", s.domain)),
	)
	s.mcpServer.AddTool(helpTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.card), nil
	})
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server[M, E]) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, shutting down
// gracefully when ctx is cancelled.
func (s *Server[M, E]) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := mcpserver.NewSSEServer(s.mcpServer, mcpserver.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
