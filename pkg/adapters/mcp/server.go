// Package mcp exposes the Rehearse engine as an MCP server so editor
// assistants can validate flows and rehearse them conversationally.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rehearse-dev/rehearse"
	"github.com/rehearse-dev/rehearse/pkg/domain"
	"github.com/rehearse-dev/rehearse/pkg/validator"
)

// ValidateResponse is the structured output of the validate_flow tool.
type ValidateResponse struct {
	Result validator.Result `json:"result" jsonschema_description:"Structural validation outcome"`
}

// SessionResponse is the structured output of the session tools.
type SessionResponse struct {
	SessionID string               `json:"sessionId" jsonschema_description:"Identifier for subsequent turns"`
	Status    domain.SessionStatus `json:"status" jsonschema_description:"active or completed"`
	AIMessage string               `json:"aiMessage" jsonschema_description:"The engine's reply for this turn"`
	NodeID    string               `json:"nodeId,omitempty" jsonschema_description:"Node the reply was rendered from"`
}

// Server wraps a rehearse.Service and exposes it over MCP.
type Server struct {
	service   *rehearse.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(service *rehearse.Service) *Server {
	s := &Server{
		service:   service,
		mcpServer: server.NewMCPServer("rehearse-mcp", strings.TrimSpace(rehearse.Version)),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
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

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: validate_flow
	validateTool := mcp.NewTool("validate_flow",
		mcp.WithDescription("Check a flow graph's structure: start/end nodes, orphans, dangling edges, decision choices."),
		mcp.WithString("nodes", mcp.Required(), mcp.Description("JSON array of flow nodes")),
		mcp.WithString("edges", mcp.Required(), mcp.Description("JSON array of flow edges")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: start_session
	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start a rehearsal session on a trainer's current flow. Returns the opening message."),
		mcp.WithString("trainer_id", mcp.Required(), mcp.Description("Trainer whose flow to run")),
		mcp.WithString("user_id", mcp.Description("Learner identifier (optional)")),
		mcp.WithString("status", mcp.Description("Prefer 'draft' or 'published'; empty picks newest draft, else published")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartSession))

	// TOOL: send_message
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send one user message to an active session and get the engine's reply."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to advance")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's message text")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	// TOOL: list_flows
	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List a trainer's flows with status and metadata."),
		mcp.WithString("trainer_id", mcp.Required(), mcp.Description("Trainer whose flows to list")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		trainerID := request.GetString("trainer_id", "")
		flows, err := s.service.ListFlows(ctx, trainerID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(flows)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	var nodes []domain.Node
	var edges []domain.Edge

	if raw, ok := args["nodes"].(string); ok {
		if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
			return ValidateResponse{}, fmt.Errorf("parse nodes: %w", err)
		}
	}
	if raw, ok := args["edges"].(string); ok {
		if err := json.Unmarshal([]byte(raw), &edges); err != nil {
			return ValidateResponse{}, fmt.Errorf("parse edges: %w", err)
		}
	}

	return ValidateResponse{Result: s.service.Validate(nodes, edges)}, nil
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	trainerID, _ := args["trainer_id"].(string)
	userID, _ := args["user_id"].(string)

	var prefer *domain.FlowStatus
	if raw, ok := args["status"].(string); ok && raw != "" {
		status := domain.FlowStatus(raw)
		prefer = &status
	}

	sess, err := s.service.StartSession(ctx, trainerID, userID, prefer)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("start failed: %w", err)
	}

	resp := SessionResponse{SessionID: sess.ID, Status: sess.Status}
	if n := len(sess.Conversation); n > 0 {
		resp.AIMessage = sess.Conversation[n-1].Content
		resp.NodeID = sess.Conversation[n-1].NodeID
	}
	return resp, nil
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	sessionID, _ := args["session_id"].(string)
	message, _ := args["message"].(string)

	turn, err := s.service.SendMessage(ctx, sessionID, message)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("turn failed: %w", err)
	}

	return SessionResponse{
		SessionID: sessionID,
		Status:    turn.Status,
		AIMessage: turn.AIMessage.Content,
		NodeID:    turn.AIMessage.NodeID,
	}, nil
}
