package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dkoval/voxgate/internal/audit"
	"github.com/dkoval/voxgate/internal/fusion"
	"github.com/dkoval/voxgate/internal/intent"
	"github.com/dkoval/voxgate/internal/safety"
)

// Config holds MCP server configuration.
type Config struct {
	PolicyPath   string
	VocabPath    string
	AuditLogPath string
}

// Server exposes one fusion session over MCP stdio. The host process
// (the audio/UI front-end) submits transcribed text and reports
// execution results; the session owns all decision state.
type Server struct {
	mcpServer *mcpsdk.Server
	session   *fusion.Session
	cfg       *safety.Config
	auditLog  *audit.Log
}

// New creates an MCP server with a fresh session over the given policy
// and vocabulary.
func New(cfg Config) (*Server, error) {
	policyCfg, policyHash, err := safety.LoadConfigWithHash(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy config: %w", err)
	}

	vocab, err := intent.LoadVocabulary(cfg.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	var auditLog *audit.Log
	if cfg.AuditLogPath != "" {
		auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open decision log: %w", err)
		}
	}

	s := &Server{
		session: fusion.NewSession(fusion.Options{
			Config:     policyCfg,
			PolicyHash: policyHash,
			Vocabulary: vocab,
			Audit:      auditLog,
		}),
		cfg:      policyCfg,
		auditLog: auditLog,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "voxgate",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close closes the decision log if configured.
func (s *Server) Close() error {
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

// registerTools adds all voxgate tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "voxgate_submit",
		Description: "Submit one transcribed utterance and get exactly one decision: approved, blocked, needs_confirmation, awaiting_clarification, or rejected. Confirmation replies (yes/no) go through the same tool.",
	}, s.handleSubmit)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "voxgate_result",
		Description: "Report the execution outcome of an approved decision. Only successful results update reference memory for later pronoun resolution.",
	}, s.handleResult)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "voxgate_check",
		Description: "Evaluate an action against the safety policy without touching session state (dry-run).",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "voxgate_status",
		Description: "Get the session status: mode, reference memory, pending confirmation, decision counts.",
	}, s.handleStatus)
}
