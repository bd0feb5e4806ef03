// Package mcpserver exposes stored designs to AI agents over the Model
// Context Protocol. Tools edit designs through the same editor session the
// desktop app uses and persist them through the DesignService.
package mcpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"studio/internal/editor"
	"studio/internal/scene"
	"studio/internal/service"
)

// EventDesignChanged is emitted after a tool modified a stored design.
const EventDesignChanged = "mcp:design-changed"

// Server is the MCP server of the studio.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue

	designs   *service.DesignService
	templates *service.TemplateService
	export    editor.ExportOptions

	// Tools load, edit and save whole designs; one at a time.
	mu sync.Mutex
}

// Deps holds what the app layer passes to the MCP server.
type Deps struct {
	Emitter   EventEmitter
	Designs   *service.DesignService
	Templates *service.TemplateService
	Export    editor.ExportOptions
	// When set, approvals go through the mcp_approvals table (standalone mode).
	ApprovalDB *sql.DB
}

// New creates and configures the MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	approval := NewApprovalQueue(ctx, deps.Emitter)
	if deps.ApprovalDB != nil {
		approval.SetDB(deps.ApprovalDB)
	}
	s := &Server{
		emitter:   deps.Emitter,
		approval:  approval,
		designs:   deps.Designs,
		templates: deps.Templates,
		export:    deps.Export,
	}

	s.mcp = server.NewMCPServer(
		"studio-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerDesignTools()
	s.registerNodeTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[mcp] starting stdio server")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// edit loads a design into a fresh editor session, runs fn and saves the
// result when fn succeeds.
func (s *Server) edit(ctx context.Context, designID string, fn func(ed *editor.Editor) (any, error)) (any, error) {
	if designID == "" {
		return nil, fmt.Errorf("designId is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, sc, err := s.designs.Load(ctx, designID)
	if err != nil {
		return nil, err
	}
	ed := editor.New(sc, editor.WithExport(s.export))
	defer ed.Close()
	ed.SetDocument(editor.Document{ID: d.ID, Name: d.Name})

	out, err := fn(ed)
	if err != nil {
		return nil, err
	}
	if _, err := s.designs.SaveEditor(ctx, ed); err != nil {
		return nil, fmt.Errorf("save design: %w", err)
	}
	s.emitDesignChanged(ctx, designID)
	return out, nil
}

// view loads a design read-only.
func (s *Server) view(ctx context.Context, designID string, fn func(ed *editor.Editor) (any, error)) (any, error) {
	if designID == "" {
		return nil, fmt.Errorf("designId is required")
	}
	d, sc, err := s.designs.Load(ctx, designID)
	if err != nil {
		return nil, err
	}
	ed := editor.New(sc, editor.WithExport(s.export))
	defer ed.Close()
	ed.SetDocument(editor.Document{ID: d.ID, Name: d.Name})
	return fn(ed)
}

func (s *Server) emitDesignChanged(ctx context.Context, designID string) {
	s.emitter.Emit(ctx, EventDesignChanged, map[string]string{"designId": designID})
}

// selectNode selects the top-level node with id.
func selectNode(ed *editor.Editor, id string) error {
	if id == "" {
		return fmt.Errorf("nodeId is required")
	}
	if !ed.SelectByID(id) {
		return fmt.Errorf("node %s not found", id)
	}
	return nil
}

// ensureIDs gives every top-level node an id so tools can address it.
// It reports whether any id was assigned.
func ensureIDs(sc *scene.Scene) bool {
	changed := false
	for _, n := range sc.Nodes() {
		if n.ID == "" {
			n.EnsureID()
			changed = true
		}
	}
	return changed
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}
