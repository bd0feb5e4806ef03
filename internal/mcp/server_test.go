package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"studio/internal/scene"
	"studio/internal/service"
	"studio/internal/storage"
)

type testIdentity struct{}

func (testIdentity) CurrentUserID() (string, bool) { return "agent-user", true }

// answeringEmitter records events and answers approval requests.
type answeringEmitter struct {
	mu      sync.Mutex
	events  []string
	approve bool
	answer  func(id string, approved bool)
}

func (e *answeringEmitter) Emit(_ context.Context, event string, data any) {
	e.mu.Lock()
	e.events = append(e.events, event)
	answer := e.answer
	e.mu.Unlock()
	if a, ok := data.(PendingAction); ok && event == EventApprovalRequired && answer != nil {
		go answer(a.ID, e.approve)
	}
}

func (e *answeringEmitter) count(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev == event {
			n++
		}
	}
	return n
}

func newTestServer(t *testing.T) (*Server, *answeringEmitter, *storage.DB) {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "studio.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	em := &answeringEmitter{approve: true}
	designs := service.NewDesignService(storage.NewDesignStore(db), storage.NewRevisionStore(db),
		testIdentity{}, &service.MockEmitter{}, service.DesignOptions{})
	s := New(context.Background(), Deps{
		Emitter:   em,
		Designs:   designs,
		Templates: service.NewTemplateService("", em),
	})
	em.answer = func(id string, ok bool) {
		if ok {
			s.Approve(id)
		} else {
			s.Reject(id)
		}
	}
	return s, em, db
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) string {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("tool error: %v", err)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func decode[T any](t *testing.T, text string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		t.Fatalf("decode %q: %v", text, err)
	}
	return v
}

func createDesign(t *testing.T, s *Server, args map[string]any) string {
	t.Helper()
	out := decode[map[string]any](t, call(t, s.handleCreateDesign, args))
	id, _ := out["id"].(string)
	if id == "" {
		t.Fatalf("no id in %v", out)
	}
	return id
}

func getDesign(t *testing.T, s *Server, id string) designView {
	t.Helper()
	return decode[designView](t, call(t, s.handleGetDesign, map[string]any{"designId": id}))
}

// ─────────────────────────────────────────────────────────────
// Design tools
// ─────────────────────────────────────────────────────────────

func TestCreateDesign_PresetAndCustomSize(t *testing.T) {
	s, em, _ := newTestServer(t)

	id := createDesign(t, s, map[string]any{"name": "Promo", "preset": "web banner", "background": "#111111"})
	v := getDesign(t, s, id)
	if v.Width != 1200 || v.Height != 400 || v.Background != "#111111" || v.Name != "Promo" {
		t.Fatalf("unexpected design: %+v", v)
	}
	if em.count(EventDesignChanged) != 1 {
		t.Errorf("expected a design-changed event")
	}

	custom := createDesign(t, s, map[string]any{"width": 640.0, "height": 480.0})
	if v := getDesign(t, s, custom); v.Width != 640 || v.Name != "Untitled Design" {
		t.Fatalf("unexpected custom design: %+v", v)
	}

	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"width": 50.0, "height": 50.0}
	if _, err := s.handleCreateDesign(context.Background(), req); !errors.Is(err, scene.ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}

	list := decode[[]map[string]any](t, call(t, s.handleListDesigns, nil))
	if len(list) != 2 {
		t.Errorf("expected 2 designs listed, got %d", len(list))
	}
}

func TestCreateDesign_FromTemplate(t *testing.T) {
	s, _, _ := newTestServer(t)
	id := createDesign(t, s, map[string]any{"preset": "Social Media Square", "template": "watch"})

	v := getDesign(t, s, id)
	if len(v.Nodes) != 10 || v.Background != "#0f3d4e" {
		t.Fatalf("expected the watch template, got %d nodes on %s", len(v.Nodes), v.Background)
	}
	for _, n := range v.Nodes {
		if n.ID == "" {
			t.Fatalf("node without id: %+v", n)
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Node tools
// ─────────────────────────────────────────────────────────────

func TestNodeTools_AddUpdateGroup(t *testing.T) {
	s, _, _ := newTestServer(t)
	id := createDesign(t, s, map[string]any{"preset": "Logo"})

	rect := decode[nodeSummary](t, call(t, s.handleAddShape, map[string]any{
		"designId": id, "shape": "rect", "left": 40.0, "top": 60.0, "width": 200.0, "fill": "#ff0000",
	}))
	if rect.ID == "" || rect.Left != 40 || rect.Top != 60 || rect.Width != 200 || rect.Fill != "#ff0000" {
		t.Fatalf("unexpected rect: %+v", rect)
	}

	txt := decode[nodeSummary](t, call(t, s.handleAddText, map[string]any{
		"designId": id, "text": "Hello", "fontSize": 32.0, "left": 50.0, "top": 300.0,
	}))
	if txt.Text != "Hello" || txt.FontSize != 32 {
		t.Fatalf("unexpected text: %+v", txt)
	}

	upd := decode[nodeSummary](t, call(t, s.handleUpdateNode, map[string]any{
		"designId": id, "nodeId": rect.ID, "properties": `{"angle": 45, "name": "box"}`,
	}))
	if upd.Angle != 45 || upd.Name != "box" {
		t.Fatalf("update not applied: %+v", upd)
	}

	g := decode[nodeSummary](t, call(t, s.handleGroupNodes, map[string]any{
		"designId": id, "nodeIds": rect.ID + ", " + txt.ID,
	}))
	if g.Type != scene.KindGroup || len(g.Children) != 2 {
		t.Fatalf("unexpected group: %+v", g)
	}
	if v := getDesign(t, s, id); len(v.Nodes) != 1 {
		t.Fatalf("expected one top-level group, got %d nodes", len(v.Nodes))
	}

	members := decode[[]nodeSummary](t, call(t, s.handleUngroupNode, map[string]any{"designId": id, "nodeId": g.ID}))
	if len(members) != 2 {
		t.Fatalf("expected 2 members back, got %d", len(members))
	}
	if v := getDesign(t, s, id); len(v.Nodes) != 2 || v.Nodes[0].ID != rect.ID {
		t.Fatalf("unexpected layers after ungroup: %+v", v.Nodes)
	}
}

func TestUpdateNode_InvalidLeavesDesignUntouched(t *testing.T) {
	s, _, _ := newTestServer(t)
	id := createDesign(t, s, nil)
	rect := decode[nodeSummary](t, call(t, s.handleAddShape, map[string]any{"designId": id, "shape": "rect"}))

	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"designId": id, "nodeId": rect.ID, "properties": `{"left": 5, "bogus": 1}`}
	if _, err := s.handleUpdateNode(context.Background(), req); err == nil {
		t.Fatal("expected error for unknown property")
	}
	if v := getDesign(t, s, id); v.Nodes[0].Left != rect.Left {
		t.Errorf("failed update was saved: left %v", v.Nodes[0].Left)
	}
}

func TestDeleteNode_Approval(t *testing.T) {
	s, em, _ := newTestServer(t)
	id := createDesign(t, s, nil)
	rect := decode[nodeSummary](t, call(t, s.handleAddShape, map[string]any{"designId": id, "shape": "ellipse"}))
	args := map[string]any{"designId": id, "nodeId": rect.ID}

	em.approve = false
	if got := call(t, s.handleDeleteNode, args); got != "Action rejected by user" {
		t.Fatalf("unexpected result: %q", got)
	}
	if v := getDesign(t, s, id); len(v.Nodes) != 1 {
		t.Fatal("rejected delete removed the node")
	}

	em.approve = true
	if got := call(t, s.handleDeleteNode, args); !strings.HasPrefix(got, "Deleted node") {
		t.Fatalf("unexpected result: %q", got)
	}
	if v := getDesign(t, s, id); len(v.Nodes) != 0 {
		t.Fatal("approved delete kept the node")
	}
}

func TestAnalyzeDesign(t *testing.T) {
	s, _, _ := newTestServer(t)
	id := createDesign(t, s, map[string]any{"preset": "Logo", "background": "#ffffff"})

	if got := call(t, s.handleAnalyzeDesign, map[string]any{"designId": id}); got != "No issues found." {
		t.Fatalf("empty design: %q", got)
	}

	call(t, s.handleAddText, map[string]any{"designId": id, "text": "tiny", "fontSize": 10.0, "left": 100.0, "top": 100.0})
	report := decode[[]nodeAdvice](t, call(t, s.handleAnalyzeDesign, map[string]any{"designId": id}))
	if len(report) != 1 || report[0].Tips[0].Code != "text-small" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestExportPNG(t *testing.T) {
	s, _, _ := newTestServer(t)
	id := createDesign(t, s, map[string]any{"preset": "Logo"})

	var req mcp.CallToolRequest
	req.Params.Arguments = map[string]any{"designId": id}
	res, err := s.handleExportPNG(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Content) != 2 {
		t.Fatalf("expected text and image content, got %d items", len(res.Content))
	}
	img, ok := res.Content[1].(mcp.ImageContent)
	if !ok || img.MIMEType != "image/png" || img.Data == "" {
		t.Fatalf("unexpected image content: %#v", res.Content[1])
	}
}

func TestDesignIDFromURI(t *testing.T) {
	tests := map[string]string{
		"design://abc-123": "abc-123",
		"design://a/b":     "",
		"notes://page/x":   "",
		"design://":        "",
	}
	for uri, want := range tests {
		if got := designIDFromURI(uri); got != want {
			t.Errorf("%s: got %q, want %q", uri, got, want)
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Approval queue
// ─────────────────────────────────────────────────────────────

func TestApproval_StoredMode(t *testing.T) {
	_, _, db := newTestServer(t)
	q := NewApprovalQueue(context.Background(), &answeringEmitter{})
	q.SetDB(db.Conn())
	q.poll = 10 * time.Millisecond

	go func() {
		for {
			pending, err := PendingStored(db.Conn())
			if err == nil && len(pending) == 1 {
				ResolveStored(db.Conn(), pending[0].ID, true)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()

	if err := q.Request(context.Background(), "delete_node", "Delete", `{"nodeId":"n1"}`); err != nil {
		t.Fatalf("expected approval, got %v", err)
	}
	if pending, _ := PendingStored(db.Conn()); len(pending) != 0 {
		t.Errorf("approval row not cleaned up: %d left", len(pending))
	}
}

func TestApproval_Timeout(t *testing.T) {
	em := &answeringEmitter{}
	q := NewApprovalQueue(context.Background(), em)
	q.SetTimeout(30 * time.Millisecond)

	if err := q.Request(context.Background(), "delete_node", "Delete", ""); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected on timeout, got %v", err)
	}
	if em.count(EventApprovalDismissed) != 1 {
		t.Error("expected the prompt to be dismissed")
	}
}
