package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"

	"studio/internal/editor"
	"studio/internal/scene"
)

func (s *Server) registerNodeTools() {
	// ── add_shape ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_shape",
		mcp.WithDescription("Add a shape to a design. Defaults: rect 100x100 #3b82f6, roundedRect 120x120 #10b981, ellipse r=50 #ef4444, centered on the canvas."),
		mcp.WithString("designId", mcp.Description("Design ID"), mcp.Required()),
		mcp.WithString("shape", mcp.Description("rect, roundedRect or ellipse"), mcp.Required()),
		mcp.WithNumber("left", mcp.Description("X position in px")),
		mcp.WithNumber("top", mcp.Description("Y position in px")),
		mcp.WithNumber("width", mcp.Description("Width in px")),
		mcp.WithNumber("height", mcp.Description("Height in px")),
		mcp.WithString("fill", mcp.Description("Fill color, e.g. #ff0000")),
	), s.handleAddShape)

	// ── add_text ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_text",
		mcp.WithDescription("Add a text node to a design"),
		mcp.WithString("designId", mcp.Description("Design ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("Text content"), mcp.Required()),
		mcp.WithNumber("left", mcp.Description("X position in px")),
		mcp.WithNumber("top", mcp.Description("Y position in px")),
		mcp.WithNumber("fontSize", mcp.Description("Font size in px (default 24)")),
		mcp.WithString("fontWeight", mcp.Description("normal, bold or 100-900")),
		mcp.WithString("fontFamily", mcp.Description("Font family")),
		mcp.WithString("fill", mcp.Description("Text color (default #1e293b)")),
	), s.handleAddText)

	// ── update_node ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_node",
		mcp.WithDescription(`Update node properties. properties is a JSON object, e.g. {"left":40,"fill":"#000000","opacity":50}. Keys: left, top, width, height, angle, opacity (percent), fill, stroke, strokeWidth, rx, text, fontFamily, fontSize, fontWeight, textAlign, locked, visible, flipX, flipY, name.`),
		mcp.WithString("designId", mcp.Description("Design ID"), mcp.Required()),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithString("properties", mcp.Description("JSON object of property values"), mcp.Required()),
	), s.handleUpdateNode)

	// ── delete_node ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a node from a design. Requires user approval."),
		mcp.WithString("designId", mcp.Description("Design ID"), mcp.Required()),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteNode)

	// ── group_nodes ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("group_nodes",
		mcp.WithDescription("Group two or more nodes into one group placed at the topmost member's layer"),
		mcp.WithString("designId", mcp.Description("Design ID"), mcp.Required()),
		mcp.WithString("nodeIds", mcp.Description("Comma-separated node IDs"), mcp.Required()),
	), s.handleGroupNodes)

	// ── ungroup_node ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("ungroup_node",
		mcp.WithDescription("Split a group back into its members"),
		mcp.WithString("designId", mcp.Description("Design ID"), mcp.Required()),
		mcp.WithString("nodeId", mcp.Description("Group node ID"), mcp.Required()),
	), s.handleUngroupNode)
}

// applyProps writes props to the selection in a stable key order.
func applyProps(ed *editor.Editor, props map[string]any) error {
	keys := lo.Keys(props)
	slices.Sort(keys)
	for _, k := range keys {
		if err := ed.SetProperty(k, props[k]); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

// optional collects the named arguments that were given.
func optional(args map[string]any, names ...string) map[string]any {
	return lo.PickByKeys(args, names)
}

func (s *Server) handleAddShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	shape := editor.Shape(req.GetString("shape", ""))
	if shape == editor.ShapeText {
		return nil, fmt.Errorf("use add_text for text")
	}
	out, err := s.edit(ctx, req.GetString("designId", ""), func(ed *editor.Editor) (any, error) {
		n, err := ed.AddShape(shape)
		if err != nil {
			return nil, err
		}
		if err := applyProps(ed, optional(args, "left", "top", "width", "height", "fill")); err != nil {
			return nil, err
		}
		return summarizeNode(withID(ed, n)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("add shape: %w", err)
	}
	return jsonResult(out)
}

func (s *Server) handleAddText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required")
	}
	out, err := s.edit(ctx, req.GetString("designId", ""), func(ed *editor.Editor) (any, error) {
		n, err := ed.AddShape(editor.ShapeText)
		if err != nil {
			return nil, err
		}
		props := optional(args, "left", "top", "fontSize", "fontWeight", "fontFamily", "fill")
		props["text"] = text
		if err := applyProps(ed, props); err != nil {
			return nil, err
		}
		return summarizeNode(withID(ed, n)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("add text: %w", err)
	}
	return jsonResult(out)
}

func (s *Server) handleUpdateNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := req.GetString("nodeId", "")
	var props map[string]any
	if err := parseJSON(req.GetString("properties", ""), &props); err != nil {
		return nil, fmt.Errorf("properties must be a JSON object: %w", err)
	}
	if len(props) == 0 {
		return nil, fmt.Errorf("properties is empty")
	}
	out, err := s.edit(ctx, req.GetString("designId", ""), func(ed *editor.Editor) (any, error) {
		if err := selectNode(ed, nodeID); err != nil {
			return nil, err
		}
		if err := applyProps(ed, props); err != nil {
			return nil, err
		}
		var view nodeSummary
		ed.With(func(sc *scene.Scene) error {
			view = summarizeNode(sc.FindByID(nodeID))
			return nil
		})
		return view, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update node: %w", err)
	}
	return jsonResult(out)
}

func (s *Server) handleDeleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	designID := req.GetString("designId", "")
	nodeID := req.GetString("nodeId", "")
	if designID == "" || nodeID == "" {
		return nil, fmt.Errorf("designId and nodeId are required")
	}

	meta, _ := marshalJSON(map[string]string{"designId": designID, "nodeId": nodeID})
	if err := s.approval.Request(ctx, "delete_node",
		fmt.Sprintf("Delete node %s from design %s", nodeID, designID), string(meta)); err != nil {
		if errors.Is(err, ErrRejected) {
			return textResult("Action rejected by user"), nil
		}
		return nil, err
	}

	_, err := s.edit(ctx, designID, func(ed *editor.Editor) (any, error) {
		if err := selectNode(ed, nodeID); err != nil {
			return nil, err
		}
		ed.DeleteSelection()
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete node: %w", err)
	}
	return textResult(fmt.Sprintf("Deleted node %s", nodeID)), nil
}

func (s *Server) handleGroupNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitIDs(req.GetString("nodeIds", ""))
	if len(ids) < 2 {
		return nil, fmt.Errorf("nodeIds needs at least two ids")
	}
	out, err := s.edit(ctx, req.GetString("designId", ""), func(ed *editor.Editor) (any, error) {
		err := ed.With(func(sc *scene.Scene) error {
			nodes := make([]*scene.Node, 0, len(ids))
			for _, id := range ids {
				n := sc.FindByID(id)
				if n == nil {
					return fmt.Errorf("node %s not found", id)
				}
				nodes = append(nodes, n)
			}
			sc.SelectComposite(nodes)
			return nil
		})
		if err != nil {
			return nil, err
		}
		g, ok := ed.Group()
		if !ok {
			return nil, fmt.Errorf("nodes could not be grouped")
		}
		return summarizeNode(withID(ed, g)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("group nodes: %w", err)
	}
	return jsonResult(out)
}

func (s *Server) handleUngroupNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := req.GetString("nodeId", "")
	out, err := s.edit(ctx, req.GetString("designId", ""), func(ed *editor.Editor) (any, error) {
		if err := selectNode(ed, nodeID); err != nil {
			return nil, err
		}
		children, ok := ed.Ungroup()
		if !ok {
			return nil, fmt.Errorf("node %s is not a group", nodeID)
		}
		return lo.Map(children, func(c *scene.Node, _ int) nodeSummary { return summarizeNode(withID(ed, c)) }), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ungroup node: %w", err)
	}
	return jsonResult(out)
}

// withID assigns n an id under the session lock and returns it.
func withID(ed *editor.Editor, n *scene.Node) *scene.Node {
	ed.With(func(*scene.Scene) error {
		n.EnsureID()
		return nil
	})
	return n
}

// splitIDs parses a comma-separated id list, dropping blanks and repeats.
func splitIDs(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	return lo.Uniq(lo.Compact(parts))
}
