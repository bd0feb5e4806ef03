package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"

	"studio/internal/assistant"
	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/scene"
)

func (s *Server) registerDesignTools() {
	// ── list_designs ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_designs",
		mcp.WithDescription("List the signed-in user's designs, most recently updated first"),
	), s.handleListDesigns)

	// ── get_design ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_design",
		mcp.WithDescription("Get a design's canvas size, background and layers (bottom to top). Node ids returned here address nodes in the other tools."),
		mcp.WithString("designId", mcp.Description("Design ID"), mcp.Required()),
	), s.handleGetDesign)

	// ── create_design ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_design",
		mcp.WithDescription("Create a new design. Size comes from a preset (Logo, Poster, Social Media Square, Web Banner) or from width/height (100-5000px)."),
		mcp.WithString("name", mcp.Description("Design name")),
		mcp.WithString("preset", mcp.Description("Canvas preset name")),
		mcp.WithNumber("width", mcp.Description("Canvas width in px")),
		mcp.WithNumber("height", mcp.Description("Canvas height in px")),
		mcp.WithString("background", mcp.Description("Background color, e.g. #ffffff")),
		mcp.WithString("template", mcp.Description("Template to start from, e.g. watch")),
	), s.handleCreateDesign)

	// ── export_png ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("export_png",
		mcp.WithDescription("Render a design, or one of its nodes, to PNG"),
		mcp.WithString("designId", mcp.Description("Design ID"), mcp.Required()),
		mcp.WithString("nodeId", mcp.Description("Node to export (optional, defaults to the whole canvas)")),
	), s.handleExportPNG)

	// ── analyze_design ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("analyze_design",
		mcp.WithDescription("Check a design, or one node, against layout rules (text size, contrast, margins, clutter) and return tips"),
		mcp.WithString("designId", mcp.Description("Design ID"), mcp.Required()),
		mcp.WithString("nodeId", mcp.Description("Node to analyze (optional, defaults to every node)")),
	), s.handleAnalyzeDesign)
}

// nodeSummary is the agent-facing view of a node.
type nodeSummary struct {
	ID       string        `json:"id"`
	Type     scene.Kind    `json:"type"`
	Name     string        `json:"name,omitempty"`
	Left     float64       `json:"left"`
	Top      float64       `json:"top"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Angle    float64       `json:"angle,omitempty"`
	Fill     string        `json:"fill,omitempty"`
	Text     string        `json:"text,omitempty"`
	FontSize float64       `json:"fontSize,omitempty"`
	Locked   bool          `json:"locked,omitempty"`
	Hidden   bool          `json:"hidden,omitempty"`
	Children []nodeSummary `json:"children,omitempty"`
}

func summarizeNode(n *scene.Node) nodeSummary {
	out := nodeSummary{
		ID:     n.ID,
		Type:   n.Kind,
		Name:   n.Name,
		Left:   round2(n.X),
		Top:    round2(n.Y),
		Width:  round2(n.ScaledWidth()),
		Height: round2(n.ScaledHeight()),
		Angle:  round2(n.Angle),
		Fill:   n.Fill.Color,
		Locked: n.Locked,
		Hidden: !n.IsVisible(),
	}
	if n.Text != nil {
		out.Text = n.Text.Content
		out.FontSize = n.Text.Style.FontSize
	}
	out.Children = lo.Map(n.Children, func(c *scene.Node, _ int) nodeSummary { return summarizeNode(c) })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type designView struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Background string        `json:"background"`
	Nodes      []nodeSummary `json:"nodes"`
}

func (s *Server) handleListDesigns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	designs, err := s.designs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	type summary struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		UpdatedAt string `json:"updatedAt"`
	}
	return jsonResult(lo.Map(designs, func(d domain.DesignSummary, _ int) summary {
		return summary{ID: d.ID, Name: d.Name, UpdatedAt: d.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")}
	}))
}

func (s *Server) handleGetDesign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("designId", "")
	if id == "" {
		return nil, fmt.Errorf("designId is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, sc, err := s.designs.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get design: %w", err)
	}
	// Nodes drawn in the app may have no id yet; persist the ones given
	// here so later calls can address them.
	if ensureIDs(sc) {
		if _, err := s.designs.Save(ctx, sc, d.Name, d.ID); err != nil {
			return nil, fmt.Errorf("get design: assign node ids: %w", err)
		}
	}
	return jsonResult(designView{
		ID:         d.ID,
		Name:       d.Name,
		Width:      sc.Width(),
		Height:     sc.Height(),
		Background: sc.Background(),
		Nodes:      lo.Map(sc.Nodes(), func(n *scene.Node, _ int) nodeSummary { return summarizeNode(n) }),
	})
}

func (s *Server) handleCreateDesign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		name = editor.DefaultName
	}

	w, h := scene.DefaultSize, scene.DefaultSize
	if preset := req.GetString("preset", ""); preset != "" {
		p, ok := scene.PresetByName(preset)
		if !ok {
			names := lo.Map(scene.Presets(), func(p scene.Preset, _ int) string { return p.Name })
			return nil, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(names, ", "))
		}
		w, h = p.Width, p.Height
	} else if args["width"] != nil || args["height"] != nil {
		var err error
		if w, h, err = scene.ParseCustomSize(args["width"], args["height"]); err != nil {
			return nil, err
		}
	}

	sc, err := scene.New(w, h)
	if err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}
	ed := editor.New(sc)
	defer ed.Close()
	ed.SetDocument(editor.Document{Name: name})

	if tpl := req.GetString("template", ""); tpl != "" {
		if s.templates == nil {
			return nil, fmt.Errorf("templates are not available")
		}
		data, err := s.templates.Template(tpl, w, h)
		if err != nil {
			return nil, err
		}
		if err := ed.ApplyTemplate(data); err != nil {
			return nil, err
		}
	}
	if bg := req.GetString("background", ""); bg != "" {
		ed.With(func(sc *scene.Scene) error {
			sc.SetBackground(bg)
			return nil
		})
	}
	ed.With(func(sc *scene.Scene) error {
		ensureIDs(sc)
		return nil
	})

	s.mu.Lock()
	id, err := s.designs.SaveEditor(ctx, ed)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("create design: %w", err)
	}
	s.emitDesignChanged(ctx, id)
	return jsonResult(map[string]any{"id": id, "name": name, "width": w, "height": h})
}

func (s *Server) handleExportPNG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := req.GetString("nodeId", "")
	out, err := s.view(ctx, req.GetString("designId", ""), func(ed *editor.Editor) (any, error) {
		if nodeID != "" {
			if err := selectNode(ed, nodeID); err != nil {
				return nil, err
			}
		}
		return ed.ExportPNG()
	})
	if err != nil {
		return nil, fmt.Errorf("export png: %w", err)
	}
	exp := out.(editor.Export)
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: fmt.Sprintf("Exported %s (%d bytes)", exp.Filename, len(exp.Data))},
			mcp.ImageContent{Type: "image", Data: base64.StdEncoding.EncodeToString(exp.Data), MIMEType: "image/png"},
		},
	}, nil
}

type nodeAdvice struct {
	NodeID string          `json:"nodeId"`
	Type   scene.Kind      `json:"type"`
	Tips   []assistant.Tip `json:"tips"`
}

func (s *Server) handleAnalyzeDesign(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := req.GetString("nodeId", "")
	out, err := s.view(ctx, req.GetString("designId", ""), func(ed *editor.Editor) (any, error) {
		var report []nodeAdvice
		err := ed.With(func(sc *scene.Scene) error {
			nodes := sc.Nodes()
			if nodeID != "" {
				n := sc.FindByID(nodeID)
				if n == nil {
					return fmt.Errorf("node %s not found", nodeID)
				}
				nodes = []*scene.Node{n}
			}
			for _, n := range nodes {
				if tips := assistant.Advise(n, sc); len(tips) > 0 {
					report = append(report, nodeAdvice{NodeID: n.ID, Type: n.Kind, Tips: tips})
				}
			}
			return nil
		})
		return report, err
	})
	if err != nil {
		return nil, fmt.Errorf("analyze design: %w", err)
	}
	report := out.([]nodeAdvice)
	if len(report) == 0 {
		return textResult("No issues found."), nil
	}
	return jsonResult(report)
}
