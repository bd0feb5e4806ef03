package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("design_poster",
		mcp.WithPromptDescription("Guide through laying out a promotional poster"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the poster promotes"),
			mcp.RequiredArgument(),
		),
	), s.handlePosterPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("review_design",
		mcp.WithPromptDescription("Review an existing design and fix layout problems"),
		mcp.WithArgument("designId",
			mcp.ArgumentDescription("Design to review"),
			mcp.RequiredArgument(),
		),
	), s.handleReviewPrompt)
}

func (s *Server) handlePosterPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Design a poster for: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Design a poster promoting "%s". Follow these steps:

1. Use create_design with preset "Poster" and a dark background color
2. Add a headline with add_text (fontSize 60, fontWeight 900) near the top-left, leaving a 50px margin
3. Add a short subtitle with add_text (fontSize 18) under the headline
4. Add a call-to-action: add_shape roundedRect plus add_text on top of it, then group_nodes them
5. Run analyze_design and fix every tip with update_node
6. Finish with export_png so the result can be checked

Keep the text short and the contrast high.`, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleReviewPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	designID := req.Params.Arguments["designId"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review design %s", designID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Review the design %s:

1. Read it with get_design
2. Run analyze_design and list the problems found
3. Fix them with update_node: readable font sizes (16px or more), enough contrast, 20px margins from the canvas edge
4. Ask before removing anything; delete_node requires the user's approval
5. Run analyze_design again to confirm`, designID),
				},
			},
		},
	}, nil
}
