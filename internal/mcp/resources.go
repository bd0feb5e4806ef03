package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"studio/internal/scene"
)

const designURIPrefix = "design://"

func (s *Server) registerResources() {
	// ── design://list ──────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		designURIPrefix+"list",
		"All Designs",
		mcp.WithMIMEType("application/json"),
	), s.handleDesignListResource)

	// ── design://{id} ──────────────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			designURIPrefix+"{id}",
			"Design Document",
		),
		s.handleDesignResource,
	)
}

func (s *Server) handleDesignListResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	designs, err := s.designs.List(ctx)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(designs, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleDesignResource returns the stored scene document of a design.
func (s *Server) handleDesignResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := designIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract design id from URI: %s", uri)
	}
	_, sc, err := s.designs.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := scene.Encode(sc)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// designIDFromURI extracts the id from "design://{id}".
func designIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, designURIPrefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
