package app

import "studio/internal/editor"

// DesignState is the frontend view of the open design.
type DesignState struct {
	Document   editor.Document `json:"document"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Background string          `json:"background"`
	Nodes      int             `json:"nodes"`
}
