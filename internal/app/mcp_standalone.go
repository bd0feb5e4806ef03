package app

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/gg"

	"studio/internal/auth"
	"studio/internal/config"
	"studio/internal/dbclient"
	mcpserver "studio/internal/mcp"
	"studio/internal/secret"
	"studio/internal/service"
	"studio/internal/storage"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It acts as the user signed in to the desktop app and runs until interrupted.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol; logs go to stderr.
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Log.RenderDebug {
		gg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	db, err := storage.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	secrets := secret.Default()
	session := auth.NewSession(secrets)
	if session.Profile() == nil {
		log.Println("[MCP] no user signed in; sign in from the desktop app first")
	}

	stores, err := openStores(ctx, cfg, db, secrets)
	if err != nil {
		log.Printf("[MCP] %s backend unavailable, using the local database: %v", cfg.Backend.Driver, err)
		stores = dbclient.Local(db)
	}
	defer stores.Close()

	emitter := noopEmitter{}
	designs := service.NewDesignService(stores.Designs, stores.Revisions, session, emitter, service.DesignOptions{
		ThumbnailMultiplier: cfg.Export.ThumbnailMultiplier,
		KeepRevisions:       cfg.Maintenance.KeepRevisions,
	})
	templates := service.NewTemplateService(cfg.TemplatesDir, emitter)
	if err := templates.Load(); err != nil {
		log.Printf("[MCP] templates: %v", err)
	}

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:    emitter,
		Designs:    designs,
		Templates:  templates,
		Export:     exportOptions(cfg),
		ApprovalDB: db.Conn(), // Approvals go through the desktop app
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
