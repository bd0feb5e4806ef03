package app

import (
	"context"
	"log/slog"

	"github.com/gogpu/gg"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"studio/internal/assets"
	"studio/internal/auth"
	"studio/internal/config"
	"studio/internal/dbclient"
	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/scene"
	"studio/internal/secret"
	"studio/internal/service"
	"studio/internal/storage"
)

// Frontend events emitted by the app layer itself.
const (
	EventCanvasInvalidated = "canvas:invalidated"
	EventAuthChanged       = "auth:changed"
	EventDesignOpened      = "design:opened"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	cfg config.Config

	db      *storage.DB
	stores  *dbclient.Stores
	secrets secret.SecretStore
	session *auth.Session

	editor      *editor.Editor
	designs     *service.DesignService
	autosave    *service.Autosaver
	background  *service.BackgroundService
	chat        *service.ChatService
	templates   *service.TemplateService
	maintenance *service.MaintenanceService
	window      *service.WindowSettingsService
	searcher    *assets.Searcher
	loader      *assets.Loader
	watcher     *designWatcher

	offAutosave func()
	offAuth     func()
}

// New creates a new App.
func New() *App {
	return &App{}
}

// wailsEmitter delivers service events to the frontend.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.Load(config.Path())
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to load config, using defaults: %v", err)
		cfg = config.Default()
	}
	a.cfg = cfg
	if cfg.Log.RenderDebug {
		gg.SetLogger(slog.Default())
	}

	db, err := storage.New(cfg.DBPath())
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}
	a.db = db
	a.secrets = secret.Default()
	a.session = auth.NewSession(a.secrets)

	stores, err := openStores(ctx, cfg, db, a.secrets)
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to open %s backend, using the local database: %v", cfg.Backend.Driver, err)
		stores = dbclient.Local(db)
	}
	a.stores = stores

	emitter := wailsEmitter{}
	a.designs = service.NewDesignService(stores.Designs, stores.Revisions, a.session, emitter, service.DesignOptions{
		ThumbnailMultiplier: cfg.Export.ThumbnailMultiplier,
		KeepRevisions:       cfg.Maintenance.KeepRevisions,
	})

	// Editor session over an empty default-size canvas
	sc, _ := scene.New(scene.DefaultSize, scene.DefaultSize)
	a.editor = editor.New(sc,
		editor.WithNotifier(ctx, emitter),
		editor.WithClipboard(editor.OSClipboard{}),
		editor.WithExport(exportOptions(cfg)),
	)
	a.editor.OnRenderRequest(func() {
		wailsRuntime.EventsEmit(ctx, EventCanvasInvalidated)
	})

	a.watcher = newDesignWatcher(ctx, stores.Designs, a.designs, db.Conn(), emitter)
	a.autosave = service.NewAutosaver(ctx, cfg.AutosaveDelay, a.saveOpenDesign, emitter)
	a.offAutosave = a.editor.OnChange(a.autosave.Listener())

	apiKey, err := a.secrets.Get(secret.KeyRemovalAPIKey)
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to read background removal key: %v", err)
	}
	a.background = service.NewBackgroundService(service.BackgroundOptions{
		Endpoint: cfg.BackgroundRemoval.Endpoint,
		APIKey:   string(apiKey),
		Timeout:  cfg.BackgroundRemoval.Timeout,
	}, nil, emitter)

	a.chat = service.NewChatService(service.ChatOptions{
		Endpoint: cfg.Chat.Endpoint,
		Model:    cfg.Chat.Model,
		Language: cfg.Chat.Language,
		KeyName:  secret.KeyChatAPIKey,
		Timeout:  cfg.Chat.Timeout,
	}, a.secrets, nil)

	a.templates = service.NewTemplateService(cfg.TemplatesDir, emitter)
	if err := a.templates.Load(); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to load templates: %v", err)
	}
	if err := a.templates.Watch(); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to watch templates: %v", err)
	}

	a.maintenance = service.NewMaintenanceService(stores.Designs, stores.Revisions, cfg.Maintenance.KeepRevisions, emitter)
	if err := a.maintenance.Start(ctx, cfg.Maintenance.Schedule); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to schedule maintenance: %v", err)
	}

	a.window = service.NewWindowSettingsService(storage.NewSettings(db))
	a.searcher = assets.NewSearcher(assets.Endpoints{}, nil)
	a.loader = assets.NewLoader(assets.LoaderConfig{
		Timeout:      cfg.Assets.Timeout,
		MaxDimension: cfg.Assets.MaxDimension,
		UserAgent:    cfg.Assets.UserAgent,
	}, nil)

	a.offAuth = a.session.OnAuthChange(func(p *auth.Profile) {
		wailsRuntime.EventsEmit(ctx, EventAuthChanged, p)
	})

	a.watcher.Start()

	size := a.window.LoadWindowSize()
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)
	if id := a.window.LastDesign(); id != "" && a.session.Profile() != nil {
		if _, err := a.OpenDesign(id); err != nil {
			wailsRuntime.LogInfof(ctx, "Last design %s not reopened: %v", id, err)
		}
	}
	wailsRuntime.LogInfof(ctx, "Studio started (backend %s)", cfg.Backend.Driver)
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.window != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.window.SaveWindowSize(w, h); err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to save window size: %v", err)
		}
	}
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.autosave != nil {
		// Let a running save finish before the stores close.
		a.autosave.Stop()
		a.autosave.Wait(ctx)
	}
	if a.background != nil {
		a.background.WaitRunning(ctx)
	}
	if a.maintenance != nil {
		a.maintenance.Stop()
	}
	if a.templates != nil {
		a.templates.Close()
	}
	if a.offAuth != nil {
		a.offAuth()
	}
	if a.offAutosave != nil {
		a.offAutosave()
	}
	if a.editor != nil {
		a.editor.Close()
	}
	if a.stores != nil {
		a.stores.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// openStores connects the configured design backend. The password comes
// from the secret store, never from the config file.
func openStores(ctx context.Context, cfg config.Config, local *storage.DB, secrets secret.SecretStore) (*dbclient.Stores, error) {
	b := domain.Backend{
		Driver:   domain.BackendDriver(cfg.Backend.Driver),
		Host:     cfg.Backend.Host,
		Port:     cfg.Backend.Port,
		Database: cfg.Backend.Database,
		Username: cfg.Backend.Username,
		SSLMode:  cfg.Backend.SSLMode,
	}
	password := ""
	if pw, err := secrets.Get(secret.KeyBackendPassword); err == nil && pw != nil {
		password = string(pw)
	}
	return dbclient.Open(ctx, b, password, local)
}

func exportOptions(cfg config.Config) editor.ExportOptions {
	return editor.ExportOptions{
		Scene: cfg.Export.SceneMultiplier,
		Node:  cfg.Export.NodeMultiplier,
	}
}
