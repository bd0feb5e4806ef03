package app

// ─────────────────────────────────────────────────────────────
// Account + MCP approval handlers
// ─────────────────────────────────────────────────────────────

import (
	"studio/internal/auth"
	mcpserver "studio/internal/mcp"
	"studio/internal/secret"
)

// ── Account ────────────────────────────────────────────────

func (a *App) GetProfile() *auth.Profile {
	return a.session.Profile()
}

func (a *App) SignIn(email, displayName string) (*auth.Profile, error) {
	return a.session.SignIn(email, displayName)
}

// SignOut ends the session after saving pending edits.
func (a *App) SignOut() error {
	a.leaveDesign()
	return a.session.SignOut()
}

// SetRemovalAPIKey stores the background removal key. It is used from the
// next start on.
func (a *App) SetRemovalAPIKey(key string) error {
	if key == "" {
		return a.secrets.Delete(secret.KeyRemovalAPIKey)
	}
	return a.secrets.Set(secret.KeyRemovalAPIKey, []byte(key))
}

// SetChatAPIKey stores the tutor key. The next question uses it.
func (a *App) SetChatAPIKey(key string) error {
	if key == "" {
		return a.secrets.Delete(secret.KeyChatAPIKey)
	}
	return a.secrets.Set(secret.KeyChatAPIKey, []byte(key))
}

// ── MCP approvals ──────────────────────────────────────────

// ListPendingApprovals returns destructive tool calls a standalone MCP
// server is waiting on.
func (a *App) ListPendingApprovals() ([]mcpserver.PendingAction, error) {
	pending, err := mcpserver.PendingStored(a.db.Conn())
	if err != nil {
		return nil, err
	}
	if pending == nil {
		pending = []mcpserver.PendingAction{}
	}
	return pending, nil
}

func (a *App) ApproveMCPAction(id string) error {
	return mcpserver.ResolveStored(a.db.Conn(), id, true)
}

func (a *App) RejectMCPAction(id string) error {
	return mcpserver.ResolveStored(a.db.Conn(), id, false)
}
