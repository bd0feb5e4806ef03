package service

import (
	"fmt"
	"log"

	"github.com/spf13/cast"

	"studio/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Window Settings: window size and last open design
// ─────────────────────────────────────────────────────────────
//
// Saved in the local app_settings table between sessions.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowSettingsService persists window state between sessions.
type WindowSettingsService struct {
	settings *storage.Settings
}

// NewWindowSettingsService creates a WindowSettingsService. settings may
// be nil, in which case defaults are returned and nothing is saved.
func NewWindowSettingsService(settings *storage.Settings) *WindowSettingsService {
	return &WindowSettingsService{settings: settings}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	settingLastDesign   = "last_design"
	defaultWindowWidth  = 1440
	defaultWindowHeight = 900
)

// LoadWindowSize returns the saved window dimensions, or sensible defaults.
func (s *WindowSettingsService) LoadWindowSize() WindowSize {
	size := WindowSize{Width: defaultWindowWidth, Height: defaultWindowHeight}
	if s.settings == nil {
		return size
	}
	if w := s.intSetting(settingWindowWidth); w >= 1024 {
		size.Width = w
	}
	if h := s.intSetting(settingWindowHeight); h >= 640 {
		size.Height = h
	}
	return size
}

// SaveWindowSize persists the current window dimensions.
func (s *WindowSettingsService) SaveWindowSize(width, height int) error {
	if s.settings == nil {
		return fmt.Errorf("window settings: no db")
	}
	if err := s.settings.Set(settingWindowWidth, width); err != nil {
		return err
	}
	return s.settings.Set(settingWindowHeight, height)
}

// LastDesign returns the id of the design open at the end of the previous
// session, or "".
func (s *WindowSettingsService) LastDesign() string {
	if s.settings == nil {
		return ""
	}
	v, _, err := s.settings.Get(settingLastDesign)
	if err != nil {
		log.Printf("[settings] %v", err)
	}
	return v
}

// SetLastDesign records the open design. An empty id clears it.
func (s *WindowSettingsService) SetLastDesign(id string) error {
	if s.settings == nil {
		return nil
	}
	return s.settings.Set(settingLastDesign, id)
}

func (s *WindowSettingsService) intSetting(key string) int {
	v, ok, err := s.settings.Get(key)
	if err != nil {
		log.Printf("[settings] %v", err)
	}
	if !ok {
		return 0
	}
	return cast.ToInt(v)
}
