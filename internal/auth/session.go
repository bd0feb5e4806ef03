package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"

	"studio/internal/secret"
)

// ErrInvalidEmail is returned by SignIn for a malformed address.
var ErrInvalidEmail = errors.New("invalid email address")

// userNamespace derives stable user ids from email addresses.
var userNamespace = uuid.MustParse("6f0c8a52-3b7e-4c56-9d0e-2a1f5e7b9c34")

// Profile is the signed-in user.
type Profile struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Listener is told about every sign-in and sign-out. p is nil when signed out.
type Listener func(p *Profile)

// Session is the identity capability the rest of the app depends on. The
// profile is persisted in the secret store so it survives restarts.
type Session struct {
	mu        sync.Mutex
	store     secret.SecretStore
	profile   *Profile
	listeners map[int]Listener
	nextID    int
}

// NewSession restores a persisted profile from store, if any.
func NewSession(store secret.SecretStore) *Session {
	s := &Session{store: store, listeners: map[int]Listener{}}
	raw, err := store.Get(secret.KeySession)
	if err != nil {
		log.Printf("[auth] restore session: %v", err)
		return s
	}
	if len(raw) > 0 {
		var p Profile
		if err := json.Unmarshal(raw, &p); err != nil || p.UserID == "" {
			log.Printf("[auth] discard unreadable session")
			return s
		}
		s.profile = &p
	}
	return s
}

// CurrentUserID returns the signed-in user's id.
func (s *Session) CurrentUserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return "", false
	}
	return s.profile.UserID, true
}

// Profile returns a copy of the signed-in profile, or nil.
func (s *Session) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// OnAuthChange registers l and calls it right away with the current state.
// The returned func unregisters it.
func (s *Session) OnAuthChange(l Listener) (off func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	current := s.snapshotLocked()
	s.mu.Unlock()

	l(current)
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SignIn starts a local session for email. The same address always maps
// to the same user id, so designs stay attached across sign-outs.
func (s *Session) SignIn(email, displayName string) (*Profile, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", ErrInvalidEmail)
	}
	normalized := strings.ToLower(addr.Address)
	if displayName == "" {
		displayName, _, _ = strings.Cut(normalized, "@")
	}
	p := &Profile{
		UserID:      uuid.NewSHA1(userNamespace, []byte(normalized)).String(),
		Email:       normalized,
		DisplayName: displayName,
	}

	raw, _ := json.Marshal(p)
	if err := s.store.Set(secret.KeySession, raw); err != nil {
		return nil, fmt.Errorf("sign in: persist session: %w", err)
	}

	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	s.notify()
	return s.Profile(), nil
}

// SignOut ends the session. Signing out twice is a no-op.
func (s *Session) SignOut() error {
	s.mu.Lock()
	was := s.profile != nil
	s.profile = nil
	s.mu.Unlock()
	if !was {
		return nil
	}
	if err := s.store.Delete(secret.KeySession); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.notify()
	return nil
}

func (s *Session) snapshotLocked() *Profile {
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

func (s *Session) notify() {
	s.mu.Lock()
	current := s.snapshotLocked()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()
	for _, l := range ls {
		l(current)
	}
}
