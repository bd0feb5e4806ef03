package secret_test

import (
	"testing"

	"studio/internal/secret"
)

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		secret.KeyBackendPassword: "STUDIO_BACKEND_PASSWORD",
		secret.KeyRemovalAPIKey:   "STUDIO_REMOVAL_API_KEY",
		secret.KeyChatAPIKey:      "STUDIO_CHAT_API_KEY",
		"auth:session":            "STUDIO_AUTH_SESSION",
	}
	for key, want := range tests {
		if got := secret.EnvName(key); got != want {
			t.Errorf("EnvName(%q) = %s, want %s", key, got, want)
		}
	}
}

func TestEnvStore(t *testing.T) {
	t.Setenv("STUDIO_BACKEND_PASSWORD", "hunter2")
	s := secret.NewEnvStore()

	v, err := s.Get(secret.KeyBackendPassword)
	if err != nil || string(v) != "hunter2" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	s.Delete(secret.KeyBackendPassword)
	if v, _ := s.Get(secret.KeyBackendPassword); v != nil {
		t.Errorf("after delete = %q", v)
	}
}

func TestMemoryStore(t *testing.T) {
	s := secret.NewMemoryStore()
	if v, err := s.Get("missing"); v != nil || err != nil {
		t.Fatalf("missing key = %q, %v", v, err)
	}
	buf := []byte("token")
	s.Set("k", buf)
	buf[0] = 'X'
	if v, _ := s.Get("k"); string(v) != "token" {
		t.Errorf("stored value aliased the caller's slice: %q", v)
	}
}
