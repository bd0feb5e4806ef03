package secret

// SecretStore holds sensitive values such as the backend password and
// provider API keys. Keys are namespaced "area:name", e.g.
// "backend:password" or "auth:session".
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// Well-known keys.
const (
	KeyBackendPassword = "backend:password"
	KeyRemovalAPIKey   = "removal:api_key"
	KeyChatAPIKey      = "chat:api_key"
	KeySession         = "auth:session"
)
