package secret

import (
	"os"
	"strings"
)

// EnvStore reads secrets from environment variables, STUDIO_ followed by
// the upper-cased key with separators as underscores: "backend:password"
// is STUDIO_BACKEND_PASSWORD. Writes only affect this process.
type EnvStore struct{}

func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

// EnvName returns the variable that holds key.
func EnvName(key string) string {
	r := strings.NewReplacer(":", "_", "-", "_", ".", "_")
	return "STUDIO_" + strings.ToUpper(r.Replace(key))
}

func (e *EnvStore) Set(key string, value []byte) error {
	return os.Setenv(EnvName(key), string(value))
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(EnvName(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (e *EnvStore) Delete(key string) error {
	return os.Unsetenv(EnvName(key))
}
