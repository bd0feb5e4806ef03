package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	keychainService = "studio"
	keychainLabel   = "Studio design editor"
)

// errItemNotFound is exit status 44 of `security`.
const errItemNotFound = 44

// KeychainStore keeps secrets in the macOS login keychain through the
// `security` tool. Every key is a generic password item of the "studio"
// service, with the key as its account.
type KeychainStore struct{}

func NewKeychainStore() *KeychainStore {
	return &KeychainStore{}
}

func (k *KeychainStore) Set(key string, value []byte) error {
	_, err := security("add-generic-password",
		"-U",
		"-a", key,
		"-s", keychainService,
		"-l", keychainLabel,
		"-w", string(value),
	)
	if err != nil {
		return fmt.Errorf("keychain set %s: %w", key, err)
	}
	return nil
}

// Get returns nil, nil for a key that was never stored.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := security("find-generic-password", "-a", key, "-s", keychainService, "-w")
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("keychain get %s: %w", key, err)
	}
	return []byte(strings.TrimRight(out, "\n")), nil
}

// Delete is a no-op for a missing key.
func (k *KeychainStore) Delete(key string) error {
	_, err := security("delete-generic-password", "-a", key, "-s", keychainService)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("keychain delete %s: %w", key, err)
	}
	return nil
}

func security(args ...string) (string, error) {
	out, err := exec.Command("security", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s: %w", strings.TrimSpace(string(exitErr.Stderr)), err)
		}
		return "", err
	}
	return string(out), nil
}

func isNotFound(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == errItemNotFound
}
