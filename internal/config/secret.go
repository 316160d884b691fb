package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

// secretboxKeySize is the key size required by nacl/secretbox.
const secretboxKeySize = 32

// ResolveCredentialEncryptionKey returns the 32-byte key used to seal
// Credential Bundles at rest. It mirrors the teacher's
// internal/config/secret_manager.go pattern of a lazily-provisioned local
// secret: CREDENTIAL_ENCRYPTION_KEY from the environment is stretched with
// scrypt, falling back to a key generated once and persisted (mode 0600)
// under <project root>/credentials/.key.
func ResolveCredentialEncryptionKey(projectRoot string) ([32]byte, error) {
	var key [32]byte

	if passphrase := os.Getenv("CREDENTIAL_ENCRYPTION_KEY"); passphrase != "" {
		derived, err := scrypt.Key([]byte(passphrase), []byte("zonepipe-credential-store"), 1<<15, 8, 1, secretboxKeySize)
		if err != nil {
			return key, fmt.Errorf("config: derive credential key: %w", err)
		}
		copy(key[:], derived)
		return key, nil
	}

	keyPath := filepath.Join(projectRoot, "credentials", ".key")
	if b, err := os.ReadFile(keyPath); err == nil && len(b) == secretboxKeySize {
		copy(key[:], b)
		return key, nil
	}

	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("config: generate credential key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return key, fmt.Errorf("config: create credential dir: %w", err)
	}
	if err := os.WriteFile(keyPath, key[:], 0o600); err != nil {
		return key, fmt.Errorf("config: persist credential key: %w", err)
	}
	return key, nil
}
