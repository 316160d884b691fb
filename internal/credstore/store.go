package credstore

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/fntelecomllc/zonepipe/internal/config"
	"github.com/fntelecomllc/zonepipe/internal/errs"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// ErrNotFound is returned by Load when no bundle exists for the
// (service, account) pair.
var ErrNotFound = fmt.Errorf("credstore: not found")

// Store persists and loads encrypted Credential Bundles under
// <root>/credentials/<service>/<account?>.json.
type Store struct {
	layout zonefs.Layout
	key    [32]byte
}

// New returns a Store rooted at layout, sealing bundles with key (see
// config.ResolveCredentialEncryptionKey).
func New(layout zonefs.Layout, key [32]byte) *Store {
	return &Store{layout: layout, key: key}
}

func (s *Store) path(service, account string) string {
	name := account
	if name == "" {
		name = "default"
	}
	return filepath.Join(s.layout.CredentialsPath(service), name+".json")
}

// Load reads and decrypts the bundle for (service, account). It returns
// ErrNotFound if none has been persisted yet.
func (s *Store) Load(service, account string) (Bundle, error) {
	path := s.path(service, account)
	sealed, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Bundle{}, ErrNotFound
		}
		return Bundle{}, errs.New(errs.PathError, service, "credstore", "read "+path, err)
	}

	plain, err := s.open(sealed)
	if err != nil {
		return Bundle{}, errs.New(errs.PathError, service, "credstore", "decrypt "+path, err)
	}

	var b Bundle
	if err := json.Unmarshal(plain, &b); err != nil {
		return Bundle{}, errs.New(errs.PathError, service, "credstore", "parse "+path, err)
	}
	return b, nil
}

// Save encrypts and atomically persists bundle for (service, account).
// Callers are responsible for having already applied FilterDomains to
// bundle.Cookies before calling Save — the Store itself does not know a
// service's declared domains.
func (s *Store) Save(service, account string, b Bundle) error {
	plain, err := json.Marshal(b)
	if err != nil {
		return errs.New(errs.PathError, service, "credstore", "marshal bundle", err)
	}
	sealed := s.seal(plain)

	path := s.path(service, account)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errs.New(errs.PathError, service, "credstore", "create dir", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bundle-*.tmp")
	if err != nil {
		return errs.New(errs.PathError, service, "credstore", "create temp", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.New(errs.PathError, service, "credstore", "write temp", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.PathError, service, "credstore", "close temp", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.PathError, service, "credstore", "chmod temp", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errs.New(errs.PathError, service, "credstore", "rename temp", err)
	}
	return nil
}

// Age returns the duration since the bundle's acquisition timestamp.
func (s *Store) Age(service, account string) (time.Duration, error) {
	b, err := s.Load(service, account)
	if err != nil {
		return 0, err
	}
	return time.Since(b.AcquiredAt), nil
}

// Status computes the credential validity classification against a
// service policy's age thresholds.
func (s *Store) Status(service, account string, policy config.ServicePolicy) Status {
	b, err := s.Load(service, account)
	if err != nil {
		return StatusMissing
	}
	age := time.Since(b.AcquiredAt)
	maxAge := time.Duration(policy.MaxCredentialAgeDays) * 24 * time.Hour
	refreshAt := time.Duration(policy.RefreshThresholdDays) * 24 * time.Hour

	switch {
	case age >= maxAge:
		return StatusExpired
	case age >= refreshAt:
		return StatusExpiringSoon
	default:
		return StatusValid
	}
}

func (s *Store) seal(plain []byte) []byte {
	var nonce [24]byte
	_, _ = rand.Read(nonce[:])
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key)
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	if len(sealed) < 24 {
		return nil, fmt.Errorf("credstore: sealed payload too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("credstore: decryption failed (wrong key or corrupt data)")
	}
	return plain, nil
}
