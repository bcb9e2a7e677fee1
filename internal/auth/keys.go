// Package auth issues and verifies read-grant tokens and enforces the read policy
// for taxonomies.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// keyFile holds the grant token key, hex encoded, under the data path.
const keyFile = "auth.key"

// keyLength is the PASETO v4.local key size.
const keyLength = 32

// LoadOrGenerateKey returns the symmetric key that seals grant tokens. A data
// path without a key file gets a fresh key, so tokens survive restarts but not
// a wiped data directory. An unreadable or malformed key file is an error:
// replacing it would silently revoke every issued grant.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	path := filepath.Join(dataPath, keyFile)

	raw, err := os.ReadFile(path) //#nosec G304 -- path is the configured data directory
	switch {
	case err == nil:
		return decodeKey(raw)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read grant token key: %w", err)
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate grant token key: %w", err)
	}
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save grant token key: %w", err)
	}
	return key, nil
}

func decodeKey(raw []byte) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("grant token key %s is not hex: %w", keyFile, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("grant token key %s has %d bytes, want %d", keyFile, len(key), keyLength)
	}
	return key, nil
}
