package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ParseMasterKey decodes the configured 64-character hex master key into
// 32 key bytes. Any other length or a non-hex string is a configuration
// error.
func ParseMasterKey(hexKey string) ([]byte, error) {
	if len(hexKey) != KeySize*2 {
		return nil, fmt.Errorf("%w: need %d hex characters, got %d", ErrInvalidMasterKey, KeySize*2, len(hexKey))
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMasterKey, err)
	}
	return key, nil
}

// DeriveKey derives the per-user-per-scope record key from the process
// master key via HKDF-SHA256. The user id and scope only salt the
// derivation; without the master key they reveal nothing about the
// record key.
func DeriveKey(master []byte, userID, scope string) ([]byte, error) {
	if len(master) != KeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidKeySize, KeySize, len(master))
	}

	info := []byte("hushhmcp/vault/v1|" + userID + "|" + scope)
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, info), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
