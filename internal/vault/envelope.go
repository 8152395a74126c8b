// Package vault implements the authenticated-encryption envelope that
// protects user data at rest. Every persisted payload is sealed with
// AES-256-GCM into a self-describing envelope; given only the envelope
// and the correct key, decryption needs no external state.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// AlgorithmAESGCM identifies the only cipher the vault writes.
	AlgorithmAESGCM = "aes-256-gcm"
	// EncodingBase64 identifies the text encoding of envelope fields.
	EncodingBase64 = "base64"

	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	nonceSize = 12
	tagSize   = 16
)

// Envelope is one ciphertext package. It is a value object: updates to
// the underlying plaintext always produce a fresh envelope.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Tag        string `json:"tag"`
	Encoding   string `json:"encoding"`
	Algorithm  string `json:"algorithm"`
}

// Encrypt seals plaintext under key with AES-256-GCM and a fresh random
// nonce. Encrypting the same plaintext twice yields different envelopes.
func Encrypt(plaintext, key []byte) (Envelope, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return Envelope{}, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Envelope{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(nonce),
		Tag:        base64.StdEncoding.EncodeToString(tag),
		Encoding:   EncodingBase64,
		Algorithm:  AlgorithmAESGCM,
	}, nil
}

// Decrypt opens an envelope. It fails closed: any tampering with the
// ciphertext, nonce or tag, and any wrong key, yields ErrDecryptionFailed
// and never partial plaintext.
func Decrypt(env Envelope, key []byte) ([]byte, error) {
	if env.Algorithm != AlgorithmAESGCM {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, env.Algorithm)
	}
	if env.Encoding != EncodingBase64 {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, env.Encoding)
	}
	if env.IV == "" || env.Tag == "" {
		return nil, fmt.Errorf("%w: missing iv or tag", ErrMalformedEnvelope)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext: %v", ErrMalformedEnvelope, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: bad iv: %v", ErrMalformedEnvelope, err)
	}
	tag, err := base64.StdEncoding.DecodeString(env.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: bad tag: %v", ErrMalformedEnvelope, err)
	}
	if len(nonce) != nonceSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrMalformedEnvelope, nonceSize, len(nonce))
	}
	if len(tag) != tagSize {
		return nil, fmt.Errorf("%w: tag must be %d bytes, got %d", ErrMalformedEnvelope, tagSize, len(tag))
	}

	plaintext, err := aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidKeySize, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init gcm: %w", err)
	}
	return aead, nil
}
