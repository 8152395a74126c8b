package vault

import "errors"

var (
	// ErrInvalidKeySize means the key is not the 32 bytes AES-256 needs.
	ErrInvalidKeySize = errors.New("invalid key size")
	// ErrMalformedEnvelope means the envelope is missing fields or its
	// encoded fields do not decode.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrDecryptionFailed means the authentication tag did not verify.
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrUnsupportedAlgorithm means the envelope records a cipher this
	// implementation does not handle.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrUnsupportedEncoding means the envelope records a field encoding
	// this implementation does not handle.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	// ErrInvalidMasterKey means the configured master key is not a
	// 64-character hex string.
	ErrInvalidMasterKey = errors.New("invalid master key")
)
