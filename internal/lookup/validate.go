package lookup

import (
	"github.com/cockroachdb/errors"
	"github.com/mr-tron/base58"
)

const (
	signatureLen = 64
	pubkeyLen    = 32
)

// Input errors, reported before any network access.
var (
	ErrInvalidSignature = errors.New("invalid transaction signature")
	ErrInvalidMint      = errors.New("invalid mint address")
)

// ValidateSignature checks that sig is base58 encoding of 64 bytes.
// It does not verify the signature cryptographically.
func ValidateSignature(sig string) error {
	return checkBase58(sig, signatureLen, ErrInvalidSignature)
}

// ValidateMint checks that mint is base58 encoding of a 32-byte public key.
func ValidateMint(mint string) error {
	return checkBase58(mint, pubkeyLen, ErrInvalidMint)
}

func checkBase58(s string, size int, kind error) error {
	if s == "" {
		return errors.Wrap(kind, "empty")
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return errors.Wrapf(kind, "%q is not base58: %v", s, err)
	}
	if len(decoded) != size {
		return errors.Wrapf(kind, "%q decodes to %d bytes, want %d", s, len(decoded), size)
	}
	return nil
}
