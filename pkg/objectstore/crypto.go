package objectstore

import (
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

// Cipher wraps a single Fernet key (original_source/MDSAWS.py's
// cryptography.fernet.Fernet boundary). Fernet tokens are versioned,
// timestamped, URL-safe base64 strings: a leading 0x80 version byte
// followed by an 8-byte big-endian timestamp. For any realistic unix
// timestamp the top several timestamp bytes are zero, so the base64
// encoding of byte 0 (0x80) always starts "gA" and the run of zero
// timestamp bytes base64-encodes to a run of "A" characters - this is
// the origin of the is_encrypted heuristic `token[1:6] == "AAAAA"`
// used throughout the original pipeline.
type Cipher struct {
	key *fernet.Key
}

// NewCipher decodes a base64url-encoded 32-byte Fernet key.
func NewCipher(encodedKey string) (*Cipher, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("objectstore: decode fernet key: %w", err)
	}
	return &Cipher{key: key}, nil
}

// Encrypt returns a Fernet token for plaintext.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	tok, err := fernet.EncryptAndSign(plaintext, c.key)
	if err != nil {
		return nil, fmt.Errorf("objectstore: fernet encrypt: %w", err)
	}
	return tok, nil
}

// maxTokenAge bounds how old a Fernet token may be before VerifyAndDecrypt
// rejects it. Blobs in this pipeline can be read back years after they
// were written, so the ttl is effectively unbounded.
const maxTokenAge = 100 * 365 * 24 * time.Hour

// Decrypt verifies and decrypts a Fernet token.
func (c *Cipher) Decrypt(token []byte) ([]byte, error) {
	plaintext := fernet.VerifyAndDecrypt(token, maxTokenAge, []*fernet.Key{c.key})
	if plaintext == nil {
		return nil, fmt.Errorf("objectstore: fernet token invalid or expired")
	}
	return plaintext, nil
}

// IsEncrypted reports whether body looks like a Fernet token, replicating
// the original pipeline's `input_string[1:6] == "AAAAA"` heuristic: a
// version-0x80 token with a near-zero timestamp base64-encodes with
// "AAAAA" at positions 1-5.
func IsEncrypted(body []byte) bool {
	if len(body) < 6 {
		return false
	}
	return string(body[1:6]) == "AAAAA"
}
