package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// Sealer encrypts member emails at rest with nacl secretbox and produces the
// keyed digest the store uses for equality lookups. It satisfies
// store.EmailCodec.
type Sealer struct {
	key [32]byte
}

// NewSealer builds a Sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("sealer key must be 32 bytes, got %d", len(key))
	}
	s := &Sealer{}
	copy(s.key[:], key)
	return s, nil
}

// Seal encrypts the email. The random nonce is prepended to the box, so the
// output differs on every call.
func (s *Sealer) Seal(email string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(email), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open decrypts a sealed email.
func (s *Sealer) Open(sealed string) (string, error) {
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decoding sealed email: %w", err)
	}
	if len(box) < 24 {
		return "", errors.New("sealed email too short")
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &s.key)
	if !ok {
		return "", errors.New("sealed email failed to open")
	}
	return string(plain), nil
}

// Digest returns a deterministic HMAC of the email, safe to index.
func (s *Sealer) Digest(email string) string {
	mac := hmac.New(sha256.New, s.key[:])
	mac.Write([]byte(email))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
