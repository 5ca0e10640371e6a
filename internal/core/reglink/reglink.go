// Package reglink seals the phone number carried by a registration link so
// only this service can read it back.
package reglink

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/markdave123-py/alemana-chat/internal/core/identity"
)

const nonceSize = 24

var (
	ErrInvalidToken = errors.New("invalid registration token")
	ErrInvalidPhone = errors.New("registration token does not hold a valid phone number")
)

// Sealer encrypts and authenticates phone numbers with a key derived from
// an operator secret.
type Sealer struct {
	key [32]byte
}

func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("reglink secret is empty")
	}
	s := &Sealer{}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("alemana registration link"))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return s, nil
}

// Seal returns a URL-safe token for phone. The phone must be 10 to 15 digits.
func (s *Sealer) Seal(phone string) (string, error) {
	if !identity.IsValidPhoneDigits(phone) {
		return "", ErrInvalidPhone
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(phone), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Tokens that were tampered with, sealed under another
// secret or that hold anything but a phone number are rejected.
func (s *Sealer) Open(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidToken
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrInvalidToken
	}
	phone := string(plain)
	if !identity.IsValidPhoneDigits(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// Link appends a sealed phone to baseURL as the data query parameter.
func (s *Sealer) Link(baseURL, phone string) (string, error) {
	token, err := s.Seal(phone)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("data", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
