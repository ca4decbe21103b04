// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAPIKey    = errors.New("invalid api key")
	ErrInvalidToken     = errors.New("invalid token format")
	ErrInvalidPublicKey = errors.New("invalid public key")
)

// keySep separates the client name from its signature.
const keySep = "."

func sign(client, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(client))
	sum := h.Sum(nil)
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// GenerateAPIKey creates the key for an API client: "<client>.<hmac>".
// Keys are deterministic, so nothing has to be stored to validate them.
func GenerateAPIKey(client, salt string) (string, error) {
	if client == "" || strings.Contains(client, keySep) {
		return "", fmt.Errorf("%w: client name must be non-empty and contain no %q", ErrInvalidToken, keySep)
	}
	return client + keySep + sign(client, salt), nil
}

// ValidateAPIKey checks key against salt and returns the client it names.
func ValidateAPIKey(key, salt string) (string, error) {
	client, sig, ok := strings.Cut(key, keySep)
	if !ok || client == "" || sig == "" {
		return "", ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(sign(client, salt))) {
		return "", ErrInvalidAPIKey
	}
	return client, nil
}

// ParsePublicKey decodes the hex ed25519 key shown on the Discord
// application page.
func ParsePublicKey(hexKey string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, ed25519.PublicKeySize, len(b))
	}
	return ed25519.PublicKey(b), nil
}
