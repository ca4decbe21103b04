// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package discord

import (
	"crypto/ed25519"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// VerifyRequest checks the ed25519 signature Discord puts on every
// interaction request. The body is restored for the next reader.
func VerifyRequest(r *http.Request, key ed25519.PublicKey) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}
	return discordgo.VerifyInteraction(r, key)
}
