// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides API key and signature key utilities.

# API Keys

The JSON API is for league tooling (scripts, a future web page), not for
members. Each client gets an HMAC-SHA256 key derived from its name:

	key, err := auth.GenerateAPIKey("standings-page", salt)
	// standings-page.3q2+7w...

	client, err := auth.ValidateAPIKey(key, salt)

The signature is URL-safe base64 without padding. Keys are deterministic
from the client name and salt, so validation needs no storage; rotating
API_KEY_SALT revokes every key at once. Print a key with:

	courtside -keygen standings-page

# Discord Public Key

ParsePublicKey decodes the hex ed25519 key Discord shows for the
application. Interaction requests are verified against it (see package
discord).
*/
package auth
