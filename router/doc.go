// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the courtside bot.

# Route Registration

NewRouter wires the handlers into an http.ServeMux wrapped in CORS:

	h := router.NewRouter(router.Deps{
		Engine:     eng,
		Season:     svc,
		APIKeySalt: cfg.APIKeySalt,
		PublicKey:  publicKey,
	})

# Endpoints

Health:

	GET /health

Discord (signature checked, only with a public key):

	POST /interactions

Proposals (requires X-API-Key):

	POST /proposals                - Submit a trade, score or progression
	GET  /proposals                - List (?kind=, ?active=true)
	GET  /proposals/{id}           - Get one proposal
	POST /proposals/{id}/response  - Counter-party decision
	POST /proposals/{id}/votes     - Committee or staff ballot

League (requires X-API-Key):

	GET  /standings
	GET  /schedule?week=
	GET  /teams/{team}/roster
	POST /season/start | advance | simulate | force-result | reset-scouting
	GET|POST|DELETE /trade-block
	GET|POST /scouting
*/
package router
