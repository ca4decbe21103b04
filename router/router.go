// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"crypto/ed25519"
	"net/http"

	"github.com/danielhkuo/courtside/engine"
	"github.com/danielhkuo/courtside/handlers"
	"github.com/danielhkuo/courtside/middleware"
	"github.com/danielhkuo/courtside/season"
)

// Deps are the services the routes are served from.
type Deps struct {
	Engine *engine.Engine
	Season *season.Service

	// APIKeySalt signs the JSON API keys.
	APIKeySalt string

	// PublicKey verifies Discord interactions. Without it the
	// interactions endpoint is not registered.
	PublicKey ed25519.PublicKey

	// Followup answers interactions that run past the reply budget.
	Followup handlers.Followup
}

func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	proposals := handlers.NewProposalHandler(deps.Engine)
	seasons := handlers.NewSeasonHandler(deps.Season)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Discord interactions
	if len(deps.PublicKey) == ed25519.PublicKeySize {
		interactions := handlers.NewInteractionHandler(deps.Engine, deps.Season, deps.Followup)
		mux.HandleFunc("POST /interactions", middleware.WithLogging(middleware.VerifyDiscord(deps.PublicKey, interactions.Handle)))
	}

	api := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAPIKey(deps.APIKeySalt, h))
	}

	// Proposals
	mux.HandleFunc("POST /proposals", api(proposals.Submit))
	mux.HandleFunc("GET /proposals", api(proposals.List))
	mux.HandleFunc("GET /proposals/{id}", api(proposals.Get))
	mux.HandleFunc("POST /proposals/{id}/response", api(proposals.Respond))
	mux.HandleFunc("POST /proposals/{id}/votes", api(proposals.Vote))

	// League views
	mux.HandleFunc("GET /standings", api(seasons.Standings))
	mux.HandleFunc("GET /schedule", api(seasons.Schedule))
	mux.HandleFunc("GET /teams/{team}/roster", api(seasons.Roster))

	// Season commands (staff)
	mux.HandleFunc("POST /season/start", api(seasons.Start))
	mux.HandleFunc("POST /season/advance", api(seasons.Advance))
	mux.HandleFunc("POST /season/simulate", api(seasons.Simulate))
	mux.HandleFunc("POST /season/force-result", api(seasons.ForceResult))
	mux.HandleFunc("POST /season/reset-scouting", api(seasons.ResetScouting))

	// Boards
	mux.HandleFunc("GET /trade-block", api(seasons.TradeBlock))
	mux.HandleFunc("POST /trade-block", api(seasons.AddToBlock))
	mux.HandleFunc("DELETE /trade-block", api(seasons.RemoveFromBlock))
	mux.HandleFunc("GET /scouting", api(seasons.Scouting))
	mux.HandleFunc("POST /scouting", api(seasons.AddScoutingReport))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("courtside API v1"))
	})

	return middleware.CORS(mux)
}
