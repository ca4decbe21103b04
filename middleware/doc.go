// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms).

# Authentication

The JSON API requires an X-API-Key minted by package auth:

	mux.HandleFunc("POST /proposals", middleware.RequireAPIKey(salt, h.Submit))

The client name is available to handlers via ClientFrom(r.Context()).

The Discord interactions endpoint is instead authenticated by signature:

	mux.HandleFunc("POST /interactions", middleware.VerifyDiscord(key, h.Handle))

Both reject with 401 before the handler runs.

# CORS Middleware

Allows browser reads of the JSON API (standings pages and the like):

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Map domain errors to status codes (400/403/404/409/500). Infrastructure
details are logged and replaced with a generic message:

	middleware.WriteError(w, r, err)

Parse JSON request bodies:

	var req models.DecisionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP) for logs:

	ip := middleware.GetClientIP(r)
*/
package middleware
