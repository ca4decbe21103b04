// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/courtside/middleware"
	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/season"
)

type SeasonHandler struct {
	svc *season.Service
}

func NewSeasonHandler(svc *season.Service) *SeasonHandler {
	return &SeasonHandler{svc: svc}
}

// Standings handles GET /standings
func (h *SeasonHandler) Standings(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Standings(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Schedule handles GET /schedule?week=N (current week when omitted)
func (h *SeasonHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	week := 0
	if s := r.URL.Query().Get("week"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "week must be a positive number")
			return
		}
		week = n
	}
	resp, err := h.svc.Schedule(r.Context(), week)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Roster handles GET /teams/{team}/roster
func (h *SeasonHandler) Roster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.svc.Roster(r.Context(), r.PathValue("team"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, roster)
}

func parseSeasonRequest(w http.ResponseWriter, r *http.Request) (models.SeasonRequest, bool) {
	var req models.SeasonRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}
	if req.ActorID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "actorId is required")
		return req, false
	}
	return req, true
}

// Start handles POST /season/start
func (h *SeasonHandler) Start(w http.ResponseWriter, r *http.Request) {
	req, ok := parseSeasonRequest(w, r)
	if !ok {
		return
	}
	s, err := h.svc.Start(r.Context(), req.ActorID, req.Confirm)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, s)
}

// Advance handles POST /season/advance
func (h *SeasonHandler) Advance(w http.ResponseWriter, r *http.Request) {
	req, ok := parseSeasonRequest(w, r)
	if !ok {
		return
	}
	s, err := h.svc.AdvanceWeek(r.Context(), req.ActorID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, s)
}

// Simulate handles POST /season/simulate
func (h *SeasonHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	req, ok := parseSeasonRequest(w, r)
	if !ok {
		return
	}
	recorded, err := h.svc.SimulateThrough(r.Context(), req.ActorID, req.Week)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if recorded == nil {
		recorded = []models.GameRecord{}
	}
	middleware.JSONResponse(w, http.StatusOK, models.SimulateResponse{Recorded: recorded})
}

// ForceResult handles POST /season/force-result
func (h *SeasonHandler) ForceResult(w http.ResponseWriter, r *http.Request) {
	var req models.ForceResultRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ActorID == "" || req.Winner == "" || req.Loser == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "actorId, winner and loser are required")
		return
	}
	rec, err := h.svc.ForceResult(r.Context(), req.ActorID, req.Winner, req.Loser, req.Week)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, rec)
}

// ResetScouting handles POST /season/reset-scouting
func (h *SeasonHandler) ResetScouting(w http.ResponseWriter, r *http.Request) {
	req, ok := parseSeasonRequest(w, r)
	if !ok {
		return
	}
	board, err := h.svc.ResetScouting(r.Context(), req.ActorID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, board)
}

// TradeBlock handles GET /trade-block
func (h *SeasonHandler) TradeBlock(w http.ResponseWriter, r *http.Request) {
	block, err := h.svc.TradeBlock(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, block)
}

func parseBlockRequest(w http.ResponseWriter, r *http.Request) (models.TradeBlockRequest, bool) {
	var req models.TradeBlockRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}
	if req.ActorID == "" || req.Entry == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "actorId and entry are required")
		return req, false
	}
	return req, true
}

// AddToBlock handles POST /trade-block
func (h *SeasonHandler) AddToBlock(w http.ResponseWriter, r *http.Request) {
	req, ok := parseBlockRequest(w, r)
	if !ok {
		return
	}
	block, err := h.svc.AddToBlock(r.Context(), req.ActorID, req.Team, req.Entry)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, block)
}

// RemoveFromBlock handles DELETE /trade-block
func (h *SeasonHandler) RemoveFromBlock(w http.ResponseWriter, r *http.Request) {
	req, ok := parseBlockRequest(w, r)
	if !ok {
		return
	}
	block, err := h.svc.RemoveFromBlock(r.Context(), req.ActorID, req.Team, req.Entry)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, block)
}

// Scouting handles GET /scouting
func (h *SeasonHandler) Scouting(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Scouting(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, board)
}

// AddScoutingReport handles POST /scouting
func (h *SeasonHandler) AddScoutingReport(w http.ResponseWriter, r *http.Request) {
	var req models.ScoutingRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ActorID == "" || req.Team == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "actorId and team are required")
		return
	}
	board, err := h.svc.AddScoutingReport(r.Context(), req.ActorID, req.Team, req.Report)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, board)
}
