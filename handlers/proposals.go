// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/courtside/engine"
	"github.com/danielhkuo/courtside/middleware"
	"github.com/danielhkuo/courtside/models"
)

type ProposalHandler struct {
	engine *engine.Engine
}

func NewProposalHandler(e *engine.Engine) *ProposalHandler {
	return &ProposalHandler{engine: e}
}

// Submit handles POST /proposals
func (h *ProposalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitProposalRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ProposerID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "proposerId is required")
		return
	}

	p, err := h.engine.Submit(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("proposal submitted via api", "proposal_id", p.ID, "client", middleware.ClientFrom(r.Context()))
	middleware.JSONResponse(w, http.StatusCreated, p)
}

// Get handles GET /proposals/{id}
func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, p)
}

// List handles GET /proposals?kind=trade&active=true
func (h *ProposalHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := models.Kind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "kind must be trade, score or progression")
		return
	}

	list := h.engine.List
	if r.URL.Query().Get("active") == "true" {
		list = h.engine.ListActive
	}
	proposals, err := list(r.Context(), kind)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if proposals == nil {
		proposals = []models.Proposal{}
	}
	middleware.JSONResponse(w, http.StatusOK, models.ProposalListResponse{Proposals: proposals})
}

// Respond handles POST /proposals/{id}/response
func (h *ProposalHandler) Respond(w http.ResponseWriter, r *http.Request) {
	req, ok := parseDecision(w, r)
	if !ok {
		return
	}
	tr, err := h.engine.RespondCounterparty(r.Context(), r.PathValue("id"), req.ActorID, req.Decision)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, transitionResponse(tr))
}

// Vote handles POST /proposals/{id}/votes
func (h *ProposalHandler) Vote(w http.ResponseWriter, r *http.Request) {
	req, ok := parseDecision(w, r)
	if !ok {
		return
	}
	tr, err := h.engine.CastVote(r.Context(), r.PathValue("id"), req.ActorID, req.Decision)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, transitionResponse(tr))
}

func parseDecision(w http.ResponseWriter, r *http.Request) (models.DecisionRequest, bool) {
	var req models.DecisionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}
	if req.ActorID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "actorId is required")
		return req, false
	}
	if !req.Decision.Valid() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "decision must be approve or deny")
		return req, false
	}
	return req, true
}

func transitionResponse(tr engine.Transition) models.TransitionResponse {
	return models.TransitionResponse{
		ProposalID: tr.ProposalID,
		From:       tr.From,
		To:         tr.To,
		Changed:    tr.Changed,
		Report:     tr.Report,
	}
}
