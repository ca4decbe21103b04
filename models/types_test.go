// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusAwaitingCounterparty, false},
		{StatusInCommittee, false},
		{StatusApproved, true},
		{StatusDenied, true},
		{StatusExpired, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestProposalRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline := created.Add(48 * time.Hour)

	original := Proposal{
		ID:             "trade_1",
		Kind:           KindTrade,
		ProposerID:     "coach-bos",
		CounterpartyID: "coach-lal",
		Trade: &TradePayload{
			FromTeam: "Boston Celtics",
			ToTeam:   "Los Angeles Lakers",
			Give:     "Jaylen Brown, 2026 1st",
			Receive:  "Anthony Davis",
		},
		Status:    StatusInCommittee,
		CreatedAt: created,
		UpdatedAt: created,
		Deadline:  &deadline,
		Response:  &CounterpartyResponse{ResponderID: "coach-lal", Decision: DecisionApprove, RespondedAt: created},
		Ballots: []Ballot{
			{VoterID: "c1", Choice: DecisionApprove, CastAt: created},
			{VoterID: "c2", Choice: DecisionDeny, CastAt: created},
		},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var reloaded Proposal
	if err := json.Unmarshal(data, &reloaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if diff := cmp.Diff(original, reloaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProposalBallotLookup(t *testing.T) {
	p := Proposal{Ballots: []Ballot{{VoterID: "c1", Choice: DecisionDeny}}}

	if b, ok := p.Ballot("c1"); !ok || b.Choice != DecisionDeny {
		t.Errorf("expected c1 deny ballot, got %+v %v", b, ok)
	}
	if _, ok := p.Ballot("c9"); ok {
		t.Error("expected no ballot for c9")
	}
}
