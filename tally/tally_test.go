// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"testing"
	"time"

	"github.com/danielhkuo/courtside/models"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func ballot(voter string, choice models.Decision, offset int) models.Ballot {
	return models.Ballot{VoterID: voter, Choice: choice, CastAt: t0.Add(time.Duration(offset) * time.Minute)}
}

const (
	yes = models.DecisionApprove
	no  = models.DecisionDeny
)

func TestEvaluateMajority(t *testing.T) {
	policy := Majority(CommitteeQuorum)

	tests := []struct {
		name        string
		ballots     []models.Ballot
		wantDecided bool
		wantOutcome models.Decision
		wantApprove int
		wantDeny    int
	}{
		{name: "no ballots"},
		{
			name:        "two approvals",
			ballots:     []models.Ballot{ballot("a", yes, 0), ballot("b", yes, 1)},
			wantApprove: 2,
		},
		{
			name:        "third approval decides",
			ballots:     []models.Ballot{ballot("a", yes, 0), ballot("b", yes, 1), ballot("c", yes, 2)},
			wantDecided: true, wantOutcome: yes, wantApprove: 3,
		},
		{
			name:        "third denial decides",
			ballots:     []models.Ballot{ballot("a", no, 0), ballot("b", yes, 1), ballot("c", no, 2), ballot("d", no, 3)},
			wantDecided: true, wantOutcome: no, wantApprove: 1, wantDeny: 3,
		},
		{
			name:        "same voter counted once",
			ballots:     []models.Ballot{ballot("a", yes, 0), ballot("a", yes, 1), ballot("a", yes, 2)},
			wantApprove: 1,
		},
		{
			name:        "latest ballot per voter wins",
			ballots:     []models.Ballot{ballot("a", yes, 0), ballot("b", yes, 1), ballot("c", yes, 2), ballot("c", no, 3)},
			wantApprove: 2, wantDeny: 1,
		},
		{
			name:        "invalid ballots ignored",
			ballots:     []models.Ballot{ballot("", yes, 0), ballot("b", "maybe", 1)},
			wantApprove: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.ballots, policy)
			if got.Decided != tt.wantDecided || got.Outcome != tt.wantOutcome {
				t.Errorf("decided=%v outcome=%q, want decided=%v outcome=%q",
					got.Decided, got.Outcome, tt.wantDecided, tt.wantOutcome)
			}
			if got.Approve != tt.wantApprove || got.Deny != tt.wantDeny {
				t.Errorf("counts approve=%d deny=%d, want %d/%d",
					got.Approve, got.Deny, tt.wantApprove, tt.wantDeny)
			}
		})
	}
}

func TestEvaluateIsRepeatable(t *testing.T) {
	ballots := []models.Ballot{ballot("a", yes, 0), ballot("b", yes, 1), ballot("c", yes, 2)}
	first := Evaluate(ballots, Majority(CommitteeQuorum))
	second := Evaluate(ballots, Majority(CommitteeQuorum))
	if first != second {
		t.Errorf("repeated evaluation differs: %+v vs %+v", first, second)
	}
}

func TestEvaluateSingleResponder(t *testing.T) {
	if got := Evaluate(nil, SingleResponder()); got.Decided {
		t.Errorf("no ballot should not decide: %+v", got)
	}

	got := Evaluate([]models.Ballot{ballot("s1", no, 0)}, SingleResponder())
	if !got.Decided || got.Outcome != no {
		t.Errorf("expected deny decision, got %+v", got)
	}

	got = Evaluate([]models.Ballot{ballot("s1", no, 0), ballot("s2", yes, 5)}, SingleResponder())
	if got.Outcome != yes {
		t.Errorf("expected latest ballot to decide, got %+v", got)
	}
}

func TestForceAtTimeout(t *testing.T) {
	heads := func() bool { return true }
	tails := func() bool { return false }

	tests := []struct {
		name    string
		ballots []models.Ballot
		tie     TieBreak
		coin    func() bool
		want    models.Decision
	}{
		{name: "no ballots denies", want: no},
		{name: "strict approve majority", ballots: []models.Ballot{ballot("a", yes, 0), ballot("b", yes, 1), ballot("c", no, 2)}, want: yes},
		{name: "strict deny majority", ballots: []models.Ballot{ballot("a", no, 0)}, want: no},
		{name: "tie denies", ballots: []models.Ballot{ballot("a", yes, 0), ballot("b", no, 1)}, want: no},
		{name: "tie coin heads", ballots: []models.Ballot{ballot("a", yes, 0), ballot("b", no, 1)}, tie: TieCoinFlip, coin: heads, want: yes},
		{name: "tie coin tails", ballots: []models.Ballot{ballot("a", yes, 0), ballot("b", no, 1)}, tie: TieCoinFlip, coin: tails, want: no},
		{name: "majority ignores coin", ballots: []models.Ballot{ballot("a", no, 0)}, tie: TieCoinFlip, coin: heads, want: no},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForceAtTimeout(tt.ballots, tt.tie, tt.coin)
			if !got.Decided {
				t.Fatal("timeout tally must always decide")
			}
			if got.Outcome != tt.want {
				t.Errorf("outcome = %q, want %q", got.Outcome, tt.want)
			}
		})
	}
}
