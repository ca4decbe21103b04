// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/courtside/models"
)

type fakePresenter struct {
	mu   sync.Mutex
	sent []Message
	fail map[string]bool // target strings that fail
}

func (f *fakePresenter) Deliver(ctx context.Context, msg Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[msg.Target.String()] {
		return "", errors.New("dms disabled")
	}
	f.sent = append(f.sent, msg)
	return "msg-" + msg.Target.String(), nil
}

func (f *fakePresenter) targets() map[string]Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]Message)
	for _, m := range f.sent {
		out[m.Target.String()] = m
	}
	return out
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func tradeProposal(status models.Status) models.Proposal {
	deadline := now.Add(23 * time.Hour)
	return models.Proposal{
		ID:             "trade_abc",
		Kind:           models.KindTrade,
		ProposerID:     "coach-bos",
		CounterpartyID: "coach-lal",
		Trade:          &models.TradePayload{FromTeam: "Boston Celtics", ToTeam: "Los Angeles Lakers", Give: "Jaylen Brown", Receive: "Austin Reaves"},
		Status:         status,
		Deadline:       &deadline,
	}
}

func newTestNotifier(p Presenter) *Notifier {
	n := New(p, Channels{Committee: "committee", Staff: "staff", Approved: "approved", Denied: "denied"})
	n.SetRenderer(Renderer{Now: func() time.Time { return now }})
	return n
}

func TestActionIDRoundTrip(t *testing.T) {
	id := ActionID(ActionVote, "trade_abc", models.DecisionDeny)
	action, pid, d, err := ParseActionID(id)
	if err != nil {
		t.Fatalf("ParseActionID failed: %v", err)
	}
	if action != ActionVote || pid != "trade_abc" || d != models.DecisionDeny {
		t.Errorf("got %q %q %q", action, pid, d)
	}

	for _, bad := range []string{"", "vote:x", "poll:x:approve", "vote::approve", "cp:x:maybe"} {
		if _, _, _, err := ParseActionID(bad); err == nil {
			t.Errorf("ParseActionID(%q) should fail", bad)
		}
	}
}

func TestOpenedRouting(t *testing.T) {
	tests := []struct {
		name       string
		proposal   models.Proposal
		wantTarget string
		wantPrefix string
	}{
		{name: "counterparty dm", proposal: tradeProposal(models.StatusAwaitingCounterparty), wantTarget: "dm:coach-lal", wantPrefix: "cp:"},
		{name: "trade committee", proposal: tradeProposal(models.StatusInCommittee), wantTarget: "channel:committee", wantPrefix: "vote:"},
		{
			name: "progression goes to staff",
			proposal: models.Proposal{
				ID: "progression_1", Kind: models.KindProgression, ProposerID: "coach-bos",
				Progression: &models.ProgressionPayload{Player: "Jayson Tatum", SkillSet: "Shooting", Upgrade: "+1 3PT"},
				Status:      models.StatusInCommittee,
			},
			wantTarget: "channel:staff",
			wantPrefix: "vote:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakePresenter{}
			id, err := newTestNotifier(fp).Opened(context.Background(), tt.proposal)
			if err != nil {
				t.Fatalf("Opened failed: %v", err)
			}
			if id != "msg-"+tt.wantTarget {
				t.Errorf("message id = %q", id)
			}
			msg, ok := fp.targets()[tt.wantTarget]
			if !ok {
				t.Fatalf("nothing delivered to %s", tt.wantTarget)
			}
			if len(msg.Buttons) != 2 || !strings.HasPrefix(msg.Buttons[0].CustomID, tt.wantPrefix) {
				t.Errorf("unexpected buttons: %+v", msg.Buttons)
			}
		})
	}
}

func TestOpenedRendersDeadline(t *testing.T) {
	fp := &fakePresenter{}
	if _, err := newTestNotifier(fp).Opened(context.Background(), tradeProposal(models.StatusAwaitingCounterparty)); err != nil {
		t.Fatal(err)
	}
	msg := fp.targets()["dm:coach-lal"]
	found := false
	for _, f := range msg.Fields {
		if f.Name == "Deadline" && f.Value == "23 hours from now" {
			found = true
		}
	}
	if !found {
		t.Errorf("deadline field missing or wrong: %+v", msg.Fields)
	}
}

func TestResolvedFanout(t *testing.T) {
	p := tradeProposal(models.StatusApproved)
	p.ResolvedBy = "c3"
	report := &models.ApplyReport{Warnings: []string{"unmatched asset skipped: Austin Reaves"}}

	fp := &fakePresenter{}
	if err := newTestNotifier(fp).Resolved(context.Background(), p, report); err != nil {
		t.Fatalf("Resolved failed: %v", err)
	}

	got := fp.targets()
	for _, want := range []string{"dm:coach-bos", "dm:coach-lal", "channel:approved"} {
		if _, ok := got[want]; !ok {
			t.Errorf("missing delivery to %s", want)
		}
	}
	if _, ok := got["channel:denied"]; ok {
		t.Error("approved trade must not go to the denied channel")
	}

	msg := got["channel:approved"]
	hasWarning := false
	for _, f := range msg.Fields {
		if f.Name == "Warnings" && strings.Contains(f.Value, "Austin Reaves") {
			hasWarning = true
		}
	}
	if !hasWarning {
		t.Error("apply warnings should be surfaced in the resolution")
	}
}

func TestResolvedDeliveryFailureIsIsolated(t *testing.T) {
	p := tradeProposal(models.StatusDenied)
	fp := &fakePresenter{fail: map[string]bool{"dm:coach-bos": true}}

	err := newTestNotifier(fp).Resolved(context.Background(), p, nil)
	if err == nil {
		t.Fatal("expected delivery error to be reported")
	}

	got := fp.targets()
	if _, ok := got["dm:coach-lal"]; !ok {
		t.Error("counter-party should still be notified")
	}
	if _, ok := got["channel:denied"]; !ok {
		t.Error("denied channel should still be notified")
	}
}

func TestRegressionDue(t *testing.T) {
	fp := &fakePresenter{}
	n := newTestNotifier(fp)
	err := n.RegressionDue(context.Background(), models.RegressionNotice{
		ProposalID: "progression_1", Player: "Jayson Tatum", SkillSet: "Shooting",
		MemberID: "coach-bos", Points: 1, DueAt: now.Add(-time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	msg, ok := fp.targets()["dm:coach-bos"]
	if !ok || !strings.Contains(msg.Body, "1-point regression") {
		t.Errorf("unexpected regression message: %+v", msg)
	}
}

func TestLogPresenterIDs(t *testing.T) {
	var lp LogPresenter
	a, _ := lp.Deliver(context.Background(), Message{Title: "a"})
	b, _ := lp.Deliver(context.Background(), Message{Title: "b"})
	if a == b || a == "" {
		t.Errorf("ids should be unique, got %q and %q", a, b)
	}
}
