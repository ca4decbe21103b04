// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/courtside/apperr"
	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/notify"
	"github.com/danielhkuo/courtside/outcome"
	"github.com/danielhkuo/courtside/store"
	"github.com/danielhkuo/courtside/tally"
	"github.com/danielhkuo/courtside/testutil"
)

type fixture struct {
	e       *Engine
	s       *store.Store
	clock   *testutil.Clock
	pres    *testutil.RecordingPresenter
	applier *outcome.Applier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := testutil.NewStore(t)
	testutil.SeedLeague(t, s)
	clock := testutil.NewClock()
	cfg := testutil.GetTestConfig()

	applier := outcome.New(s, cfg.RegressionDelay)
	applier.SetClock(clock.Now)

	pres := &testutil.RecordingPresenter{}
	n := notify.New(pres, notify.Channels{
		Committee: cfg.CommitteeChannelID,
		Staff:     cfg.StaffChannelID,
		Approved:  cfg.ApprovedChannelID,
		Denied:    cfg.DeniedChannelID,
	})
	n.SetRenderer(notify.Renderer{Now: clock.Now})

	reg := testutil.Registry()
	e := New(Deps{
		Store:     s,
		Teams:     reg,
		Directory: reg,
		Applier:   applier,
		Notifier:  n,
		Config: Config{
			CommitteeRoleID:    cfg.CommitteeRoleID,
			StaffRoleID:        cfg.StaffRoleID,
			AdminRoleIDs:       cfg.AdminRoleIDs,
			CounterpartyWindow: cfg.CounterpartyWindow,
			CommitteeWindow:    cfg.CommitteeWindow,
			ScoreRetention:     cfg.ScoreRetention,
		},
	})
	e.SetClock(clock.Now)

	return &fixture{e: e, s: s, clock: clock, pres: pres, applier: applier}
}

func (f *fixture) submitTrade(t *testing.T) models.Proposal {
	t.Helper()
	p, err := f.e.Submit(context.Background(), models.SubmitProposalRequest{
		Kind:       models.KindTrade,
		ProposerID: testutil.CoachBOS,
		Trade:      &models.TradePayload{ToTeam: "Lakers", Give: "Jaylen Brown, 2026 2nd pick", Receive: "Austin Reaves"},
	})
	if err != nil {
		t.Fatalf("Submit trade failed: %v", err)
	}
	return p
}

func (f *fixture) escalate(t *testing.T, id string) {
	t.Helper()
	tr, err := f.e.RespondCounterparty(context.Background(), id, testutil.CoachLAL, models.DecisionApprove)
	if err != nil {
		t.Fatalf("RespondCounterparty failed: %v", err)
	}
	if tr.To != models.StatusInCommittee {
		t.Fatalf("expected in_committee, got %s", tr.To)
	}
}

func (f *fixture) vote(t *testing.T, id, voter string, choice models.Decision) Transition {
	t.Helper()
	tr, err := f.e.CastVote(context.Background(), id, voter, choice)
	if err != nil {
		t.Fatalf("CastVote(%s) failed: %v", voter, err)
	}
	return tr
}

func (f *fixture) get(t *testing.T, id string) models.Proposal {
	t.Helper()
	p, err := f.e.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	return p
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s: %v", kind, got, err)
	}
}

func TestSubmitTradeRoutesToCounterparty(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)

	if !strings.HasPrefix(p.ID, "trade_") {
		t.Errorf("unexpected id %q", p.ID)
	}
	if p.Status != models.StatusAwaitingCounterparty {
		t.Errorf("expected awaiting_counterparty, got %s", p.Status)
	}
	if p.CounterpartyID != testutil.CoachLAL {
		t.Errorf("expected counter-party %s, got %s", testutil.CoachLAL, p.CounterpartyID)
	}
	if p.Trade.FromTeam != testutil.Celtics || p.Trade.ToTeam != testutil.Lakers {
		t.Errorf("teams not canonicalized: %+v", p.Trade)
	}
	if p.Deadline == nil || !p.Deadline.Equal(f.clock.Now().Add(24*time.Hour)) {
		t.Errorf("expected 24h deadline, got %v", p.Deadline)
	}

	if msgs := f.pres.To("dm:" + testutil.CoachLAL); len(msgs) != 1 {
		t.Fatalf("expected one counter-party DM, got %d", len(msgs))
	}
	if stored := f.get(t, p.ID); stored.Messages.Counterparty != "msg-dm:"+testutil.CoachLAL {
		t.Errorf("message id not recorded: %+v", stored.Messages)
	}
}

// TestPendingTradesLayout pins the stored shape of the trade book: an array
// of proposals keyed by proposal id, each carrying its trade, votes,
// creation time and the ids of the messages rendered for it.
func TestPendingTradesLayout(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)
	f.escalate(t, p.ID)
	f.vote(t, p.ID, "c1", models.DecisionApprove)

	raw, err := store.Load[json.RawMessage](context.Background(), f.s, store.DocPendingTrades)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	var book []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &book); err != nil {
		t.Fatalf("pendingTrades is not an array: %v (%s)", err, raw)
	}
	if len(book) != 1 {
		t.Fatalf("expected one entry, got %d", len(book))
	}

	entry := book[0]
	for _, key := range []string{"id", "trade", "votes", "createdAt", "messages"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("entry is missing %q: %s", key, raw)
		}
	}

	var id string
	json.Unmarshal(entry["id"], &id)
	if id != p.ID {
		t.Errorf("expected entry keyed by %s, got %s", p.ID, id)
	}
	var refs models.MessageRefs
	json.Unmarshal(entry["messages"], &refs)
	if refs.Counterparty != "msg-dm:"+testutil.CoachLAL || refs.Committee != "msg-channel:committee" {
		t.Errorf("unexpected message refs %+v", refs)
	}
}

func TestSubmitValidation(t *testing.T) {
	score := func(a string, sa int, b string, sb, week int) models.SubmitProposalRequest {
		return models.SubmitProposalRequest{
			Kind: models.KindScore, ProposerID: testutil.CoachLAL,
			Score: &models.ScorePayload{TeamA: a, ScoreA: sa, TeamB: b, ScoreB: sb, Week: week},
		}
	}
	trade := func(proposer string, in models.TradePayload) models.SubmitProposalRequest {
		return models.SubmitProposalRequest{Kind: models.KindTrade, ProposerID: proposer, Trade: &in}
	}

	tests := []struct {
		name string
		req  models.SubmitProposalRequest
		kind apperr.Kind
	}{
		{name: "unknown kind", req: models.SubmitProposalRequest{Kind: "draft", ProposerID: "x"}, kind: apperr.KindInput},
		{name: "tied score", req: score("Lakers", 100, "Celtics", 100, 1), kind: apperr.KindInput},
		{name: "negative score", req: score("Lakers", -1, "Celtics", 100, 1), kind: apperr.KindInput},
		{name: "week zero", req: score("Lakers", 101, "Celtics", 100, 0), kind: apperr.KindInput},
		{name: "team plays itself", req: score("Lakers", 101, "LAL", 100, 1), kind: apperr.KindInput},
		{name: "unknown team", req: score("Lakers", 101, "Sonics", 100, 1), kind: apperr.KindInput},
		{name: "score from uninvolved coach", req: func() models.SubmitProposalRequest {
			r := score("Lakers", 101, "Celtics", 100, 1)
			r.ProposerID = testutil.CoachGSW
			return r
		}(), kind: apperr.KindAuthorization},
		{name: "score for another season", req: func() models.SubmitProposalRequest {
			r := score("Lakers", 101, "Celtics", 100, 1)
			r.Score.SeasonNo = 7
			return r
		}(), kind: apperr.KindInput},
		{name: "trade without assets", req: trade(testutil.CoachBOS, models.TradePayload{ToTeam: "Lakers", Give: " , "}), kind: apperr.KindInput},
		{name: "trade with itself", req: trade(testutil.CoachBOS, models.TradePayload{ToTeam: "Celtics", Give: "Jaylen Brown"}), kind: apperr.KindInput},
		{name: "trade for another team", req: trade(testutil.CoachGSW, models.TradePayload{FromTeam: "Celtics", ToTeam: "Lakers", Give: "Jaylen Brown"}), kind: apperr.KindAuthorization},
		{name: "trade without a team", req: trade(testutil.Outsider, models.TradePayload{ToTeam: "Lakers", Give: "x"}), kind: apperr.KindInput},
		{name: "progression without upgrade", req: models.SubmitProposalRequest{
			Kind: models.KindProgression, ProposerID: testutil.CoachBOS,
			Progression: &models.ProgressionPayload{Player: "Jayson Tatum", SkillSet: "Shooting"},
		}, kind: apperr.KindInput},
		{name: "missing payload", req: models.SubmitProposalRequest{Kind: models.KindScore, ProposerID: testutil.CoachLAL}, kind: apperr.KindInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.e.Submit(context.Background(), tt.req)
			assertKind(t, err, tt.kind)
			if len(f.pres.Messages) != 0 {
				t.Errorf("rejected submission must not notify anyone")
			}
		})
	}
}

func TestCounterpartyDenyResolvesWithoutCommittee(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)

	tr, err := f.e.RespondCounterparty(context.Background(), p.ID, testutil.CoachLAL, models.DecisionDeny)
	if err != nil {
		t.Fatalf("RespondCounterparty failed: %v", err)
	}
	if tr.From != models.StatusAwaitingCounterparty || tr.To != models.StatusDenied || !tr.Changed {
		t.Errorf("unexpected transition %+v", tr)
	}
	if len(f.pres.To("channel:committee")) != 0 {
		t.Error("denied trade must never reach the committee")
	}
	if len(f.pres.To("dm:"+testutil.CoachBOS)) != 1 {
		t.Error("proposer should be told about the denial")
	}
	if len(f.pres.To("channel:denied")) != 1 {
		t.Error("denied channel should be notified")
	}

	// Replaying the press is stale and changes nothing
	_, err = f.e.RespondCounterparty(context.Background(), p.ID, testutil.CoachLAL, models.DecisionApprove)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if md := apperr.MetadataOf(err); md["status"] != string(models.StatusDenied) {
		t.Errorf("stale error should report existing status, got %v", md)
	}
	if got := f.get(t, p.ID).Status; got != models.StatusDenied {
		t.Errorf("status changed on replay: %s", got)
	}
}

func TestCommitteeQuorumOfThree(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)
	f.escalate(t, p.ID)

	if len(f.pres.To("channel:committee")) != 1 {
		t.Fatal("escalated trade should be posted to the committee")
	}
	if got := f.get(t, p.ID); got.Deadline == nil || !got.Deadline.Equal(f.clock.Now().Add(48*time.Hour)) {
		t.Errorf("expected 48h committee deadline, got %v", got.Deadline)
	}

	for i, voter := range testutil.Committee[:2] {
		if tr := f.vote(t, p.ID, voter, models.DecisionApprove); tr.Changed {
			t.Fatalf("vote %d should not decide", i+1)
		}
	}
	tr := f.vote(t, p.ID, testutil.Committee[2], models.DecisionApprove)
	if tr.To != models.StatusApproved || !tr.Changed {
		t.Fatalf("third approval should approve, got %+v", tr)
	}
	if tr.Report == nil || len(tr.Report.Moved) != 3 {
		t.Fatalf("expected 3 moved assets, got %+v", tr.Report)
	}

	celtics := testutil.LoadRoster(t, f.s, testutil.Celtics)
	lakers := testutil.LoadRoster(t, f.s, testutil.Lakers)
	if testutil.HasPlayer(celtics, "Jaylen Brown") || !testutil.HasPlayer(lakers, "Jaylen Brown") {
		t.Error("Jaylen Brown should have moved to the Lakers")
	}
	if !testutil.HasPlayer(celtics, "Austin Reaves") || testutil.HasPlayer(lakers, "Austin Reaves") {
		t.Error("Austin Reaves should have moved to the Celtics")
	}

	stored := f.get(t, p.ID)
	if stored.AppliedAt == nil || stored.ResolvedBy != testutil.Committee[2] {
		t.Errorf("apply bookkeeping missing: %+v", stored)
	}

	// Fourth ballot is stale whatever its value
	_, err := f.e.CastVote(context.Background(), p.ID, testutil.Committee[3], models.DecisionDeny)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	assertKind(t, err, apperr.KindConflict)
	if got := f.get(t, p.ID); got.Status != models.StatusApproved || len(got.Ballots) != 3 {
		t.Errorf("stale ballot changed the proposal: %+v", got)
	}
}

func TestVoteBeforeEscalationIsWrongPhase(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)

	_, err := f.e.CastVote(context.Background(), p.ID, testutil.Committee[0], models.DecisionApprove)
	if !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}
}

func TestAuthorization(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)

	_, err := f.e.RespondCounterparty(context.Background(), p.ID, testutil.CoachGSW, models.DecisionApprove)
	assertKind(t, err, apperr.KindAuthorization)

	f.escalate(t, p.ID)
	_, err = f.e.CastVote(context.Background(), p.ID, testutil.CoachBOS, models.DecisionApprove)
	assertKind(t, err, apperr.KindAuthorization)

	if got := f.get(t, p.ID); len(got.Ballots) != 0 {
		t.Errorf("unauthorized ballot was stored: %+v", got.Ballots)
	}
}

func TestBallotOverwrite(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)
	f.escalate(t, p.ID)

	f.vote(t, p.ID, "c1", models.DecisionApprove)
	f.clock.Advance(time.Minute)
	f.vote(t, p.ID, "c1", models.DecisionDeny)

	got := f.get(t, p.ID)
	if len(got.Ballots) != 1 || got.Ballots[0].Choice != models.DecisionDeny {
		t.Errorf("expected one overwritten deny ballot, got %+v", got.Ballots)
	}
}

func TestScoreDuplicateAcrossOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.e.Submit(ctx, models.SubmitProposalRequest{
		Kind: models.KindScore, ProposerID: testutil.CoachLAL,
		Score: &models.ScorePayload{TeamA: "Lakers", ScoreA: 110, TeamB: "Celtics", ScoreB: 104, Week: 3},
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if first.Status != models.StatusInCommittee || first.Score.SeasonNo != 1 {
		t.Fatalf("unexpected score proposal %+v", first)
	}

	swapped := models.SubmitProposalRequest{
		Kind: models.KindScore, ProposerID: testutil.CoachBOS,
		Score: &models.ScorePayload{TeamA: "Celtics", ScoreA: 104, TeamB: "Lakers", ScoreB: 110, Week: 3},
	}
	_, err = f.e.Submit(ctx, swapped)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate while pending, got %v", err)
	}
	if md := apperr.MetadataOf(err); md["proposal_id"] != first.ID {
		t.Errorf("duplicate should name the existing request, got %v", md)
	}

	tr := f.vote(t, first.ID, "c1", models.DecisionApprove)
	if tr.To != models.StatusApproved || tr.Report == nil || !tr.Report.Recorded {
		t.Fatalf("single reviewer should approve and record, got %+v", tr)
	}

	_, err = f.e.Submit(ctx, swapped)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate after approval, got %v", err)
	}

	standings, err := store.Load[models.Standings](ctx, f.s, store.DocStandings)
	if err != nil {
		t.Fatal(err)
	}
	if standings[testutil.Lakers].Wins != 1 || standings[testutil.Celtics].Losses != 1 {
		t.Errorf("unexpected standings %+v", standings)
	}

	// A different week is a different subject
	other := swapped
	other.Score = &models.ScorePayload{TeamA: "Celtics", ScoreA: 99, TeamB: "Lakers", ScoreB: 90, Week: 4}
	if _, err := f.e.Submit(ctx, other); err != nil {
		t.Errorf("week 4 should be accepted: %v", err)
	}
}

func TestScoreSeasonComesFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.e.Submit(ctx, models.SubmitProposalRequest{
		Kind: models.KindScore, ProposerID: testutil.CoachLAL,
		Score: &models.ScorePayload{TeamA: "Lakers", ScoreA: 110, TeamB: "Celtics", ScoreB: 104, Week: 2, SeasonNo: 1},
	})
	if err != nil {
		t.Fatalf("Submit with the running season failed: %v", err)
	}
	f.vote(t, first.ID, "c1", models.DecisionApprove)

	// The recorded game still blocks a resubmission naming an old season
	_, err = f.e.Submit(ctx, models.SubmitProposalRequest{
		Kind: models.KindScore, ProposerID: testutil.CoachBOS,
		Score: &models.ScorePayload{TeamA: "Celtics", ScoreA: 104, TeamB: "Lakers", ScoreB: 110, Week: 2, SeasonNo: 99},
	})
	assertKind(t, err, apperr.KindInput)
	if md := apperr.MetadataOf(err); md["season"] != "1" {
		t.Errorf("expected the running season in metadata, got %v", md)
	}

	scores, err := store.Load[[]models.GameRecord](ctx, f.s, store.DocScores)
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 {
		t.Errorf("expected one recorded game, got %d", len(scores))
	}
}

func TestProgressionDuplicateAndApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	submit := func(upgrade, skill string) (models.Proposal, error) {
		return f.e.Submit(ctx, models.SubmitProposalRequest{
			Kind: models.KindProgression, ProposerID: testutil.CoachBOS,
			Progression: &models.ProgressionPayload{Player: "Jayson Tatum", SkillSet: skill, Upgrade: upgrade},
		})
	}

	p, err := submit("+1 Speed, +1 3PT", "Shooting")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if p.Progression.Team != testutil.Celtics {
		t.Errorf("team should be inferred from the proposer, got %q", p.Progression.Team)
	}
	if len(f.pres.To("channel:staff")) != 1 {
		t.Error("progression should be posted to staff")
	}

	for _, dup := range []string{"  +1   speed,  +1 3pt ", "+1 speed"} {
		if _, err := submit(dup, "shooting"); !errors.Is(err, ErrDuplicate) {
			t.Errorf("upgrade %q should be a duplicate, got %v", dup, err)
		}
	}
	if _, err := submit("+1 Speed", "Defense"); err != nil {
		t.Errorf("different skill set should be accepted: %v", err)
	}

	// Committee members do not review progression
	_, err = f.e.CastVote(ctx, p.ID, "c1", models.DecisionApprove)
	assertKind(t, err, apperr.KindAuthorization)

	tr := f.vote(t, p.ID, testutil.Staff, models.DecisionApprove)
	if tr.To != models.StatusApproved {
		t.Fatalf("staff approval should approve, got %s", tr.To)
	}

	history, err := store.Load[map[string][]models.UpgradeRecord](ctx, f.s, store.DocProgressionHistory)
	if err != nil {
		t.Fatal(err)
	}
	if recs := history["Jayson Tatum"]; len(recs) != 1 || recs[0].ApprovedBy != testutil.Staff {
		t.Errorf("unexpected history %+v", history)
	}

	// Once resolved the subject is free again
	if _, err := submit("+1 Speed, +1 3PT", "Shooting"); err != nil {
		t.Errorf("resubmission after approval should be accepted: %v", err)
	}
}

func TestSweepExpiresCounterparty(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)

	report, err := f.e.Sweep(context.Background(), f.clock.Now())
	if err != nil || report.Expired != 0 {
		t.Fatalf("nothing should be due yet: %+v, %v", report, err)
	}

	f.clock.Advance(25 * time.Hour)
	report, err = f.e.Sweep(context.Background(), f.clock.Now())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if report.Expired != 1 {
		t.Errorf("expected 1 expiry, got %+v", report)
	}
	got := f.get(t, p.ID)
	if got.Status != models.StatusExpired || got.ResolvedBy != ResolvedByTimeout {
		t.Errorf("expected expired by timeout, got %+v", got)
	}

	_, err = f.e.RespondCounterparty(context.Background(), p.ID, testutil.CoachLAL, models.DecisionApprove)
	if !errors.Is(err, ErrStale) {
		t.Errorf("late response should be stale, got %v", err)
	}
}

func TestLateEventAppliesTimeout(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)
	f.clock.Advance(24 * time.Hour)

	tr, err := f.e.RespondCounterparty(context.Background(), p.ID, testutil.CoachLAL, models.DecisionApprove)
	if !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if !tr.Changed || tr.To != models.StatusExpired {
		t.Errorf("late event should expire the trade, got %+v", tr)
	}
}

func TestSweepForcesCommitteeTally(t *testing.T) {
	tests := []struct {
		name    string
		ballots map[string]models.Decision
		want    models.Status
	}{
		{name: "tie denies", ballots: map[string]models.Decision{"c1": models.DecisionApprove, "c2": models.DecisionDeny}, want: models.StatusDenied},
		{name: "no votes denies", want: models.StatusDenied},
		{name: "majority approves", ballots: map[string]models.Decision{"c1": models.DecisionApprove, "c2": models.DecisionApprove, "c3": models.DecisionDeny}, want: models.StatusApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := f.submitTrade(t)
			f.escalate(t, p.ID)
			for voter, choice := range tt.ballots {
				f.vote(t, p.ID, voter, choice)
			}

			f.clock.Advance(49 * time.Hour)
			report, err := f.e.Sweep(context.Background(), f.clock.Now())
			if err != nil {
				t.Fatalf("Sweep failed: %v", err)
			}
			if report.Forced != 1 {
				t.Errorf("expected 1 forced tally, got %+v", report)
			}

			got := f.get(t, p.ID)
			if got.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Status)
			}
			if tt.want == models.StatusApproved && got.AppliedAt == nil {
				t.Error("forced approval should be applied")
			}
		})
	}
}

func TestSweepRetriesFailedApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var calls atomic.Int32
	policy, _ := f.e.Policy(models.KindScore)
	policy.Apply = func(ctx context.Context, p models.Proposal) (models.ApplyReport, error) {
		if calls.Add(1) == 1 {
			return models.ApplyReport{}, errors.New("disk full")
		}
		return f.applier.Apply(ctx, p)
	}
	f.e.SetPolicy(policy)

	p, err := f.e.Submit(ctx, models.SubmitProposalRequest{
		Kind: models.KindScore, ProposerID: testutil.CoachGSW,
		Score: &models.ScorePayload{TeamA: "Warriors", ScoreA: 120, TeamB: "Heat", ScoreB: 118, Week: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if tr := f.vote(t, p.ID, "c2", models.DecisionApprove); tr.To != models.StatusApproved {
		t.Fatalf("expected approval, got %s", tr.To)
	}
	if got := f.get(t, p.ID); got.AppliedAt != nil || got.ApplyError == "" {
		t.Fatalf("failed apply should be recorded, got %+v", got)
	}

	// Retry waits for the claim to age
	report, _ := f.e.Sweep(ctx, f.clock.Now())
	if report.Reapplied != 0 {
		t.Errorf("retry should wait for ApplyRetryAfter, got %+v", report)
	}

	f.clock.Advance(DefaultApplyRetryAfter)
	report, err = f.e.Sweep(ctx, f.clock.Now())
	if err != nil {
		t.Fatal(err)
	}
	if report.Reapplied != 1 {
		t.Errorf("expected 1 reapply, got %+v", report)
	}
	if got := f.get(t, p.ID); got.AppliedAt == nil || got.ApplyError != "" {
		t.Errorf("retry should mark the proposal applied, got %+v", got)
	}
}

func TestSweepRegressionsAndPruning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	prog, err := f.e.Submit(ctx, models.SubmitProposalRequest{
		Kind: models.KindProgression, ProposerID: testutil.CoachMIA,
		Progression: &models.ProgressionPayload{Player: "Bam Adebayo", SkillSet: "Finishing", Upgrade: "+1 Dunk"},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.vote(t, prog.ID, testutil.Admin, models.DecisionApprove)

	score, err := f.e.Submit(ctx, models.SubmitProposalRequest{
		Kind: models.KindScore, ProposerID: testutil.CoachMIA,
		Score: &models.ScorePayload{TeamA: "Heat", ScoreA: 99, TeamB: "Warriors", ScoreB: 101, Week: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.vote(t, score.ID, "c1", models.DecisionApprove)

	f.clock.Advance(8 * 24 * time.Hour)
	report, err := f.e.Sweep(ctx, f.clock.Now())
	if err != nil {
		t.Fatal(err)
	}
	if report.RegressionsSent != 1 || report.Pruned != 1 {
		t.Errorf("expected 1 regression and 1 prune, got %+v", report)
	}

	dms := f.pres.To("dm:" + testutil.CoachMIA)
	found := false
	for _, m := range dms {
		if m.Title == "Regression due" {
			found = true
		}
	}
	if !found {
		t.Error("regression notice should be DMed to the requester")
	}

	if _, err := f.e.Get(ctx, score.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("pruned score request should be gone, got %v", err)
	}

	// Pruned requests still block resubmission through the scores document
	_, err = f.e.Submit(ctx, models.SubmitProposalRequest{
		Kind: models.KindScore, ProposerID: testutil.CoachGSW,
		Score: &models.ScorePayload{TeamA: "Warriors", ScoreA: 101, TeamB: "Heat", ScoreB: 99, Week: 1},
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("recorded game should block resubmission, got %v", err)
	}

	report, _ = f.e.Sweep(ctx, f.clock.Now())
	if report.RegressionsSent != 0 {
		t.Errorf("regression notices are sent once, got %+v", report)
	}
}

func TestConcurrentVotesDecideOnce(t *testing.T) {
	f := newFixture(t)
	p := f.submitTrade(t)
	f.escalate(t, p.ID)

	var (
		wg      sync.WaitGroup
		changed atomic.Int32
		stale   atomic.Int32
	)
	for _, voter := range testutil.Committee {
		wg.Add(1)
		go func(voter string) {
			defer wg.Done()
			tr, err := f.e.CastVote(context.Background(), p.ID, voter, models.DecisionApprove)
			if errors.Is(err, ErrStale) {
				stale.Add(1)
				return
			}
			if err != nil {
				t.Errorf("CastVote(%s) failed: %v", voter, err)
				return
			}
			if tr.Changed {
				changed.Add(1)
			}
		}(voter)
	}
	wg.Wait()

	if changed.Load() != 1 || stale.Load() != 1 {
		t.Errorf("expected exactly one decision and one stale vote, got %d and %d", changed.Load(), stale.Load())
	}

	lakers := testutil.LoadRoster(t, f.s, testutil.Lakers)
	count := 0
	for _, pl := range lakers.Players {
		if pl.Name == "Jaylen Brown" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Jaylen Brown should be on the Lakers exactly once, found %d", count)
	}
	if len(f.pres.To("channel:approved")) != 1 {
		t.Error("approval should be announced exactly once")
	}
}

func TestDefaultPolicies(t *testing.T) {
	cfg := Config{
		CommitteeRoleID:    "committee",
		StaffRoleID:        "staff",
		AdminRoleIDs:       []string{"admin"},
		CounterpartyWindow: time.Hour,
		CommitteeWindow:    2 * time.Hour,
	}
	policies := DefaultPolicies(cfg, nil)

	tests := []struct {
		kind         models.Kind
		document     string
		counterparty bool
		reviewers    []string
		quorum       tally.Policy
		timesOut     bool
	}{
		{models.KindTrade, store.DocPendingTrades, true, []string{"committee"}, tally.Majority(tally.CommitteeQuorum), true},
		{models.KindScore, store.DocScoreRequests, false, []string{"committee"}, tally.SingleResponder(), false},
		{models.KindProgression, store.DocProgressionRequests, false, []string{"staff", "admin"}, tally.SingleResponder(), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p, ok := policies[tt.kind]
			if !ok {
				t.Fatalf("no policy for %s", tt.kind)
			}
			if p.Document != tt.document || p.CounterpartyPhase != tt.counterparty {
				t.Errorf("unexpected document/phase: %s %v", p.Document, p.CounterpartyPhase)
			}
			if strings.Join(p.ReviewerRoles, ",") != strings.Join(tt.reviewers, ",") {
				t.Errorf("expected reviewers %v, got %v", tt.reviewers, p.ReviewerRoles)
			}
			if p.Quorum != tt.quorum {
				t.Errorf("expected quorum %+v, got %+v", tt.quorum, p.Quorum)
			}
			if (p.CommitteeWindow > 0) != tt.timesOut {
				t.Errorf("committee window %v, expected timeout=%v", p.CommitteeWindow, tt.timesOut)
			}
		})
	}
}

func TestKindOfID(t *testing.T) {
	tests := []struct {
		id   string
		want models.Kind
		ok   bool
	}{
		{"trade_123", models.KindTrade, true},
		{"score_abc", models.KindScore, true},
		{"progression_x", models.KindProgression, true},
		{"poll_1", "", false},
		{"nounderscore", "", false},
	}
	for _, tt := range tests {
		got, ok := KindOfID(tt.id)
		if got != tt.want || ok != tt.ok {
			t.Errorf("KindOfID(%q) = %q, %v", tt.id, got, ok)
		}
	}
}

func TestListActive(t *testing.T) {
	f := newFixture(t)
	a := f.submitTrade(t)
	if _, err := f.e.RespondCounterparty(context.Background(), a.ID, testutil.CoachLAL, models.DecisionDeny); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(time.Minute)
	b := f.submitTrade(t)

	active, err := f.e.ListActive(context.Background(), models.KindTrade)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("expected only %s active, got %+v", b.ID, active)
	}

	all, _ := f.e.List(context.Background(), models.KindTrade)
	if len(all) != 2 {
		t.Errorf("expected 2 stored trades, got %d", len(all))
	}
}
