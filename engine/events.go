// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/courtside/apperr"
	"github.com/danielhkuo/courtside/league"
	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/store"
	"github.com/danielhkuo/courtside/tally"
)

// RespondCounterparty records the counter-party's decision on a trade.
// Approval escalates to committee; denial resolves the trade.
func (e *Engine) RespondCounterparty(ctx context.Context, id, responderID string, decision models.Decision) (Transition, error) {
	if !decision.Valid() {
		return Transition{}, apperr.Input("decision must be approve or deny")
	}
	policy, err := e.policyForID(id)
	if err != nil {
		return Transition{}, err
	}

	now := e.now()
	var (
		tr       Transition
		eventErr error
	)
	err = store.Update(ctx, e.store, policy.Document, func(book *[]models.Proposal) error {
		i := findProposal(*book, id)
		if i < 0 {
			return notFound(id)
		}
		p := &(*book)[i]
		tr = Transition{ProposalID: id, From: p.Status, To: p.Status}

		if p.Status.Terminal() {
			tr.Proposal = *p
			return staleError(*p)
		}
		if !policy.CounterpartyPhase || p.Status != models.StatusAwaitingCounterparty {
			tr.Proposal = *p
			return wrongPhase(*p)
		}
		if responderID != p.CounterpartyID {
			return apperr.WithMetadata(apperr.KindAuthorization,
				"only the other team's coach can answer this trade",
				map[string]string{"proposal_id": id})
		}
		if expired(p, now) {
			e.timeout(policy, p, now)
			eventErr = staleError(*p)
		} else {
			p.Response = &models.CounterpartyResponse{ResponderID: responderID, Decision: decision, RespondedAt: now}
			if decision == models.DecisionApprove {
				p.Status = models.StatusInCommittee
				p.Deadline = nil
				if policy.CommitteeWindow > 0 {
					deadline := now.Add(policy.CommitteeWindow)
					p.Deadline = &deadline
				}
			} else {
				resolve(p, models.StatusDenied, responderID, now)
			}
		}
		p.UpdatedAt = now
		tr.To, tr.Changed, tr.Proposal = p.Status, true, *p
		return nil
	})
	if err != nil {
		return tr, err
	}

	logTransition(tr.Proposal, tr.From)
	if tr.Proposal.Status.Terminal() {
		tr.Report = e.finish(ctx, policy, tr.Proposal)
	} else {
		e.announce(ctx, policy, tr.Proposal)
	}
	return tr, eventErr
}

// CastVote records a reviewer's ballot and resolves the proposal once the
// kind's quorum is reached. A voter may change their ballot while the
// proposal is in committee.
func (e *Engine) CastVote(ctx context.Context, id, voterID string, choice models.Decision) (Transition, error) {
	if !choice.Valid() {
		return Transition{}, apperr.Input("vote must be approve or deny")
	}
	policy, err := e.policyForID(id)
	if err != nil {
		return Transition{}, err
	}

	allowed, err := league.MemberHasRole(ctx, e.dir, voterID, policy.ReviewerRoles...)
	if err != nil {
		return Transition{}, apperr.Wrap(apperr.KindInfrastructure, "failed to look up voter", err)
	}
	if !allowed {
		return Transition{}, apperr.WithMetadata(apperr.KindAuthorization,
			fmt.Sprintf("you are not a reviewer for %s proposals", policy.Kind),
			map[string]string{"proposal_id": id})
	}

	now := e.now()
	var (
		tr       Transition
		eventErr error
	)
	err = store.Update(ctx, e.store, policy.Document, func(book *[]models.Proposal) error {
		i := findProposal(*book, id)
		if i < 0 {
			return notFound(id)
		}
		p := &(*book)[i]
		tr = Transition{ProposalID: id, From: p.Status, To: p.Status}

		if p.Status.Terminal() {
			tr.Proposal = *p
			return staleError(*p)
		}
		if p.Status != models.StatusInCommittee {
			tr.Proposal = *p
			return wrongPhase(*p)
		}

		if expired(p, now) {
			e.timeout(policy, p, now)
			eventErr = staleError(*p)
		} else {
			castBallot(p, models.Ballot{VoterID: voterID, Choice: choice, CastAt: now})
			if res := tally.Evaluate(p.Ballots, policy.Quorum); res.Decided {
				status := models.StatusDenied
				if res.Outcome == models.DecisionApprove {
					status = models.StatusApproved
				}
				resolve(p, status, voterID, now)
			}
		}
		p.UpdatedAt = now
		tr.To, tr.Proposal = p.Status, *p
		tr.Changed = tr.From != tr.To
		return nil
	})
	if err != nil {
		return tr, err
	}

	if tr.Changed {
		logTransition(tr.Proposal, tr.From)
	} else {
		res := tally.Evaluate(tr.Proposal.Ballots, policy.Quorum)
		slog.Info("ballot recorded", "proposal_id", id, "voter", voterID, "choice", choice,
			"approve", res.Approve, "deny", res.Deny)
	}
	if tr.Proposal.Status.Terminal() {
		tr.Report = e.finish(ctx, policy, tr.Proposal)
	}
	return tr, eventErr
}

func castBallot(p *models.Proposal, b models.Ballot) {
	for i := range p.Ballots {
		if p.Ballots[i].VoterID == b.VoterID {
			p.Ballots[i] = b
			return
		}
	}
	p.Ballots = append(p.Ballots, b)
}

func expired(p *models.Proposal, now time.Time) bool {
	return p.Deadline != nil && !now.Before(*p.Deadline)
}

func resolve(p *models.Proposal, status models.Status, by string, now time.Time) {
	p.Status = status
	p.ResolvedAt = &now
	p.ResolvedBy = by
	p.Deadline = nil
	if status == models.StatusApproved {
		p.ApplyClaimedAt = &now
	}
}

// timeout applies the deadline rule for p's current stage: an unanswered
// trade expires, a committee vote is decided by the count so far.
func (e *Engine) timeout(policy KindPolicy, p *models.Proposal, now time.Time) {
	switch p.Status {
	case models.StatusAwaitingCounterparty:
		resolve(p, models.StatusExpired, ResolvedByTimeout, now)
	case models.StatusInCommittee:
		res := tally.ForceAtTimeout(p.Ballots, policy.TieBreak, e.coin)
		status := models.StatusDenied
		if res.Outcome == models.DecisionApprove {
			status = models.StatusApproved
		}
		resolve(p, status, ResolvedByTimeout, now)
	}
	p.UpdatedAt = now
}
