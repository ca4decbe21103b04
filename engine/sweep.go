// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/store"
)

// errUnchanged aborts a sweep write when nothing was due.
var errUnchanged = errors.New("nothing to sweep")

// SweepReport counts what one sweep did.
type SweepReport struct {
	Expired         int // counter-party windows that lapsed
	Forced          int // committee votes decided at their deadline
	Reapplied       int // approved proposals whose apply was retried
	RegressionsSent int
	Pruned          int // old score requests removed
}

// Sweep runs every deadline-driven transition due at now. It is safe to run
// at any time and is the only thing that re-arms deadlines after a restart,
// since deadlines live on the stored proposals.
func (e *Engine) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	var report SweepReport

	kinds := make([]models.Kind, 0, len(e.policies))
	for k := range e.policies {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		if err := e.sweepKind(ctx, e.policies[kind], now, &report); err != nil {
			return report, err
		}
	}
	if err := e.sweepRegressions(ctx, now, &report); err != nil {
		return report, err
	}

	if report != (SweepReport{}) {
		slog.Info("sweep finished",
			"expired", report.Expired, "forced", report.Forced,
			"reapplied", report.Reapplied, "regressions", report.RegressionsSent,
			"pruned", report.Pruned)
	}
	return report, nil
}

func (e *Engine) sweepKind(ctx context.Context, policy KindPolicy, now time.Time, report *SweepReport) error {
	var resolved, retry []models.Proposal
	pruned := report.Pruned
	err := store.Update(ctx, e.store, policy.Document, func(book *[]models.Proposal) error {
		kept := (*book)[:0]
		for _, p := range *book {
			switch {
			case !p.Status.Terminal() && expired(&p, now):
				from := p.Status
				e.timeout(policy, &p, now)
				logTransition(p, from)
				if from == models.StatusAwaitingCounterparty {
					report.Expired++
				} else {
					report.Forced++
				}
				resolved = append(resolved, p)
			case p.Status == models.StatusApproved && p.AppliedAt == nil && policy.Apply != nil &&
				(p.ApplyClaimedAt == nil || now.Sub(*p.ApplyClaimedAt) >= e.cfg.ApplyRetryAfter):
				claimed := now
				p.ApplyClaimedAt = &claimed
				retry = append(retry, p)
			case e.prunable(p, now):
				report.Pruned++
				continue
			}
			kept = append(kept, p)
		}
		if len(resolved)+len(retry)+report.Pruned == pruned {
			return errUnchanged
		}
		*book = kept
		return nil
	})
	if errors.Is(err, errUnchanged) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("failed to sweep %s: %w", policy.Document, err)
	}

	for _, p := range resolved {
		e.finish(ctx, policy, p)
	}
	for _, p := range retry {
		slog.Info("retrying apply", "proposal_id", p.ID, "kind", p.Kind, "previous_error", p.ApplyError)
		if e.apply(ctx, policy, p) != nil {
			report.Reapplied++
		}
	}
	return nil
}

// prunable reports whether a resolved score request has outlived
// ScoreRetention. Approved requests are kept until applied.
func (e *Engine) prunable(p models.Proposal, now time.Time) bool {
	if p.Kind != models.KindScore || !p.Status.Terminal() || p.ResolvedAt == nil {
		return false
	}
	if p.Status == models.StatusApproved && p.AppliedAt == nil {
		return false
	}
	return now.Sub(*p.ResolvedAt) >= e.cfg.ScoreRetention
}

// sweepRegressions sends regression notices that have come due. A notice is
// marked sent before delivery, so a failed delivery is logged, not retried.
func (e *Engine) sweepRegressions(ctx context.Context, now time.Time, report *SweepReport) error {
	var due []models.RegressionNotice
	err := store.Update(ctx, e.store, store.DocRegressionNotices, func(notices *[]models.RegressionNotice) error {
		for i := range *notices {
			n := &(*notices)[i]
			if n.SentAt != nil || now.Before(n.DueAt) {
				continue
			}
			sent := now
			n.SentAt = &sent
			due = append(due, *n)
		}
		if len(due) == 0 {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("failed to sweep regression notices: %w", err)
	}

	for _, n := range due {
		report.RegressionsSent++
		if e.notifier == nil {
			continue
		}
		if err := e.notifier.RegressionDue(ctx, n); err != nil {
			slog.Warn("regression notice delivery failed",
				"proposal_id", n.ProposalID, "player", n.Player, "member", n.MemberID, "error", err)
		}
	}
	return nil
}
