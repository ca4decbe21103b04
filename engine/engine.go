// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/danielhkuo/courtside/apperr"
	"github.com/danielhkuo/courtside/league"
	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/store"
	"github.com/danielhkuo/courtside/tally"
	"github.com/google/uuid"
)

var (
	ErrStale      = errors.New("proposal is already resolved")
	ErrWrongPhase = errors.New("proposal is not in that phase")
	ErrNotFound   = errors.New("proposal not found")
	ErrDuplicate  = errors.New("an active proposal already covers this")
)

// Default windows.
const (
	DefaultCounterpartyWindow = 24 * time.Hour
	DefaultCommitteeWindow    = 48 * time.Hour
	DefaultScoreRetention     = 7 * 24 * time.Hour
	DefaultApplyRetryAfter    = 5 * time.Minute
)

// ResolvedByTimeout marks proposals decided by a deadline.
const ResolvedByTimeout = "timeout"

// ApplyFunc mutates league state for an approved proposal.
type ApplyFunc func(ctx context.Context, p models.Proposal) (models.ApplyReport, error)

// Applier is satisfied by *outcome.Applier.
type Applier interface {
	Apply(ctx context.Context, p models.Proposal) (models.ApplyReport, error)
}

// Notifier renders workflow state to the chat platform. Delivery is best
// effort; errors are logged and never roll back a transition.
type Notifier interface {
	// Opened announces a proposal entering a review stage and returns the
	// message id rendered for it.
	Opened(ctx context.Context, p models.Proposal) (string, error)
	Resolved(ctx context.Context, p models.Proposal, report *models.ApplyReport) error
	RegressionDue(ctx context.Context, notice models.RegressionNotice) error
}

// TeamSource supplies the canonical team list; *league.Registry satisfies it.
type TeamSource interface {
	Teams() []models.Team
}

// KindPolicy parameterizes the state machine for one proposal kind.
type KindPolicy struct {
	Kind               models.Kind
	Document           string
	CounterpartyPhase  bool
	ReviewerRoles      []string
	Quorum             tally.Policy
	CounterpartyWindow time.Duration
	CommitteeWindow    time.Duration // zero: committee review never times out
	TieBreak           tally.TieBreak
	Apply              ApplyFunc
}

// Config holds role ids and timing.
type Config struct {
	CommitteeRoleID    string
	StaffRoleID        string
	AdminRoleIDs       []string
	CounterpartyWindow time.Duration
	CommitteeWindow    time.Duration
	ScoreRetention     time.Duration
	ApplyRetryAfter    time.Duration
}

func (c Config) withDefaults() Config {
	if c.CounterpartyWindow <= 0 {
		c.CounterpartyWindow = DefaultCounterpartyWindow
	}
	if c.CommitteeWindow <= 0 {
		c.CommitteeWindow = DefaultCommitteeWindow
	}
	if c.ScoreRetention <= 0 {
		c.ScoreRetention = DefaultScoreRetention
	}
	if c.ApplyRetryAfter <= 0 {
		c.ApplyRetryAfter = DefaultApplyRetryAfter
	}
	return c
}

// staffRoles are the roles treated as staff for coach resolution and
// progression review.
func (c Config) staffRoles() []string {
	roles := []string{c.StaffRoleID}
	return append(roles, c.AdminRoleIDs...)
}

// DefaultPolicies returns the trade, score and progression policies.
func DefaultPolicies(cfg Config, apply ApplyFunc) map[models.Kind]KindPolicy {
	cfg = cfg.withDefaults()
	return map[models.Kind]KindPolicy{
		models.KindTrade: {
			Kind:               models.KindTrade,
			Document:           store.DocPendingTrades,
			CounterpartyPhase:  true,
			ReviewerRoles:      []string{cfg.CommitteeRoleID},
			Quorum:             tally.Majority(tally.CommitteeQuorum),
			CounterpartyWindow: cfg.CounterpartyWindow,
			CommitteeWindow:    cfg.CommitteeWindow,
			TieBreak:           tally.TieDeny,
			Apply:              apply,
		},
		models.KindScore: {
			Kind:          models.KindScore,
			Document:      store.DocScoreRequests,
			ReviewerRoles: []string{cfg.CommitteeRoleID},
			Quorum:        tally.SingleResponder(),
			Apply:         apply,
		},
		models.KindProgression: {
			Kind:          models.KindProgression,
			Document:      store.DocProgressionRequests,
			ReviewerRoles: cfg.staffRoles(),
			Quorum:        tally.SingleResponder(),
			Apply:         apply,
		},
	}
}

// Deps are the engine's collaborators.
type Deps struct {
	Store     *store.Store
	Teams     TeamSource
	Directory league.Directory
	Applier   Applier
	Notifier  Notifier
	Config    Config
}

// Engine runs the negotiation state machine. Each proposal book is a store
// document, so transitions on one kind are serialized by the store.
type Engine struct {
	store    *store.Store
	teams    TeamSource
	dir      league.Directory
	notifier Notifier
	cfg      Config
	policies map[models.Kind]KindPolicy

	now   func() time.Time
	newID func(models.Kind) string
	coin  func() bool
}

func New(d Deps) *Engine {
	cfg := d.Config.withDefaults()
	var apply ApplyFunc
	if d.Applier != nil {
		apply = d.Applier.Apply
	}
	return &Engine{
		store:    d.Store,
		teams:    d.Teams,
		dir:      d.Directory,
		notifier: d.Notifier,
		cfg:      cfg,
		policies: DefaultPolicies(cfg, apply),
		now:      time.Now,
		newID: func(k models.Kind) string {
			return string(k) + "_" + uuid.NewString()
		},
		coin: func() bool { return rand.IntN(2) == 0 },
	}
}

// SetClock replaces the time source, for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SetCoin replaces the coin used for TieCoinFlip policies, for tests.
func (e *Engine) SetCoin(coin func() bool) { e.coin = coin }

// SetPolicy replaces the policy for one kind.
func (e *Engine) SetPolicy(p KindPolicy) { e.policies[p.Kind] = p }

// Policy returns the policy for kind.
func (e *Engine) Policy(kind models.Kind) (KindPolicy, bool) {
	p, ok := e.policies[kind]
	return p, ok
}

// KindOfID recovers the proposal kind from its id prefix.
func KindOfID(id string) (models.Kind, bool) {
	prefix, _, ok := strings.Cut(id, "_")
	if !ok {
		return "", false
	}
	switch k := models.Kind(prefix); k {
	case models.KindTrade, models.KindScore, models.KindProgression:
		return k, true
	}
	return "", false
}

func (e *Engine) policyForID(id string) (KindPolicy, error) {
	kind, ok := KindOfID(id)
	if !ok {
		return KindPolicy{}, apperr.Wrap(apperr.KindNotFound, fmt.Sprintf("no proposal %q", id), ErrNotFound)
	}
	p, ok := e.policies[kind]
	if !ok {
		return KindPolicy{}, apperr.Input(fmt.Sprintf("proposal kind %q is not enabled", kind))
	}
	return p, nil
}

// Get returns one proposal.
func (e *Engine) Get(ctx context.Context, id string) (models.Proposal, error) {
	policy, err := e.policyForID(id)
	if err != nil {
		return models.Proposal{}, err
	}
	book, err := store.Load[[]models.Proposal](ctx, e.store, policy.Document)
	if err != nil {
		return models.Proposal{}, apperr.Wrap(apperr.KindInfrastructure, "failed to load proposals", err)
	}
	for _, p := range book {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Proposal{}, notFound(id)
}

// List returns every stored proposal of kind, oldest first.
func (e *Engine) List(ctx context.Context, kind models.Kind) ([]models.Proposal, error) {
	policy, ok := e.policies[kind]
	if !ok {
		return nil, apperr.Input(fmt.Sprintf("unknown proposal kind %q", kind))
	}
	book, err := store.Load[[]models.Proposal](ctx, e.store, policy.Document)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, "failed to load proposals", err)
	}
	sort.SliceStable(book, func(i, j int) bool { return book[i].CreatedAt.Before(book[j].CreatedAt) })
	return book, nil
}

// ListActive returns the non-terminal proposals of kind.
func (e *Engine) ListActive(ctx context.Context, kind models.Kind) ([]models.Proposal, error) {
	all, err := e.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, p := range all {
		if !p.Status.Terminal() {
			active = append(active, p)
		}
	}
	return active, nil
}

// Transition reports what an event did to a proposal.
type Transition struct {
	ProposalID string
	From       models.Status
	To         models.Status
	Changed    bool
	Report     *models.ApplyReport
	Proposal   models.Proposal
}

func notFound(id string) error {
	return apperr.WrapWithMetadata(apperr.KindNotFound, fmt.Sprintf("no proposal %q", id),
		map[string]string{"proposal_id": id}, ErrNotFound)
}

func staleError(p models.Proposal) error {
	return apperr.WrapWithMetadata(apperr.KindConflict,
		fmt.Sprintf("this %s proposal is already %s", p.Kind, p.Status),
		map[string]string{"proposal_id": p.ID, "status": string(p.Status)}, ErrStale)
}

func wrongPhase(p models.Proposal) error {
	return apperr.WrapWithMetadata(apperr.KindConflict,
		fmt.Sprintf("this %s proposal is %s", p.Kind, strings.ReplaceAll(string(p.Status), "_", " ")),
		map[string]string{"proposal_id": p.ID, "status": string(p.Status)}, ErrWrongPhase)
}

func logTransition(p models.Proposal, from models.Status) {
	slog.Info("proposal transition",
		"proposal_id", p.ID, "kind", p.Kind, "from", from, "to", p.Status)
}

func findProposal(book []models.Proposal, id string) int {
	for i := range book {
		if book[i].ID == id {
			return i
		}
	}
	return -1
}

// finish runs after a transition to a terminal status has been committed:
// approved proposals are applied, then the resolution is announced.
func (e *Engine) finish(ctx context.Context, policy KindPolicy, p models.Proposal) *models.ApplyReport {
	var report *models.ApplyReport
	if p.Status == models.StatusApproved {
		report = e.apply(ctx, policy, p)
	}
	if e.notifier != nil {
		if err := e.notifier.Resolved(ctx, p, report); err != nil {
			slog.Warn("resolution notification failed", "proposal_id", p.ID, "error", err)
		}
	}
	return report
}

// apply runs the outcome and records the result on the proposal. A failed
// apply leaves AppliedAt unset so the sweeper retries it.
func (e *Engine) apply(ctx context.Context, policy KindPolicy, p models.Proposal) *models.ApplyReport {
	if policy.Apply == nil {
		return nil
	}

	report, applyErr := policy.Apply(ctx, p)
	now := e.now()
	err := store.Update(ctx, e.store, policy.Document, func(book *[]models.Proposal) error {
		i := findProposal(*book, p.ID)
		if i < 0 {
			return nil
		}
		if applyErr != nil {
			(*book)[i].ApplyError = applyErr.Error()
			return nil
		}
		(*book)[i].AppliedAt = &now
		(*book)[i].ApplyError = ""
		return nil
	})
	if err != nil {
		slog.Error("failed to record apply result", "proposal_id", p.ID, "error", err)
	}
	if applyErr != nil {
		slog.Error("failed to apply approved proposal", "proposal_id", p.ID, "kind", p.Kind, "error", applyErr)
		return nil
	}
	slog.Info("proposal applied", "proposal_id", p.ID, "kind", p.Kind,
		"moved", len(report.Moved), "unmatched", len(report.Unmatched), "recorded", report.Recorded)
	return &report
}

// announce posts the stage message for p and remembers its id.
func (e *Engine) announce(ctx context.Context, policy KindPolicy, p models.Proposal) {
	if e.notifier == nil {
		return
	}
	msgID, err := e.notifier.Opened(ctx, p)
	if err != nil {
		slog.Warn("stage notification failed", "proposal_id", p.ID, "status", p.Status, "error", err)
		return
	}
	if msgID == "" {
		return
	}
	err = store.Update(ctx, e.store, policy.Document, func(book *[]models.Proposal) error {
		i := findProposal(*book, p.ID)
		if i < 0 {
			return nil
		}
		switch p.Status {
		case models.StatusAwaitingCounterparty:
			(*book)[i].Messages.Counterparty = msgID
		case models.StatusInCommittee:
			(*book)[i].Messages.Committee = msgID
		}
		return nil
	})
	if err != nil {
		slog.Warn("failed to record message id", "proposal_id", p.ID, "error", err)
	}
}
