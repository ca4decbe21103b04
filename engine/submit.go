// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielhkuo/courtside/apperr"
	"github.com/danielhkuo/courtside/league"
	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/outcome"
	"github.com/danielhkuo/courtside/store"
)

// Submit validates a new proposal, rejects duplicates of an active one and
// routes it to its first review stage.
func (e *Engine) Submit(ctx context.Context, req models.SubmitProposalRequest) (models.Proposal, error) {
	policy, ok := e.policies[req.Kind]
	if !ok {
		return models.Proposal{}, apperr.Input(fmt.Sprintf("unknown proposal kind %q", req.Kind))
	}
	if strings.TrimSpace(req.ProposerID) == "" {
		return models.Proposal{}, apperr.Input("proposer is required")
	}

	now := e.now()
	p := models.Proposal{
		ID:         e.newID(req.Kind),
		Kind:       req.Kind,
		ProposerID: req.ProposerID,
		Status:     models.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var err error
	switch req.Kind {
	case models.KindTrade:
		err = e.prepareTrade(ctx, &p, req.Trade)
	case models.KindScore:
		err = e.prepareScore(ctx, &p, req.Score)
	case models.KindProgression:
		err = e.prepareProgression(ctx, &p, req.Progression)
	}
	if err != nil {
		return models.Proposal{}, err
	}

	if policy.CounterpartyPhase {
		p.Status = models.StatusAwaitingCounterparty
		deadline := now.Add(policy.CounterpartyWindow)
		p.Deadline = &deadline
	} else {
		p.Status = models.StatusInCommittee
		if policy.CommitteeWindow > 0 {
			deadline := now.Add(policy.CommitteeWindow)
			p.Deadline = &deadline
		}
	}

	err = store.Update(ctx, e.store, policy.Document, func(book *[]models.Proposal) error {
		if existing, dup := findDuplicate(*book, p); dup {
			return duplicateError(existing)
		}
		if p.Kind == models.KindScore {
			scores, err := store.Load[[]models.GameRecord](ctx, e.store, store.DocScores)
			if err != nil {
				return err
			}
			if game, dup := recordedGame(scores, *p.Score); dup {
				return apperr.WrapWithMetadata(apperr.KindConflict,
					fmt.Sprintf("week %d between %s and %s is already recorded (%d-%d)",
						game.Week, game.TeamA, game.TeamB, game.ScoreA, game.ScoreB),
					map[string]string{"status": string(models.StatusApproved)}, ErrDuplicate)
			}
		}
		*book = append(*book, p)
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInfrastructure {
			return models.Proposal{}, apperr.Wrap(apperr.KindInfrastructure, "failed to save proposal", err)
		}
		return models.Proposal{}, err
	}

	logTransition(p, models.StatusPending)
	e.announce(ctx, policy, p)
	return p, nil
}

func (e *Engine) resolveTeam(text, field string) (models.Team, error) {
	team, err := league.ResolveTeam(e.teams.Teams(), text)
	if err == nil {
		return team, nil
	}

	var amb *league.AmbiguousError
	switch {
	case errors.As(err, &amb):
		return models.Team{}, apperr.WrapWithMetadata(apperr.KindInput,
			fmt.Sprintf("%s %q could be %s", field, text, strings.Join(amb.Candidates, " or ")),
			map[string]string{"field": field}, err)
	default:
		return models.Team{}, apperr.WrapWithMetadata(apperr.KindInput,
			fmt.Sprintf("%s %q is not a team in this league", field, text),
			map[string]string{"field": field}, err)
	}
}

func (e *Engine) isAdmin(m league.Member) bool {
	return league.HasAny(m.Roles, e.cfg.AdminRoleIDs...)
}

func (e *Engine) isStaff(m league.Member) bool {
	return league.HasAny(m.Roles, e.cfg.staffRoles()...)
}

// member looks the actor up; unknown members get an empty role set.
func (e *Engine) member(ctx context.Context, id string) (league.Member, error) {
	m, err := e.dir.Member(ctx, id)
	if errors.Is(err, league.ErrMemberNotFound) {
		return league.Member{ID: id}, nil
	}
	if err != nil {
		return league.Member{}, apperr.Wrap(apperr.KindInfrastructure, "failed to look up member", err)
	}
	return m, nil
}

func (e *Engine) prepareTrade(ctx context.Context, p *models.Proposal, in *models.TradePayload) error {
	if in == nil {
		return apperr.Input("trade details are required")
	}
	proposer, err := e.member(ctx, p.ProposerID)
	if err != nil {
		return err
	}

	var from models.Team
	if strings.TrimSpace(in.FromTeam) == "" {
		coached := league.TeamsOfMember(e.teams.Teams(), proposer)
		if len(coached) != 1 {
			return apperr.Input("name the team you are trading from")
		}
		from = coached[0]
	} else if from, err = e.resolveTeam(in.FromTeam, "from team"); err != nil {
		return err
	}

	to, err := e.resolveTeam(in.ToTeam, "to team")
	if err != nil {
		return err
	}
	if from.Name == to.Name {
		return apperr.Input("a team cannot trade with itself")
	}
	if !league.HasAny(proposer.Roles, from.RoleID) && !e.isAdmin(proposer) {
		return apperr.Authorization(fmt.Sprintf("only the %s coach can propose their trades", from.Name))
	}
	if len(outcome.ParseAssets(in.Give))+len(outcome.ParseAssets(in.Receive)) == 0 {
		return apperr.Input("list at least one player or pick")
	}

	coach, err := league.ResolveCoach(ctx, e.dir, to, e.cfg.staffRoles())
	if errors.Is(err, league.ErrCoachNotFound) {
		return apperr.WrapWithMetadata(apperr.KindInput,
			fmt.Sprintf("nobody coaches %s right now", to.Name),
			map[string]string{"team": to.Name}, err)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, "failed to resolve coach", err)
	}
	if coach.MemberID == p.ProposerID {
		return apperr.Input("you cannot be the counter-party of your own trade")
	}

	p.CounterpartyID = coach.MemberID
	p.Trade = &models.TradePayload{
		FromTeam: from.Name,
		ToTeam:   to.Name,
		Give:     strings.TrimSpace(in.Give),
		Receive:  strings.TrimSpace(in.Receive),
		Note:     strings.TrimSpace(in.Note),
	}
	return nil
}

func (e *Engine) prepareScore(ctx context.Context, p *models.Proposal, in *models.ScorePayload) error {
	if in == nil {
		return apperr.Input("score details are required")
	}
	a, err := e.resolveTeam(in.TeamA, "team A")
	if err != nil {
		return err
	}
	b, err := e.resolveTeam(in.TeamB, "team B")
	if err != nil {
		return err
	}
	switch {
	case a.Name == b.Name:
		return apperr.Input("a team cannot play itself")
	case in.ScoreA < 0 || in.ScoreB < 0:
		return apperr.Input("scores cannot be negative")
	case in.ScoreA == in.ScoreB:
		return apperr.Input("games cannot end in a tie")
	case in.Week < 1:
		return apperr.Input("week must be 1 or later")
	}

	proposer, err := e.member(ctx, p.ProposerID)
	if err != nil {
		return err
	}
	if !league.HasAny(proposer.Roles, a.RoleID, b.RoleID) && !e.isStaff(proposer) {
		return apperr.Authorization(fmt.Sprintf("only the %s or %s coach can submit this score", a.Name, b.Name))
	}

	// Scores always belong to the running season
	season, err := store.Load[models.Season](ctx, e.store, store.DocSeason)
	if err != nil {
		return apperr.Wrap(apperr.KindInfrastructure, "failed to load season", err)
	}
	seasonNo := season.SeasonNo
	if in.SeasonNo != 0 && in.SeasonNo != seasonNo {
		return apperr.WithMetadata(apperr.KindInput,
			fmt.Sprintf("scores can only be filed for season %d", seasonNo),
			map[string]string{"season": strconv.Itoa(seasonNo)})
	}

	p.Score = &models.ScorePayload{
		TeamA: a.Name, ScoreA: in.ScoreA,
		TeamB: b.Name, ScoreB: in.ScoreB,
		Week: in.Week, SeasonNo: seasonNo,
	}
	return nil
}

func (e *Engine) prepareProgression(ctx context.Context, p *models.Proposal, in *models.ProgressionPayload) error {
	if in == nil {
		return apperr.Input("progression details are required")
	}
	player := strings.TrimSpace(in.Player)
	skill := strings.TrimSpace(in.SkillSet)
	upgrade := strings.TrimSpace(in.Upgrade)
	switch {
	case player == "":
		return apperr.Input("player is required")
	case skill == "":
		return apperr.Input("skill set is required")
	case upgrade == "":
		return apperr.Input("upgrade is required")
	}

	team := ""
	if strings.TrimSpace(in.Team) != "" {
		t, err := e.resolveTeam(in.Team, "team")
		if err != nil {
			return err
		}
		team = t.Name
	} else {
		proposer, err := e.member(ctx, p.ProposerID)
		if err != nil {
			return err
		}
		if coached := league.TeamsOfMember(e.teams.Teams(), proposer); len(coached) == 1 {
			team = coached[0].Name
		}
	}

	p.Progression = &models.ProgressionPayload{
		Player:   player,
		Team:     team,
		SkillSet: skill,
		Upgrade:  upgrade,
		Evidence: strings.TrimSpace(in.Evidence),
	}
	return nil
}

// findDuplicate returns the active proposal covering the same subject as p.
func findDuplicate(book []models.Proposal, p models.Proposal) (models.Proposal, bool) {
	for _, other := range book {
		if other.Kind != p.Kind || !blocksResubmit(other) {
			continue
		}
		if sameSubject(other, p) {
			return other, true
		}
	}
	return models.Proposal{}, false
}

// blocksResubmit reports whether p still occupies its subject. Approved
// scores keep blocking until they are pruned, so a replayed submission
// cannot record the same game twice.
func blocksResubmit(p models.Proposal) bool {
	if !p.Status.Terminal() {
		return true
	}
	return p.Kind == models.KindScore && p.Status == models.StatusApproved
}

func sameSubject(a, b models.Proposal) bool {
	switch a.Kind {
	case models.KindTrade:
		return a.Trade != nil && b.Trade != nil &&
			outcome.SamePair(a.Trade.FromTeam, a.Trade.ToTeam, b.Trade.FromTeam, b.Trade.ToTeam)
	case models.KindScore:
		return a.Score != nil && b.Score != nil &&
			a.Score.Week == b.Score.Week && a.Score.SeasonNo == b.Score.SeasonNo &&
			outcome.SamePair(a.Score.TeamA, a.Score.TeamB, b.Score.TeamA, b.Score.TeamB)
	case models.KindProgression:
		if a.Progression == nil || b.Progression == nil {
			return false
		}
		if league.Normalize(a.Progression.Player) != league.Normalize(b.Progression.Player) ||
			league.Normalize(a.Progression.SkillSet) != league.Normalize(b.Progression.SkillSet) {
			return false
		}
		ua := league.CollapseSpace(a.Progression.Upgrade)
		ub := league.CollapseSpace(b.Progression.Upgrade)
		return strings.Contains(ua, ub) || strings.Contains(ub, ua)
	}
	return false
}

func recordedGame(scores []models.GameRecord, s models.ScorePayload) (models.GameRecord, bool) {
	for _, g := range scores {
		if g.Approved && g.SeasonNo == s.SeasonNo && g.Week == s.Week &&
			outcome.SamePair(g.TeamA, g.TeamB, s.TeamA, s.TeamB) {
			return g, true
		}
	}
	return models.GameRecord{}, false
}

func duplicateError(existing models.Proposal) error {
	return apperr.WrapWithMetadata(apperr.KindConflict,
		fmt.Sprintf("an active %s proposal already covers this (%s, %s)",
			existing.Kind, existing.ID, strings.ReplaceAll(string(existing.Status), "_", " ")),
		map[string]string{"proposal_id": existing.ID, "status": string(existing.Status)}, ErrDuplicate)
}
