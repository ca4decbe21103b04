// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package outcome

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/danielhkuo/courtside/apperr"
	"github.com/danielhkuo/courtside/league"
	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/store"
)

// DefaultRegressionDelay separates an approved upgrade from its paired
// regression notice.
const DefaultRegressionDelay = 7 * 24 * time.Hour

// TradeLedgerEntry records an applied trade so replays are no-ops.
type TradeLedgerEntry struct {
	AppliedAt time.Time          `json:"appliedAt"`
	Report    models.ApplyReport `json:"report"`
}

// Applier mutates rosters, picks, scores and standings once a proposal is
// approved. Every Apply is idempotent per proposal id.
type Applier struct {
	store           *store.Store
	regressionDelay time.Duration
	now             func() time.Time
}

// New creates an applier. A zero regressionDelay uses DefaultRegressionDelay.
func New(s *store.Store, regressionDelay time.Duration) *Applier {
	if regressionDelay <= 0 {
		regressionDelay = DefaultRegressionDelay
	}
	return &Applier{store: s, regressionDelay: regressionDelay, now: time.Now}
}

// SetClock replaces the time source, for tests.
func (a *Applier) SetClock(now func() time.Time) {
	a.now = now
}

// Apply dispatches on the proposal kind.
func (a *Applier) Apply(ctx context.Context, p models.Proposal) (models.ApplyReport, error) {
	switch p.Kind {
	case models.KindTrade:
		return a.ApplyTrade(ctx, p)
	case models.KindScore:
		return a.ApplyScore(ctx, p)
	case models.KindProgression:
		return a.ApplyProgression(ctx, p)
	default:
		return models.ApplyReport{}, apperr.Input(fmt.Sprintf("unknown proposal kind %q", p.Kind))
	}
}

// ApplyTrade moves the matched players and picks of both sides. Assets that
// match nothing are reported, not fatal: the trade stays approved.
func (a *Applier) ApplyTrade(ctx context.Context, p models.Proposal) (models.ApplyReport, error) {
	if p.Trade == nil {
		return models.ApplyReport{}, apperr.Input("trade proposal has no payload")
	}
	from, to := p.Trade.FromTeam, p.Trade.ToTeam
	if league.Slug(from) == league.Slug(to) {
		return models.ApplyReport{}, apperr.Input("a team cannot trade with itself")
	}

	teams, err := store.Load[[]models.Team](ctx, a.store, store.DocTeams)
	if err != nil {
		return models.ApplyReport{}, err
	}

	var report models.ApplyReport
	err = store.Update(ctx, a.store, store.DocTradeLedger, func(ledger *map[string]TradeLedgerEntry) error {
		if *ledger == nil {
			*ledger = make(map[string]TradeLedgerEntry)
		}
		if prev, ok := (*ledger)[p.ID]; ok {
			report = prev.Report
			return errAlreadyApplied
		}

		moved, err := a.moveAssets(ctx, teams, from, to, p.Trade)
		if err != nil {
			return err
		}
		report = moved
		(*ledger)[p.ID] = TradeLedgerEntry{AppliedAt: a.now(), Report: report}
		return nil
	})
	if errors.Is(err, errAlreadyApplied) {
		return report, nil
	}
	if err != nil {
		return models.ApplyReport{}, err
	}

	if len(report.Moved) == 0 {
		slog.Warn("trade approved but no assets matched",
			"proposal_id", p.ID, "from", from, "to", to, "unmatched", report.Unmatched)
	} else if len(report.Unmatched) > 0 {
		slog.Warn("trade approved with unmatched assets",
			"proposal_id", p.ID, "unmatched", report.Unmatched)
	}
	return report, nil
}

var errAlreadyApplied = errors.New("already applied")

// moveAssets opens both roster documents in name order, then the pick
// ledger, and moves each side's assets to the other team.
func (a *Applier) moveAssets(ctx context.Context, teams []models.Team, from, to string, t *models.TradePayload) (models.ApplyReport, error) {
	var report models.ApplyReport

	docs := []string{store.RosterDoc(league.Slug(from)), store.RosterDoc(league.Slug(to))}
	sort.Strings(docs)
	rosters := make(map[string]*models.Roster, 2)

	err := store.Update(ctx, a.store, docs[0], func(first *models.Roster) error {
		return store.Update(ctx, a.store, docs[1], func(second *models.Roster) error {
			rosters[docs[0]], rosters[docs[1]] = first, second
			fromRoster := rosters[store.RosterDoc(league.Slug(from))]
			toRoster := rosters[store.RosterDoc(league.Slug(to))]
			fromRoster.Team, toRoster.Team = from, to

			return store.Update(ctx, a.store, store.DocPicks, func(ledger *models.PickLedger) error {
				if *ledger == nil {
					*ledger = models.PickLedger{}
				}
				moveSide(&report, teams, ParseAssets(t.Give), from, to, fromRoster, toRoster, *ledger)
				moveSide(&report, teams, ParseAssets(t.Receive), to, from, toRoster, fromRoster, *ledger)
				return nil
			})
		})
	})
	if err != nil {
		return models.ApplyReport{}, err
	}

	if len(report.Moved) == 0 {
		report.Warnings = append(report.Warnings, "no listed asset matched a roster or pick ledger; rosters unchanged")
	}
	for _, u := range report.Unmatched {
		report.Warnings = append(report.Warnings, fmt.Sprintf("unmatched asset skipped: %s", u))
	}
	return report, nil
}

func moveSide(report *models.ApplyReport, teams []models.Team, assets []Asset, from, to string, src, dst *models.Roster, ledger models.PickLedger) {
	for _, asset := range assets {
		if asset.Pick != nil {
			origin := ""
			if asset.Pick.Team != "" {
				if team, err := league.ResolveTeam(teams, asset.Pick.Team); err == nil {
					origin = team.Name
				}
			}
			i, ok := matchPick(ledger[from], from, asset.Pick, origin)
			if !ok {
				report.Unmatched = append(report.Unmatched, asset.Raw)
				continue
			}
			pick := ledger[from][i]
			ledger[from] = append(ledger[from][:i:i], ledger[from][i+1:]...)
			if pick.OriginalTeam == "" {
				pick.OriginalTeam = from
			}
			if asset.Pick.Protection != "" {
				pick.Protection = asset.Pick.Protection
			}
			ledger[to] = append(ledger[to], pick)
			report.Moved = append(report.Moved, fmt.Sprintf("%s → %s", FormatPick(pick, from), to))
			continue
		}

		i, ok := matchPlayer(src.Players, asset.Raw)
		if !ok {
			report.Unmatched = append(report.Unmatched, asset.Raw)
			continue
		}
		player := src.Players[i]
		src.Players = append(src.Players[:i:i], src.Players[i+1:]...)
		dst.Players = append(dst.Players, player)
		report.Moved = append(report.Moved, fmt.Sprintf("%s → %s", player.Name, to))
	}
}

// ApplyScore records the approved game.
func (a *Applier) ApplyScore(ctx context.Context, p models.Proposal) (models.ApplyReport, error) {
	if p.Score == nil {
		return models.ApplyReport{}, apperr.Input("score proposal has no payload")
	}
	approvedAt := a.now()
	if p.ResolvedAt != nil {
		approvedAt = *p.ResolvedAt
	}

	recorded, err := a.RecordGame(ctx, models.GameRecord{
		ProposalID: p.ID,
		TeamA:      p.Score.TeamA,
		ScoreA:     p.Score.ScoreA,
		TeamB:      p.Score.TeamB,
		ScoreB:     p.Score.ScoreB,
		Week:       p.Score.Week,
		SeasonNo:   p.Score.SeasonNo,
		Approved:   true,
		ApprovedBy: p.ResolvedBy,
		ApprovedAt: approvedAt,
		Source:     "submitted",
	})
	if err != nil {
		return models.ApplyReport{}, err
	}
	report := models.ApplyReport{Recorded: recorded}
	if !recorded {
		report.Warnings = append(report.Warnings, "game already recorded")
	}
	return report, nil
}

// RecordGame appends a finalized game, marks its schedule slot played and
// recomputes both teams' standings. A game already recorded for the same
// proposal, or the same pairing in the same week and season, is skipped
// and reported as not recorded.
func (a *Applier) RecordGame(ctx context.Context, rec models.GameRecord) (bool, error) {
	if rec.ScoreA == rec.ScoreB {
		return false, apperr.Input("games cannot end in a tie")
	}

	var season []models.GameRecord
	recorded := false
	err := store.Update(ctx, a.store, store.DocScores, func(scores *[]models.GameRecord) error {
		for _, g := range *scores {
			if rec.ProposalID != "" && g.ProposalID == rec.ProposalID {
				return nil
			}
			if g.Approved && g.SeasonNo == rec.SeasonNo && g.Week == rec.Week && SamePair(g.TeamA, g.TeamB, rec.TeamA, rec.TeamB) {
				return nil
			}
		}
		*scores = append(*scores, rec)
		recorded = true
		for _, g := range *scores {
			if g.Approved && g.SeasonNo == rec.SeasonNo {
				season = append(season, g)
			}
		}
		return nil
	})
	if err != nil || !recorded {
		return false, err
	}

	err = store.Update(ctx, a.store, store.DocSchedule, func(games *[]models.ScheduledGame) error {
		for i, g := range *games {
			if g.Week == rec.Week && SamePair(g.Home, g.Away, rec.TeamA, rec.TeamB) {
				(*games)[i].Played = true
			}
		}
		return nil
	})
	if err != nil {
		return true, err
	}

	err = store.Update(ctx, a.store, store.DocStandings, func(st *models.Standings) error {
		if *st == nil {
			*st = models.Standings{}
		}
		(*st)[rec.TeamA] = ComputeStanding(season, rec.TeamA)
		(*st)[rec.TeamB] = ComputeStanding(season, rec.TeamB)
		return nil
	})
	if err != nil {
		return true, err
	}

	slog.Info("game recorded",
		"season", rec.SeasonNo, "week", rec.Week,
		"team_a", rec.TeamA, "score_a", rec.ScoreA,
		"team_b", rec.TeamB, "score_b", rec.ScoreB,
		"source", rec.Source)
	return true, nil
}

// ComputeStanding aggregates team's record from games.
func ComputeStanding(games []models.GameRecord, team string) models.Standing {
	var s models.Standing
	for _, g := range games {
		var pf, pa int
		switch team {
		case g.TeamA:
			pf, pa = g.ScoreA, g.ScoreB
		case g.TeamB:
			pf, pa = g.ScoreB, g.ScoreA
		default:
			continue
		}
		s.Games++
		s.PointsFor += pf
		s.PointsAgainst += pa
		if pf > pa {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	return s
}

// SamePair reports whether {a1, b1} and {a2, b2} are the same matchup in
// either order.
func SamePair(a1, b1, a2, b2 string) bool {
	return (a1 == a2 && b1 == b2) || (a1 == b2 && b1 == a2)
}

// ApplyProgression appends the upgrade to the player's history and queues
// the paired one-point regression notice.
func (a *Applier) ApplyProgression(ctx context.Context, p models.Proposal) (models.ApplyReport, error) {
	if p.Progression == nil {
		return models.ApplyReport{}, apperr.Input("progression proposal has no payload")
	}
	prog := p.Progression
	approvedAt := a.now()
	if p.ResolvedAt != nil {
		approvedAt = *p.ResolvedAt
	}

	recorded := false
	err := store.Update(ctx, a.store, store.DocProgressionHistory, func(history *map[string][]models.UpgradeRecord) error {
		if *history == nil {
			*history = make(map[string][]models.UpgradeRecord)
		}
		for _, r := range (*history)[prog.Player] {
			if r.ProposalID == p.ID {
				return nil
			}
		}
		(*history)[prog.Player] = append((*history)[prog.Player], models.UpgradeRecord{
			ProposalID: p.ID,
			Player:     prog.Player,
			Team:       prog.Team,
			SkillSet:   prog.SkillSet,
			Upgrade:    prog.Upgrade,
			ApprovedBy: p.ResolvedBy,
			ApprovedAt: approvedAt,
		})
		recorded = true
		return nil
	})
	if err != nil {
		return models.ApplyReport{}, err
	}

	err = store.Update(ctx, a.store, store.DocRegressionNotices, func(notices *[]models.RegressionNotice) error {
		for _, n := range *notices {
			if n.ProposalID == p.ID {
				return nil
			}
		}
		*notices = append(*notices, models.RegressionNotice{
			ProposalID: p.ID,
			Player:     prog.Player,
			SkillSet:   prog.SkillSet,
			MemberID:   p.ProposerID,
			Points:     1,
			DueAt:      approvedAt.Add(a.regressionDelay),
		})
		return nil
	})
	if err != nil {
		return models.ApplyReport{}, err
	}

	report := models.ApplyReport{Recorded: recorded}
	if !recorded {
		report.Warnings = append(report.Warnings, "upgrade already recorded")
	}
	return report, nil
}
