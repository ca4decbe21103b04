// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package season

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
)

// ForfeitScore is the margin recorded for a forced result.
const ForfeitScore = 20

// Simulated scores fall in this range.
const (
	simLow  = 85
	simHigh = 130
)

// Definitions supplies the league file; *league.Registry satisfies it.
type Definitions interface {
	Definition() league.Definition
	Teams() []models.Team
}

// GameRecorder is satisfied by *outcome.Applier.
type GameRecorder interface {
	RecordGame(ctx context.Context, rec models.GameRecord) (bool, error)
}

// Config holds the roles allowed to run staff commands.
type Config struct {
	StaffRoleID  string
	AdminRoleIDs []string
}

// Service implements the staff and coach commands around a season.
type Service struct {
	store    *store.Store
	league   Definitions
	dir      league.Directory
	recorder GameRecorder
	cfg      Config

	now func() time.Time
	rnd *rand.Rand
}

func New(s *store.Store, defs Definitions, dir league.Directory, recorder GameRecorder, cfg Config) *Service {
	return &Service{
		store:    s,
		league:   defs,
		dir:      dir,
		recorder: recorder,
		cfg:      cfg,
		now:      time.Now,
		rnd:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetClock replaces the time source, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SetSeed makes simulated scores reproducible, for tests.
func (s *Service) SetSeed(seed uint64) { s.rnd = rand.New(rand.NewPCG(seed, seed)) }

func (s *Service) member(ctx context.Context, id string) (league.Member, error) {
	m, err := s.dir.Member(ctx, id)
	if errors.Is(err, league.ErrMemberNotFound) {
		return league.Member{ID: id}, nil
	}
	if err != nil {
		return league.Member{}, apperr.Wrap(apperr.KindInfrastructure, "failed to look up member", err)
	}
	return m, nil
}

func (s *Service) requireStaff(ctx context.Context, actorID string) error {
	m, err := s.member(ctx, actorID)
	if err != nil {
		return err
	}
	roles := append([]string{s.cfg.StaffRoleID}, s.cfg.AdminRoleIDs...)
	if !league.HasAny(m.Roles, roles...) {
		return apperr.Authorization("this command is for league staff")
	}
	return nil
}

func (s *Service) current(ctx context.Context) (models.Season, error) {
	season, err := store.Load[models.Season](ctx, s.store, store.DocSeason)
	if err != nil {
		return models.Season{}, apperr.Wrap(apperr.KindInfrastructure, "failed to load season", err)
	}
	return season, nil
}

func (s *Service) requireStarted(ctx context.Context) (models.Season, error) {
	season, err := s.current(ctx)
	if err != nil {
		return models.Season{}, err
	}
	if season.SeasonNo == 0 {
		return models.Season{}, apperr.Input("no season has been started")
	}
	return season, nil
}

// ConfirmPhrase is what Start expects to be typed for the next season.
func ConfirmPhrase(next int) string {
	return fmt.Sprintf("START SEASON %d", next)
}

// Start begins the next season. It is destructive: rosters, picks,
// standings, schedule and trade block are reset from the league file. The
// caller must echo ConfirmPhrase for the new season number. Recorded games
// are kept and stay attributed to their season.
func (s *Service) Start(ctx context.Context, actorID, confirm string) (models.Season, error) {
	if err := s.requireStaff(ctx, actorID); err != nil {
		return models.Season{}, err
	}
	prev, err := s.current(ctx)
	if err != nil {
		return models.Season{}, err
	}
	next := prev.SeasonNo + 1
	phrase := ConfirmPhrase(next)
	if strings.TrimSpace(confirm) != phrase {
		return models.Season{}, apperr.WithMetadata(apperr.KindInput,
			fmt.Sprintf("type %q to confirm; this resets rosters, picks and standings", phrase),
			map[string]string{"confirm": phrase})
	}

	def := s.league.Definition()
	if len(def.Teams) < 2 {
		return models.Season{}, apperr.Input("the league file needs at least two teams")
	}

	teams := make([]models.Team, len(def.Teams))
	names := make([]string, len(def.Teams))
	ledger := models.PickLedger{}
	standings := models.Standings{}
	keep := make(map[string]bool)
	for i, td := range def.Teams {
		teams[i] = td.Team
		names[i] = td.Name
		ledger[td.Name] = append([]models.Pick(nil), td.Picks...)
		standings[td.Name] = models.Standing{}

		doc := store.RosterDoc(league.Slug(td.Name))
		keep[doc] = true
		roster := models.Roster{Team: td.Name, Players: append([]models.Player(nil), td.Roster...)}
		if err := store.Put(ctx, s.store, doc, roster); err != nil {
			return models.Season{}, apperr.Wrap(apperr.KindInfrastructure, "failed to seed roster", err)
		}
	}

	// Rosters of teams no longer in the league file
	existing, err := s.store.List(ctx, store.RosterDoc(""))
	if err != nil {
		return models.Season{}, apperr.Wrap(apperr.KindInfrastructure, "failed to list rosters", err)
	}
	for _, doc := range existing {
		if !keep[doc] {
			if err := s.store.Delete(ctx, doc); err != nil {
				return models.Season{}, apperr.Wrap(apperr.KindInfrastructure, "failed to remove roster", err)
			}
		}
	}

	season := models.Season{SeasonNo: next, Week: 1, StartedAt: s.now()}
	writes := []struct {
		name string
		put  func() error
	}{
		{store.DocTeams, func() error { return store.Put(ctx, s.store, store.DocTeams, teams) }},
		{store.DocPicks, func() error { return store.Put(ctx, s.store, store.DocPicks, ledger) }},
		{store.DocStandings, func() error { return store.Put(ctx, s.store, store.DocStandings, standings) }},
		{store.DocSchedule, func() error {
			return store.Put(ctx, s.store, store.DocSchedule, RoundRobin(names, def.Weeks))
		}},
		{store.DocTradeBlock, func() error { return store.Put(ctx, s.store, store.DocTradeBlock, models.TradeBlock{}) }},
		{store.DocSeason, func() error { return store.Put(ctx, s.store, store.DocSeason, season) }},
	}
	for _, w := range writes {
		if err := w.put(); err != nil {
			return models.Season{}, apperr.Wrap(apperr.KindInfrastructure, "failed to write "+w.name, err)
		}
	}

	slog.Info("season started", "season", next, "teams", len(teams), "actor", actorID)
	return season, nil
}

// AdvanceWeek moves the season to the next scheduled week.
func (s *Service) AdvanceWeek(ctx context.Context, actorID string) (models.Season, error) {
	if err := s.requireStaff(ctx, actorID); err != nil {
		return models.Season{}, err
	}
	if _, err := s.requireStarted(ctx); err != nil {
		return models.Season{}, err
	}
	schedule, err := store.Load[[]models.ScheduledGame](ctx, s.store, store.DocSchedule)
	if err != nil {
		return models.Season{}, apperr.Wrap(apperr.KindInfrastructure, "failed to load schedule", err)
	}
	last := 0
	for _, g := range schedule {
		last = max(last, g.Week)
	}

	var season models.Season
	err = store.Update(ctx, s.store, store.DocSeason, func(cur *models.Season) error {
		if cur.Week >= last {
			return apperr.Input(fmt.Sprintf("week %d is the last week of the season", cur.Week))
		}
		cur.Week++
		season = *cur
		return nil
	})
	if err != nil {
		return models.Season{}, err
	}

	slog.Info("week advanced", "season", season.SeasonNo, "week", season.Week, "actor", actorID)
	return season, nil
}

// SimulateThrough records random, untied scores for every unplayed game
// scheduled up to and including week.
func (s *Service) SimulateThrough(ctx context.Context, actorID string, week int) ([]models.GameRecord, error) {
	if err := s.requireStaff(ctx, actorID); err != nil {
		return nil, err
	}
	season, err := s.requireStarted(ctx)
	if err != nil {
		return nil, err
	}
	if week < 1 {
		return nil, apperr.Input("week must be 1 or later")
	}
	schedule, err := store.Load[[]models.ScheduledGame](ctx, s.store, store.DocSchedule)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, "failed to load schedule", err)
	}

	var recorded []models.GameRecord
	for _, g := range schedule {
		if g.Played || g.Week > week {
			continue
		}
		home, away := s.simScore(), s.simScore()
		for home == away {
			away = s.simScore()
		}
		rec := models.GameRecord{
			TeamA: g.Home, ScoreA: home,
			TeamB: g.Away, ScoreB: away,
			Week: g.Week, SeasonNo: season.SeasonNo,
			Approved: true, ApprovedBy: actorID, ApprovedAt: s.now(),
			Source: "simulated",
		}
		ok, err := s.recorder.RecordGame(ctx, rec)
		if err != nil {
			return recorded, err
		}
		if ok {
			recorded = append(recorded, rec)
		}
	}
	return recorded, nil
}

func (s *Service) simScore() int {
	return simLow + s.rnd.IntN(simHigh-simLow+1)
}

// ForceResult records a staff-adjudicated win without a vote.
func (s *Service) ForceResult(ctx context.Context, actorID, winner, loser string, week int) (models.GameRecord, error) {
	if err := s.requireStaff(ctx, actorID); err != nil {
		return models.GameRecord{}, err
	}
	season, err := s.requireStarted(ctx)
	if err != nil {
		return models.GameRecord{}, err
	}
	teams := s.league.Teams()
	w, err := resolve(teams, winner, "winner")
	if err != nil {
		return models.GameRecord{}, err
	}
	l, err := resolve(teams, loser, "loser")
	if err != nil {
		return models.GameRecord{}, err
	}
	if w.Name == l.Name {
		return models.GameRecord{}, apperr.Input("a team cannot play itself")
	}
	if week < 1 {
		week = season.Week
	}

	rec := models.GameRecord{
		TeamA: w.Name, ScoreA: ForfeitScore,
		TeamB: l.Name, ScoreB: 0,
		Week: week, SeasonNo: season.SeasonNo,
		Approved: true, ApprovedBy: actorID, ApprovedAt: s.now(),
		Source: "forced",
	}
	ok, err := s.recorder.RecordGame(ctx, rec)
	if err != nil {
		return models.GameRecord{}, err
	}
	if !ok {
		return models.GameRecord{}, apperr.WithMetadata(apperr.KindConflict,
			fmt.Sprintf("week %d between %s and %s is already recorded", week, w.Name, l.Name),
			map[string]string{"status": string(models.StatusApproved)})
	}
	return rec, nil
}

// ResetScouting clears the scouting board.
func (s *Service) ResetScouting(ctx context.Context, actorID string) (models.ScoutingBoard, error) {
	if err := s.requireStaff(ctx, actorID); err != nil {
		return models.ScoutingBoard{}, err
	}
	board := models.ScoutingBoard{ResetAt: s.now(), Reports: map[string][]string{}}
	if err := store.Put(ctx, s.store, store.DocScouting, board); err != nil {
		return models.ScoutingBoard{}, apperr.Wrap(apperr.KindInfrastructure, "failed to reset scouting", err)
	}
	slog.Info("scouting reset", "actor", actorID)
	return board, nil
}

// Standings returns every team's record, best first.
func (s *Service) Standings(ctx context.Context) (models.StandingsResponse, error) {
	season, err := s.current(ctx)
	if err != nil {
		return models.StandingsResponse{}, err
	}
	st, err := store.Load[models.Standings](ctx, s.store, store.DocStandings)
	if err != nil {
		return models.StandingsResponse{}, apperr.Wrap(apperr.KindInfrastructure, "failed to load standings", err)
	}

	rows := make([]models.StandingRow, 0, len(st))
	seen := make(map[string]bool)
	for _, t := range s.league.Teams() {
		rows = append(rows, models.StandingRow{Team: t.Name, Standing: st[t.Name]})
		seen[t.Name] = true
	}
	for name, row := range st {
		if !seen[name] {
			rows = append(rows, models.StandingRow{Team: name, Standing: row})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		da, db := a.PointsFor-a.PointsAgainst, b.PointsFor-b.PointsAgainst
		if da != db {
			return da > db
		}
		return a.Team < b.Team
	})
	return models.StandingsResponse{SeasonNo: season.SeasonNo, Rows: rows}, nil
}

// Schedule returns the games of week, or of the current week when week is 0.
func (s *Service) Schedule(ctx context.Context, week int) (models.ScheduleResponse, error) {
	season, err := s.current(ctx)
	if err != nil {
		return models.ScheduleResponse{}, err
	}
	if week <= 0 {
		week = season.Week
	}
	all, err := store.Load[[]models.ScheduledGame](ctx, s.store, store.DocSchedule)
	if err != nil {
		return models.ScheduleResponse{}, apperr.Wrap(apperr.KindInfrastructure, "failed to load schedule", err)
	}
	games := []models.ScheduledGame{}
	for _, g := range all {
		if g.Week == week {
			games = append(games, g)
		}
	}
	return models.ScheduleResponse{SeasonNo: season.SeasonNo, Week: week, Games: games}, nil
}

// Roster returns the current roster of the team named by teamText.
func (s *Service) Roster(ctx context.Context, teamText string) (models.Roster, error) {
	team, err := resolve(s.league.Teams(), teamText, "team")
	if err != nil {
		return models.Roster{}, err
	}
	roster, err := store.Load[models.Roster](ctx, s.store, store.RosterDoc(league.Slug(team.Name)))
	if err != nil {
		return models.Roster{}, apperr.Wrap(apperr.KindInfrastructure, "failed to load roster", err)
	}
	if roster.Team == "" {
		return models.Roster{}, apperr.WithMetadata(apperr.KindNotFound,
			fmt.Sprintf("no roster on file for %s", team.Name), map[string]string{"team": team.Name})
	}
	return roster, nil
}

func resolve(teams []models.Team, text, field string) (models.Team, error) {
	team, err := league.ResolveTeam(teams, text)
	if err == nil {
		return team, nil
	}
	var amb *league.AmbiguousError
	if errors.As(err, &amb) {
		return models.Team{}, apperr.Wrap(apperr.KindInput,
			fmt.Sprintf("%s %q could be %s", field, text, strings.Join(amb.Candidates, " or ")), err)
	}
	return models.Team{}, apperr.Wrap(apperr.KindInput,
		fmt.Sprintf("%s %q is not a team in this league", field, text), err)
}
