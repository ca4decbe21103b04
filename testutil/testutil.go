// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/courtside/cliparse"
	"github.com/danielhkuo/courtside/league"
	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/notify"
	"github.com/danielhkuo/courtside/store"
)

// Role ids of the fixture league
const (
	RoleCommittee = "role-committee"
	RoleStaff     = "role-staff"
	RoleAdmin     = "role-admin"
	RoleBOS       = "role-bos"
	RoleLAL       = "role-lal"
	RoleGSW       = "role-gsw"
	RoleMIA       = "role-mia"
)

// Member ids of the fixture league
const (
	CoachBOS = "coach-bos"
	CoachLAL = "coach-lal"
	CoachGSW = "coach-gsw"
	CoachMIA = "coach-mia"
	Staff    = "staff-1"
	Admin    = "admin-1"
	Outsider = "outsider"
)

// Committee lists the committee member ids.
var Committee = []string{"c1", "c2", "c3", "c4"}

// Team names of the fixture league
const (
	Celtics  = "Boston Celtics"
	Lakers   = "Los Angeles Lakers"
	Warriors = "Golden State Warriors"
	Heat     = "Miami Heat"
)

// NewStore creates a file-backed store in a fresh temp directory
func NewStore(t *testing.T) *store.Store {
	t.Helper()

	backend, err := store.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file backend: %v", err)
	}
	return store.New(backend)
}

// Definition returns the four-team fixture league
func Definition() league.Definition {
	picks := func() []models.Pick {
		return []models.Pick{{Year: 2026, Round: 1}, {Year: 2026, Round: 2}}
	}

	members := []league.Member{
		{ID: CoachBOS, Name: "bos", Roles: []string{RoleBOS}},
		{ID: CoachLAL, Name: "lal", Roles: []string{RoleLAL}},
		{ID: CoachGSW, Name: "gsw", Roles: []string{RoleGSW}},
		{ID: CoachMIA, Name: "mia", Roles: []string{RoleMIA}},
		{ID: Staff, Name: "staff", Roles: []string{RoleStaff}},
		{ID: Admin, Name: "admin", Roles: []string{RoleAdmin}},
		{ID: Outsider, Name: "outsider"},
	}
	for _, id := range Committee {
		members = append(members, league.Member{ID: id, Name: id, Roles: []string{RoleCommittee}})
	}

	return league.Definition{
		Name:  "Fixture League",
		Weeks: 3,
		Teams: []league.TeamDefinition{
			{
				Team:   models.Team{Name: Celtics, Abbreviation: "BOS", RoleID: RoleBOS, Nicknames: []string{"Cs"}},
				Roster: []models.Player{{Name: "Jayson Tatum", Position: "SF", Overall: 95}, {Name: "Jaylen Brown", Position: "SG", Overall: 91}, {Name: "Derrick White", Position: "PG", Overall: 84}},
				Picks:  picks(),
			},
			{
				Team:   models.Team{Name: Lakers, Abbreviation: "LAL", RoleID: RoleLAL},
				Roster: []models.Player{{Name: "LeBron James", Position: "SF", Overall: 94}, {Name: "Anthony Davis", Position: "PF", Overall: 93}, {Name: "Austin Reaves", Position: "SG", Overall: 82}},
				Picks:  picks(),
			},
			{
				Team:   models.Team{Name: Warriors, Abbreviation: "GSW", RoleID: RoleGSW, Nicknames: []string{"Dubs"}},
				Roster: []models.Player{{Name: "Stephen Curry", Position: "PG", Overall: 95}, {Name: "Draymond Green", Position: "PF", Overall: 82}},
				Picks:  picks(),
			},
			{
				Team:   models.Team{Name: Heat, Abbreviation: "MIA", RoleID: RoleMIA},
				Roster: []models.Player{{Name: "Jimmy Butler", Position: "SF", Overall: 89}, {Name: "Bam Adebayo", Position: "C", Overall: 87}},
				Picks:  picks(),
			},
		},
		Members: members,
	}
}

// Registry returns a registry over the fixture league
func Registry() *league.Registry {
	return league.NewRegistry(Definition())
}

// SeedLeague writes the fixture teams, rosters, picks and a week-1 season
// into s, as a started season would
func SeedLeague(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	def := Definition()

	teams := make([]models.Team, len(def.Teams))
	ledger := models.PickLedger{}
	for i, td := range def.Teams {
		teams[i] = td.Team
		ledger[td.Name] = td.Picks
		roster := models.Roster{Team: td.Name, Players: td.Roster}
		if err := store.Put(ctx, s, store.RosterDoc(league.Slug(td.Name)), roster); err != nil {
			t.Fatalf("Failed to seed roster: %v", err)
		}
	}

	if err := store.Put(ctx, s, store.DocTeams, teams); err != nil {
		t.Fatalf("Failed to seed teams: %v", err)
	}
	if err := store.Put(ctx, s, store.DocPicks, ledger); err != nil {
		t.Fatalf("Failed to seed picks: %v", err)
	}
	if err := store.Put(ctx, s, store.DocSeason, models.Season{SeasonNo: 1, Week: 1}); err != nil {
		t.Fatalf("Failed to seed season: %v", err)
	}
}

// LoadRoster reads a team's roster document
func LoadRoster(t *testing.T, s *store.Store, team string) models.Roster {
	t.Helper()
	roster, err := store.Load[models.Roster](context.Background(), s, store.RosterDoc(league.Slug(team)))
	if err != nil {
		t.Fatalf("Failed to load roster: %v", err)
	}
	return roster
}

// HasPlayer reports whether the roster lists name
func HasPlayer(r models.Roster, name string) bool {
	for _, p := range r.Players {
		if p.Name == name {
			return true
		}
	}
	return false
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:               3318,
		StoreType:          cliparse.StoreFile,
		CommitteeChannelID: "committee",
		StaffChannelID:     "staff",
		ApprovedChannelID:  "approved",
		DeniedChannelID:    "denied",
		CommitteeRoleID:    RoleCommittee,
		StaffRoleID:        RoleStaff,
		AdminRoleIDs:       []string{RoleAdmin},
		APIKeySalt:         "test-api-salt",
		SweepInterval:      time.Minute,
		CounterpartyWindow: 24 * time.Hour,
		CommitteeWindow:    48 * time.Hour,
		RegressionDelay:    7 * 24 * time.Hour,
		ScoreRetention:     7 * 24 * time.Hour,
	}
}

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// RecordingPresenter records every delivered message
type RecordingPresenter struct {
	mu       sync.Mutex
	Messages []notify.Message
}

func (r *RecordingPresenter) Deliver(ctx context.Context, msg notify.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, msg)
	return "msg-" + msg.Target.String(), nil
}

// To returns the messages delivered to target ("dm:<id>" or "channel:<id>")
func (r *RecordingPresenter) To(target string) []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Message
	for _, m := range r.Messages {
		if m.Target.String() == target {
			out = append(out, m)
		}
	}
	return out
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
