// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package league

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/courtside/models"
)

var testTeams = []models.Team{
	{Name: "Boston Celtics", Abbreviation: "BOS", RoleID: "role-bos", Nicknames: []string{"Cs"}},
	{Name: "Los Angeles Lakers", Abbreviation: "LAL", RoleID: "role-lal"},
	{Name: "Los Angeles Clippers", Abbreviation: "LAC", RoleID: "role-lac"},
	{Name: "Golden State Warriors", Abbreviation: "GSW", RoleID: "role-gsw", Nicknames: []string{"Dubs"}},
	{Name: "Portland Trail Blazers", Abbreviation: "POR", RoleID: "role-por"},
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Boston Celtics", "boston celtics"},
		{"  BOSTON   celtics ", "boston celtics"},
		{"Trail-Blazers", "trail blazers"},
		{"Luka Dončić", "luka doncic"},
		{"76ers!", "76ers"},
		{"St. Louis", "st louis"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("Portland Trail-Blazers"); got != "portland-trail-blazers" {
		t.Errorf("Slug = %q", got)
	}
}

func TestResolveTeam(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantErr   error
		ambiguous bool
	}{
		{name: "exact full name", input: "boston celtics", want: "Boston Celtics"},
		{name: "exact with punctuation", input: "Boston-Celtics!", want: "Boston Celtics"},
		{name: "abbreviation", input: "lal", want: "Los Angeles Lakers"},
		{name: "nickname", input: "Dubs", want: "Golden State Warriors"},
		{name: "suffix", input: "Celtics", want: "Boston Celtics"},
		{name: "suffix multi word", input: "trail blazers", want: "Portland Trail Blazers"},
		{name: "prefix", input: "Golden", want: "Golden State Warriors"},
		{name: "per word", input: "gold warr", want: "Golden State Warriors"},
		{name: "per word best count wins", input: "angeles lakers la", want: "Los Angeles Lakers"},
		{name: "prefix shared by two teams", input: "Los Angeles", ambiguous: true, wantErr: ErrTeamAmbiguous},
		{name: "unknown", input: "Seattle", wantErr: ErrTeamNotFound},
		{name: "empty", input: "  ", wantErr: ErrTeamNotFound},
		{name: "single letters ignored", input: "a b", wantErr: ErrTeamNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTeam(testTeams, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveTeam(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				if tt.ambiguous {
					var amb *AmbiguousError
					if !errors.As(err, &amb) {
						t.Fatalf("expected *AmbiguousError, got %T", err)
					}
					if len(amb.Candidates) != 2 {
						t.Errorf("expected 2 candidates, got %v", amb.Candidates)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveTeam(%q) unexpected error: %v", tt.input, err)
			}
			if got.Name != tt.want {
				t.Errorf("ResolveTeam(%q) = %q, want %q", tt.input, got.Name, tt.want)
			}
		})
	}
}

func TestTeamsOfMember(t *testing.T) {
	m := Member{ID: "u1", Roles: []string{"role-gsw", "other"}}
	got := TeamsOfMember(testTeams, m)
	if len(got) != 1 || got[0].Name != "Golden State Warriors" {
		t.Errorf("TeamsOfMember = %v", got)
	}
}

func TestResolveCoach(t *testing.T) {
	ctx := context.Background()
	staff := []string{"role-staff", "role-admin"}
	celtics := testTeams[0]

	tests := []struct {
		name          string
		members       StaticDirectory
		wantID        string
		wantAmbiguous bool
		wantErr       error
	}{
		{
			name:    "single holder",
			members: StaticDirectory{{ID: "c1", Roles: []string{"role-bos"}}},
			wantID:  "c1",
		},
		{
			name: "non-staff preferred",
			members: StaticDirectory{
				{ID: "a1", Roles: []string{"role-bos", "role-admin"}},
				{ID: "z9", Roles: []string{"role-bos"}},
			},
			wantID:        "z9",
			wantAmbiguous: true,
		},
		{
			name: "all staff picks lowest id",
			members: StaticDirectory{
				{ID: "s2", Roles: []string{"role-bos", "role-staff"}},
				{ID: "s1", Roles: []string{"role-bos", "role-admin"}},
			},
			wantID:        "s1",
			wantAmbiguous: true,
		},
		{
			name: "several non-staff picks lowest id",
			members: StaticDirectory{
				{ID: "c3", Roles: []string{"role-bos"}},
				{ID: "c2", Roles: []string{"role-bos"}},
			},
			wantID:        "c2",
			wantAmbiguous: true,
		},
		{
			name:    "nobody holds the role",
			members: StaticDirectory{{ID: "c1", Roles: []string{"role-lal"}}},
			wantErr: ErrCoachNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCoach(ctx, tt.members, celtics, staff)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.MemberID != tt.wantID {
				t.Errorf("MemberID = %q, want %q", got.MemberID, tt.wantID)
			}
			if got.Ambiguous != tt.wantAmbiguous {
				t.Errorf("Ambiguous = %v, want %v", got.Ambiguous, tt.wantAmbiguous)
			}
		})
	}
}

func TestMemberHasRole(t *testing.T) {
	ctx := context.Background()
	dir := StaticDirectory{{ID: "c1", Roles: []string{"role-committee"}}}

	ok, err := MemberHasRole(ctx, dir, "c1", "role-committee")
	if err != nil || !ok {
		t.Errorf("expected c1 to hold committee role, got %v, %v", ok, err)
	}

	ok, err = MemberHasRole(ctx, dir, "ghost", "role-committee")
	if err != nil || ok {
		t.Errorf("unknown member should hold no roles, got %v, %v", ok, err)
	}

	if HasAny([]string{"a"}, "") {
		t.Error("empty role id must never match")
	}
}
