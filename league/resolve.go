// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package league

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/danielhkuo/courtside/models"
)

var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrTeamAmbiguous  = errors.New("team name is ambiguous")
	ErrCoachNotFound  = errors.New("no coach holds the team role")
	ErrMemberNotFound = errors.New("member not found")
)

// AmbiguousError lists the teams a free-text name could refer to.
type AmbiguousError struct {
	Input      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%q matches %s", e.Input, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousError) Unwrap() error { return ErrTeamAmbiguous }

// minWordLen keeps stage-three matching from treating "a" or "l" as a hit.
const minWordLen = 2

// ResolveTeam maps free text to a canonical team. Stages run in order and
// the first stage producing exactly one team wins:
//
//  1. exact normalized match on full name, abbreviation or nickname
//  2. normalized full name starts or ends with the input ("Celtics")
//  3. per-word prefix/suffix match; the team matching the most input
//     words wins
//
// A stage matching several teams returns an *AmbiguousError instead of
// guessing. No match returns ErrTeamNotFound.
func ResolveTeam(teams []models.Team, freeText string) (models.Team, error) {
	input := Normalize(freeText)
	if input == "" {
		return models.Team{}, ErrTeamNotFound
	}

	stages := []func(models.Team) int{
		func(t models.Team) int {
			if Normalize(t.Name) == input || Normalize(t.Abbreviation) == input {
				return 1
			}
			for _, nick := range t.Nicknames {
				if Normalize(nick) == input {
					return 1
				}
			}
			return 0
		},
		func(t models.Team) int {
			name := Normalize(t.Name)
			if strings.HasPrefix(name, input) || strings.HasSuffix(name, input) {
				return 1
			}
			return 0
		},
		func(t models.Team) int {
			return wordMatches(input, Normalize(t.Name))
		},
	}

	for _, score := range stages {
		best := 0
		var matched []models.Team
		for _, t := range teams {
			s := score(t)
			switch {
			case s == 0 || s < best:
			case s > best:
				best = s
				matched = []models.Team{t}
			default:
				matched = append(matched, t)
			}
		}
		switch len(matched) {
		case 0:
			continue
		case 1:
			return matched[0], nil
		default:
			names := make([]string, len(matched))
			for i, t := range matched {
				names[i] = t.Name
			}
			sort.Strings(names)
			return models.Team{}, &AmbiguousError{Input: freeText, Candidates: names}
		}
	}

	return models.Team{}, ErrTeamNotFound
}

// wordMatches counts input words that prefix or suffix some word of name.
func wordMatches(input, name string) int {
	nameWords := strings.Fields(name)
	count := 0
	for _, w := range strings.Fields(input) {
		if len(w) < minWordLen {
			continue
		}
		for _, nw := range nameWords {
			if strings.HasPrefix(nw, w) || strings.HasSuffix(nw, w) {
				count++
				break
			}
		}
	}
	return count
}

// TeamByName returns the team whose canonical name equals name.
func TeamByName(teams []models.Team, name string) (models.Team, bool) {
	for _, t := range teams {
		if t.Name == name {
			return t, true
		}
	}
	return models.Team{}, false
}

// TeamsOfMember returns the teams whose coach role the member holds.
func TeamsOfMember(teams []models.Team, m Member) []models.Team {
	var out []models.Team
	for _, t := range teams {
		if t.RoleID != "" && slices.Contains(m.Roles, t.RoleID) {
			out = append(out, t)
		}
	}
	return out
}

// CoachMatch is the member chosen to act for a team.
type CoachMatch struct {
	MemberID   string
	Ambiguous  bool     // more than one member held the role
	Candidates []string // every member holding the role, sorted
}

// ResolveCoach finds the member coaching team. Among several role holders,
// members without any of staffRoles are preferred; if every candidate is
// staff, the lowest member id is used. Zero holders is ErrCoachNotFound.
func ResolveCoach(ctx context.Context, dir Directory, team models.Team, staffRoles []string) (CoachMatch, error) {
	if team.RoleID == "" {
		return CoachMatch{}, ErrCoachNotFound
	}

	members, err := dir.Members(ctx)
	if err != nil {
		return CoachMatch{}, fmt.Errorf("failed to list members: %w", err)
	}

	var all, nonStaff []string
	for _, m := range members {
		if !slices.Contains(m.Roles, team.RoleID) {
			continue
		}
		all = append(all, m.ID)
		if !HasAny(m.Roles, staffRoles...) {
			nonStaff = append(nonStaff, m.ID)
		}
	}
	if len(all) == 0 {
		return CoachMatch{}, ErrCoachNotFound
	}

	sort.Strings(all)
	sort.Strings(nonStaff)

	pool := nonStaff
	if len(pool) == 0 {
		pool = all
	}
	return CoachMatch{
		MemberID:   pool[0],
		Ambiguous:  len(all) > 1,
		Candidates: all,
	}, nil
}
