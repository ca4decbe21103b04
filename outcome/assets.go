// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package outcome

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielhkuo/courtside/league"
	"github.com/danielhkuo/courtside/models"
)

// Asset is one comma-separated entry of a trade side.
type Asset struct {
	Raw  string
	Pick *PickRef // nil for players
}

// PickRef is a draft pick as written in a trade, e.g.
// "2026 1st (LAL) top 5 protected".
type PickRef struct {
	Year       int    // 0 when the text names no year
	Round      int
	Team       string // free-text originating team, may be empty
	Protection string
}

var (
	yearRe  = regexp.MustCompile(`\b(20\d{2})\b`)
	roundRe = regexp.MustCompile(`(?i)\b(?:round\s*([1-7])|r([1-7])|([1-7])(?:st|nd|rd|th)|(first|second|third))\b`)
	protRe  = regexp.MustCompile(`(?i)\btop[\s-]*(\d+)[\s-]*protected\b`)
	pickRe  = regexp.MustCompile(`(?i)\b(?:picks?|round|draft|via|from|own)\b`)
)

var roundWords = map[string]int{"first": 1, "second": 2, "third": 3}

// ParseAssets splits a trade side into assets. Empty entries and "none"
// are dropped.
func ParseAssets(raw string) []Asset {
	var out []Asset
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "none") || part == "-" {
			continue
		}
		out = append(out, Asset{Raw: part, Pick: parsePick(part)})
	}
	return out
}

// parsePick returns nil unless s names a round together with a year or
// the word "pick".
func parsePick(s string) *PickRef {
	rm := roundRe.FindStringSubmatch(s)
	if rm == nil {
		return nil
	}
	ym := yearRe.FindStringSubmatch(s)
	if ym == nil && !pickRe.MatchString(s) {
		return nil
	}

	ref := &PickRef{}
	for _, g := range rm[1:] {
		if g == "" {
			continue
		}
		if n, err := strconv.Atoi(g); err == nil {
			ref.Round = n
		} else {
			ref.Round = roundWords[strings.ToLower(g)]
		}
		break
	}
	if ym != nil {
		ref.Year, _ = strconv.Atoi(ym[1])
	}
	if pm := protRe.FindStringSubmatch(s); pm != nil {
		ref.Protection = fmt.Sprintf("top %s protected", pm[1])
	}

	rest := protRe.ReplaceAllString(s, " ")
	rest = roundRe.ReplaceAllString(rest, " ")
	rest = yearRe.ReplaceAllString(rest, " ")
	rest = pickRe.ReplaceAllString(rest, " ")
	ref.Team = league.Normalize(rest)
	return ref
}

// minContainLen keeps one- and two-letter fragments from matching players.
const minContainLen = 3

// matchPlayer finds the roster entry named by text. An exact normalized
// match wins; otherwise exactly one containment match (either direction)
// is accepted.
func matchPlayer(players []models.Player, text string) (int, bool) {
	want := league.Normalize(text)
	if want == "" {
		return -1, false
	}
	for i, p := range players {
		if league.Normalize(p.Name) == want {
			return i, true
		}
	}

	found := -1
	for i, p := range players {
		name := league.Normalize(p.Name)
		if len(name) < minContainLen || len(want) < minContainLen {
			continue
		}
		if strings.Contains(name, want) || strings.Contains(want, name) {
			if found >= 0 {
				return -1, false
			}
			found = i
		}
	}
	return found, found >= 0
}

// matchPick finds a pick held by holder matching ref. origin resolves the
// free-text team of ref against the league; it may return "" when the text
// names no team.
func matchPick(picks []models.Pick, holder string, ref *PickRef, origin string) (int, bool) {
	for i, p := range picks {
		if p.Round != ref.Round || (ref.Year != 0 && p.Year != ref.Year) {
			continue
		}
		if ref.Team != "" {
			from := p.OriginalTeam
			if from == "" {
				from = holder
			}
			if origin != "" && from != origin {
				continue
			}
			if origin == "" && !strings.Contains(league.Normalize(from), ref.Team) {
				continue
			}
		}
		return i, true
	}
	return -1, false
}

// FormatPick renders a pick for messages and reports.
func FormatPick(p models.Pick, holder string) string {
	origin := p.OriginalTeam
	if origin == "" {
		origin = holder
	}
	s := fmt.Sprintf("%d round %d (%s)", p.Year, p.Round, origin)
	if p.Protection != "" {
		s += ", " + p.Protection
	}
	return s
}
