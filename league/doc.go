// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package league resolves people and free text to canonical teams and holds
the league definition.

# Team Resolution

ResolveTeam maps free text to one canonical team. Input and team names are
passed through Normalize first (case, accents and punctuation folded), then
three stages run in order:

 1. Exact: full name, abbreviation or nickname ("LAL", "Lakers")
 2. Prefix/suffix of the full name ("Celtics" → "Boston Celtics")
 3. Per-word prefix/suffix, best word count wins ("gold warr")

The first stage that matches exactly one team wins. A stage that matches
several returns *AmbiguousError listing the candidates. Nothing matching
returns ErrTeamNotFound, which callers report as an input error.

# Coach Resolution

ResolveCoach finds the member holding a team's coach role. When several
members hold it, members without a staff role are preferred, and ties are
broken by the lowest member id so the choice is stable across restarts.

# Registry

The league file (YAML) lists teams, their starting rosters and picks, and
optionally a static member list for running without Discord:

	name: Courtside League
	weeks: 14
	teams:
	  - name: Boston Celtics
	    abbreviation: BOS
	    role_id: "1200000000000000001"
	    nicknames: [Cs]
	    roster:
	      - {name: Jayson Tatum, position: SF, overall: 95}
	    picks:
	      - {year: 2026, round: 1}

Registry.Watch reloads the file on change. A file that fails to parse is
logged and ignored; the previous definition stays live.
*/
package league
