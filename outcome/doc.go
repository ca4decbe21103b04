// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package outcome applies approved proposals to league state.

# Trades

Each side of a trade is a comma-separated list. ParseAssets classifies an
entry as a pick when it names a round together with a year or the word
"pick":

	"2026 1st"                      year 2026, round 1
	"2027 second round pick (LAL)"  year 2027, round 2, originally the Lakers'
	"2026 1st top 5 protected"      protection carried onto the pick

Anything else is a player, matched against the giving team's roster: an
exact normalized name first, otherwise a single containment match ("Tatum"
finds "Jayson Tatum"). Matched players move between roster documents and
matched picks between pick ledger entries; a pick's OriginalTeam is set the
first time it changes hands.

Unmatched entries are skipped and reported. A trade where nothing matched
still counts as applied; the report carries a warning that is logged and
shown in the resolution message.

# Scores

RecordGame appends to the scores document, marks the schedule slot played
and recomputes both teams' standings from every game of the season. It is
idempotent per proposal id and per pairing, week and season.

# Progression

An approved upgrade is appended to the player's history and a one-point
regression notice is queued, due RegressionDelay after approval.

# Idempotence

Every apply can run twice without changing the result. Trades are recorded
in the trade ledger document; scores and upgrades are keyed by proposal id.
*/
package outcome
