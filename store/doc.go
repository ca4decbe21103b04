// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists the league as flat, keyed JSON documents.

# Backends

  - FileBackend: one <name>.json file per document, atomic temp+rename writes
  - SQLBackend: one row per document in the table created by package db

# Access

Every document is an owned resource behind its own mutex. All writes are
whole-document read/modify/write:

	err := store.Update(ctx, s, store.DocStandings, func(st *models.Standings) error {
		if *st == nil {
			*st = models.Standings{}
		}
		row := (*st)[team]
		row.Wins++
		(*st)[team] = row
		return nil
	})

Returning an error from the callback aborts the write. Load reads under the
same lock, and a missing document loads as the zero value.

# Lock Ordering

A callback may open a different document (the proposal books read the
scores document for duplicate checks, trades open two roster documents in
name order), but never the document it is already holding.

# Documents

	season, teams, schedule, standings, scores,
	pendingTrades, scoreRequests, progressionRequests,
	progressionHistory, regressionNotices, picks, tradeLedger,
	tradeBlock, scouting, rosters/<team-slug>
*/
package store
