// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package season runs the league calendar and the staff and coach commands
around it.

# Staff Commands

Staff is anyone holding the staff role or an admin role.

  - Start: reset rosters, picks, standings, schedule and trade block from
    the league file and begin season n+1. The caller must type the
    confirmation phrase exactly: "START SEASON <n+1>".
  - AdvanceWeek: move to the next scheduled week
  - SimulateThrough: record random, untied scores for unplayed games
  - ForceResult: record a 20-0 win without a vote
  - ResetScouting: clear the scouting board

Every recorded game goes through outcome.Applier.RecordGame, so simulated
and forced results update the schedule and standings exactly as an
approved score proposal does.

# Coach Commands

  - AddToBlock / RemoveFromBlock: manage a team's trade block. Only that
    team's coach (or an admin) may edit it.
  - AddScoutingReport: any coach may file a report on any team

# Reads

Standings (wins, then point differential, then name), Schedule for a week,
Roster for a team, TradeBlock and Scouting.

# Schedule

RoundRobin uses the circle method: one team stays fixed while the others
rotate, so every pair meets once per cycle. Odd leagues get a bye slot.
*/
package season
