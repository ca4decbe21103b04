// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the stored documents, the proposal record, and the
request and response types for the API.

# Proposal

A Proposal is one unit of work awaiting approval. Exactly one of Trade,
Score or Progression is set, matching Kind. Status moves through:

	pending → awaiting_counterparty → in_committee → approved | denied
	pending → in_committee → approved | denied
	awaiting_counterparty → denied | expired

Once Status.Terminal() is true nothing but the apply bookkeeping fields
(ApplyClaimedAt, AppliedAt, ApplyError, Messages) changes.

Ballots hold at most one entry per voter id.

# Stored Documents

  - Season: season number and current week
  - ScheduledGame: schedule entries
  - GameRecord: append-only scores document
  - Standings: team name → wins, losses, games, points
  - Roster, Player: one roster document per team
  - PickLedger, Pick: picks held per team
  - UpgradeRecord, RegressionNotice: progression history
  - ScoutingBoard, TradeBlock: coach-facing boards

# Request Types

  - SubmitProposalRequest: kind, proposerId and one payload
  - DecisionRequest: actorId, decision (approve|deny)
  - SeasonRequest, ForceResultRequest, TradeBlockRequest, ScoutingRequest:
    staff and coach commands

# Response Types

  - TransitionResponse: from, to, changed, apply report
  - ProposalListResponse, StandingsResponse, ScheduleResponse, SimulateResponse
  - ErrorResponse: error, message, kind, metadata

All JSON field names are camelCase to match the stored documents.
*/
package models
