// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine runs the negotiation workflow shared by trades, scores and
progression requests.

# State Machine

	pending ──submit──▶ awaiting_counterparty          (trade)
	pending ──submit──▶ in_committee                   (score, progression)
	awaiting_counterparty ──approve──▶ in_committee
	awaiting_counterparty ──deny──▶ denied
	awaiting_counterparty ──deadline──▶ expired
	in_committee ──quorum──▶ approved | denied
	in_committee ──deadline──▶ count so far, ties deny (trade)

One state machine serves every kind. A KindPolicy switches the
counter-party phase on or off, names the reviewer roles, picks the tally
policy (committee majority of 3, or a single reviewer) and supplies the
apply callback.

# Events

Submit, RespondCounterparty and CastVote are the inbound events. Each runs
as one read-modify-write of the kind's proposal book, so two events for the
same proposal never interleave. Events against a terminal proposal change
nothing and return a conflict wrapping ErrStale that carries the current
status in its metadata. Delivery from the chat platform is at-least-once,
so replays land here.

An event arriving after the proposal's deadline first applies the timeout
transition, then reports the proposal as stale.

# Side Effects

State is committed before anything else happens. Approval marks the
proposal claimed (ApplyClaimedAt), then the outcome is applied and
AppliedAt recorded, then the resolution is announced. Notification
failures are logged. A failed apply leaves AppliedAt empty and the sweeper
retries it.

# Deadlines

Deadlines are stored on the proposal. Sweep evaluates every due deadline,
retries unapplied approvals, sends due regression notices and prunes old
score requests. The scheduler runs it at startup and on an interval, so a
restart never drops a pending decision.

# Duplicates

Submit rejects a proposal whose subject is already active:

  - trade: same two teams, either order
  - score: same two teams, either order, same week and season; approved
    and recorded games also block
  - progression: same player and skill set, and one upgrade text contains
    the other after whitespace and case are collapsed
*/
package engine
