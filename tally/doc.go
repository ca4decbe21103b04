// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally counts ballots against a quorum policy.

# Policies

  - Majority(n): decided when approve or deny reaches n ballots. Committees
    use CommitteeQuorum (3) whatever their size.
  - SingleResponder: decided by the one expected ballot (score and
    progression review).

# Timeouts

ForceAtTimeout always decides. A strict majority wins; a tie, including
zero ballots, is denied unless the caller asks for a coin flip.

# Ballots

Only the latest ballot per voter counts. Ballots without a voter or with a
choice other than approve or deny are ignored.

Evaluate has no side effects. Whether a decision has already been acted on
is the caller's concern; the engine checks the proposal is still in
committee before it transitions.
*/
package tally
