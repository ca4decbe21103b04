// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"github.com/danielhkuo/courtside/models"
)

// CommitteeQuorum is the number of matching ballots that decides a
// committee vote, regardless of how many members the committee has.
const CommitteeQuorum = 3

// Mode selects how ballots are counted.
type Mode int

const (
	// ModeMajority decides once either side reaches Threshold.
	ModeMajority Mode = iota
	// ModeSingleResponder decides on the first ballot.
	ModeSingleResponder
)

// Policy is a quorum rule.
type Policy struct {
	Mode      Mode
	Threshold int
}

// Majority returns a policy decided by threshold matching ballots.
func Majority(threshold int) Policy {
	return Policy{Mode: ModeMajority, Threshold: threshold}
}

// SingleResponder returns a policy decided by one ballot.
func SingleResponder() Policy {
	return Policy{Mode: ModeSingleResponder, Threshold: 1}
}

// Result is the outcome of counting a ballot set.
type Result struct {
	Decided bool
	Outcome models.Decision
	Approve int
	Deny    int
}

// Evaluate counts ballots against policy. It is pure: evaluating the same
// ballots twice gives the same result, so callers guard against acting on a
// decision twice by checking the proposal is still in committee.
func Evaluate(ballots []models.Ballot, policy Policy) Result {
	latest := dedupe(ballots)
	res := count(latest)

	switch policy.Mode {
	case ModeSingleResponder:
		if len(latest) == 0 {
			return res
		}
		var last models.Ballot
		for _, b := range latest {
			if last.VoterID == "" || b.CastAt.After(last.CastAt) {
				last = b
			}
		}
		res.Decided = true
		res.Outcome = last.Choice
	default:
		threshold := policy.Threshold
		if threshold < 1 {
			threshold = 1
		}
		// Deny is checked first so the status quo wins if both sides
		// somehow crossed together
		switch {
		case res.Deny >= threshold:
			res.Decided = true
			res.Outcome = models.DecisionDeny
		case res.Approve >= threshold:
			res.Decided = true
			res.Outcome = models.DecisionApprove
		}
	}
	return res
}

// TieBreak decides a timeout tally with equal counts.
type TieBreak int

const (
	TieDeny TieBreak = iota
	TieCoinFlip
)

// ForceAtTimeout decides a vote whose deadline passed without quorum.
// A strict majority wins. A tie, including no ballots at all, is denied
// unless tie is TieCoinFlip, in which case coin() reporting true approves.
func ForceAtTimeout(ballots []models.Ballot, tie TieBreak, coin func() bool) Result {
	res := count(dedupe(ballots))
	res.Decided = true

	switch {
	case res.Approve > res.Deny:
		res.Outcome = models.DecisionApprove
	case res.Deny > res.Approve:
		res.Outcome = models.DecisionDeny
	case tie == TieCoinFlip && coin != nil && coin():
		res.Outcome = models.DecisionApprove
	default:
		res.Outcome = models.DecisionDeny
	}
	return res
}

// dedupe keeps the latest ballot per voter, in first-seen voter order.
func dedupe(ballots []models.Ballot) []models.Ballot {
	idx := make(map[string]int, len(ballots))
	out := make([]models.Ballot, 0, len(ballots))
	for _, b := range ballots {
		if b.VoterID == "" || !b.Choice.Valid() {
			continue
		}
		if i, ok := idx[b.VoterID]; ok {
			if !b.CastAt.Before(out[i].CastAt) {
				out[i] = b
			}
			continue
		}
		idx[b.VoterID] = len(out)
		out = append(out, b)
	}
	return out
}

func count(ballots []models.Ballot) Result {
	var res Result
	for _, b := range ballots {
		switch b.Choice {
		case models.DecisionApprove:
			res.Approve++
		case models.DecisionDeny:
			res.Deny++
		}
	}
	return res
}
