// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Proposal kinds
type Kind string

const (
	KindTrade       Kind = "trade"
	KindScore       Kind = "score"
	KindProgression Kind = "progression"
)

// Valid reports whether k is a known proposal kind.
func (k Kind) Valid() bool {
	return k == KindTrade || k == KindScore || k == KindProgression
}

// Proposal status constants
type Status string

const (
	StatusPending              Status = "pending"
	StatusAwaitingCounterparty Status = "awaiting_counterparty"
	StatusInCommittee          Status = "in_committee"
	StatusApproved             Status = "approved"
	StatusDenied               Status = "denied"
	StatusExpired              Status = "expired"
)

// Terminal reports whether no further responses or ballots are accepted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied || s == StatusExpired
}

// Decision is both a counter-party response and a committee ballot choice.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// Valid reports whether d is approve or deny.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionDeny
}

// Domain types

// TradePayload lists the assets each side gives up, as comma-separated text.
type TradePayload struct {
	FromTeam string `json:"fromTeam"`
	ToTeam   string `json:"toTeam"`
	Give     string `json:"give"`
	Receive  string `json:"receive"`
	Note     string `json:"note,omitempty"`
}

type ScorePayload struct {
	TeamA    string `json:"teamA"`
	ScoreA   int    `json:"scoreA"`
	TeamB    string `json:"teamB"`
	ScoreB   int    `json:"scoreB"`
	Week     int    `json:"week"`
	SeasonNo int    `json:"seasonNo"`
}

type ProgressionPayload struct {
	Player   string `json:"player"`
	Team     string `json:"team,omitempty"`
	SkillSet string `json:"skillSet"`
	Upgrade  string `json:"upgrade"` // attribute delta text, e.g. "+1 Speed, +1 3PT"
	Evidence string `json:"evidence,omitempty"`
}

type CounterpartyResponse struct {
	ResponderID string    `json:"responderId"`
	Decision    Decision  `json:"decision"`
	RespondedAt time.Time `json:"respondedAt"`
}

type Ballot struct {
	VoterID string    `json:"voterId"`
	Choice  Decision  `json:"choice"`
	CastAt  time.Time `json:"castAt"`
}

// MessageRefs remembers the chat messages rendered for each stage.
type MessageRefs struct {
	Counterparty string `json:"counterparty,omitempty"`
	Committee    string `json:"committee,omitempty"`
}

type Proposal struct {
	ID             string `json:"id"`
	Kind           Kind   `json:"kind"`
	ProposerID     string `json:"proposerId"`
	CounterpartyID string `json:"counterpartyId,omitempty"`

	Trade       *TradePayload       `json:"trade,omitempty"`
	Score       *ScorePayload       `json:"score,omitempty"`
	Progression *ProgressionPayload `json:"progression,omitempty"`

	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Deadline  *time.Time `json:"deadline,omitempty"`

	Response *CounterpartyResponse `json:"response,omitempty"`
	Ballots  []Ballot              `json:"votes,omitempty"`

	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy string     `json:"resolvedBy,omitempty"`

	ApplyClaimedAt *time.Time `json:"applyClaimedAt,omitempty"`
	AppliedAt      *time.Time `json:"appliedAt,omitempty"`
	ApplyError     string     `json:"applyError,omitempty"`

	Messages MessageRefs `json:"messages,omitempty"`
}

// Ballot returns the ballot cast by voterID, if any.
func (p *Proposal) Ballot(voterID string) (Ballot, bool) {
	for _, b := range p.Ballots {
		if b.VoterID == voterID {
			return b, true
		}
	}
	return Ballot{}, false
}

// ApplyReport describes what the outcome applier actually changed.
type ApplyReport struct {
	Moved     []string `json:"moved,omitempty"`
	Unmatched []string `json:"unmatched,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Recorded  bool     `json:"recorded,omitempty"`
}

// League reference data

type Team struct {
	Name         string   `json:"name" yaml:"name"`
	Abbreviation string   `json:"abbreviation" yaml:"abbreviation"`
	RoleID       string   `json:"roleId" yaml:"role_id"`
	Nicknames    []string `json:"nicknames,omitempty" yaml:"nicknames"`
}

type Player struct {
	Name     string `json:"name" yaml:"name"`
	Position string `json:"position,omitempty" yaml:"position"`
	Overall  int    `json:"overall,omitempty" yaml:"overall"`
}

type Roster struct {
	Team    string   `json:"team"`
	Players []Player `json:"players"`
}

// Pick is one draft pick held by a team.
// OriginalTeam is empty until the pick changes hands for the first time.
type Pick struct {
	Year         int    `json:"year" yaml:"year"`
	Round        int    `json:"round" yaml:"round"`
	OriginalTeam string `json:"originalTeam,omitempty" yaml:"original_team"`
	Protection   string `json:"protection,omitempty" yaml:"protection"`
}

// PickLedger maps a canonical team name to the picks it currently holds.
type PickLedger map[string][]Pick

// Season bookkeeping

type Season struct {
	SeasonNo  int       `json:"seasonNo"`
	Week      int       `json:"week"`
	StartedAt time.Time `json:"startedAt"`
}

type ScheduledGame struct {
	Week   int    `json:"week"`
	Home   string `json:"home"`
	Away   string `json:"away"`
	Played bool   `json:"played"`
}

// GameRecord is one entry of the append-only scores document.
type GameRecord struct {
	ProposalID string    `json:"proposalId,omitempty"`
	TeamA      string    `json:"teamA"`
	ScoreA     int       `json:"scoreA"`
	TeamB      string    `json:"teamB"`
	ScoreB     int       `json:"scoreB"`
	Week       int       `json:"week"`
	SeasonNo   int       `json:"seasonNo"`
	Approved   bool      `json:"approved"`
	ApprovedBy string    `json:"approvedBy"`
	ApprovedAt time.Time `json:"approvedAt"`
	Source     string    `json:"source,omitempty"` // submitted|simulated|forced
}

type Standing struct {
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Games         int `json:"games"`
	PointsFor     int `json:"pointsFor"`
	PointsAgainst int `json:"pointsAgainst"`
}

// Standings is keyed by canonical team name.
type Standings map[string]Standing

type UpgradeRecord struct {
	ProposalID string    `json:"proposalId"`
	Player     string    `json:"player"`
	Team       string    `json:"team,omitempty"`
	SkillSet   string    `json:"skillSet"`
	Upgrade    string    `json:"upgrade"`
	ApprovedBy string    `json:"approvedBy"`
	ApprovedAt time.Time `json:"approvedAt"`
}

// RegressionNotice is the one-point regression paired with an approved upgrade.
type RegressionNotice struct {
	ProposalID string     `json:"proposalId"`
	Player     string     `json:"player"`
	SkillSet   string     `json:"skillSet"`
	MemberID   string     `json:"memberId"`
	Points     int        `json:"points"`
	DueAt      time.Time  `json:"dueAt"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
}

type ScoutingBoard struct {
	ResetAt time.Time           `json:"resetAt"`
	Reports map[string][]string `json:"reports"`
}

// TradeBlock maps a canonical team name to the assets it is shopping.
type TradeBlock map[string][]string

// Request types

type SubmitProposalRequest struct {
	Kind        Kind                `json:"kind"`
	ProposerID  string              `json:"proposerId"`
	Trade       *TradePayload       `json:"trade,omitempty"`
	Score       *ScorePayload       `json:"score,omitempty"`
	Progression *ProgressionPayload `json:"progression,omitempty"`
}

type DecisionRequest struct {
	ActorID  string   `json:"actorId"`
	Decision Decision `json:"decision"`
}

type SeasonRequest struct {
	ActorID string `json:"actorId"`
	Confirm string `json:"confirm,omitempty"`
	Week    int    `json:"week,omitempty"`
}

type ForceResultRequest struct {
	ActorID string `json:"actorId"`
	Winner  string `json:"winner"`
	Loser   string `json:"loser"`
	Week    int    `json:"week"`
}

type TradeBlockRequest struct {
	ActorID string `json:"actorId"`
	Team    string `json:"team"`
	Entry   string `json:"entry"`
}

type ScoutingRequest struct {
	ActorID string `json:"actorId"`
	Team    string `json:"team"`
	Report  string `json:"report"`
}

// Response types

type TransitionResponse struct {
	ProposalID string       `json:"proposalId"`
	From       Status       `json:"from"`
	To         Status       `json:"to"`
	Changed    bool         `json:"changed"`
	Report     *ApplyReport `json:"report,omitempty"`
}

type ProposalListResponse struct {
	Proposals []Proposal `json:"proposals"`
}

type StandingRow struct {
	Team string `json:"team"`
	Standing
}

type StandingsResponse struct {
	SeasonNo int           `json:"seasonNo"`
	Rows     []StandingRow `json:"rows"`
}

type ScheduleResponse struct {
	SeasonNo int             `json:"seasonNo"`
	Week     int             `json:"week"`
	Games    []ScheduledGame `json:"games"`
}

type SimulateResponse struct {
	Recorded []GameRecord `json:"recorded"`
}

// Error response

type ErrorResponse struct {
	Error    string            `json:"error"`
	Message  string            `json:"message,omitempty"`
	Kind     string            `json:"kind,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
