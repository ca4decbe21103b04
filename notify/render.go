// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/tally"
	"github.com/dustin/go-humanize"
)

// Renderer turns proposals into messages. Targets are filled in by the
// Notifier.
type Renderer struct {
	Now func() time.Time
}

func (r Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// RenderProposal renders p for its current review stage, with the buttons
// that stage accepts.
func (r Renderer) RenderProposal(p models.Proposal) Message {
	msg := Message{
		Title:  stageTitle(p),
		Body:   summary(p),
		Fields: payloadFields(p),
		Color:  ColorPending,
	}

	action := ActionVote
	if p.Status == models.StatusAwaitingCounterparty {
		action = ActionCounterparty
	}
	if p.Status == models.StatusInCommittee && p.Kind == models.KindTrade {
		msg.Fields = append(msg.Fields, Field{
			Name:   "Quorum",
			Value:  fmt.Sprintf("%d matching votes decide", tally.CommitteeQuorum),
			Inline: true,
		})
	}
	if p.Deadline != nil {
		msg.Fields = append(msg.Fields, Field{
			Name:   "Deadline",
			Value:  humanize.RelTime(*p.Deadline, r.now(), "ago", "from now"),
			Inline: true,
		})
	}
	msg.Buttons = []Button{
		{Label: "Approve", CustomID: ActionID(action, p.ID, models.DecisionApprove), Style: ButtonApprove},
		{Label: "Deny", CustomID: ActionID(action, p.ID, models.DecisionDeny), Style: ButtonDeny},
	}
	return msg
}

// RenderResolution renders the final outcome of p. Apply warnings, such as
// trade assets that matched nothing, are listed so the approver sees them.
func (r Renderer) RenderResolution(p models.Proposal, report *models.ApplyReport) Message {
	msg := Message{
		Title:  fmt.Sprintf("%s %s", kindTitle(p.Kind), p.Status),
		Body:   summary(p),
		Fields: payloadFields(p),
		Color:  ColorDenied,
	}
	if p.Status == models.StatusApproved {
		msg.Color = ColorApproved
	}

	switch {
	case p.ResolvedBy == "timeout":
		msg.Fields = append(msg.Fields, Field{Name: "Decided by", Value: "deadline"})
	case p.ResolvedBy != "":
		msg.Fields = append(msg.Fields, Field{Name: "Decided by", Value: mention(p.ResolvedBy)})
	}
	if len(p.Ballots) > 0 {
		res := tally.Evaluate(p.Ballots, tally.Majority(tally.CommitteeQuorum))
		msg.Fields = append(msg.Fields, Field{
			Name:   "Votes",
			Value:  fmt.Sprintf("%d approve / %d deny", res.Approve, res.Deny),
			Inline: true,
		})
	}

	if report != nil {
		if len(report.Moved) > 0 {
			msg.Fields = append(msg.Fields, Field{Name: "Moved", Value: strings.Join(report.Moved, "\n")})
		}
		if len(report.Warnings) > 0 {
			msg.Fields = append(msg.Fields, Field{Name: "Warnings", Value: strings.Join(report.Warnings, "\n")})
		}
	}
	return msg
}

// RenderRegression renders the regression paired with an approved upgrade.
func (r Renderer) RenderRegression(n models.RegressionNotice) Message {
	return Message{
		Title: "Regression due",
		Body: fmt.Sprintf("%s owes a %d-point regression in %s (due %s).",
			n.Player, n.Points, n.SkillSet, humanize.RelTime(n.DueAt, r.now(), "ago", "from now")),
		Color: ColorInfo,
	}
}

func kindTitle(k models.Kind) string {
	switch k {
	case models.KindTrade:
		return "Trade"
	case models.KindScore:
		return "Score"
	case models.KindProgression:
		return "Progression"
	}
	return string(k)
}

func stageTitle(p models.Proposal) string {
	switch p.Status {
	case models.StatusAwaitingCounterparty:
		return "Trade offer"
	case models.StatusInCommittee:
		if p.Kind == models.KindTrade {
			return "Trade vote"
		}
		return kindTitle(p.Kind) + " review"
	}
	return kindTitle(p.Kind)
}

func summary(p models.Proposal) string {
	switch {
	case p.Trade != nil:
		return fmt.Sprintf("%s proposes a trade between %s and %s.",
			mention(p.ProposerID), p.Trade.FromTeam, p.Trade.ToTeam)
	case p.Score != nil:
		s := p.Score
		return fmt.Sprintf("Week %d: %s %d, %s %d", s.Week, s.TeamA, s.ScoreA, s.TeamB, s.ScoreB)
	case p.Progression != nil:
		return fmt.Sprintf("%s requests %s for %s (%s).",
			mention(p.ProposerID), p.Progression.Upgrade, p.Progression.Player, p.Progression.SkillSet)
	}
	return p.ID
}

func payloadFields(p models.Proposal) []Field {
	var fields []Field
	switch {
	case p.Trade != nil:
		fields = append(fields,
			Field{Name: p.Trade.FromTeam + " gives", Value: orNone(p.Trade.Give), Inline: true},
			Field{Name: p.Trade.ToTeam + " gives", Value: orNone(p.Trade.Receive), Inline: true},
		)
		if p.Trade.Note != "" {
			fields = append(fields, Field{Name: "Note", Value: p.Trade.Note})
		}
	case p.Progression != nil:
		if p.Progression.Team != "" {
			fields = append(fields, Field{Name: "Team", Value: p.Progression.Team, Inline: true})
		}
		if p.Progression.Evidence != "" {
			fields = append(fields, Field{Name: "Evidence", Value: p.Progression.Evidence})
		}
	}
	return append(fields, Field{Name: "ID", Value: p.ID, Inline: true})
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "nothing"
	}
	return s
}

func mention(memberID string) string {
	return "<@" + memberID + ">"
}
