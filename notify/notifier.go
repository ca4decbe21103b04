// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/danielhkuo/courtside/models"
	"golang.org/x/sync/errgroup"
)

// Channels are the destination channel ids. Empty ids are skipped.
type Channels struct {
	Committee string
	Staff     string
	Approved  string
	Denied    string
}

// maxFanout bounds concurrent deliveries for one resolution.
const maxFanout = 4

// Notifier routes proposal stages and resolutions to their audiences.
type Notifier struct {
	presenter Presenter
	channels  Channels
	render    Renderer
}

func New(p Presenter, channels Channels) *Notifier {
	return &Notifier{presenter: p, channels: channels}
}

// SetRenderer replaces the renderer, e.g. to pin its clock in tests.
func (n *Notifier) SetRenderer(r Renderer) {
	n.render = r
}

// Opened posts the message for p's current review stage: a DM with
// approve/deny buttons for the trade counter-party, or the review channel
// for committee and staff review. Progression goes to the staff channel.
func (n *Notifier) Opened(ctx context.Context, p models.Proposal) (string, error) {
	msg := n.render.RenderProposal(p)

	switch {
	case p.Status == models.StatusAwaitingCounterparty:
		msg.Target = Target{MemberID: p.CounterpartyID}
	case p.Status == models.StatusInCommittee && p.Kind == models.KindProgression:
		msg.Target = Target{ChannelID: n.channels.Staff}
		if msg.Target.ChannelID == "" {
			msg.Target.ChannelID = n.channels.Committee
		}
	case p.Status == models.StatusInCommittee:
		msg.Target = Target{ChannelID: n.channels.Committee}
	default:
		return "", nil
	}
	if msg.Target.MemberID == "" && msg.Target.ChannelID == "" {
		slog.Debug("no destination for stage message", "proposal_id", p.ID, "status", p.Status)
		return "", nil
	}

	id, err := n.presenter.Deliver(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("failed to deliver %s to %s: %w", msg.Title, msg.Target, err)
	}
	return id, nil
}

// Resolved fans the outcome out to the proposer, the counter-party and the
// approved or denied channel concurrently. Every destination is attempted;
// the first failure is returned after all deliveries finish.
func (n *Notifier) Resolved(ctx context.Context, p models.Proposal, report *models.ApplyReport) error {
	base := n.render.RenderResolution(p, report)

	var targets []Target
	if p.ProposerID != "" {
		targets = append(targets, Target{MemberID: p.ProposerID})
	}
	if p.CounterpartyID != "" && p.CounterpartyID != p.ProposerID {
		targets = append(targets, Target{MemberID: p.CounterpartyID})
	}
	channel := n.channels.Denied
	if p.Status == models.StatusApproved {
		channel = n.channels.Approved
	}
	if channel != "" {
		targets = append(targets, Target{ChannelID: channel})
	}

	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(maxFanout)
	for _, target := range targets {
		msg := base
		msg.Target = target
		g.Go(func() error {
			if _, err := n.presenter.Deliver(ctx, msg); err != nil {
				failed.Add(1)
				slog.Warn("resolution delivery failed",
					"proposal_id", p.ID, "target", target.String(), "error", err)
				return fmt.Errorf("deliver to %s: %w", target, err)
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return fmt.Errorf("%d of %d resolution messages failed: %w", failed.Load(), len(targets), err)
	}
	return nil
}

// RegressionDue DMs the member who requested the upgrade.
func (n *Notifier) RegressionDue(ctx context.Context, notice models.RegressionNotice) error {
	msg := n.render.RenderRegression(notice)
	msg.Target = Target{MemberID: notice.MemberID}
	if _, err := n.presenter.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("failed to deliver regression notice: %w", err)
	}
	return nil
}

// LogPresenter logs messages instead of sending them. It is used when no
// bot token is configured.
type LogPresenter struct {
	seq atomic.Int64
}

func (l *LogPresenter) Deliver(ctx context.Context, msg Message) (string, error) {
	id := fmt.Sprintf("log-%d", l.seq.Add(1))
	buttons := make([]string, len(msg.Buttons))
	for i, b := range msg.Buttons {
		buttons[i] = b.CustomID
	}
	slog.Info("message",
		"id", id, "target", msg.Target.String(), "title", msg.Title,
		"body", msg.Body, "buttons", buttons)
	return id, nil
}
