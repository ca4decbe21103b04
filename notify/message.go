// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielhkuo/courtside/models"
)

// Target is where a message goes: a channel, or a member's DMs.
type Target struct {
	ChannelID string
	MemberID  string
}

func (t Target) String() string {
	if t.MemberID != "" {
		return "dm:" + t.MemberID
	}
	return "channel:" + t.ChannelID
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

type ButtonStyle int

const (
	ButtonApprove ButtonStyle = iota
	ButtonDeny
)

type Button struct {
	Label    string
	CustomID string
	Style    ButtonStyle
}

// Colors
const (
	ColorPending  = 0xF1C40F
	ColorApproved = 0x2ECC71
	ColorDenied   = 0xE74C3C
	ColorInfo     = 0x3498DB
)

// Message is a platform-neutral rendering of workflow state.
type Message struct {
	Target  Target
	Title   string
	Body    string
	Fields  []Field
	Buttons []Button
	Color   int
}

// Presenter delivers rendered messages to the chat platform and returns
// the id of the message it created.
type Presenter interface {
	Deliver(ctx context.Context, msg Message) (string, error)
}

// Action prefixes of button custom ids.
const (
	ActionCounterparty = "cp"
	ActionVote         = "vote"
)

// ActionID builds a button custom id, e.g. "vote:trade_1234:approve".
func ActionID(action, proposalID string, d models.Decision) string {
	return action + ":" + proposalID + ":" + string(d)
}

// ParseActionID splits a button custom id built by ActionID.
func ParseActionID(customID string) (action, proposalID string, d models.Decision, err error) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed action id %q", customID)
	}
	action, proposalID, d = parts[0], parts[1], models.Decision(parts[2])
	if action != ActionCounterparty && action != ActionVote {
		return "", "", "", fmt.Errorf("unknown action %q", action)
	}
	if proposalID == "" || !d.Valid() {
		return "", "", "", fmt.Errorf("malformed action id %q", customID)
	}
	return action, proposalID, d, nil
}
