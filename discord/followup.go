// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Followups posts the answer to an interaction acknowledged with Deferred.
type Followups struct {
	session Session
}

func NewFollowups(s Session) *Followups {
	return &Followups{session: s}
}

// Followup sends content as an ephemeral follow-up to i. The interaction
// token in i stays valid for 15 minutes.
func (f *Followups) Followup(ctx context.Context, i *discordgo.Interaction, content string) error {
	_, err := f.session.FollowupMessageCreate(i, false, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send follow-up: %w", err)
	}
	return nil
}
