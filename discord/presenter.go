// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/danielhkuo/courtside/notify"
)

// Presenter delivers notify messages as embeds with button rows.
type Presenter struct {
	session Session

	mu  sync.Mutex
	dms map[string]string // member id -> DM channel id
}

func NewPresenter(s Session) *Presenter {
	return &Presenter{session: s, dms: make(map[string]string)}
}

func (p *Presenter) Deliver(ctx context.Context, msg notify.Message) (string, error) {
	channelID := msg.Target.ChannelID
	if msg.Target.MemberID != "" {
		id, err := p.dmChannel(ctx, msg.Target.MemberID)
		if err != nil {
			return "", err
		}
		channelID = id
	}
	if channelID == "" {
		return "", fmt.Errorf("message %q has no destination", msg.Title)
	}

	sent, err := p.session.ChannelMessageSendComplex(channelID, BuildMessage(msg), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send to %s: %w", msg.Target, err)
	}
	return sent.ID, nil
}

func (p *Presenter) dmChannel(ctx context.Context, memberID string) (string, error) {
	p.mu.Lock()
	id, ok := p.dms[memberID]
	p.mu.Unlock()
	if ok {
		return id, nil
	}

	ch, err := p.session.UserChannelCreate(memberID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to open DM with %s: %w", memberID, err)
	}

	p.mu.Lock()
	p.dms[memberID] = ch.ID
	p.mu.Unlock()
	return ch.ID, nil
}

// BuildMessage converts a notify message to a discordgo payload.
func BuildMessage(msg notify.Message) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Body,
		Color:       msg.Color,
	}
	for _, f := range msg.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	send := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
	if len(msg.Buttons) > 0 {
		row := discordgo.ActionsRow{}
		for _, b := range msg.Buttons {
			style := discordgo.SuccessButton
			if b.Style == notify.ButtonDeny {
				style = discordgo.DangerButton
			}
			row.Components = append(row.Components, discordgo.Button{
				Label:    b.Label,
				Style:    style,
				CustomID: b.CustomID,
			})
		}
		send.Components = []discordgo.MessageComponent{row}
	}
	return send
}
