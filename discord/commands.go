// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Slash command names
const (
	CmdTrade         = "trade"
	CmdScore         = "score"
	CmdProgression   = "progression"
	CmdStandings     = "standings"
	CmdSchedule      = "schedule"
	CmdRoster        = "roster"
	CmdBlock         = "block"
	CmdBlockAdd      = "block-add"
	CmdBlockRemove   = "block-remove"
	CmdScout         = "scout"
	CmdSeasonStart   = "season-start"
	CmdAdvanceWeek   = "advance-week"
	CmdSimulate      = "simulate"
	CmdForceResult   = "force-result"
	CmdResetScouting = "reset-scouting"
)

func str(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: desc,
		Required:    required,
	}
}

func num(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: desc,
		Required:    required,
	}
}

// Commands returns the slash commands the bot answers.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: CmdTrade, Description: "Propose a trade", Options: []*discordgo.ApplicationCommandOption{
			str("to", "Team you are trading with", true),
			str("give", "Assets you send, comma separated", true),
			str("receive", "Assets you get back, comma separated", true),
			str("from", "Your team, if you coach several", false),
			str("note", "Note for the committee", false),
		}},
		{Name: CmdScore, Description: "Report a game score", Options: []*discordgo.ApplicationCommandOption{
			str("team_a", "First team", true),
			num("score_a", "First team's score", true),
			str("team_b", "Second team", true),
			num("score_b", "Second team's score", true),
			num("week", "Week of the game", true),
		}},
		{Name: CmdProgression, Description: "Request a player progression", Options: []*discordgo.ApplicationCommandOption{
			str("player", "Player", true),
			str("skill_set", "Skill set", true),
			str("upgrade", "Attribute changes, e.g. +1 Speed", true),
			str("evidence", "Link or note backing the request", false),
			str("team", "Player's team", false),
		}},
		{Name: CmdStandings, Description: "Show the standings"},
		{Name: CmdSchedule, Description: "Show a week's games", Options: []*discordgo.ApplicationCommandOption{
			num("week", "Week, defaults to the current week", false),
		}},
		{Name: CmdRoster, Description: "Show a team's roster", Options: []*discordgo.ApplicationCommandOption{
			str("team", "Team", true),
		}},
		{Name: CmdBlock, Description: "Show the trade block"},
		{Name: CmdBlockAdd, Description: "Put an asset on your trade block", Options: []*discordgo.ApplicationCommandOption{
			str("entry", "Player or pick", true),
			str("team", "Your team, if you coach several", false),
		}},
		{Name: CmdBlockRemove, Description: "Take an asset off your trade block", Options: []*discordgo.ApplicationCommandOption{
			str("entry", "Player or pick", true),
			str("team", "Your team, if you coach several", false),
		}},
		{Name: CmdScout, Description: "File a scouting report", Options: []*discordgo.ApplicationCommandOption{
			str("team", "Team scouted", true),
			str("report", "Report", true),
		}},
		{Name: CmdSeasonStart, Description: "Start the next season (staff)", Options: []*discordgo.ApplicationCommandOption{
			str("confirm", "Type START SEASON <n>", true),
		}},
		{Name: CmdAdvanceWeek, Description: "Advance to the next week (staff)"},
		{Name: CmdSimulate, Description: "Simulate unplayed games (staff)", Options: []*discordgo.ApplicationCommandOption{
			num("week", "Simulate through this week", true),
		}},
		{Name: CmdForceResult, Description: "Record a result without a vote (staff)", Options: []*discordgo.ApplicationCommandOption{
			str("winner", "Winning team", true),
			str("loser", "Losing team", true),
			num("week", "Week, defaults to the current week", false),
		}},
		{Name: CmdResetScouting, Description: "Clear the scouting board (staff)"},
	}
}

// RegisterCommands replaces the guild's slash commands with Commands.
func RegisterCommands(ctx context.Context, s Session, appID, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(appID, guildID, Commands(), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}

// Options indexes slash command options by name.
type Options map[string]*discordgo.ApplicationCommandInteractionDataOption

func OptionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) Options {
	m := make(Options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (o Options) String(name string) string {
	if opt, ok := o[name]; ok {
		if s, ok := opt.Value.(string); ok {
			return s
		}
	}
	return ""
}

func (o Options) Int(name string) int {
	if opt, ok := o[name]; ok {
		// Integers arrive as JSON numbers
		if f, ok := opt.Value.(float64); ok {
			return int(f)
		}
	}
	return 0
}

// ActorID returns the id of the user who triggered an interaction, in a
// guild or in DMs.
func ActorID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// Ephemeral builds an interaction reply only the caller sees.
func Ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

// Deferred acknowledges an interaction whose answer comes later as a
// follow-up. Discord shows the caller a private "thinking" state.
func Deferred() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}
}
