// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/danielhkuo/courtside/apperr"
	"github.com/danielhkuo/courtside/discord"
	"github.com/danielhkuo/courtside/engine"
	"github.com/danielhkuo/courtside/middleware"
	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/notify"
	"github.com/danielhkuo/courtside/season"
	"github.com/danielhkuo/courtside/tally"
)

// DefaultReplyBudget is how long an interaction may run before its reply
// is deferred. Discord fails interactions left unanswered for 3 seconds.
const DefaultReplyBudget = 2 * time.Second

// followupTimeout bounds work that continues after a deferred reply.
const followupTimeout = time.Minute

// Followup sends the answer to a deferred interaction.
// *discord.Followups satisfies it.
type Followup interface {
	Followup(ctx context.Context, i *discordgo.Interaction, content string) error
}

// InteractionHandler serves the Discord interactions endpoint. Every reply
// is ephemeral; public announcements go through the notifier.
type InteractionHandler struct {
	engine   *engine.Engine
	season   *season.Service
	followup Followup
	budget   time.Duration
}

// NewInteractionHandler builds the handler. Without a Followup every
// interaction is answered inline, however long it takes.
func NewInteractionHandler(e *engine.Engine, s *season.Service, f Followup) *InteractionHandler {
	return &InteractionHandler{engine: e, season: s, followup: f, budget: DefaultReplyBudget}
}

// SetReplyBudget replaces DefaultReplyBudget, for tests.
func (h *InteractionHandler) SetReplyBudget(d time.Duration) {
	h.budget = d
}

// Handle handles POST /interactions. The signature is checked by
// middleware.VerifyDiscord before this runs.
func (h *InteractionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var i discordgo.Interaction
	if err := middleware.ParseJSONBody(r, &i); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch i.Type {
	case discordgo.InteractionPing:
		middleware.JSONResponse(w, http.StatusOK, discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})
	case discordgo.InteractionMessageComponent:
		h.reply(w, r, &i, h.component)
	case discordgo.InteractionApplicationCommand:
		h.reply(w, r, &i, h.command)
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "unsupported interaction type")
	}
}

type interactionWork func(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse

// reply answers inline when work finishes within the budget. Otherwise it
// acknowledges with discord.Deferred and posts the answer as a follow-up.
func (h *InteractionHandler) reply(w http.ResponseWriter, r *http.Request, i *discordgo.Interaction, work interactionWork) {
	if h.followup == nil {
		middleware.JSONResponse(w, http.StatusOK, work(r.Context(), i))
		return
	}

	// Work outlives the request once the reply is deferred
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), followupTimeout)
	done := make(chan *discordgo.InteractionResponse, 1)
	go func() {
		defer cancel()
		done <- work(ctx, i)
	}()

	timer := time.NewTimer(h.budget)
	defer timer.Stop()

	select {
	case resp := <-done:
		middleware.JSONResponse(w, http.StatusOK, resp)
	case <-timer.C:
		slog.Info("interaction deferred", "interaction_id", i.ID, "budget", h.budget)
		middleware.JSONResponse(w, http.StatusOK, discord.Deferred())
		go h.sendFollowup(i, done)
	}
}

func (h *InteractionHandler) sendFollowup(i *discordgo.Interaction, done <-chan *discordgo.InteractionResponse) {
	resp := <-done
	ctx, cancel := context.WithTimeout(context.Background(), followupTimeout)
	defer cancel()
	if err := h.followup.Followup(ctx, i, resp.Data.Content); err != nil {
		slog.Error("interaction follow-up failed", "interaction_id", i.ID, "error", err)
	}
}

// component handles an approve/deny button press.
func (h *InteractionHandler) component(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	actor := discord.ActorID(i)
	action, id, decision, err := notify.ParseActionID(i.MessageComponentData().CustomID)
	if err != nil {
		slog.Warn("unknown button", "custom_id", i.MessageComponentData().CustomID, "error", err)
		return discord.Ephemeral("That button is no longer supported.")
	}

	var tr engine.Transition
	switch action {
	case notify.ActionCounterparty:
		tr, err = h.engine.RespondCounterparty(ctx, id, actor, decision)
	default:
		tr, err = h.engine.CastVote(ctx, id, actor, decision)
	}
	if err != nil {
		return errorReply(err, "proposal_id", id, "actor", actor)
	}
	return discord.Ephemeral(h.describeTransition(action, decision, tr))
}

func (h *InteractionHandler) describeTransition(action string, d models.Decision, tr engine.Transition) string {
	switch {
	case tr.To == models.StatusApproved:
		return fmt.Sprintf("Recorded. %s is approved.", tr.ProposalID)
	case tr.To == models.StatusDenied:
		return fmt.Sprintf("Recorded. %s is denied.", tr.ProposalID)
	case tr.To == models.StatusInCommittee && tr.Changed:
		return "Accepted. The committee will vote next."
	case action == notify.ActionVote:
		policy, _ := h.engine.Policy(tr.Proposal.Kind)
		res := tally.Evaluate(tr.Proposal.Ballots, policy.Quorum)
		return fmt.Sprintf("Your %s vote is in (%d approve, %d deny).", d, res.Approve, res.Deny)
	default:
		return "Recorded."
	}
}

// command dispatches a slash command.
func (h *InteractionHandler) command(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	data := i.ApplicationCommandData()
	opts := discord.OptionMap(data.Options)
	actor := discord.ActorID(i)

	text, err := h.run(ctx, data.Name, actor, opts)
	if err != nil {
		return errorReply(err, "command", data.Name, "actor", actor)
	}
	return discord.Ephemeral(text)
}

func (h *InteractionHandler) run(ctx context.Context, name, actor string, opts discord.Options) (string, error) {
	switch name {
	case discord.CmdTrade:
		p, err := h.engine.Submit(ctx, models.SubmitProposalRequest{
			Kind: models.KindTrade, ProposerID: actor,
			Trade: &models.TradePayload{
				FromTeam: opts.String("from"), ToTeam: opts.String("to"),
				Give: opts.String("give"), Receive: opts.String("receive"),
				Note: opts.String("note"),
			},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Trade %s sent to <@%s> for a response.", p.ID, p.CounterpartyID), nil

	case discord.CmdScore:
		p, err := h.engine.Submit(ctx, models.SubmitProposalRequest{
			Kind: models.KindScore, ProposerID: actor,
			Score: &models.ScorePayload{
				TeamA: opts.String("team_a"), ScoreA: opts.Int("score_a"),
				TeamB: opts.String("team_b"), ScoreB: opts.Int("score_b"),
				Week: opts.Int("week"),
			},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Score %s is with the committee.", p.ID), nil

	case discord.CmdProgression:
		p, err := h.engine.Submit(ctx, models.SubmitProposalRequest{
			Kind: models.KindProgression, ProposerID: actor,
			Progression: &models.ProgressionPayload{
				Player: opts.String("player"), Team: opts.String("team"),
				SkillSet: opts.String("skill_set"), Upgrade: opts.String("upgrade"),
				Evidence: opts.String("evidence"),
			},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Progression %s is with staff.", p.ID), nil

	case discord.CmdStandings:
		st, err := h.season.Standings(ctx)
		if err != nil {
			return "", err
		}
		return formatStandings(st), nil

	case discord.CmdSchedule:
		sc, err := h.season.Schedule(ctx, opts.Int("week"))
		if err != nil {
			return "", err
		}
		return formatSchedule(sc), nil

	case discord.CmdRoster:
		roster, err := h.season.Roster(ctx, opts.String("team"))
		if err != nil {
			return "", err
		}
		return formatRoster(roster), nil

	case discord.CmdBlock:
		block, err := h.season.TradeBlock(ctx)
		if err != nil {
			return "", err
		}
		return formatBlock(block), nil

	case discord.CmdBlockAdd:
		block, err := h.season.AddToBlock(ctx, actor, opts.String("team"), opts.String("entry"))
		if err != nil {
			return "", err
		}
		return formatBlock(block), nil

	case discord.CmdBlockRemove:
		block, err := h.season.RemoveFromBlock(ctx, actor, opts.String("team"), opts.String("entry"))
		if err != nil {
			return "", err
		}
		return formatBlock(block), nil

	case discord.CmdScout:
		if _, err := h.season.AddScoutingReport(ctx, actor, opts.String("team"), opts.String("report")); err != nil {
			return "", err
		}
		return "Scouting report filed.", nil

	case discord.CmdSeasonStart:
		s, err := h.season.Start(ctx, actor, opts.String("confirm"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Season %d has started.", s.SeasonNo), nil

	case discord.CmdAdvanceWeek:
		s, err := h.season.AdvanceWeek(ctx, actor)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Season %d is now in week %d.", s.SeasonNo, s.Week), nil

	case discord.CmdSimulate:
		recorded, err := h.season.SimulateThrough(ctx, actor, opts.Int("week"))
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "Simulated %d games.", len(recorded))
		for _, g := range recorded {
			fmt.Fprintf(&sb, "\nWeek %d: %s %d, %s %d", g.Week, g.TeamA, g.ScoreA, g.TeamB, g.ScoreB)
		}
		return sb.String(), nil

	case discord.CmdForceResult:
		rec, err := h.season.ForceResult(ctx, actor, opts.String("winner"), opts.String("loser"), opts.Int("week"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Recorded a week %d win for %s over %s.", rec.Week, rec.TeamA, rec.TeamB), nil

	case discord.CmdResetScouting:
		if _, err := h.season.ResetScouting(ctx, actor); err != nil {
			return "", err
		}
		return "Scouting board cleared.", nil
	}

	return "", apperr.Input(fmt.Sprintf("unknown command %q", name))
}

// errorReply turns a domain error into an ephemeral reply. Infrastructure
// failures are logged with their detail and shown generically.
func errorReply(err error, attrs ...any) *discordgo.InteractionResponse {
	if apperr.KindOf(err) == apperr.KindInfrastructure {
		slog.Error("interaction failed", append(attrs, "error", err)...)
	} else {
		slog.Info("interaction rejected", append(attrs, "kind", apperr.KindOf(err), "error", err)...)
	}
	return discord.Ephemeral(apperr.UserMessage(err))
}

func formatStandings(st models.StandingsResponse) string {
	if len(st.Rows) == 0 {
		return "No standings yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Season %d standings\n", st.SeasonNo)
	for n, row := range st.Rows {
		fmt.Fprintf(&sb, "%d. %s %d-%d (%+d)\n", n+1, row.Team, row.Wins, row.Losses, row.PointsFor-row.PointsAgainst)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatSchedule(sc models.ScheduleResponse) string {
	if len(sc.Games) == 0 {
		return fmt.Sprintf("No games scheduled in week %d.", sc.Week)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Week %d\n", sc.Week)
	for _, g := range sc.Games {
		mark := ""
		if g.Played {
			mark = " (final)"
		}
		fmt.Fprintf(&sb, "%s at %s%s\n", g.Away, g.Home, mark)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatRoster(r models.Roster) string {
	var sb strings.Builder
	sb.WriteString(r.Team)
	for _, p := range r.Players {
		fmt.Fprintf(&sb, "\n%s", p.Name)
		if p.Position != "" {
			fmt.Fprintf(&sb, " (%s)", p.Position)
		}
		if p.Overall > 0 {
			fmt.Fprintf(&sb, " %d", p.Overall)
		}
	}
	return sb.String()
}

func formatBlock(block models.TradeBlock) string {
	if len(block) == 0 {
		return "The trade block is empty."
	}
	teams := make([]string, 0, len(block))
	for team := range block {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	var sb strings.Builder
	for _, team := range teams {
		fmt.Fprintf(&sb, "%s: %s\n", team, strings.Join(block[team], ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}
