// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package season

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/danielhkuo/courtside/apperr"
	"github.com/danielhkuo/courtside/league"
	"github.com/danielhkuo/courtside/models"
	"github.com/danielhkuo/courtside/store"
)

// coachTeam resolves the team a coach command acts on. With no team text
// the actor's only coached team is used. Admins may act for any team.
func (s *Service) coachTeam(ctx context.Context, actorID, teamText string) (models.Team, error) {
	m, err := s.member(ctx, actorID)
	if err != nil {
		return models.Team{}, err
	}
	teams := s.league.Teams()

	if strings.TrimSpace(teamText) == "" {
		coached := league.TeamsOfMember(teams, m)
		switch len(coached) {
		case 1:
			return coached[0], nil
		case 0:
			return models.Team{}, apperr.Authorization("you do not coach a team in this league")
		default:
			return models.Team{}, apperr.Input("you coach several teams; name the team")
		}
	}

	team, err := resolve(teams, teamText, "team")
	if err != nil {
		return models.Team{}, err
	}
	if !league.HasAny(m.Roles, team.RoleID) && !league.HasAny(m.Roles, s.cfg.AdminRoleIDs...) {
		return models.Team{}, apperr.Authorization(fmt.Sprintf("only the %s coach can do that", team.Name))
	}
	return team, nil
}

// TradeBlock returns what every team is shopping.
func (s *Service) TradeBlock(ctx context.Context) (models.TradeBlock, error) {
	block, err := store.Load[models.TradeBlock](ctx, s.store, store.DocTradeBlock)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, "failed to load trade block", err)
	}
	if block == nil {
		block = models.TradeBlock{}
	}
	return block, nil
}

// AddToBlock lists entry on the team's trade block. Re-adding the same
// entry is a no-op.
func (s *Service) AddToBlock(ctx context.Context, actorID, teamText, entry string) (models.TradeBlock, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return nil, apperr.Input("entry is required")
	}
	team, err := s.coachTeam(ctx, actorID, teamText)
	if err != nil {
		return nil, err
	}

	var out models.TradeBlock
	err = store.Update(ctx, s.store, store.DocTradeBlock, func(block *models.TradeBlock) error {
		if *block == nil {
			*block = models.TradeBlock{}
		}
		list := (*block)[team.Name]
		if !slices.ContainsFunc(list, func(e string) bool { return league.Normalize(e) == league.Normalize(entry) }) {
			(*block)[team.Name] = append(list, entry)
		}
		out = *block
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInfrastructure, "failed to update trade block", err)
	}
	return out, nil
}

// RemoveFromBlock takes entry off the team's trade block.
func (s *Service) RemoveFromBlock(ctx context.Context, actorID, teamText, entry string) (models.TradeBlock, error) {
	team, err := s.coachTeam(ctx, actorID, teamText)
	if err != nil {
		return nil, err
	}

	var out models.TradeBlock
	err = store.Update(ctx, s.store, store.DocTradeBlock, func(block *models.TradeBlock) error {
		list := (*block)[team.Name]
		i := slices.IndexFunc(list, func(e string) bool { return league.Normalize(e) == league.Normalize(entry) })
		if i < 0 {
			return apperr.WithMetadata(apperr.KindNotFound,
				fmt.Sprintf("%q is not on the %s trade block", entry, team.Name), map[string]string{"team": team.Name})
		}
		list = slices.Delete(list, i, i+1)
		if len(list) == 0 {
			delete(*block, team.Name)
		} else {
			(*block)[team.Name] = list
		}
		out = *block
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindInfrastructure, "failed to update trade block", err)
	}
	return out, nil
}

// Scouting returns the scouting board.
func (s *Service) Scouting(ctx context.Context) (models.ScoutingBoard, error) {
	board, err := store.Load[models.ScoutingBoard](ctx, s.store, store.DocScouting)
	if err != nil {
		return models.ScoutingBoard{}, apperr.Wrap(apperr.KindInfrastructure, "failed to load scouting", err)
	}
	if board.Reports == nil {
		board.Reports = map[string][]string{}
	}
	return board, nil
}

// AddScoutingReport files a coach's report on another team.
func (s *Service) AddScoutingReport(ctx context.Context, actorID, subject, report string) (models.ScoutingBoard, error) {
	report = strings.TrimSpace(report)
	if report == "" {
		return models.ScoutingBoard{}, apperr.Input("report is required")
	}
	m, err := s.member(ctx, actorID)
	if err != nil {
		return models.ScoutingBoard{}, err
	}
	teams := s.league.Teams()
	if len(league.TeamsOfMember(teams, m)) == 0 && !league.HasAny(m.Roles, s.cfg.AdminRoleIDs...) {
		return models.ScoutingBoard{}, apperr.Authorization("only coaches can file scouting reports")
	}
	team, err := resolve(teams, subject, "team")
	if err != nil {
		return models.ScoutingBoard{}, err
	}

	var out models.ScoutingBoard
	err = store.Update(ctx, s.store, store.DocScouting, func(board *models.ScoutingBoard) error {
		if board.Reports == nil {
			board.Reports = map[string][]string{}
		}
		board.Reports[team.Name] = append(board.Reports[team.Name], report)
		out = *board
		return nil
	})
	if err != nil {
		return models.ScoutingBoard{}, apperr.Wrap(apperr.KindInfrastructure, "failed to update scouting", err)
	}
	return out, nil
}
