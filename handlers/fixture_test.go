// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"testing"

	"github.com/danielhkuo/courtside/engine"
	"github.com/danielhkuo/courtside/notify"
	"github.com/danielhkuo/courtside/outcome"
	"github.com/danielhkuo/courtside/season"
	"github.com/danielhkuo/courtside/store"
	"github.com/danielhkuo/courtside/testutil"
)

type fixture struct {
	store     *store.Store
	clock     *testutil.Clock
	presenter *testutil.RecordingPresenter
	engine    *engine.Engine
	season    *season.Service

	proposals    *ProposalHandler
	seasons      *SeasonHandler
	interactions *InteractionHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := &testutil.RecordingPresenter{}
	return newFixtureWithPresenter(t, rec, rec)
}

// newFixtureWithPresenter delivers notifications through pres; rec is
// what the fixture exposes for assertions.
func newFixtureWithPresenter(t *testing.T, rec *testutil.RecordingPresenter, pres notify.Presenter) *fixture {
	t.Helper()

	s := testutil.NewStore(t)
	testutil.SeedLeague(t, s)
	clock := testutil.NewClock()
	cfg := testutil.GetTestConfig()
	reg := testutil.Registry()

	applier := outcome.New(s, cfg.RegressionDelay)
	applier.SetClock(clock.Now)

	n := notify.New(pres, notify.Channels{
		Committee: cfg.CommitteeChannelID,
		Staff:     cfg.StaffChannelID,
		Approved:  cfg.ApprovedChannelID,
		Denied:    cfg.DeniedChannelID,
	})
	n.SetRenderer(notify.Renderer{Now: clock.Now})

	e := engine.New(engine.Deps{
		Store:     s,
		Teams:     reg,
		Directory: reg,
		Applier:   applier,
		Notifier:  n,
		Config: engine.Config{
			CommitteeRoleID:    cfg.CommitteeRoleID,
			StaffRoleID:        cfg.StaffRoleID,
			AdminRoleIDs:       cfg.AdminRoleIDs,
			CounterpartyWindow: cfg.CounterpartyWindow,
			CommitteeWindow:    cfg.CommitteeWindow,
			ScoreRetention:     cfg.ScoreRetention,
		},
	})
	e.SetClock(clock.Now)

	svc := season.New(s, reg, reg, applier, season.Config{
		StaffRoleID:  cfg.StaffRoleID,
		AdminRoleIDs: cfg.AdminRoleIDs,
	})
	svc.SetClock(clock.Now)
	svc.SetSeed(7)

	return &fixture{
		store:        s,
		clock:        clock,
		presenter:    rec,
		engine:       e,
		season:       svc,
		proposals:    NewProposalHandler(e),
		seasons:      NewSeasonHandler(svc),
		interactions: NewInteractionHandler(e, svc, nil),
	}
}
