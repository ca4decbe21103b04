// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/courtside/auth"
	"github.com/danielhkuo/courtside/cliparse"
	"github.com/danielhkuo/courtside/db"
	"github.com/danielhkuo/courtside/discord"
	"github.com/danielhkuo/courtside/engine"
	"github.com/danielhkuo/courtside/handlers"
	"github.com/danielhkuo/courtside/league"
	"github.com/danielhkuo/courtside/notify"
	"github.com/danielhkuo/courtside/outcome"
	"github.com/danielhkuo/courtside/router"
	"github.com/danielhkuo/courtside/scheduler"
	"github.com/danielhkuo/courtside/season"
	"github.com/danielhkuo/courtside/store"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	if cfg.Keygen != "" {
		key, err := auth.GenerateAPIKey(cfg.Keygen, cfg.APIKeySalt)
		if err != nil {
			slog.Error("key generation failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(key)
		return
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliparse.Config) error {
	s, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// League file, reloaded on change
	reg, err := league.LoadFile(cfg.LeagueFile)
	if err != nil {
		return err
	}
	go func() {
		if err := reg.Watch(ctx); err != nil {
			slog.Warn("league file watch stopped", "error", err)
		}
	}()

	var (
		presenter notify.Presenter = &notify.LogPresenter{}
		directory league.Directory = reg
		publicKey ed25519.PublicKey
		followup  handlers.Followup
	)
	if cfg.DiscordEnabled() {
		session, err := discord.Open(cfg.BotToken)
		if err != nil {
			return err
		}
		presenter = discord.NewPresenter(session)
		followup = discord.NewFollowups(session)
		directory = discord.NewDirectory(session, cfg.GuildID, discord.DefaultMemberTTL)

		if cfg.AppID != "" {
			if err := discord.RegisterCommands(ctx, session, cfg.AppID, cfg.GuildID); err != nil {
				return err
			}
			slog.Info("slash commands registered", "guild", cfg.GuildID)
		}

		publicKey, err = auth.ParsePublicKey(cfg.PublicKey)
		if err != nil {
			return err
		}
	} else {
		slog.Warn("no Discord token; notifications are logged and members come from the league file")
	}

	applier := outcome.New(s, cfg.RegressionDelay)
	notifier := notify.New(presenter, notify.Channels{
		Committee: cfg.CommitteeChannelID,
		Staff:     cfg.StaffChannelID,
		Approved:  cfg.ApprovedChannelID,
		Denied:    cfg.DeniedChannelID,
	})
	eng := engine.New(engine.Deps{
		Store:     s,
		Teams:     reg,
		Directory: directory,
		Applier:   applier,
		Notifier:  notifier,
		Config: engine.Config{
			CommitteeRoleID:    cfg.CommitteeRoleID,
			StaffRoleID:        cfg.StaffRoleID,
			AdminRoleIDs:       cfg.AdminRoleIDs,
			CounterpartyWindow: cfg.CounterpartyWindow,
			CommitteeWindow:    cfg.CommitteeWindow,
			ScoreRetention:     cfg.ScoreRetention,
		},
	})
	svc := season.New(s, reg, directory, applier, season.Config{
		StaffRoleID:  cfg.StaffRoleID,
		AdminRoleIDs: cfg.AdminRoleIDs,
	})

	// Deadline sweeps
	go scheduler.New(eng, cfg.SweepInterval).Run(ctx)

	server := http.Server{
		Handler: router.NewRouter(router.Deps{
			Engine:     eng,
			Season:     svc,
			APIKeySalt: cfg.APIKeySalt,
			PublicKey:  publicKey,
			Followup:   followup,
		}),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "port", cfg.Port, "store", cfg.StoreType, "discord", cfg.DiscordEnabled())
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Server closed")
	return nil
}

// openStore builds the document store for cfg.StoreType.
func openStore(cfg cliparse.Config) (*store.Store, func(), error) {
	switch cfg.StoreType {
	case cliparse.StoreSQLite, cliparse.StorePostgres:
		conn, err := db.Open(cfg.StoreType, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.CreateSchema(conn); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("schema creation failed: %w", err)
		}
		slog.Info("Database schema ready", "store", cfg.StoreType)
		return store.New(store.NewSQLBackend(conn, cfg.StoreType)), func() { conn.Close() }, nil
	default:
		backend, err := store.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store.New(backend), func() {}, nil
	}
}
