// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store types
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	Port        int
	StoreType   string
	DataDir     string
	DatabaseURL string
	LeagueFile  string

	// Discord
	BotToken           string
	PublicKey          string
	AppID              string
	GuildID            string
	CommitteeChannelID string
	StaffChannelID     string
	ApprovedChannelID  string
	DeniedChannelID    string
	CommitteeRoleID    string
	StaffRoleID        string
	AdminRoleIDs       []string

	APIKeySalt string

	// Keygen names an API client; when set, main prints its key and exits.
	Keygen string

	SweepInterval      time.Duration
	CounterpartyWindow time.Duration
	CommitteeWindow    time.Duration
	RegressionDelay    time.Duration
	ScoreRetention     time.Duration

	LogLevel slog.Level
}

// DiscordEnabled reports whether a bot token was supplied.
func (c Config) DiscordEnabled() bool {
	return c.BotToken != ""
}

// ParseFlags loads .env (if present), parses flags and falls back to
// environment variables for anything not given on the command line.
func ParseFlags(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	var cfg Config
	var adminRoles, logLevel string

	fs := flag.NewFlagSet("courtside", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.StoreType, "t", "", "Store type (file, sqlite or postgres)")
	fs.StringVar(&cfg.DataDir, "data", "", "Directory for the file store")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL for sqlite/postgres stores")
	fs.StringVar(&cfg.LeagueFile, "league", "", "League definition file")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.BotToken, "token", "", "Discord bot token (prefer env)")
	fs.StringVar(&cfg.APIKeySalt, "api-salt", "", "API key salt (prefer env)")

	fs.StringVar(&cfg.PublicKey, "public-key", "", "Discord application public key (hex)")
	fs.StringVar(&cfg.AppID, "app", "", "Discord application id")
	fs.StringVar(&cfg.GuildID, "guild", "", "Discord guild id")
	fs.StringVar(&cfg.CommitteeChannelID, "committee-channel", "", "Committee channel id")
	fs.StringVar(&cfg.StaffChannelID, "staff-channel", "", "Staff channel id")
	fs.StringVar(&cfg.ApprovedChannelID, "approved-channel", "", "Approved announcements channel id")
	fs.StringVar(&cfg.DeniedChannelID, "denied-channel", "", "Denied announcements channel id")
	fs.StringVar(&cfg.CommitteeRoleID, "committee-role", "", "Committee role id")
	fs.StringVar(&cfg.StaffRoleID, "staff-role", "", "Staff role id")
	fs.StringVar(&adminRoles, "admin-roles", "", "Comma-separated admin role ids")

	fs.DurationVar(&cfg.SweepInterval, "sweep", 0, "Deadline sweep interval")
	fs.DurationVar(&cfg.CounterpartyWindow, "counterparty-window", 0, "Counter-party response window")
	fs.DurationVar(&cfg.CommitteeWindow, "committee-window", 0, "Committee voting window")
	fs.DurationVar(&cfg.RegressionDelay, "regression-delay", 0, "Delay before a regression notice")
	fs.DurationVar(&cfg.ScoreRetention, "score-retention", 0, "How long resolved score requests are kept")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&cfg.Keygen, "keygen", "", "Print the API key for this client name and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	envString(&cfg.StoreType, "STORE_TYPE", StoreFile)
	envString(&cfg.DataDir, "DATA_DIR", "./data")
	envString(&cfg.DatabaseURL, "DATABASE_URL", "")
	envString(&cfg.LeagueFile, "LEAGUE_FILE", "league.yaml")
	envString(&cfg.BotToken, "DISCORD_TOKEN", "")
	envString(&cfg.PublicKey, "DISCORD_PUBLIC_KEY", "")
	envString(&cfg.AppID, "DISCORD_APP_ID", "")
	envString(&cfg.GuildID, "DISCORD_GUILD_ID", "")
	envString(&cfg.CommitteeChannelID, "COMMITTEE_CHANNEL_ID", "")
	envString(&cfg.StaffChannelID, "STAFF_CHANNEL_ID", "")
	envString(&cfg.ApprovedChannelID, "APPROVED_CHANNEL_ID", "")
	envString(&cfg.DeniedChannelID, "DENIED_CHANNEL_ID", "")
	envString(&cfg.CommitteeRoleID, "COMMITTEE_ROLE_ID", "")
	envString(&cfg.StaffRoleID, "STAFF_ROLE_ID", "")
	envString(&adminRoles, "ADMIN_ROLE_IDS", "")
	envString(&cfg.APIKeySalt, "API_KEY_SALT", "")
	envString(&logLevel, "LOG_LEVEL", "info")
	cfg.AdminRoleIDs = splitList(adminRoles)

	durations := []struct {
		dst *time.Duration
		env string
		def time.Duration
	}{
		{&cfg.SweepInterval, "SWEEP_INTERVAL", time.Minute},
		{&cfg.CounterpartyWindow, "COUNTERPARTY_WINDOW", 24 * time.Hour},
		{&cfg.CommitteeWindow, "COMMITTEE_WINDOW", 48 * time.Hour},
		{&cfg.RegressionDelay, "REGRESSION_DELAY", 7 * 24 * time.Hour},
		{&cfg.ScoreRetention, "SCORE_RETENTION", 7 * 24 * time.Hour},
	}
	for _, d := range durations {
		if err := envDuration(d.dst, d.env, d.def); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q", logLevel)
	}

	switch cfg.StoreType {
	case StoreFile:
	case StoreSQLite, StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database URL required for %s store (use -d or DATABASE_URL env)", cfg.StoreType)
		}
	default:
		return Config{}, fmt.Errorf("unknown store type %q", cfg.StoreType)
	}

	// Secrets - MUST be provided
	if cfg.APIKeySalt == "" {
		return Config{}, errors.New("API_KEY_SALT required")
	}
	if cfg.DiscordEnabled() && cfg.PublicKey == "" {
		return Config{}, errors.New("DISCORD_PUBLIC_KEY required when DISCORD_TOKEN is set")
	}

	return cfg, nil
}

func envString(dst *string, key, def string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
		return
	}
	*dst = def
}

func envDuration(dst *time.Duration, key string, def time.Duration) error {
	if *dst != 0 {
		return nil
	}
	v := os.Getenv(key)
	if v == "" {
		*dst = def
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
