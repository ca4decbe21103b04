// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags loads a .env file from the working directory if one exists,
then returns a Config with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - StoreType: file (default), sqlite or postgres
  - DataDir: Root of the file store (default: ./data)
  - DatabaseURL: Connection string for sqlite/postgres stores
  - LeagueFile: League definition YAML (default: league.yaml)
  - BotToken, PublicKey, GuildID: Discord application settings
  - Channel ids: committee, staff, approved, denied
  - Role ids: committee, staff, admin (comma list)
  - APIKeySalt: Secret for API key HMAC (required)
  - SweepInterval, CounterpartyWindow, CommitteeWindow, RegressionDelay,
    ScoreRetention: timing (Go duration strings)
  - LogLevel: debug, info, warn, error

# CLI Flags

	-p                 Server port
	-t                 Store type
	-d                 Database URL
	-data              File store directory
	-league            League file
	-token             Discord bot token
	-api-salt          API key salt
	-public-key, -guild, -committee-channel, -staff-channel,
	-approved-channel, -denied-channel, -committee-role, -staff-role,
	-admin-roles, -sweep, -counterparty-window, -committee-window,
	-regression-delay, -score-retention, -log-level

# Environment Variables

Flags fall back to environment variables:

	PORT, STORE_TYPE, DATA_DIR, DATABASE_URL, LEAGUE_FILE,
	DISCORD_TOKEN, DISCORD_PUBLIC_KEY, DISCORD_GUILD_ID,
	COMMITTEE_CHANNEL_ID, STAFF_CHANNEL_ID, APPROVED_CHANNEL_ID,
	DENIED_CHANNEL_ID, COMMITTEE_ROLE_ID, STAFF_ROLE_ID, ADMIN_ROLE_IDS,
	API_KEY_SALT, SWEEP_INTERVAL, COUNTERPARTY_WINDOW, COMMITTEE_WINDOW,
	REGRESSION_DELAY, SCORE_RETENTION, LOG_LEVEL

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - API_KEY_SALT is missing
  - a sqlite/postgres store has no DATABASE_URL
  - DISCORD_TOKEN is set without DISCORD_PUBLIC_KEY
  - a duration or log level does not parse

Without DISCORD_TOKEN the bot runs against the league file's member list
and logs the messages it would have sent.
*/
package cliparse
