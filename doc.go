// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the courtside league bot.

Courtside runs a community basketball league on Discord: coaches propose
trades, report scores and request player progressions; counter-parties,
the committee and staff approve or deny them with buttons, and approved
proposals are applied to rosters, standings and the pick ledger.

# Starting the Server

	API_KEY_SALT=... LEAGUE_FILE=league.yaml go run .

With Discord:

	DISCORD_TOKEN=... DISCORD_PUBLIC_KEY=... DISCORD_APP_ID=... \
	DISCORD_GUILD_ID=... go run .

Point the application's interactions endpoint at POST /interactions.

# Configuration

Required settings:

  - API_KEY_SALT (-api-salt): Secret for JSON API keys
  - LEAGUE_FILE (-league): Team, roster and member definitions (YAML)

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - STORE_TYPE (-t): file, sqlite or postgres (default: file)
  - DATA_DIR (-data) or DATABASE_URL (-d)
  - DISCORD_*: bot token, public key, app and guild ids
  - channel and role ids, voting windows, LOG_LEVEL

Print an API key for a client and exit:

	go run . -keygen sheets

# Architecture

  - engine: proposal state machine, deadlines and sweeps
  - tally: quorum evaluation
  - outcome: applies approved proposals to the league documents
  - season: season lifecycle, schedule, standings and boards
  - league: team resolution and the member directory
  - store, db: JSON document store over files, SQLite or PostgreSQL
  - notify, discord: rendering and delivery to Discord
  - handlers, router, middleware, auth: HTTP surface
  - scheduler: periodic deadline sweeps
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
