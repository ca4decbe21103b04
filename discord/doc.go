// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package discord adapts the league bot to Discord through discordgo.

# Presenter

Presenter implements notify.Presenter. Messages become one embed (title,
description, color, fields) plus a row of buttons whose custom ids come
from notify.ActionID:

	vote:trade_6f1c...:approve
	cp:trade_6f1c...:deny

A Target with a MemberID is delivered to that member's DM channel, opened
once with UserChannelCreate and remembered.

# Directory

Directory implements league.Directory. Members pages through GuildMembers
1000 at a time and caches the list for a minute; Member always asks the
API, so a freshly granted role counts on the next click. Unknown members
map to league.ErrMemberNotFound.

# Interactions

The bot receives interactions over HTTP, not the gateway. VerifyRequest
checks the ed25519 signature Discord sends with each request; handlers
must reject unsigned requests with 401. Commands lists the slash commands
and RegisterCommands installs them on the guild at startup.

Discord fails an interaction that is not answered within three seconds.
Deferred acknowledges one early, and Followups posts the real answer once
the work is done.

Session is the subset of *discordgo.Session used here, so tests can
substitute a fake.
*/
package discord
