// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify renders proposals as interactive messages and routes them to
the people and channels that act on them.

# Stage Messages

	awaiting_counterparty → DM to the counter-party, buttons cp:<id>:approve|deny
	in_committee (trade, score) → committee channel, buttons vote:<id>:approve|deny
	in_committee (progression) → staff channel (committee channel if unset)

# Resolution Fan-out

A resolved proposal is announced to the proposer, the counter-party (if
any) and the approved or denied channel. Deliveries run concurrently and
independently; a failed DM does not stop the channel post. Failures are
logged and returned, and the engine never rolls a decision back because of
them.

# Presenter

Presenter is the boundary to the chat platform. Package discord implements
it with discordgo; LogPresenter logs messages when no bot token is set.
*/
package notify
