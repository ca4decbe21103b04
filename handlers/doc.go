// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers for the courtside bot.

# Handler Types

Each handler is a struct over the service it fronts:

  - ProposalHandler: trade, score and progression proposals (JSON API)
  - SeasonHandler: season commands, standings, schedule, rosters and boards (JSON API)
  - InteractionHandler: Discord slash commands and button presses

Handlers are created via constructor functions:

	proposals := handlers.NewProposalHandler(engine)
	seasons := handlers.NewSeasonHandler(svc)
	interactions := handlers.NewInteractionHandler(engine, svc, followups)

# Deferred Replies

Discord fails an interaction that is not answered within three seconds.
When work runs past DefaultReplyBudget, the handler acknowledges with an
ephemeral deferred reply and sends the answer through its Followup once
the work finishes. State changes commit either way.

# Errors

JSON handlers write domain errors with middleware.WriteError, which maps
the apperr kind to a status code. The interaction handler always answers
200 with an ephemeral message, since Discord shows nothing for a failed
interaction response.

# Proposal Lifecycle

	POST /proposals                 → Submit
	POST /proposals/{id}/response   → Respond (trade counter-party)
	POST /proposals/{id}/votes      → Vote (committee or staff)

The acting member is named by actorId in the body and authorized against
the member directory, the same way a button press is.
*/
package handlers
