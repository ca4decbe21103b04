// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the error taxonomy shared by every workflow.

# Kinds

  - input: unresolvable team names, malformed asset strings, tied scores
  - authorization: the actor lacks the coach, committee or staff role
  - conflict: duplicate active proposals, events on resolved proposals
  - not_found: unknown proposal ids
  - infrastructure: storage and delivery failures (anything untyped)

Input, authorization and conflict errors never mutate state and are shown
to the initiating user. Conflict errors carry the existing proposal id and
status in Metadata so callers can report the previous outcome.

# Usage

	return apperr.WrapWithMetadata(apperr.KindConflict, "Proposal already approved",
		map[string]string{"status": "approved"}, ErrStale)

HTTPStatus maps a kind to a response code for the JSON API.
*/
package apperr
