// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import "github.com/bureau-foundation/gather/lib/recordstore"

// Revision links: original record → each revision.
const (
	LinkEventUpdates    recordstore.LinkType = "EventUpdates"
	LinkProposalUpdates recordstore.LinkType = "ProposalUpdates"
)

// Collection links: category anchor → member record.
const (
	LinkAllEvents    recordstore.LinkType = "AllEvents"
	LinkAllProposals recordstore.LinkType = "AllProposals"
)

// Relation links.
const (
	// Author → event or proposal. Never deleted.
	LinkEventsByAuthor recordstore.LinkType = "EventsByAuthor"

	// Agent → every event or proposal the agent created or joined.
	LinkMyEvents recordstore.LinkType = "MyEvents"

	// Event or proposal → agent.
	LinkInterested           recordstore.LinkType = "Interested"
	LinkPossibleParticipants recordstore.LinkType = "PossibleParticipants"

	LinkEventToAttendees recordstore.LinkType = "EventToAttendees"
	LinkAttendeeToEvents recordstore.LinkType = "AttendeeToEvents"

	LinkAttendeeToAttestations recordstore.LinkType = "AttendeeToAttendeesAttestations"
	LinkEventToAttestations    recordstore.LinkType = "EventToAttendeesAttestations"

	// Event or proposal → cancellation. Never deleted.
	LinkEventToCancellations recordstore.LinkType = "EventToCancellations"

	// Proposal → the event that fulfilled it.
	LinkProposalToEvent recordstore.LinkType = "ProposalToEvent"

	// Agent → agent, tagged with an encoded Notification.
	LinkMyAlerts recordstore.LinkType = "MyAlerts"
)

// Category names of the lifecycle family.
const (
	CategoryUpcomingEvents     = "upcoming_events"
	CategoryPastEvents         = "past_events"
	CategoryCancelledEvents    = "cancelled_events"
	CategoryOpenProposals      = "open_proposals"
	CategoryExpiredProposals   = "expired_proposals"
	CategoryCancelledProposals = "cancelled_proposals"
)

// Anchor keys of the lifecycle categories.
const (
	AnchorAllUpcomingEvents     = "all_upcoming_events"
	AnchorAllPastEvents         = "all_past_events"
	AnchorAllCancelledEvents    = "all_cancelled_events"
	AnchorAllOpenProposals      = "all_open_proposals"
	AnchorAllExpiredProposals   = "all_expired_proposals"
	AnchorAllCancelledProposals = "all_cancelled_proposals"
)

// SignalLinkTypes are the link types whose mutations the gather module
// announces.
var SignalLinkTypes = []recordstore.LinkType{
	LinkAllEvents,
	LinkAllProposals,
	LinkInterested,
	LinkPossibleParticipants,
	LinkEventToAttendees,
	LinkEventToCancellations,
	LinkProposalToEvent,
	LinkMyAlerts,
}
