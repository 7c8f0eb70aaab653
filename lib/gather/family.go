// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gather

import (
	"github.com/bureau-foundation/gather/lib/collection"
	schema "github.com/bureau-foundation/gather/lib/schema/gather"
)

// LifecycleSpec is the category family every event and proposal
// belongs to. A cancellation may land in either cancelled category
// from either live one: the assemble module decides which.
var LifecycleSpec = collection.FamilySpec{
	Name: "lifecycle",
	Categories: []collection.Category{
		{Name: schema.CategoryUpcomingEvents, Key: schema.AnchorAllUpcomingEvents, LinkType: schema.LinkAllEvents},
		{Name: schema.CategoryPastEvents, Key: schema.AnchorAllPastEvents, LinkType: schema.LinkAllEvents},
		{Name: schema.CategoryCancelledEvents, Key: schema.AnchorAllCancelledEvents, LinkType: schema.LinkAllEvents},
		{Name: schema.CategoryOpenProposals, Key: schema.AnchorAllOpenProposals, LinkType: schema.LinkAllProposals},
		{Name: schema.CategoryExpiredProposals, Key: schema.AnchorAllExpiredProposals, LinkType: schema.LinkAllProposals},
		{Name: schema.CategoryCancelledProposals, Key: schema.AnchorAllCancelledProposals, LinkType: schema.LinkAllProposals},
	},
	Initial: []string{schema.CategoryOpenProposals, schema.CategoryUpcomingEvents},
	Transitions: map[string][]string{
		schema.CategoryOpenProposals: {
			schema.CategoryUpcomingEvents,
			schema.CategoryExpiredProposals,
			schema.CategoryCancelledProposals,
			schema.CategoryCancelledEvents,
		},
		schema.CategoryUpcomingEvents: {
			schema.CategoryPastEvents,
			schema.CategoryCancelledEvents,
			schema.CategoryCancelledProposals,
		},
		schema.CategoryCancelledEvents:    {schema.CategoryUpcomingEvents},
		schema.CategoryCancelledProposals: {schema.CategoryOpenProposals},
	},
}

// Lifecycle builds the family from LifecycleSpec.
func Lifecycle() *collection.Family {
	family, err := collection.NewFamily(LifecycleSpec)
	if err != nil {
		panic("gather: lifecycle family: " + err.Error())
	}
	return family
}
