// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package collection maintains mutually exclusive categorical indices
// over records.
//
// A [Category] is an anchor: a well-known identifier that every
// participant computes from the same string. A record is a member of a
// category while a live edge of the category's link type runs from the
// anchor to the record. A [Family] groups categories that exclude one
// another and declares which moves between them are legal, so the
// membership of each record behaves as a finite state machine whose
// state is written entirely as edges.
package collection

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/recordstore"
)

var (
	// ErrInvalidTransition is returned by strict managers when a record
	// is moved along an edge the family does not declare.
	ErrInvalidTransition = errors.New("invalid category transition")

	// ErrUnknownCategory is returned for a category name the family
	// does not contain.
	ErrUnknownCategory = errors.New("unknown category")
)

// Category is one anchor of a family.
type Category struct {
	// Name identifies the category within its family and in logs.
	Name string

	// Key is the string the anchor is derived from.
	Key string

	// LinkType is the type of the anchor→record membership edges.
	LinkType recordstore.LinkType
}

// Anchor returns the category's rendezvous identifier.
func (c Category) Anchor() address.Hash {
	return address.Anchor(c.Key)
}

// Family is a set of mutually exclusive categories plus the transitions
// allowed between them.
type Family struct {
	name        string
	categories  []Category
	byName      map[string]Category
	initial     map[string]bool
	transitions map[string]map[string]bool
}

// FamilySpec describes a family to NewFamily.
type FamilySpec struct {
	Name       string
	Categories []Category

	// Initial lists the categories a record with no membership may be
	// placed in.
	Initial []string

	// Transitions maps a category to the categories a member may move
	// to. Categories absent from the map are terminal.
	Transitions map[string][]string
}

// NewFamily validates spec and builds the family.
func NewFamily(spec FamilySpec) (*Family, error) {
	family := &Family{
		name:        spec.Name,
		byName:      make(map[string]Category, len(spec.Categories)),
		initial:     make(map[string]bool, len(spec.Initial)),
		transitions: make(map[string]map[string]bool, len(spec.Transitions)),
	}
	for _, category := range spec.Categories {
		if category.Name == "" || category.Key == "" || category.LinkType == "" {
			return nil, fmt.Errorf("family %s: category %+v is incomplete", spec.Name, category)
		}
		if _, exists := family.byName[category.Name]; exists {
			return nil, fmt.Errorf("family %s: duplicate category %s", spec.Name, category.Name)
		}
		family.byName[category.Name] = category
		family.categories = append(family.categories, category)
	}
	for _, name := range spec.Initial {
		if _, ok := family.byName[name]; !ok {
			return nil, fmt.Errorf("family %s: initial %w %q", spec.Name, ErrUnknownCategory, name)
		}
		family.initial[name] = true
	}
	for from, targets := range spec.Transitions {
		if _, ok := family.byName[from]; !ok {
			return nil, fmt.Errorf("family %s: transition from %w %q", spec.Name, ErrUnknownCategory, from)
		}
		allowed := make(map[string]bool, len(targets))
		for _, to := range targets {
			if _, ok := family.byName[to]; !ok {
				return nil, fmt.Errorf("family %s: transition to %w %q", spec.Name, ErrUnknownCategory, to)
			}
			allowed[to] = true
		}
		family.transitions[from] = allowed
	}
	return family, nil
}

// Name returns the family name.
func (f *Family) Name() string { return f.name }

// Categories returns the categories in declaration order.
func (f *Family) Categories() []Category {
	return append([]Category(nil), f.categories...)
}

// Category looks up a category by name.
func (f *Family) Category(name string) (Category, error) {
	category, ok := f.byName[name]
	if !ok {
		return Category{}, fmt.Errorf("family %s: %w %q", f.name, ErrUnknownCategory, name)
	}
	return category, nil
}

// IsInitial reports whether a record with no membership may enter
// name.
func (f *Family) IsInitial(name string) bool {
	return f.initial[name]
}

// Allowed reports whether a member of from may move to to.
func (f *Family) Allowed(from, to string) bool {
	return f.transitions[from][to]
}
