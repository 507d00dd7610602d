// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package slot implements the fixed four-entry color buffer arena of a window
// surface.
//
// The pool knows nothing about what a buffer holds. The owning surface passes
// in hooks that report whether an entry is backed by real resources and that
// free them. The pool decides when.
//
// Each entry carries an in-use flag and a content generation. The pool has an
// epoch; InvalidateAll bumps it, which makes every entry's contents stale at
// once. A stale entry that is not in use is freed on the spot. A stale entry
// that is in use is freed when its last user unlocks it, so a buffer being
// scanned out is never destroyed underneath the reader.
package slot

import (
	"errors"
)

// Count is the number of entries in a pool.
const Count = 4

// Index addresses one entry of a pool.
type Index int

// None marks the absence of an entry.
const None Index = -1

// Valid reports whether i addresses an entry.
func (i Index) Valid() bool {
	return i >= 0 && i < Count
}

// ErrNoFreeSlot is returned by Acquire when every entry is in use.
var ErrNoFreeSlot = errors.New("slot: no free slot")

// Hooks connect a pool to the resources stored in its entries.
type Hooks[T any] struct {
	// Backed reports whether v owns a drawable, an image or memory.
	Backed func(v *T) bool

	// Free releases everything v owns and leaves it empty.
	Free func(v *T)

	// FreeDrawable releases only the windowing system drawable of v and keeps
	// the image for reuse. Nil means Free.
	FreeDrawable func(v *T)
}

type entry[T any] struct {
	val    T
	locked bool
	age    int
	gen    uint64

	// releaseDrawable is set by Release on a locked entry.
	releaseDrawable bool
}

// Pool is a fixed arena of Count entries.
type Pool[T any] struct {
	entries [Count]entry[T]
	epoch   uint64
	hooks   Hooks[T]
}

// New returns an empty pool.
func New[T any](hooks Hooks[T]) *Pool[T] {
	if hooks.FreeDrawable == nil {
		hooks.FreeDrawable = hooks.Free
	}
	return &Pool[T]{hooks: hooks}
}

// Get returns the entry at i. It panics if i is not valid.
func (p *Pool[T]) Get(i Index) *T {
	return &p.entries[i].val
}

// Locked reports whether entry i is in use.
func (p *Pool[T]) Locked(i Index) bool {
	return i.Valid() && p.entries[i].locked
}

// Stale reports whether the contents of entry i predate the last InvalidateAll.
func (p *Pool[T]) Stale(i Index) bool {
	return i.Valid() && p.entries[i].gen != p.epoch
}

// Acquire locks an entry for writing and returns its index.
//
// Among the entries not in use it prefers one that is backed and for which
// reusable returns true. Otherwise it takes an empty entry, or frees a backed
// entry that cannot be reused, and calls alloc on it. If alloc fails the entry
// is freed again and stays unlocked.
//
// A reused entry keeps its age. A freshly allocated entry starts at age 0.
func (p *Pool[T]) Acquire(reusable func(v *T) bool, alloc func(v *T) error) (Index, error) {
	p.sweep()

	chosen, empty, spare := None, None, None
	for i := range p.entries {
		e := &p.entries[i]
		if e.locked {
			continue
		}
		if !p.hooks.Backed(&e.val) {
			if empty == None {
				empty = Index(i)
			}
			continue
		}
		if reusable != nil && reusable(&e.val) {
			chosen = Index(i)
			break
		}
		if spare == None {
			spare = Index(i)
		}
	}

	if chosen == None {
		switch {
		case empty != None:
			chosen = empty
		case spare != None:
			chosen = spare
			p.hooks.Free(&p.entries[spare].val)
		default:
			return None, ErrNoFreeSlot
		}
		e := &p.entries[chosen]
		if err := alloc(&e.val); err != nil {
			p.hooks.Free(&e.val)
			return None, err
		}
		e.age = 0
	}

	e := &p.entries[chosen]
	e.locked = true
	e.gen = p.epoch
	e.releaseDrawable = false
	return chosen, nil
}

// Compact frees every backed entry that is not in use and returns how many it
// freed. With the back and front buffers locked this collapses the pool to
// double buffering.
func (p *Pool[T]) Compact() int {
	n := 0
	for i := range p.entries {
		e := &p.entries[i]
		if !e.locked && p.hooks.Backed(&e.val) {
			p.hooks.Free(&e.val)
			e.age = 0
			n++
		}
	}
	return n
}

// Release gives up entry i. An entry in use has its drawable freed when it is
// unlocked; an idle entry is freed now.
func (p *Pool[T]) Release(i Index) {
	if !i.Valid() {
		return
	}
	e := &p.entries[i]
	if e.locked {
		e.releaseDrawable = true
		return
	}
	p.hooks.Free(&e.val)
	e.age = 0
}

// Unlock marks entry i idle and carries out any release deferred while it was
// in use.
func (p *Pool[T]) Unlock(i Index) {
	if !i.Valid() {
		return
	}
	e := &p.entries[i]
	if !e.locked {
		return
	}
	e.locked = false
	switch {
	case e.gen != p.epoch:
		p.hooks.Free(&e.val)
		e.gen = p.epoch
		e.age = 0
	case e.releaseDrawable:
		p.hooks.FreeDrawable(&e.val)
	}
	e.releaseDrawable = false
}

// InvalidateAll makes the contents of every entry stale. Idle entries are
// freed now, entries in use when they are unlocked.
func (p *Pool[T]) InvalidateAll() {
	p.epoch++
	p.sweep()
}

// Destroy frees every entry regardless of its state.
func (p *Pool[T]) Destroy() {
	for i := range p.entries {
		e := &p.entries[i]
		if p.hooks.Backed(&e.val) {
			p.hooks.Free(&e.val)
		}
		*e = entry[T]{gen: p.epoch}
	}
}

// AgeAll increments the age of every entry that has been presented at least
// once.
func (p *Pool[T]) AgeAll() {
	for i := range p.entries {
		if p.entries[i].age > 0 {
			p.entries[i].age++
		}
	}
}

// Age returns the age of entry i, or 0 for an invalid index.
func (p *Pool[T]) Age(i Index) int {
	if !i.Valid() {
		return 0
	}
	return p.entries[i].age
}

// SetAge sets the age of entry i.
func (p *Pool[T]) SetAge(i Index, age int) {
	if i.Valid() {
		p.entries[i].age = age
	}
}

// Backed returns the number of entries that own resources.
func (p *Pool[T]) Backed() int {
	n := 0
	for i := range p.entries {
		if p.hooks.Backed(&p.entries[i].val) {
			n++
		}
	}
	return n
}

// InUse returns the number of locked entries.
func (p *Pool[T]) InUse() int {
	n := 0
	for i := range p.entries {
		if p.entries[i].locked {
			n++
		}
	}
	return n
}

// sweep frees idle entries whose contents are stale.
func (p *Pool[T]) sweep() {
	for i := range p.entries {
		e := &p.entries[i]
		if e.locked || e.gen == p.epoch {
			continue
		}
		if p.hooks.Backed(&e.val) {
			p.hooks.Free(&e.val)
		}
		e.gen = p.epoch
		e.age = 0
	}
}
