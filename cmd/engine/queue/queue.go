// Package queue resolves the next and previous track index for a playlist
// under sequential or shuffled order and the three repeat modes.
package queue

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

// RepeatMode controls what happens at the end of a playlist.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatAll RepeatMode = "all"
	RepeatOne RepeatMode = "one"
)

// ParseRepeatMode accepts "off", "all" or "one".
func ParseRepeatMode(s string) (RepeatMode, error) {
	m := RepeatMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("invalid repeat mode %q (want off, all or one)", s)
	}
	return m, nil
}

func (m RepeatMode) Valid() bool {
	return m == RepeatOff || m == RepeatAll || m == RepeatOne
}

// Next cycles off -> all -> one -> off.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

func (m RepeatMode) String() string {
	return string(m)
}

// End is returned when advancing would run past the last track with repeat off.
const End = -1

// Snapshot captures the shuffle permutation and cursor.
type Snapshot struct {
	perm     []int
	upcoming []int
	cursor   int
}

// Resolver owns the shuffle permutation and cursor. It never owns the
// current track index; callers pass it in and commit the result themselves.
type Resolver struct {
	rng      *rand.Rand
	n        int
	shuffled bool
	repeat   RepeatMode
	perm     []int
	upcoming []int // permutation for the next loop, generated early by PeekNext
	cursor   int
}

// New creates a resolver. A nil rng gets a time-seeded source.
func New(rng *rand.Rand) *Resolver {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Resolver{rng: rng, repeat: RepeatAll}
}

// NewSeeded creates a resolver with a deterministic shuffle.
func NewSeeded(seed uint64) *Resolver {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func (r *Resolver) Len() int               { return r.n }
func (r *Resolver) Shuffled() bool         { return r.shuffled }
func (r *Resolver) Repeat() RepeatMode     { return r.repeat }
func (r *Resolver) Cursor() int            { return r.cursor }
func (r *Resolver) Permutation() []int     { return slices.Clone(r.perm) }
func (r *Resolver) SetRepeat(m RepeatMode) { r.repeat = m }

// Reset is called whenever the playlist changes.
func (r *Resolver) Reset(n, current int) {
	r.n = n
	r.upcoming = nil
	if r.shuffled {
		r.regenerate(current)
	} else {
		r.perm = nil
		r.cursor = 0
	}
}

// SetShuffled switches order. Enabling always builds a fresh permutation.
func (r *Resolver) SetShuffled(on bool, current int) {
	r.shuffled = on
	r.upcoming = nil
	if on {
		r.regenerate(current)
	} else {
		r.perm = nil
		r.cursor = 0
	}
}

// Next advances and returns the next index, or End.
func (r *Resolver) Next(current int) int {
	if r.n == 0 {
		return End
	}
	if r.repeat == RepeatOne {
		return current
	}
	if !r.shuffled {
		next := current + 1
		if next >= r.n {
			if r.repeat == RepeatOff {
				return End
			}
			next = 0
		}
		return next
	}

	r.ensure(current)
	next := r.cursor + 1
	if next < r.n {
		r.cursor = next
		return r.perm[next]
	}
	if r.repeat == RepeatOff {
		return End
	}
	if len(r.upcoming) == r.n {
		r.perm = r.upcoming
	} else {
		r.perm = r.permutation()
	}
	r.upcoming = nil
	r.cursor = 0
	return r.perm[0]
}

// PeekNext returns what Next would return without moving the cursor.
// Repeated calls return the same value.
func (r *Resolver) PeekNext(current int) int {
	if r.n == 0 {
		return End
	}
	if r.repeat == RepeatOne {
		return current
	}
	if !r.shuffled {
		next := current + 1
		if next >= r.n {
			if r.repeat == RepeatOff {
				return End
			}
			next = 0
		}
		return next
	}

	r.ensure(current)
	if r.cursor+1 < r.n {
		return r.perm[r.cursor+1]
	}
	if r.repeat == RepeatOff {
		return End
	}
	if len(r.upcoming) != r.n {
		r.upcoming = r.permutation()
	}
	return r.upcoming[0]
}

// Previous steps back. Shuffled order wraps to the last slot and never regenerates.
func (r *Resolver) Previous(current int) int {
	if r.n == 0 {
		return End
	}
	if !r.shuffled {
		return (current - 1 + r.n) % r.n
	}
	r.ensure(current)
	r.cursor = (r.cursor - 1 + r.n) % r.n
	return r.perm[r.cursor]
}

// Select relocates the cursor after a manual jump to index. When shuffled
// the permutation is regenerated, unless index is already under the cursor.
func (r *Resolver) Select(index int) {
	if !r.shuffled || index < 0 || index >= r.n {
		return
	}
	if len(r.perm) == r.n && r.perm[r.cursor] == index {
		return
	}
	r.upcoming = nil
	r.regenerate(index)
}

func (r *Resolver) Snapshot() Snapshot {
	return Snapshot{perm: slices.Clone(r.perm), upcoming: slices.Clone(r.upcoming), cursor: r.cursor}
}

func (r *Resolver) Restore(s Snapshot) {
	r.perm = s.perm
	r.upcoming = s.upcoming
	r.cursor = s.cursor
}

func (r *Resolver) ensure(current int) {
	if len(r.perm) != r.n {
		r.regenerate(current)
	}
}

func (r *Resolver) regenerate(current int) {
	r.perm = r.permutation()
	r.cursor = max(slices.Index(r.perm, current), 0)
}

// permutation is a uniform Fisher-Yates shuffle of [0, n).
func (r *Resolver) permutation() []int {
	perm := make([]int, r.n)
	for i := range perm {
		perm[i] = i
	}
	for i := r.n - 1; i > 0; i-- {
		j := r.rng.IntN(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
