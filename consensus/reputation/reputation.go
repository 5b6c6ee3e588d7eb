// Package reputation is the running point total of every author. It is only ever moved by deltas, never recomputed.
package reputation

import (
	"sort"

	"ebbs/ebbs"
)

type Ledger struct {
	points map[ebbs.Account]int64
}

func New() *Ledger {
	return &Ledger{points: make(map[ebbs.Account]int64)}
}

func Restore(points map[ebbs.Account]int64) *Ledger {
	l := New()
	for a, p := range points {
		l.points[a] = p
	}
	return l
}

func (l *Ledger) Points(account ebbs.Account) int64 {
	return l.points[account]
}

// Apply adds delta to the author's total, creating the entry on first use.
func (l *Ledger) Apply(author ebbs.Account, delta int64) {
	l.points[author] += delta
}

// All returns a copy of every author's total.
func (l *Ledger) All() map[ebbs.Account]int64 {
	m := make(map[ebbs.Account]int64, len(l.points))
	for a, p := range l.points {
		m[a] = p
	}
	return m
}

// Authors returns every author in a stable order.
func (l *Ledger) Authors() []ebbs.Account {
	var authors []ebbs.Account
	for a := range l.points {
		authors = append(authors, a)
	}
	sort.Strings(authors)
	return authors
}
