// Package sequence tracks the last accepted sequence number of every account. An event is only accepted if it
// carries exactly the next one, which stops replays and keeps each account's calls in order.
package sequence

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"

	"ebbs/ebbs"
)

type Db struct {
	data    map[ebbs.Account]Sequence
	mutex   *deadlock.Mutex
	persist bool
}

type Sequence struct {
	Account  ebbs.Account
	Sequence int64
}

func New() *Db {
	return &Db{
		data:  make(map[ebbs.Account]Sequence),
		mutex: &deadlock.Mutex{},
	}
}

//Current returns the last sequence accepted from this account, 0 if we have never heard from it.
//Anyone producing an event should use Current+1.
func (s *Db) Current(account ebbs.Account) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.data[account].Sequence
}

// Check reports whether seq is the next sequence for account without consuming it.
func (s *Db) Check(account ebbs.Account, seq int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if cs := s.data[account].Sequence; seq != cs+1 {
		return fmt.Errorf("invalid sequence %d for %s, current sequence is %d", seq, account, cs)
	}
	return nil
}

// Advance consumes seq, which must be the next sequence for account.
func (s *Db) Advance(account ebbs.Account, seq int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	cs := s.data[account]
	if seq != cs.Sequence+1 {
		return fmt.Errorf("failed to increment sequence for %s from %d to %d", account, cs.Sequence, seq)
	}
	cs.Account = account
	cs.Sequence = seq
	s.data[account] = cs
	if s.persist {
		s.takeSnapshot()
	}
	return nil
}

func (s *Db) AllSequences() (all []Sequence) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, sequence := range s.data {
		all = append(all, sequence)
	}
	return
}
