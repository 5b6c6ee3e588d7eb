// Package conductor is the single, totally ordered entry point for events. It drops duplicates, enforces each
// account's sequence and routes what is left to the Mind that registered the event's kind.
package conductor

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sasha-s/go-deadlock"

	"ebbs/consensus/forum"
	"ebbs/consensus/sequence"
	"ebbs/ebbs"
)

var (
	ErrDuplicate   = errors.New("duplicate event")
	ErrSequence    = errors.New("invalid sequence")
	ErrUnknownKind = errors.New("no mind handles this kind")
)

var eventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ebbs_events_total",
	Help: "The total number of events handled by the conductor",
}, []string{"kind", "result"})

type Conductor struct {
	mutex     *deadlock.Mutex
	forum     *forum.Forum
	sequences *sequence.Db
	bloom     func(message interface{}) bool
}

func New(f *forum.Forum, s *sequence.Db) *Conductor {
	return &Conductor{
		mutex:     &deadlock.Mutex{},
		forum:     f,
		sequences: s,
		bloom:     ebbs.MakeNewInverseBloomFilter(10000),
	}
}

func (c *Conductor) Forum() *forum.Forum {
	return c.forum
}

func (c *Conductor) Sequences() *sequence.Db {
	return c.sequences
}

// HandleEvent is the entry point for all events. The event must already have a verified signature; its pubkey is
// the caller. The account's sequence is only consumed when the event is accepted.
func (c *Conductor) HandleEvent(e ebbs.Event) (r forum.Result, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	defer func() {
		eventsHandled.WithLabelValues(fmt.Sprint(e.Kind), resultLabel(err)).Inc()
	}()
	es := e.Sequence()
	if err = c.sequences.Check(e.PubKey, es); err != nil {
		ebbs.LogCLI(fmt.Sprintf("event %s: %s", e.ID, err.Error()), 3)
		return r, fmt.Errorf("%s: %w", err.Error(), ErrSequence)
	}
	if !c.bloom(e.ID) {
		return r, fmt.Errorf("event %s: %w", e.ID, ErrDuplicate)
	}
	mind, ok := ebbs.WhichMindForKind(e.Kind)
	if !ok {
		return r, fmt.Errorf("kind %d: %w", e.Kind, ErrUnknownKind)
	}
	switch mind {
	case "forum":
		r, err = c.forum.HandleEvent(e)
	default:
		return r, fmt.Errorf("kind %d belongs to %s: %w", e.Kind, mind, ErrUnknownKind)
	}
	ebbs.LogMind(ebbs.MindLog{MindName: mind, Comment: fmt.Sprintf("event %s from %s", e.ID, e.PubKey), Message: err})
	if err != nil {
		return r, err
	}
	if err := c.sequences.Advance(e.PubKey, es); err != nil {
		ebbs.LogCLI(err.Error(), 1)
	}
	return r, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "accepted"
	}
	for _, l := range []struct {
		err   error
		label string
	}{
		{ErrSequence, "bad_sequence"},
		{ErrDuplicate, "duplicate"},
		{ErrUnknownKind, "unknown_kind"},
		{ebbs.ErrNotAuthorized, "not_authorized"},
		{ebbs.ErrInstanceInactive, "inactive"},
		{ebbs.ErrActionDenied, "denied"},
		{ebbs.ErrSizeLimitExceeded, "size_limit"},
		{ebbs.ErrInvalidReference, "invalid_reference"},
		{ebbs.ErrInvalidVoteValue, "invalid_vote"},
		{ebbs.ErrStaleComparand, "stale_comparand"},
		{ebbs.ErrAlreadyTerminated, "terminated"},
		{ebbs.ErrInvalidMask, "invalid_mask"},
		{ebbs.ErrUnknownHook, "unknown_hook"},
	} {
		if errors.Is(err, l.err) {
			return l.label
		}
	}
	return "rejected"
}
