// Package hooks holds the two extension points every mutating forum call passes through: a PreAction that can deny
// the call before anything happens and a PostAction that is told about it afterwards.
package hooks

import (
	"ebbs/ebbs"
)

type Op string

const (
	OpCreatePost Op = "createPost"
	OpUpdatePost Op = "updatePost"
	OpVote       Op = "vote"
	OpSetMeta    Op = "setMeta"
	OpSetAdmin   Op = "setAdmin"
	OpSetActive  Op = "setActive"
	OpKill       Op = "kill"
)

// IsContent reports whether op touches posts rather than the instance itself.
func (o Op) IsContent() bool {
	switch o {
	case OpCreatePost, OpUpdatePost, OpVote, OpSetMeta:
		return true
	}
	return false
}

// Action describes one call. Before and After are only filled in for the PostAction: the postData (or postMeta for
// setMeta) as it was and as it is now.
type Action struct {
	Op         Op
	Caller     ebbs.Account
	CallerMask ebbs.Mask
	PostID     int64
	Account    ebbs.Account // setAdmin target
	Mask       ebbs.Mask
	Value      int64 // vote value
	Active     bool
	Before     []byte
	After      []byte
	At         int64
}

type PreAction interface {
	Evaluate(a Action) bool
}

type PostAction interface {
	Notify(a Action) error
}

type AllowPreAction struct{}

func (AllowPreAction) Evaluate(Action) bool { return true }

// BlockPreAction denies everything it is asked about.
type BlockPreAction struct{}

func (BlockPreAction) Evaluate(Action) bool { return false }

// AdminsOnlyPreAction lets only accounts holding some admin bit touch posts. Instance management is left to the
// forum's own full-admin rule.
type AdminsOnlyPreAction struct{}

func (AdminsOnlyPreAction) Evaluate(a Action) bool {
	if a.Op.IsContent() {
		return a.CallerMask != ebbs.MaskNone
	}
	return true
}

type NullPostAction struct{}

func (NullPostAction) Notify(Action) error { return nil }

// Chain notifies every PostAction in order. All of them are called even if one fails; the first error is returned.
type Chain []PostAction

func (c Chain) Notify(a Action) (err error) {
	for _, p := range c {
		if e := p.Notify(a); e != nil && err == nil {
			err = e
		}
	}
	return
}
