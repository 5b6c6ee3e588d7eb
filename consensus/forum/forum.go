// Package forum is the Forum Controller: one explicit aggregate holding the posts, votes, reputation and admins of a
// single forum instance, and every operation that may read or change them.
//
// Every mutating call runs under an exclusive lock and validates everything before its first write, so a failed
// call leaves the state exactly as it was. Reads take a shared lock and always see a fully committed state.
package forum

import (
	"fmt"
	"time"

	"github.com/sasha-s/go-deadlock"

	"ebbs/auxiliarium/hooks"
	"ebbs/auxiliarium/posts"
	"ebbs/consensus/admins"
	"ebbs/consensus/reputation"
	"ebbs/ebbs"
)

// DefaultEditWindow is how long an author may keep editing a post after its last write.
const DefaultEditWindow = 60 * time.Second

// Bootstrap is everything needed to provision a new instance.
type Bootstrap struct {
	Instance   ebbs.Account   // authors post 0
	Deployer   ebbs.Account   // granted full admin
	Admins     []ebbs.Account // further full admins, granted after the deployer
	RootData   []byte
	Active     bool
	EditWindow time.Duration
	Clock      func() time.Time
	PreAction  string
	PostAction string
	Hooks      *hooks.Registry
}

type Forum struct {
	mutex      *deadlock.RWMutex
	instance   ebbs.Account
	posts      *posts.Store
	admins     *admins.Registry
	reputation *reputation.Ledger
	active     bool
	terminated bool
	preHandle  string
	postHandle string
	pre        hooks.PreAction
	post       hooks.PostAction
	hooks      *hooks.Registry
	editWindow time.Duration
	now        func() time.Time
	persist    bool
}

// New provisions a fresh in-memory instance. Use StartDb for one that is restored from and written to disk.
func New(b Bootstrap) (*Forum, error) {
	if len(b.Instance) == 0 {
		return nil, fmt.Errorf("an instance account is required")
	}
	if len(b.RootData) > posts.MaxDataSize {
		return nil, fmt.Errorf("root post is %d bytes: %w", len(b.RootData), ebbs.ErrSizeLimitExceeded)
	}
	f, err := empty(b)
	if err != nil {
		return nil, err
	}
	f.instance = b.Instance
	f.active = b.Active
	if len(b.Deployer) > 0 {
		f.grantFull(b.Deployer)
	}
	for _, account := range b.Admins {
		f.grantFull(account)
	}
	at := f.timestamp()
	f.posts.Append(b.Instance, 0, b.RootData, at)
	f.reputation.Apply(b.Instance, 1)
	f.commit(hooks.Action{Op: hooks.OpCreatePost, Caller: b.Instance, PostID: 0, After: ebbs.CloneBytes(b.RootData), At: at})
	return f, nil
}

// empty wires the parts of a Forum that don't come from state: clock, edit window and hooks.
func empty(b Bootstrap) (*Forum, error) {
	if !ebbs.RegisterMind(Kinds(), mindName, mindName) {
		return nil, fmt.Errorf("could not register the forum Mind")
	}
	f := &Forum{
		mutex:      &deadlock.RWMutex{},
		posts:      posts.New(),
		admins:     admins.New(),
		reputation: reputation.New(),
		hooks:      b.Hooks,
		editWindow: b.EditWindow,
		now:        b.Clock,
	}
	if f.hooks == nil {
		f.hooks = hooks.NewRegistry()
	}
	if f.editWindow <= 0 {
		f.editWindow = DefaultEditWindow
	}
	if f.now == nil {
		f.now = time.Now
	}
	if err := f.installHooks(b.PreAction, b.PostAction); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Forum) installHooks(preHandle, postHandle string) error {
	pre, err := f.hooks.PreAction(preHandle)
	if err != nil {
		return err
	}
	post, err := f.hooks.PostAction(postHandle)
	if err != nil {
		return err
	}
	f.pre, f.preHandle = pre, preHandle
	f.post, f.postHandle = post, postHandle
	return nil
}

func (f *Forum) grantFull(account ebbs.Account) {
	if f.admins.IsFullAdmin(account) {
		return
	}
	if err := f.admins.Set(account, ebbs.MaskFull); err != nil {
		ebbs.LogCLI(err.Error(), 1)
	}
}

func (f *Forum) timestamp() int64 {
	return f.now().Unix()
}

// Instance is the account that authored post 0. It never changes, not even after kill.
func (f *Forum) Instance() ebbs.Account {
	return f.instance
}

// Hooks returns the registry that pre and post action handles are resolved against.
func (f *Forum) Hooks() *hooks.Registry {
	return f.hooks
}

func (f *Forum) EditWindow() time.Duration {
	return f.editWindow
}
