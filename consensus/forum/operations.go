package forum

import (
	"bytes"
	"fmt"

	"ebbs/auxiliarium/hooks"
	"ebbs/auxiliarium/posts"
	"ebbs/consensus/admins"
	"ebbs/ebbs"
)

// gate runs the checks every mutating call starts with: terminated, then inactive (content calls only, admin calls
// are how an inactive instance gets switched back on), then the pre-action hook.
func (f *Forum) gate(a *hooks.Action) error {
	if f.terminated {
		return ebbs.ErrAlreadyTerminated
	}
	if a.Op.IsContent() && !f.active {
		return fmt.Errorf("%s: %w", a.Op, ebbs.ErrInstanceInactive)
	}
	a.CallerMask = f.admins.MaskOf(a.Caller)
	a.At = f.timestamp()
	if !f.pre.Evaluate(*a) {
		return fmt.Errorf("%s by %s: %w", a.Op, a.Caller, ebbs.ErrActionDenied)
	}
	return nil
}

// commit runs once a mutation has been applied. A failing snapshot or post-action hook is logged, the call still
// succeeds.
func (f *Forum) commit(a hooks.Action) {
	if f.persist {
		f.takeSnapshot()
	}
	if err := f.post.Notify(a); err != nil {
		ebbs.LogCLI(fmt.Sprintf("post-action hook %q failed on %s: %s", f.postHandle, a.Op, err.Error()), 2)
	}
}

func (f *Forum) requireFullAdmin(caller ebbs.Account, op hooks.Op) error {
	if !f.admins.IsFullAdmin(caller) {
		return fmt.Errorf("%s by %s: %w", op, caller, ebbs.ErrNotAuthorized)
	}
	return nil
}

func (f *Forum) existing(id int64) (posts.Post, error) {
	p, ok := f.posts.Get(id)
	if !ok {
		return p, fmt.Errorf("post %d of %d: %w", id, f.posts.Count(), ebbs.ErrInvalidReference)
	}
	return p, nil
}

func checkSize(what string, b []byte, max int) error {
	if len(b) > max {
		return fmt.Errorf("%s is %d bytes, the limit is %d: %w", what, len(b), max, ebbs.ErrSizeLimitExceeded)
	}
	return nil
}

// CreatePost appends a reply to inReplyTo and returns the new post's id.
func (f *Forum) CreatePost(caller ebbs.Account, inReplyTo int64, data []byte) (int64, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	a := hooks.Action{Op: hooks.OpCreatePost, Caller: caller, PostID: inReplyTo}
	if err := f.gate(&a); err != nil {
		return 0, err
	}
	if _, err := f.existing(inReplyTo); err != nil {
		return 0, err
	}
	if err := checkSize("postData", data, posts.MaxDataSize); err != nil {
		return 0, err
	}
	id := f.posts.Append(caller, inReplyTo, data, a.At)
	f.reputation.Apply(caller, 1)
	a.PostID = id
	a.After = ebbs.CloneBytes(data)
	f.commit(a)
	return id, nil
}

// UpdatePost replaces a post's data. Authors may do this while inside the edit window, holders of the update bit
// (full admins included) may do it to any post at any time.
func (f *Forum) UpdatePost(caller ebbs.Account, id int64, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	a := hooks.Action{Op: hooks.OpUpdatePost, Caller: caller, PostID: id}
	if err := f.gate(&a); err != nil {
		return err
	}
	p, err := f.existing(id)
	if err != nil {
		return err
	}
	if !f.admins.HasUpdateRight(caller) && !(p.Author == caller && f.inEditWindow(p)) {
		return fmt.Errorf("updatePost %d by %s: %w", id, caller, ebbs.ErrNotAuthorized)
	}
	if err := checkSize("postData", data, posts.MaxDataSize); err != nil {
		return err
	}
	f.posts.SetData(id, data, a.At)
	a.Before = p.PostData
	a.After = ebbs.CloneBytes(data)
	f.commit(a)
	return nil
}

func (f *Forum) inEditWindow(p posts.Post) bool {
	return f.timestamp()-p.Timestamp <= int64(f.editWindow.Seconds())
}

// Vote sets caller's vote on a post to value. Only the difference to the previous vote is applied, to the post's
// point counter and its author's reputation together.
func (f *Forum) Vote(caller ebbs.Account, id int64, value int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	a := hooks.Action{Op: hooks.OpVote, Caller: caller, PostID: id, Value: value}
	if err := f.gate(&a); err != nil {
		return err
	}
	p, err := f.existing(id)
	if err != nil {
		return err
	}
	if value < -1 || value > 1 {
		return fmt.Errorf("vote of %d: %w", value, ebbs.ErrInvalidVoteValue)
	}
	if delta := f.posts.ApplyVote(id, caller, value); delta != 0 {
		f.reputation.Apply(p.Author, delta)
	}
	f.commit(a)
	return nil
}

// SetMeta swaps a post's metadata from expectedOld to newMeta. A nil and an empty comparand are the same thing.
func (f *Forum) SetMeta(caller ebbs.Account, id int64, expectedOld, newMeta []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	a := hooks.Action{Op: hooks.OpSetMeta, Caller: caller, PostID: id}
	if err := f.gate(&a); err != nil {
		return err
	}
	if !f.admins.HasMetaRight(caller) {
		return fmt.Errorf("setMeta %d by %s: %w", id, caller, ebbs.ErrNotAuthorized)
	}
	p, err := f.existing(id)
	if err != nil {
		return err
	}
	if err := checkSize("postMeta", newMeta, posts.MaxMetaSize); err != nil {
		return err
	}
	if !bytes.Equal(p.PostMeta, expectedOld) {
		return fmt.Errorf("setMeta %d: %w", id, ebbs.ErrStaleComparand)
	}
	f.posts.SetMeta(id, newMeta)
	a.Before = p.PostMeta
	a.After = ebbs.CloneBytes(newMeta)
	f.commit(a)
	return nil
}

// SetAdmin changes account's mask. See admins.Registry.Set for how this reorders the admin list.
func (f *Forum) SetAdmin(caller, account ebbs.Account, mask ebbs.Mask) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	a := hooks.Action{Op: hooks.OpSetAdmin, Caller: caller, Account: account, Mask: mask}
	if err := f.gate(&a); err != nil {
		return err
	}
	if err := f.requireFullAdmin(caller, a.Op); err != nil {
		return err
	}
	if !admins.ValidMask(mask) {
		return fmt.Errorf("mask %d: %w", mask, ebbs.ErrInvalidMask)
	}
	if err := f.admins.Set(account, mask); err != nil {
		return err
	}
	f.commit(a)
	return nil
}

func (f *Forum) SetActive(caller ebbs.Account, active bool) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	a := hooks.Action{Op: hooks.OpSetActive, Caller: caller, Active: active}
	if err := f.gate(&a); err != nil {
		return err
	}
	if err := f.requireFullAdmin(caller, a.Op); err != nil {
		return err
	}
	f.active = active
	f.commit(a)
	return nil
}

// Kill terminates the instance. There is no way back: every later call, reads included, fails.
func (f *Forum) Kill(caller ebbs.Account) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	a := hooks.Action{Op: hooks.OpKill, Caller: caller}
	if err := f.gate(&a); err != nil {
		return err
	}
	if err := f.requireFullAdmin(caller, a.Op); err != nil {
		return err
	}
	f.terminated = true
	f.active = false
	f.commit(a)
	return nil
}

// SetPreActionAddress swaps the pre-action hook. Neither the current pre-action hook nor the activation flag apply.
func (f *Forum) SetPreActionAddress(caller ebbs.Account, handle string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.terminated {
		return ebbs.ErrAlreadyTerminated
	}
	if err := f.requireFullAdmin(caller, "setPreActionAddress"); err != nil {
		return err
	}
	pre, err := f.hooks.PreAction(handle)
	if err != nil {
		return err
	}
	f.pre, f.preHandle = pre, handle
	if f.persist {
		f.takeSnapshot()
	}
	return nil
}

func (f *Forum) SetPostActionAddress(caller ebbs.Account, handle string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.terminated {
		return ebbs.ErrAlreadyTerminated
	}
	if err := f.requireFullAdmin(caller, "setPostActionAddress"); err != nil {
		return err
	}
	post, err := f.hooks.PostAction(handle)
	if err != nil {
		return err
	}
	f.post, f.postHandle = post, handle
	if f.persist {
		f.takeSnapshot()
	}
	return nil
}
