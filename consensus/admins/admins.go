// Package admins keeps the privileged accounts of a forum: a 2-bit capability mask per account and an enumerable
// list of every account whose mask is nonzero.
package admins

import (
	"fmt"

	"ebbs/ebbs"
)

// Registry is not safe for concurrent use, it lives inside the forum aggregate which serialises access.
type Registry struct {
	masks map[ebbs.Account]ebbs.Mask
	list  []ebbs.Account
	index map[ebbs.Account]int
}

func New() *Registry {
	return &Registry{
		masks: make(map[ebbs.Account]ebbs.Mask),
		index: make(map[ebbs.Account]int),
	}
}

func (r *Registry) MaskOf(account ebbs.Account) ebbs.Mask {
	return r.masks[account]
}

func (r *Registry) IsFullAdmin(account ebbs.Account) bool {
	return r.masks[account] == ebbs.MaskFull
}

func (r *Registry) HasUpdateRight(account ebbs.Account) bool {
	return r.masks[account]&ebbs.MaskUpdate != 0
}

func (r *Registry) HasMetaRight(account ebbs.Account) bool {
	return r.masks[account]&ebbs.MaskMeta != 0
}

func (r *Registry) Count() int64 {
	return int64(len(r.list))
}

func (r *Registry) EntryAt(index int64) (ebbs.Account, error) {
	if index < 0 || index >= int64(len(r.list)) {
		return "", fmt.Errorf("admin %d of %d: %w", index, len(r.list), ebbs.ErrIndexOutOfRange)
	}
	return r.list[index], nil
}

// List returns a copy of the enumeration order.
func (r *Registry) List() []ebbs.Account {
	l := make([]ebbs.Account, len(r.list))
	copy(l, r.list)
	return l
}

func ValidMask(mask ebbs.Mask) bool {
	return mask >= ebbs.MaskNone && mask <= ebbs.MaskFull
}

// Set grants mask to account. An account that already has a mask is first swap-removed from the list, then
// re-appended if the new mask is nonzero, so a regrant generally moves the account to the end.
func (r *Registry) Set(account ebbs.Account, mask ebbs.Mask) error {
	if !ValidMask(mask) {
		return fmt.Errorf("mask %d: %w", mask, ebbs.ErrInvalidMask)
	}
	if r.masks[account] != ebbs.MaskNone {
		r.remove(account)
	}
	if mask == ebbs.MaskNone {
		delete(r.masks, account)
		return nil
	}
	r.masks[account] = mask
	r.index[account] = len(r.list)
	r.list = append(r.list, account)
	return nil
}

func (r *Registry) remove(account ebbs.Account) {
	i, ok := r.index[account]
	if !ok {
		return
	}
	last := len(r.list) - 1
	moved := r.list[last]
	r.list[i] = moved
	r.index[moved] = i
	r.list = r.list[:last]
	delete(r.index, account)
}

// Entry is how a Registry is persisted, in list order.
type Entry struct {
	Account ebbs.Account
	Mask    ebbs.Mask
}

func (r *Registry) Entries() []Entry {
	var e []Entry
	for _, account := range r.list {
		e = append(e, Entry{Account: account, Mask: r.masks[account]})
	}
	return e
}

// Restore rebuilds a Registry from Entries, preserving their order.
func Restore(entries []Entry) (*Registry, error) {
	r := New()
	for _, e := range entries {
		if e.Mask == ebbs.MaskNone || !ValidMask(e.Mask) {
			return nil, fmt.Errorf("restoring %s with mask %d: %w", e.Account, e.Mask, ebbs.ErrInvalidMask)
		}
		if _, dup := r.masks[e.Account]; dup {
			return nil, fmt.Errorf("account %s appears twice in the admin list", e.Account)
		}
		r.masks[e.Account] = e.Mask
		r.index[e.Account] = len(r.list)
		r.list = append(r.list, e.Account)
	}
	return r, nil
}
