package hooks

import (
	"encoding/hex"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"github.com/sergi/go-diff/diffmatchpatch"

	"ebbs/ebbs"
)

const maxAuditEntries = 10000

type AuditEntry struct {
	Op     Op
	Caller ebbs.Account
	PostID int64
	Patch  string
	At     int64
}

// Audit is a PostAction that records a diff-match-patch patch for every change to postData or postMeta.
// Patches are made over the hex encoding of the bytes so that arbitrary postData survives a replay.
type Audit struct {
	mutex   *deadlock.Mutex
	entries []AuditEntry
	limit   int
}

func NewAudit() *Audit {
	return &Audit{mutex: &deadlock.Mutex{}, limit: maxAuditEntries}
}

func (au *Audit) Notify(a Action) error {
	switch a.Op {
	case OpCreatePost, OpUpdatePost, OpSetMeta:
	default:
		return nil
	}
	dmp := diffmatchpatch.New()
	patch := dmp.PatchToText(dmp.PatchMake(hex.EncodeToString(a.Before), hex.EncodeToString(a.After)))
	au.mutex.Lock()
	defer au.mutex.Unlock()
	au.entries = append(au.entries, AuditEntry{
		Op:     a.Op,
		Caller: a.Caller,
		PostID: a.PostID,
		Patch:  patch,
		At:     a.At,
	})
	if len(au.entries) > au.limit {
		au.entries = au.entries[len(au.entries)-au.limit:]
	}
	return nil
}

// Entries returns the trail for one post, or for every post if id is negative.
func (au *Audit) Entries(id int64) (e []AuditEntry) {
	au.mutex.Lock()
	defer au.mutex.Unlock()
	for _, entry := range au.entries {
		if id < 0 || entry.PostID == id {
			e = append(e, entry)
		}
	}
	return
}

// Restore replaces the trail, keeping only the newest entries that fit.
func (au *Audit) Restore(entries []AuditEntry) {
	au.mutex.Lock()
	defer au.mutex.Unlock()
	if len(entries) > au.limit {
		entries = entries[len(entries)-au.limit:]
	}
	au.entries = append([]AuditEntry(nil), entries...)
}

// Replay rebuilds a post's postData by applying its recorded content patches, starting from its creation.
// It fails when the trail does not begin with the post's creation, either because the post was created
// before the audit was installed or because the oldest entries were dropped.
func (au *Audit) Replay(id int64) ([]byte, error) {
	dmp := diffmatchpatch.New()
	var text string
	started := false
	for _, entry := range au.Entries(id) {
		if entry.Op == OpSetMeta {
			continue
		}
		if !started {
			if entry.Op != OpCreatePost {
				return nil, fmt.Errorf("audit trail for post %d does not start at its creation", id)
			}
			started = true
		}
		p, err := dmp.PatchFromText(entry.Patch)
		if err != nil {
			return nil, err
		}
		var applied []bool
		text, applied = dmp.PatchApply(p, text)
		for _, ok := range applied {
			if !ok {
				return nil, fmt.Errorf("patch from %s on post %d did not apply", entry.Caller, id)
			}
		}
	}
	if !started {
		return nil, fmt.Errorf("audit trail for post %d does not start at its creation", id)
	}
	return hex.DecodeString(text)
}
