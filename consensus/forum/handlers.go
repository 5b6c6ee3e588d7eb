package forum

import (
	"fmt"

	"ebbs/ebbs"
)

// Result is what an accepted event did.
type Result struct {
	State  ebbs.HashSeq
	PostID int64 // only set by createPost
	Note   string
}

// HandleEvent decodes an already verified event and runs the operation it carries, with the event's author as the
// caller.
func (f *Forum) HandleEvent(e ebbs.Event) (r Result, err error) {
	if mind, _ := ebbs.WhichMindForKind(e.Kind); mind != mindName {
		return r, fmt.Errorf("kind %d is not a forum kind", e.Kind)
	}
	caller := e.PubKey
	switch e.Kind {
	case KindCreatePost:
		var c Kind642000
		if err = decode(e, &c); err == nil {
			if r.PostID, err = f.CreatePost(caller, c.InReplyTo, c.Data); err == nil {
				r.Note = fmt.Sprintf("created post %d", r.PostID)
			}
		}
	case KindUpdatePost:
		var c Kind642002
		if err = decode(e, &c); err == nil {
			err = f.UpdatePost(caller, c.PostID, c.Data)
			r.Note = fmt.Sprintf("updated post %d", c.PostID)
		}
	case KindVote:
		var c Kind642004
		if err = decode(e, &c); err == nil {
			err = f.Vote(caller, c.PostID, c.Value)
			r.Note = fmt.Sprintf("voted %d on post %d", c.Value, c.PostID)
		}
	case KindSetMeta:
		var c Kind642006
		if err = decode(e, &c); err == nil {
			err = f.SetMeta(caller, c.PostID, c.OldMeta, c.NewMeta)
			r.Note = fmt.Sprintf("set meta on post %d", c.PostID)
		}
	case KindSetAdmin:
		var c Kind642008
		if err = decode(e, &c); err == nil {
			err = f.SetAdmin(caller, c.Account, c.Mask)
			r.Note = fmt.Sprintf("set mask %d for %s", c.Mask, c.Account)
		}
	case KindSetActive:
		var c Kind642010
		if err = decode(e, &c); err == nil {
			err = f.SetActive(caller, c.Active)
			r.Note = fmt.Sprintf("active: %t", c.Active)
		}
	case KindKill:
		err = f.Kill(caller)
		r.Note = "terminated"
	case KindSetPreAction:
		var c Kind642014
		if err = decode(e, &c); err == nil {
			err = f.SetPreActionAddress(caller, c.Handle)
			r.Note = "pre-action: " + c.Handle
		}
	case KindSetPostAction:
		var c Kind642014
		if err = decode(e, &c); err == nil {
			err = f.SetPostActionAddress(caller, c.Handle)
			r.Note = "post-action: " + c.Handle
		}
	default:
		return r, fmt.Errorf("kind %d is registered but not handled", e.Kind)
	}
	if err != nil {
		return Result{}, err
	}
	f.mutex.RLock()
	r.State = f.hashSeq()
	f.mutex.RUnlock()
	r.State.EventID = e.ID
	return r, nil
}

func decode(e ebbs.Event, v interface{}) error {
	if err := json.Unmarshal([]byte(e.Content), v); err != nil {
		return fmt.Errorf("malformed content for kind %d: %w", e.Kind, err)
	}
	return nil
}
