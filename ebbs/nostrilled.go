package ebbs

import (
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/cast"
	"github.com/stackerstan/go-nostr"
)

// Event is our local view of a nostr event. The PubKey of a verified Event is the caller of whatever operation
// the Event carries.
type Event struct {
	ID        string
	PubKey    string
	CreatedAt time.Time
	Kind      int64
	Tags      nostr.Tags
	Content   string
	Sig       string
}

var minds = make(map[string]string)
var mindsMutex = &deadlock.Mutex{}

//RegisterMind registers a Mind's name and event kinds so that we can route events to the right consumer.
//Registering the same Mind twice is allowed, a different Mind claiming the same word or kinds is not.
func RegisterMind(kinds []int64, word, mind string) bool {
	mindsMutex.Lock()
	defer mindsMutex.Unlock()
	if existing, taken := minds[word]; taken && existing != mind {
		return false
	}
	if err := registerKinds(kinds, mind); err != nil {
		LogCLI(err.Error(), 2)
		return false
	}
	minds[word] = mind
	return true
}

//GetSingleTag returns the value of the first tag that matches t string.
func (e *Event) GetSingleTag(t string) (value string, ok bool) {
	for _, tag := range e.Tags {
		if len(tag) > 1 && tag[0] == t && len(tag[1]) > 0 {
			return tag[1], true
		}
	}
	return
}

// GetTags returns every value (excluding the tag name) of every tag named t.
func (e *Event) GetTags(t string) (value []string, ok bool) {
	for _, tag := range e.Tags {
		if len(tag) > 0 && tag[0] == t {
			ok = true
			value = append(value, tag[1:]...)
		}
	}
	return
}

// Sequence returns the value of the sequence tag, or 0 if there isn't a valid one.
func (e *Event) Sequence() int64 {
	if seq, ok := e.GetSingleTag("sequence"); ok {
		if s, err := cast.ToInt64E(seq); err == nil {
			return s
		}
	}
	return 0
}

func (e *Event) CheckSignature() (bool, error) {
	return e.convertToNostrEvent().CheckSignature()
}

func (e *Event) convertToNostrEvent() nostr.Event {
	return nostr.Event{
		ID:        e.ID,
		PubKey:    e.PubKey,
		CreatedAt: e.CreatedAt,
		Kind:      int(e.Kind),
		Tags:      e.Tags,
		Content:   e.Content,
		Sig:       e.Sig,
	}
}

func (e *Event) Nostr() nostr.Event {
	return e.convertToNostrEvent()
}

//ConvertToInternalEvent parses a nostr event and converts it to a locally Typed event
func ConvertToInternalEvent(evt *nostr.Event) Event {
	return Event{
		ID:        evt.ID,
		PubKey:    evt.PubKey,
		CreatedAt: evt.CreatedAt,
		Kind:      int64(evt.Kind),
		Tags:      evt.Tags,
		Content:   evt.Content,
		Sig:       evt.Sig,
	}
}

// SignedEvent builds and signs an event with the given wallet. It's used for everything we produce locally.
func SignedEvent(w Wallet, kind int64, tags nostr.Tags, content string) nostr.Event {
	ev := nostr.Event{
		PubKey:    w.Account,
		CreatedAt: time.Now(),
		Kind:      int(kind),
		Tags:      tags,
		Content:   content,
	}
	ev.ID = ev.GetID()
	ev.Sign(w.PrivateKey)
	return ev
}
