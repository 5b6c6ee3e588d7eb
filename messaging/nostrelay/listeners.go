package nostrelay

import (
	"github.com/sasha-s/go-deadlock"
	"github.com/stackerstan/go-nostr"

	"ebbs/ebbs"
)

// listeners are the open REQs that want to hear about new events as they are accepted.
type listeners struct {
	mutex *deadlock.Mutex
	data  map[*WebSocket]map[string]nostr.Filters
}

func newListeners() *listeners {
	return &listeners{
		mutex: &deadlock.Mutex{},
		data:  make(map[*WebSocket]map[string]nostr.Filters),
	}
}

func (l *listeners) set(ws *WebSocket, id string, filters nostr.Filters) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	subs, ok := l.data[ws]
	if !ok {
		subs = make(map[string]nostr.Filters)
		l.data[ws] = subs
	}
	subs[id] = filters
}

func (l *listeners) remove(ws *WebSocket, id string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if subs, ok := l.data[ws]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(l.data, ws)
		}
	}
}

func (l *listeners) drop(ws *WebSocket) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	delete(l.data, ws)
}

func (l *listeners) broadcast(e nostr.Event) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	for ws, subs := range l.data {
		for id, filters := range subs {
			if !anyMatch(filters, e) {
				continue
			}
			if err := ws.WriteJSON([]interface{}{"EVENT", id, e}); err != nil {
				ebbs.LogCLI(err.Error(), 3)
			}
		}
	}
}

func anyMatch(filters nostr.Filters, e nostr.Event) bool {
	for _, f := range filters {
		if matches(f, e) {
			return true
		}
	}
	return false
}

func matches(f nostr.Filter, e nostr.Event) bool {
	if len(f.IDs) > 0 && !ebbs.Contains(f.IDs, e.ID) {
		return false
	}
	if len(f.Authors) > 0 && !ebbs.Contains(f.Authors, e.PubKey) {
		return false
	}
	if len(f.Kinds) > 0 {
		var found bool
		for _, k := range f.Kinds {
			if k == e.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for name, values := range f.Tags {
		var found bool
		for _, tag := range e.Tags {
			if len(tag) > 1 && tag[0] == name && ebbs.Contains(values, tag[1]) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
