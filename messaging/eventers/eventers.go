// Package eventers lets us compose State from the forum into Events to be consumed by the interfarce.
//all Events produced by the eventer are signed by our local wallet
//events produced by this package MUST NOT be sent to relays, they are answers to a REQ and nothing more
package eventers

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/montanaflynn/stats"
	"github.com/stackerstan/go-nostr"

	"ebbs/consensus/conductor"
	"ebbs/consensus/sequence"
	"ebbs/ebbs"
	"ebbs/messaging/nostrelay"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	KindForum      int64 = 642100
	KindPost       int64 = 642102
	KindAdmins     int64 = 642104
	KindReputation int64 = 642106
	KindKeywords   int64 = 642108
	KindAudit      int64 = 642110
	KindSequence   int64 = 642112
	KindVotes      int64 = 642114
)

func Start(c *conductor.Conductor, r *nostrelay.Relay) {
	ebbs.LogCLI("Starting the Event Producer. You should now be able to connect a frontend to this forum.", 4)
	subs := r.SubscribeToRequests("eventer")
	go func() {
		for sub := range subs {
			go handleSubscription(c, sub)
		}
	}()
}

func handleSubscription(c *conductor.Conductor, sub nostrelay.Subscription) {
	defer close(sub.Terminate)
	for _, filter := range sub.Filters {
		list, ok := filter.Tags["eventer"]
		if !ok || len(list) == 0 {
			continue
		}
		for _, event := range eventsFor(c, list[0], filter) {
			sub.Events <- event
		}
		return
	}
}

// eventsFor answers a single {"#eventer": [name]} filter. Other tags on the filter narrow the answer: #post for
// posts, votes and audit, #admin for admins, #search for keywords, authors for votes and sequence.
func eventsFor(c *conductor.Conductor, name string, filter nostr.Filter) (e []nostr.Event) {
	var err error
	switch name {
	case "forum":
		e, err = forumStatus(c)
	case "posts":
		e, err = allPosts(c, postFilter(filter))
	case "admins":
		e, err = allAdmins(c, indexFilter(filter))
	case "reputation":
		e, err = reputation(c)
	case "keywords":
		e, err = keywords(c, filter.Tags["search"])
	case "audit":
		e, err = audit(c, postFilter(filter))
	case "sequence":
		e, err = sequences(c, filter.Authors)
	case "votes":
		e, err = votes(c, postFilter(filter), filter.Authors)
	default:
		ebbs.LogCLI("unknown eventer "+name, 3)
	}
	if err != nil {
		ebbs.LogCLI(err.Error(), 3)
	}
	return
}

func postFilter(filter nostr.Filter) (ids []int64) {
	for _, s := range filter.Tags["post"] {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return
}

func indexFilter(filter nostr.Filter) (indexes []int64) {
	for _, s := range filter.Tags["admin"] {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			indexes = append(indexes, i)
		}
	}
	return
}

func signed(kind int64, tags nostr.Tags, content interface{}) (nostr.Event, error) {
	j, err := json.Marshal(content)
	if err != nil {
		return nostr.Event{}, err
	}
	return ebbs.SignedEvent(ebbs.MyWallet(), kind, tags, fmt.Sprintf("%s", j)), nil
}

type ForumStatus struct {
	Instance   ebbs.Account
	Version    int64
	Terminated bool
	Active     bool
	Posts      int64
	Admins     int64
	PreAction  string
	PostAction string
	EditWindow int64 // seconds
	Hash       ebbs.S256Hash
	// Signature is our wallet's schnorr signature over Hash, so the state hash can be passed on and checked
	// without the event around it.
	Signature string
}

func forumStatus(c *conductor.Conductor) ([]nostr.Event, error) {
	f := c.Forum()
	s := ForumStatus{Instance: f.Instance(), Version: ebbs.Version, EditWindow: int64(f.EditWindow().Seconds())}
	var err error
	if s.Active, err = f.IsActive(); errors.Is(err, ebbs.ErrAlreadyTerminated) {
		s.Terminated = true
	} else {
		s.Posts, _ = f.PostCount()
		s.Admins, _ = f.AdminCount()
		s.PreAction, _ = f.PreActionHandle()
		s.PostAction, _ = f.PostActionHandle()
		if hs, err := f.HashSeq(); err == nil {
			s.Hash = hs.Hash
			if s.Signature, err = ebbs.Sign([]byte(hs.Hash), ebbs.MyWallet().PrivateKey); err != nil {
				return nil, err
			}
		}
	}
	ev, err := signed(KindForum, nil, s)
	if err != nil {
		return nil, err
	}
	return []nostr.Event{ev}, nil
}

func allPosts(c *conductor.Conductor, only []int64) (e []nostr.Event, err error) {
	all, err := c.Forum().AllPosts()
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if len(only) > 0 && !containsID(only, p.ID) {
			continue
		}
		ev, err := signed(KindPost, nostr.Tags{
			{"post", strconv.FormatInt(p.ID, 10)},
			{"reply", strconv.FormatInt(p.InReplyTo, 10)},
			{"p", p.Author},
		}, p)
		if err != nil {
			return e, err
		}
		e = append(e, ev)
	}
	return e, nil
}

func containsID(ids []int64, id int64) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

// allAdmins gives the admin list in index order, or the account at each requested index.
func allAdmins(c *conductor.Conductor, indexes []int64) ([]nostr.Event, error) {
	var content interface{}
	if len(indexes) == 0 {
		list, err := c.Forum().Admins()
		if err != nil {
			return nil, err
		}
		content = list
	} else {
		at := make(map[int64]ebbs.Account)
		for _, i := range indexes {
			account, err := c.Forum().GetAdmin(i)
			if errors.Is(err, ebbs.ErrIndexOutOfRange) {
				continue
			}
			if err != nil {
				return nil, err
			}
			at[i] = account
		}
		content = at
	}
	ev, err := signed(KindAdmins, nil, content)
	if err != nil {
		return nil, err
	}
	return []nostr.Event{ev}, nil
}

type Reputation struct {
	Points map[ebbs.Account]int64
	Mean   float64
	Median float64
	P90    float64
}

func reputation(c *conductor.Conductor) ([]nostr.Event, error) {
	points, err := c.Forum().AllReputation()
	if err != nil {
		return nil, err
	}
	r := Reputation{Points: points}
	var floats stats.Float64Data
	for _, p := range points {
		floats = append(floats, float64(p))
	}
	if len(floats) > 0 {
		if r.Mean, err = stats.Mean(floats); err != nil {
			return nil, err
		}
		if r.Median, err = stats.Median(floats); err != nil {
			return nil, err
		}
		if r.P90, err = stats.Percentile(floats, 90); err != nil {
			return nil, err
		}
	}
	ev, err := signed(KindReputation, nil, r)
	if err != nil {
		return nil, err
	}
	return []nostr.Event{ev}, nil
}

func keywords(c *conductor.Conductor, search []string) ([]nostr.Event, error) {
	if _, err := c.Forum().PostCount(); err != nil {
		return nil, err
	}
	k := c.Forum().Hooks().Keywords()
	var content interface{} = k.All()
	if len(search) > 0 {
		found := make(map[string][]int64)
		for _, word := range search {
			found[word] = k.Search(word)
		}
		content = found
	}
	ev, err := signed(KindKeywords, nil, content)
	if err != nil {
		return nil, err
	}
	return []nostr.Event{ev}, nil
}

func audit(c *conductor.Conductor, only []int64) (e []nostr.Event, err error) {
	if _, err := c.Forum().PostCount(); err != nil {
		return nil, err
	}
	au := c.Forum().Hooks().Audit()
	if len(only) == 0 {
		only = []int64{-1}
	}
	for _, id := range only {
		ev, err := signed(KindAudit, nil, au.Entries(id))
		if err != nil {
			return e, err
		}
		e = append(e, ev)
	}
	return e, nil
}

// sequences gives the current sequence of each author, or of every account we have heard from when there are none.
func sequences(c *conductor.Conductor, authors []string) ([]nostr.Event, error) {
	var all []sequence.Sequence
	if len(authors) == 0 {
		all = c.Sequences().AllSequences()
	}
	for _, account := range authors {
		all = append(all, sequence.Sequence{Account: account, Sequence: c.Sequences().Current(account)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Account < all[j].Account })
	ev, err := signed(KindSequence, nil, all)
	if err != nil {
		return nil, err
	}
	return []nostr.Event{ev}, nil
}

type Vote struct {
	PostID int64
	Voter  ebbs.Account
	Value  int64
}

// votes gives one event per post with the votes of each author on it, or every standing vote when there are no
// authors. Posts that don't exist are skipped.
func votes(c *conductor.Conductor, only []int64, authors []string) (e []nostr.Event, err error) {
	f := c.Forum()
	for _, id := range only {
		all, err := f.VotesOnPost(id)
		if errors.Is(err, ebbs.ErrInvalidReference) {
			continue
		}
		if err != nil {
			return e, err
		}
		var list []Vote
		if len(authors) == 0 {
			for voter, value := range all {
				list = append(list, Vote{PostID: id, Voter: voter, Value: value})
			}
			sort.Slice(list, func(i, j int) bool { return list[i].Voter < list[j].Voter })
		}
		for _, voter := range authors {
			value, err := f.VoteOnPost(id, voter)
			if err != nil {
				return e, err
			}
			list = append(list, Vote{PostID: id, Voter: voter, Value: value})
		}
		ev, err := signed(KindVotes, nostr.Tags{{"post", strconv.FormatInt(id, 10)}}, list)
		if err != nil {
			return e, err
		}
		e = append(e, ev)
	}
	return e, nil
}
