package eventers

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stackerstan/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebbs/auxiliarium/hooks"
	"ebbs/auxiliarium/posts"
	"ebbs/consensus/admins"
	"ebbs/consensus/conductor"
	"ebbs/consensus/forum"
	"ebbs/consensus/sequence"
	"ebbs/ebbs"
	"ebbs/messaging/nostrelay"
)

const testKey = "b7e151628aed2a6abf7158809cf4f3c762e7160f38b4da56a784d9045190cfef"

const (
	owner = "owner"
	alice = "alice"
)

func setup(t *testing.T) *conductor.Conductor {
	t.Helper()
	w, err := ebbs.WalletFromPrivateKey(testKey)
	require.NoError(t, err)
	ebbs.UseWallet(w)
	f, err := forum.New(forum.Bootstrap{
		Instance:   w.Account,
		Deployer:   owner,
		RootData:   []byte("welcome to the forum"),
		Active:     true,
		PostAction: hooks.KeywordsAuditHandle,
	})
	require.NoError(t, err)
	c := conductor.New(f, sequence.New())
	send(t, c, alice, 1, forum.KindCreatePost, fmt.Sprintf(`{"inReplyTo":0,"data":%q}`,
		base64.StdEncoding.EncodeToString([]byte("bitcoin lightning payments"))))
	send(t, c, owner, 1, forum.KindVote, `{"postId":1,"value":1}`)
	return c
}

func send(t *testing.T, c *conductor.Conductor, caller ebbs.Account, seq int64, kind int64, content string) {
	t.Helper()
	_, err := c.HandleEvent(ebbs.Event{
		ID:      ebbs.Sha256(fmt.Sprint(caller, seq, kind, content)),
		PubKey:  caller,
		Kind:    kind,
		Tags:    nostr.Tags{{"sequence", fmt.Sprint(seq)}},
		Content: content,
	})
	require.NoError(t, err)
}

func decodeOne(t *testing.T, events []nostr.Event, kind int64, into interface{}) {
	t.Helper()
	require.Len(t, events, 1)
	assert.Equal(t, int(kind), events[0].Kind)
	ok, err := events[0].CheckSignature()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(events[0].Content), into))
}

func eventer(name string, tags map[string][]string) nostr.Filter {
	all := map[string][]string{"eventer": {name}}
	for k, v := range tags {
		all[k] = v
	}
	return nostr.Filter{Tags: all}
}

func TestForumStatus(t *testing.T) {
	c := setup(t)
	var s ForumStatus
	decodeOne(t, eventsFor(c, "forum", eventer("forum", nil)), KindForum, &s)
	assert.Equal(t, c.Forum().Instance(), s.Instance)
	assert.True(t, s.Active)
	assert.False(t, s.Terminated)
	assert.Equal(t, int64(2), s.Posts)
	assert.Equal(t, int64(1), s.Admins)
	assert.Equal(t, hooks.KeywordsAuditHandle, s.PostAction)
	assert.Equal(t, int64(60), s.EditWindow)
	assert.NotEmpty(t, s.Hash)
	assert.True(t, ebbs.VerifySignature([]byte(s.Hash), s.Signature, s.Instance))
	assert.False(t, ebbs.VerifySignature([]byte(s.Hash+"0"), s.Signature, s.Instance))

	send(t, c, owner, 2, forum.KindKill, "")
	decodeOne(t, eventsFor(c, "forum", eventer("forum", nil)), KindForum, &s)
	assert.True(t, s.Terminated)
}

func TestPosts(t *testing.T) {
	c := setup(t)
	events := eventsFor(c, "posts", eventer("posts", nil))
	require.Len(t, events, 2)
	var p posts.Post
	require.NoError(t, json.Unmarshal([]byte(events[1].Content), &p))
	assert.Equal(t, alice, p.Author)
	// the author's own point plus the owner's vote
	assert.Equal(t, int64(2), p.PointCounter)
	assert.Equal(t, "bitcoin lightning payments", string(p.PostData))

	only := eventsFor(c, "posts", eventer("posts", map[string][]string{"post": {"0"}}))
	require.Len(t, only, 1)
	assert.Equal(t, "0", only[0].Tags[0][1])
}

func TestAdminsAndReputation(t *testing.T) {
	c := setup(t)
	var list []admins.Entry
	decodeOne(t, eventsFor(c, "admins", eventer("admins", nil)), KindAdmins, &list)
	assert.Equal(t, []admins.Entry{{Account: owner, Mask: ebbs.MaskFull}}, list)

	var r Reputation
	decodeOne(t, eventsFor(c, "reputation", eventer("reputation", nil)), KindReputation, &r)
	assert.Equal(t, int64(2), r.Points[alice])
	assert.Equal(t, int64(1), r.Points[c.Forum().Instance()])
	assert.Len(t, r.Points, 2)
	assert.Equal(t, 1.5, r.Mean)
	assert.Equal(t, 1.5, r.Median)
}

func TestAdminAtIndex(t *testing.T) {
	c := setup(t)
	send(t, c, owner, 2, forum.KindSetAdmin, `{"account":"mod","mask":2}`)
	var at map[int64]ebbs.Account
	decodeOne(t, eventsFor(c, "admins", eventer("admins", map[string][]string{"admin": {"1", "0", "7"}})), KindAdmins, &at)
	assert.Equal(t, map[int64]ebbs.Account{0: owner, 1: "mod"}, at)
}

func TestVotes(t *testing.T) {
	c := setup(t)
	send(t, c, "bob", 1, forum.KindVote, `{"postId":1,"value":-1}`)

	events := eventsFor(c, "votes", eventer("votes", map[string][]string{"post": {"1", "0", "9"}}))
	require.Len(t, events, 2)
	assert.Equal(t, int(KindVotes), events[0].Kind)
	assert.Equal(t, "1", events[0].Tags[0][1])
	var list []Vote
	require.NoError(t, json.Unmarshal([]byte(events[0].Content), &list))
	assert.Equal(t, []Vote{{PostID: 1, Voter: "bob", Value: -1}, {PostID: 1, Voter: owner, Value: 1}}, list)
	require.NoError(t, json.Unmarshal([]byte(events[1].Content), &list))
	assert.Empty(t, list)

	filter := eventer("votes", map[string][]string{"post": {"1"}})
	filter.Authors = []string{owner, "nobody"}
	decodeOne(t, eventsFor(c, "votes", filter), KindVotes, &list)
	assert.Equal(t, []Vote{{PostID: 1, Voter: owner, Value: 1}, {PostID: 1, Voter: "nobody", Value: 0}}, list)
}

func TestKeywordsAndAudit(t *testing.T) {
	c := setup(t)
	var all map[int64][]string
	decodeOne(t, eventsFor(c, "keywords", eventer("keywords", nil)), KindKeywords, &all)
	assert.NotEmpty(t, all[1])

	var found map[string][]int64
	decodeOne(t, eventsFor(c, "keywords", eventer("keywords", map[string][]string{"search": {"lightning"}})), KindKeywords, &found)
	assert.Equal(t, []int64{1}, found["lightning"])

	var entries []hooks.AuditEntry
	decodeOne(t, eventsFor(c, "audit", eventer("audit", map[string][]string{"post": {"1"}})), KindAudit, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, hooks.OpCreatePost, entries[0].Op)
}

func TestSequences(t *testing.T) {
	c := setup(t)
	var all []sequence.Sequence
	decodeOne(t, eventsFor(c, "sequence", eventer("sequence", nil)), KindSequence, &all)
	assert.Equal(t, []sequence.Sequence{{Account: alice, Sequence: 1}, {Account: owner, Sequence: 1}}, all)

	filter := eventer("sequence", nil)
	filter.Authors = []string{"nobody", alice}
	decodeOne(t, eventsFor(c, "sequence", filter), KindSequence, &all)
	assert.Equal(t, []sequence.Sequence{{Account: alice, Sequence: 1}, {Account: "nobody", Sequence: 0}}, all)
}

func TestUnknownEventer(t *testing.T) {
	assert.Empty(t, eventsFor(setup(t), "shares", eventer("shares", nil)))
}

func TestHandleSubscription(t *testing.T) {
	c := setup(t)
	sub := nostrelay.Subscription{
		Filters:   nostr.Filters{eventer("admins", nil)},
		Events:    make(chan nostr.Event),
		Terminate: make(chan bool),
	}
	go handleSubscription(c, sub)
	e := <-sub.Events
	assert.Equal(t, int(KindAdmins), e.Kind)
	_, open := <-sub.Terminate
	assert.False(t, open)
}
