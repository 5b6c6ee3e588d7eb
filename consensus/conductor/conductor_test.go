package conductor

import (
	"encoding/base64"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/viper"
	"github.com/stackerstan/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebbs/consensus/forum"
	"ebbs/consensus/sequence"
	"ebbs/database"
	"ebbs/ebbs"
)

const (
	instance = "instance"
	owner    = "owner"
	alice    = "alice"
)

func newConductor(t *testing.T) *Conductor {
	t.Helper()
	f, err := forum.New(forum.Bootstrap{Instance: instance, Deployer: owner, RootData: []byte("123"), Active: true})
	require.NoError(t, err)
	return New(f, sequence.New())
}

func event(caller ebbs.Account, seq int64, kind int64, content string) ebbs.Event {
	return ebbs.Event{
		ID:      ebbs.Sha256(fmt.Sprint(caller, seq, kind, content, time.Now().UnixNano())),
		PubKey:  caller,
		Kind:    kind,
		Tags:    nostr.Tags{{"sequence", fmt.Sprint(seq)}},
		Content: content,
	}
}

func TestSequenceIsEnforced(t *testing.T) {
	c := newConductor(t)

	_, err := c.HandleEvent(event(alice, 2, forum.KindVote, `{"postId":0,"value":1}`))
	assert.ErrorIs(t, err, ErrSequence)

	r, err := c.HandleEvent(event(alice, 1, forum.KindVote, `{"postId":0,"value":1}`))
	require.NoError(t, err)
	assert.Equal(t, "forum", r.State.Mind)
	assert.Equal(t, int64(1), c.Sequences().Current(alice))

	_, err = c.HandleEvent(event(alice, 1, forum.KindVote, `{"postId":0,"value":0}`))
	assert.ErrorIs(t, err, ErrSequence)
}

func TestRejectedEventsDoNotConsumeSequence(t *testing.T) {
	c := newConductor(t)
	_, err := c.HandleEvent(event(alice, 1, forum.KindSetActive, `{"active":false}`))
	assert.ErrorIs(t, err, ebbs.ErrNotAuthorized)
	assert.Zero(t, c.Sequences().Current(alice))

	_, err = c.HandleEvent(event(alice, 1, forum.KindCreatePost, `{"inReplyTo":0,"data":"aGk="}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Sequences().Current(alice))
}

func TestDuplicatesAreDropped(t *testing.T) {
	c := newConductor(t)
	e := event(alice, 1, forum.KindVote, `{"postId":0,"value":1}`)
	_, err := c.HandleEvent(e)
	require.NoError(t, err)

	// same id with a sequence that would otherwise be fine
	e.Tags = nostr.Tags{{"sequence", "2"}}
	_, err = c.HandleEvent(e)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, int64(1), c.Sequences().Current(alice))
}

func TestUnknownKind(t *testing.T) {
	c := newConductor(t)
	_, err := c.HandleEvent(event(alice, 1, 1, "hello"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestMetrics(t *testing.T) {
	c := newConductor(t)
	accepted := eventsHandled.WithLabelValues(fmt.Sprint(forum.KindCreatePost), "accepted")
	tooBig := eventsHandled.WithLabelValues(fmt.Sprint(forum.KindCreatePost), "size_limit")
	before, beforeTooBig := testutil.ToFloat64(accepted), testutil.ToFloat64(tooBig)

	_, err := c.HandleEvent(event(owner, 1, forum.KindCreatePost, `{"inReplyTo":0,"data":"aGk="}`))
	require.NoError(t, err)
	big := make([]byte, 300)
	_, err = c.HandleEvent(event(owner, 2, forum.KindCreatePost, fmt.Sprintf(`{"inReplyTo":0,"data":%q}`, base64.StdEncoding.EncodeToString(big))))
	assert.ErrorIs(t, err, ebbs.ErrSizeLimitExceeded)

	assert.Equal(t, before+1, testutil.ToFloat64(accepted))
	assert.Equal(t, beforeTooBig+1, testutil.ToFloat64(tooBig))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "accepted", resultLabel(nil))
	assert.Equal(t, "stale_comparand", resultLabel(fmt.Errorf("x: %w", ebbs.ErrStaleComparand)))
	assert.Equal(t, "rejected", resultLabel(fmt.Errorf("something else")))
}

func TestStart(t *testing.T) {
	conf := viper.New()
	ebbs.SetDefaults(conf)
	conf.Set("rootDir", t.TempDir()+"/")
	conf.Set("logLevel", 1)
	ebbs.SetConfig(conf)
	t.Cleanup(func() { ebbs.SetConfig(nil) })

	terminate := make(chan struct{})
	wg := &sync.WaitGroup{}
	c, err := Start(terminate, wg, forum.Bootstrap{Instance: instance, Deployer: owner, RootData: []byte("123")})
	require.NoError(t, err)
	_, err = c.HandleEvent(event(owner, 1, forum.KindSetActive, `{"active":true}`))
	require.NoError(t, err)
	close(terminate)
	wg.Wait()

	terminate = make(chan struct{})
	c, err = Start(terminate, wg, forum.Bootstrap{Instance: instance, Deployer: owner})
	require.NoError(t, err)
	active, err := c.Forum().IsActive()
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, int64(1), c.Sequences().Current(owner))
	close(terminate)
	wg.Wait()
}

func TestStartWithoutConfig(t *testing.T) {
	ebbs.SetConfig(nil)
	_, err := Start(make(chan struct{}), &sync.WaitGroup{}, forum.Bootstrap{Instance: instance})
	assert.ErrorIs(t, err, database.ErrNoConfig)
}
