package client

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebbs/consensus/conductor"
	"ebbs/consensus/forum"
	"ebbs/consensus/sequence"
	"ebbs/ebbs"
	"ebbs/messaging/eventers"
	"ebbs/messaging/nostrelay"
)

const testKey = "b7e151628aed2a6abf7158809cf4f3c762e7160f38b4da56a784d9045190cfef"

func node(t *testing.T) (*conductor.Conductor, *Client) {
	t.Helper()
	w, err := ebbs.WalletFromPrivateKey(testKey)
	require.NoError(t, err)
	ebbs.UseWallet(w)
	f, err := forum.New(forum.Bootstrap{Instance: w.Account, Deployer: w.Account, RootData: []byte("123")})
	require.NoError(t, err)
	c := conductor.New(f, sequence.New())
	relay := nostrelay.New()
	relay.SetEventHandler(c.HandleEvent)
	eventers.Start(c, relay)
	srv := httptest.NewServer(relay.Handler())
	t.Cleanup(srv.Close)

	cl, err := Dial("ws"+strings.TrimPrefix(srv.URL, "http"), w)
	require.NoError(t, err)
	t.Cleanup(func() { cl.Close() })
	return c, cl
}

func TestPublish(t *testing.T) {
	c, cl := node(t)
	seq, err := cl.Sequence(cl.wallet.Account)
	require.NoError(t, err)
	assert.Zero(t, seq)

	// new forums start inactive
	_, err = cl.Publish(forum.KindCreatePost, forum.Kind642000{InReplyTo: 0, Data: []byte("hi")})
	assert.ErrorIs(t, err, ErrRejected)

	note, err := cl.Publish(forum.KindSetActive, forum.Kind642010{Active: true})
	require.NoError(t, err)
	assert.Equal(t, "active: true", note)

	note, err = cl.Publish(forum.KindCreatePost, forum.Kind642000{InReplyTo: 0, Data: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, "created post 1", note)

	seq, err = cl.Sequence(cl.wallet.Account)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	p, err := c.Forum().GetPost(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), p.PostData)
	assert.Equal(t, cl.wallet.Account, p.Author)

	_, err = cl.Publish(forum.KindKill, nil)
	require.NoError(t, err)
	_, err = cl.Publish(forum.KindSetActive, forum.Kind642010{Active: true})
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Contains(t, err.Error(), ebbs.ErrAlreadyTerminated.Error())
}

func TestStatus(t *testing.T) {
	c, cl := node(t)
	s, err := cl.Status()
	require.NoError(t, err)
	assert.Equal(t, c.Forum().Instance(), s.Instance)
	hs, err := c.Forum().HashSeq()
	require.NoError(t, err)
	assert.Equal(t, hs.Hash, s.Hash)
	assert.NotEmpty(t, s.Signature)
}
