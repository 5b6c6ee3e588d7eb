package posts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebbs/ebbs"
)

func TestAppendAndReplies(t *testing.T) {
	s := New()
	root := s.Append("instance", 0, []byte("123"), 10)
	assert.Equal(t, int64(0), root)

	p, ok := s.Get(0)
	require.True(t, ok)
	assert.Equal(t, int64(1), p.PointCounter)
	assert.Zero(t, p.ReplyCounter)
	assert.Nil(t, p.PostMeta)

	a := s.Append("alice", 0, []byte("Hello World!"), 11)
	b := s.Append("bob", a, []byte("hi alice"), 12)
	s.Append("carol", a, []byte("hey"), 13)
	assert.Equal(t, int64(4), s.Count())

	p, _ = s.Get(0)
	assert.Equal(t, int64(1), p.ReplyCounter)
	p, _ = s.Get(a)
	assert.Equal(t, int64(2), p.ReplyCounter)
	p, _ = s.Get(b)
	assert.Equal(t, a, p.InReplyTo)
	assert.Equal(t, int64(12), p.Timestamp)
}

func TestGetIsACopy(t *testing.T) {
	s := New()
	s.Append("instance", 0, []byte("123"), 1)
	p, _ := s.Get(0)
	p.PostData[0] = 'x'
	again, _ := s.Get(0)
	assert.Equal(t, []byte("123"), again.PostData)

	_, ok := s.Get(1)
	assert.False(t, ok)
	_, ok = s.Get(-1)
	assert.False(t, ok)
}

func TestApplyVoteSequence(t *testing.T) {
	s := New()
	s.Append("instance", 0, nil, 1)
	id := s.Append("alice", 0, []byte("post"), 1)

	// the same walk the contract test-suite takes: 0, 1, 1, 0, -1
	steps := []struct {
		value, delta, points int64
	}{
		{0, 0, 1},
		{1, 1, 2},
		{1, 0, 2},
		{0, -1, 1},
		{-1, -1, 0},
	}
	for _, step := range steps {
		assert.Equal(t, step.delta, s.ApplyVote(id, "bob", step.value))
		p, _ := s.Get(id)
		assert.Equal(t, step.points, p.PointCounter)
		assert.Equal(t, step.value, s.VoteOf(id, "bob"))
	}
}

func TestZeroVoteIsCleared(t *testing.T) {
	s := New()
	s.Append("instance", 0, nil, 1)
	s.ApplyVote(0, "bob", 1)
	s.ApplyVote(0, "bob", 0)
	assert.Empty(t, s.Votes())
}

func TestSetDataAndMeta(t *testing.T) {
	s := New()
	s.Append("instance", 0, []byte("123"), 1)
	s.SetData(0, []byte("456"), 5)
	p, _ := s.Get(0)
	assert.Equal(t, []byte("456"), p.PostData)
	assert.Equal(t, int64(5), p.Timestamp)

	s.SetMeta(0, nil)
	p, _ = s.Get(0)
	assert.NotNil(t, p.PostMeta)
	assert.Empty(t, p.PostMeta)
}

func TestHashChangesWithVotes(t *testing.T) {
	s := New()
	s.Append("instance", 0, []byte("123"), 1)
	hash := func() string {
		var hs ebbs.HashSeq
		require.NoError(t, s.AppendHash(&hs))
		hs.S256()
		return hs.Hash
	}
	before := hash()
	s.ApplyVote(0, "bob", 1)
	after := hash()
	assert.NotEqual(t, before, after)

	restored := Restore(s.All(), s.Votes())
	var hs ebbs.HashSeq
	require.NoError(t, restored.AppendHash(&hs))
	hs.S256()
	assert.Equal(t, after, hs.Hash)
}
