package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebbs/consensus/forum"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		args    []string
		kind    int64
		content interface{}
	}{
		{[]string{"post", "0", "hello"}, forum.KindCreatePost, forum.Kind642000{InReplyTo: 0, Data: []byte("hello")}},
		{[]string{"update", "3", "edited"}, forum.KindUpdatePost, forum.Kind642002{PostID: 3, Data: []byte("edited")}},
		{[]string{"vote", "1", "-1"}, forum.KindVote, forum.Kind642004{PostID: 1, Value: -1}},
		{[]string{"meta", "1", "68", "6869"}, forum.KindSetMeta, forum.Kind642006{PostID: 1, OldMeta: []byte("h"), NewMeta: []byte("hi")}},
		{[]string{"admin", "abcd", "2"}, forum.KindSetAdmin, forum.Kind642008{Account: "abcd", Mask: 2}},
		{[]string{"active", "true"}, forum.KindSetActive, forum.Kind642010{Active: true}},
		{[]string{"kill"}, forum.KindKill, nil},
		{[]string{"pre", "block"}, forum.KindSetPreAction, forum.Kind642014{Handle: "block"}},
		{[]string{"postaction", "audit"}, forum.KindSetPostAction, forum.Kind642014{Handle: "audit"}},
	} {
		t.Run(tc.args[0], func(t *testing.T) {
			kind, content, err := parse(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.content, content)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, args := range [][]string{
		{"post", "0"},
		{"post", "x", "hello"},
		{"vote", "1", "up"},
		{"meta", "1", "zz", "00"},
		{"active", "maybe"},
		{"kill", "now"},
		{"shares"},
	} {
		_, _, err := parse(args)
		assert.Error(t, err, "%v", args)
	}
}
