// Package posts is the append-only sequence of forum posts and the votes cast on them. Ids are dense, start at 0
// and are never reused. Replies only point one hop up; the parent just counts them.
package posts

import (
	"sort"

	"ebbs/ebbs"
)

const (
	MaxDataSize = 256
	MaxMetaSize = 512
)

type Post struct {
	ID           int64
	Author       ebbs.Account
	Timestamp    int64 // unix seconds of the last content write
	InReplyTo    int64
	ReplyCounter int64
	PointCounter int64
	PostData     []byte
	PostMeta     []byte // nil until first set
}

func (p Post) clone() Post {
	p.PostData = ebbs.CloneBytes(p.PostData)
	p.PostMeta = ebbs.CloneBytes(p.PostMeta)
	return p
}

// Store does no authorization or size checking, the forum validates everything before calling in.
type Store struct {
	posts []Post
	votes map[int64]map[ebbs.Account]int64
}

func New() *Store {
	return &Store{votes: make(map[int64]map[ebbs.Account]int64)}
}

func (s *Store) Count() int64 {
	return int64(len(s.posts))
}

func (s *Store) Exists(id int64) bool {
	return id >= 0 && id < int64(len(s.posts))
}

// Get returns a deep copy of the post.
func (s *Store) Get(id int64) (Post, bool) {
	if !s.Exists(id) {
		return Post{}, false
	}
	return s.posts[id].clone(), true
}

// Append adds a post with its intrinsic base point and bumps the parent's reply counter. The very first post is
// the root and replies to itself without counting.
func (s *Store) Append(author ebbs.Account, inReplyTo int64, data []byte, timestamp int64) int64 {
	id := int64(len(s.posts))
	s.posts = append(s.posts, Post{
		ID:           id,
		Author:       author,
		Timestamp:    timestamp,
		InReplyTo:    inReplyTo,
		PointCounter: 1,
		PostData:     ebbs.CloneBytes(data),
	})
	if id > 0 {
		s.posts[inReplyTo].ReplyCounter++
	}
	return id
}

func (s *Store) SetData(id int64, data []byte, timestamp int64) {
	s.posts[id].PostData = ebbs.CloneBytes(data)
	s.posts[id].Timestamp = timestamp
}

func (s *Store) SetMeta(id int64, meta []byte) {
	m := ebbs.CloneBytes(meta)
	if m == nil {
		m = []byte{}
	}
	s.posts[id].PostMeta = m
}

func (s *Store) VoteOf(id int64, voter ebbs.Account) int64 {
	return s.votes[id][voter]
}

// ApplyVote records value as voter's vote on id and moves the post's point counter by the difference. The
// returned delta must be applied to the author's reputation by the caller.
func (s *Store) ApplyVote(id int64, voter ebbs.Account, value int64) (delta int64) {
	delta = value - s.votes[id][voter]
	if delta == 0 {
		return 0
	}
	s.posts[id].PointCounter += delta
	if value == 0 {
		delete(s.votes[id], voter)
		if len(s.votes[id]) == 0 {
			delete(s.votes, id)
		}
		return delta
	}
	if s.votes[id] == nil {
		s.votes[id] = make(map[ebbs.Account]int64)
	}
	s.votes[id][voter] = value
	return delta
}

// Votes returns a copy of every nonzero vote, keyed by post then voter.
// VotesOn returns a copy of every non-zero vote on id.
func (s *Store) VotesOn(id int64) map[ebbs.Account]int64 {
	m := make(map[ebbs.Account]int64, len(s.votes[id]))
	for v, val := range s.votes[id] {
		m[v] = val
	}
	return m
}

func (s *Store) Votes() map[int64]map[ebbs.Account]int64 {
	m := make(map[int64]map[ebbs.Account]int64, len(s.votes))
	for id, voters := range s.votes {
		m[id] = make(map[ebbs.Account]int64, len(voters))
		for v, val := range voters {
			m[id][v] = val
		}
	}
	return m
}

// All returns deep copies of every post in id order.
func (s *Store) All() []Post {
	all := make([]Post, len(s.posts))
	for i, p := range s.posts {
		all[i] = p.clone()
	}
	return all
}

// AppendHash writes the canonical form of every post and vote into hs.
func (s *Store) AppendHash(hs *ebbs.HashSeq) error {
	for _, p := range s.posts {
		for _, d := range []interface{}{p.ID, p.Author, p.Timestamp, p.InReplyTo, p.ReplyCounter, p.PointCounter, p.PostData, p.PostMeta != nil, p.PostMeta} {
			if err := hs.AppendData(d); err != nil {
				return err
			}
		}
		var voters []ebbs.Account
		for v := range s.votes[p.ID] {
			voters = append(voters, v)
		}
		sort.Strings(voters)
		for _, v := range voters {
			if err := hs.AppendData(v); err != nil {
				return err
			}
			if err := hs.AppendData(s.votes[p.ID][v]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Restore rebuilds a Store from persisted posts and votes.
func Restore(all []Post, votes map[int64]map[ebbs.Account]int64) *Store {
	s := New()
	for _, p := range all {
		s.posts = append(s.posts, p.clone())
	}
	for id, voters := range votes {
		for v, val := range voters {
			if val == 0 {
				continue
			}
			if s.votes[id] == nil {
				s.votes[id] = make(map[ebbs.Account]int64)
			}
			s.votes[id][v] = val
		}
	}
	return s
}
