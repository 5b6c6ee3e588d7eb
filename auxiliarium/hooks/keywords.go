package hooks

import (
	"sort"
	"strings"

	rake "github.com/afjoseph/RAKE.Go"
	"github.com/sasha-s/go-deadlock"

	"ebbs/ebbs"
)

const maxKeywordsPerPost = 5

// Keywords is a PostAction that keeps a RAKE keyword index of every post's current postData.
type Keywords struct {
	mutex *deadlock.Mutex
	data  map[int64][]string
}

func NewKeywords() *Keywords {
	return &Keywords{
		mutex: &deadlock.Mutex{},
		data:  make(map[int64][]string),
	}
}

func (k *Keywords) Notify(a Action) error {
	switch a.Op {
	case OpCreatePost, OpUpdatePost:
		k.Index(a.PostID, a.After)
	}
	return nil
}

// Index replaces the keywords of a post.
func (k *Keywords) Index(id int64, data []byte) {
	words := extract(data)
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if len(words) == 0 {
		delete(k.data, id)
		return
	}
	k.data[id] = words
}

func extract(data []byte) (keywords []string) {
	candidates := rake.RunRake(string(data))
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Value > candidates[j].Value
	})
	for _, candidate := range candidates {
		if len(candidate.Key) == 0 || len(candidate.Key) >= 50 {
			continue
		}
		if ebbs.Contains(keywords, candidate.Key) {
			continue
		}
		keywords = append(keywords, candidate.Key)
		if len(keywords) == maxKeywordsPerPost {
			break
		}
	}
	return
}

func (k *Keywords) ForPost(id int64) []string {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	return append([]string(nil), k.data[id]...)
}

// Search returns the ids of every post with a keyword containing word, in ascending order.
func (k *Keywords) Search(word string) (ids []int64) {
	word = strings.ToLower(word)
	k.mutex.Lock()
	defer k.mutex.Unlock()
	for id, words := range k.data {
		for _, w := range words {
			if strings.Contains(strings.ToLower(w), word) {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return
}

func (k *Keywords) All() map[int64][]string {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	m := make(map[int64][]string, len(k.data))
	for id, w := range k.data {
		m[id] = append([]string(nil), w...)
	}
	return m
}

// Restore replaces the whole index.
func (k *Keywords) Restore(m map[int64][]string) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	k.data = make(map[int64][]string, len(m))
	for id, w := range m {
		if len(w) > 0 {
			k.data[id] = append([]string(nil), w...)
		}
	}
}
