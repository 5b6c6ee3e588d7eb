package forum

import (
	"fmt"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"ebbs/auxiliarium/hooks"
	"ebbs/auxiliarium/posts"
	"ebbs/consensus/admins"
	"ebbs/consensus/reputation"
	"ebbs/database"
	"ebbs/ebbs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const mindName = "forum"

// snapshot is the on-disk form of a Forum.
type snapshot struct {
	Instance   ebbs.Account
	Active     bool
	Terminated bool
	PreAction  string
	PostAction string
	Admins     []admins.Entry
	Posts      []posts.Post
	Votes      map[int64]map[ebbs.Account]int64
	Reputation map[ebbs.Account]int64
	Keywords   map[int64][]string `json:",omitempty"`
	Audit      []hooks.AuditEntry `json:",omitempty"`
}

// StartDb starts the database for this mind (the Mind-state). It blocks until the database is ready to use and
// returns the Forum restored from disk, or a freshly provisioned one if there is nothing on disk yet.
func StartDb(terminate chan struct{}, wg *sync.WaitGroup, b Bootstrap) (*Forum, error) {
	if err := database.Ready(); err != nil {
		return nil, err
	}
	var f *Forum
	var err error
	if c, ok := database.Open(mindName, "current"); ok {
		f, err = restoreFromDisk(c, b)
		ebbs.LogCLI("Restored the forum from disk", 4)
	} else {
		f, err = New(b)
		ebbs.LogCLI("Provisioned a new forum instance "+b.Instance, 4)
	}
	if err != nil {
		return nil, err
	}
	f.mutex.Lock()
	f.persist = true
	f.takeSnapshot()
	f.mutex.Unlock()
	// we need a channel to listen for a successful database start
	ready := make(chan struct{})
	// We add a delta to the provided waitgroup so that upstream knows when the database has been safely shut down
	wg.Add(1)
	go f.start(terminate, wg, ready)
	<-ready
	ebbs.LogCLI("Forum Mind has started", 4)
	return f, nil
}

func (f *Forum) start(terminate chan struct{}, wg *sync.WaitGroup, ready chan struct{}) {
	close(ready)
	// The database has been started. Now we wait on the terminate channel
	// until upstream closes it (telling us to shut down).
	<-terminate
	f.mutex.Lock()
	f.takeSnapshot()
	f.mutex.Unlock()
	//Tell upstream that we have finished shutting down the databases
	wg.Done()
	ebbs.LogCLI("Forum Mind has shut down", 4)
}

func restoreFromDisk(file *os.File, b Bootstrap) (*Forum, error) {
	defer file.Close()
	var s snapshot
	if err := json.NewDecoder(file).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding forum snapshot: %w", err)
	}
	return fromSnapshot(s, b)
}

func fromSnapshot(s snapshot, b Bootstrap) (*Forum, error) {
	f, err := empty(b)
	if err != nil {
		return nil, err
	}
	if err := f.installHooks(s.PreAction, s.PostAction); err != nil {
		return nil, err
	}
	registry, err := admins.Restore(s.Admins)
	if err != nil {
		return nil, err
	}
	if len(s.Posts) == 0 {
		return nil, fmt.Errorf("forum snapshot has no root post")
	}
	for i, p := range s.Posts {
		if p.ID != int64(i) {
			return nil, fmt.Errorf("forum snapshot post %d has id %d", i, p.ID)
		}
	}
	f.instance = s.Instance
	f.active = s.Active
	f.terminated = s.Terminated
	f.admins = registry
	f.posts = posts.Restore(s.Posts, s.Votes)
	f.reputation = reputation.Restore(s.Reputation)
	// the post-action state is restored as it was, not rebuilt from the posts
	f.hooks.Keywords().Restore(s.Keywords)
	f.hooks.Audit().Restore(s.Audit)
	return f, nil
}

func (f *Forum) toSnapshot() snapshot {
	return snapshot{
		Instance:   f.instance,
		Active:     f.active,
		Terminated: f.terminated,
		PreAction:  f.preHandle,
		PostAction: f.postHandle,
		Admins:     f.admins.Entries(),
		Posts:      f.posts.All(),
		Votes:      f.posts.Votes(),
		Reputation: f.reputation.All(),
		Keywords:   f.hooks.Keywords().All(),
		Audit:      f.hooks.Audit().Entries(-1),
	}
}

// takeSnapshot writes the current state to disk and returns its hash. The caller holds the lock.
func (f *Forum) takeSnapshot() ebbs.HashSeq {
	hs := f.hashSeq()
	b, err := json.MarshalIndent(f.toSnapshot(), "", " ")
	if err != nil {
		ebbs.LogCLI(err.Error(), 1)
		return hs
	}
	if err := database.Write(mindName, "current", b); err != nil {
		ebbs.LogCLI(err.Error(), 1)
	}
	return hs
}

func (f *Forum) hashSeq() (hs ebbs.HashSeq) {
	hs.Mind = mindName
	hs.Sequence = f.posts.Count()
	toHash := []interface{}{f.instance, f.active, f.terminated, f.preHandle, f.postHandle}
	for _, e := range f.admins.Entries() {
		toHash = append(toHash, e.Account, e.Mask)
	}
	for _, author := range f.reputation.Authors() {
		toHash = append(toHash, author, f.reputation.Points(author))
	}
	for _, d := range toHash {
		if err := hs.AppendData(d); err != nil {
			ebbs.LogCLI(err, 1)
		}
	}
	if err := f.posts.AppendHash(&hs); err != nil {
		ebbs.LogCLI(err, 1)
	}
	hs.S256()
	hs.CreatedAt = f.timestamp()
	return
}
