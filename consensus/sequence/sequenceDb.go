package sequence

import (
	"os"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"ebbs/database"
	"ebbs/ebbs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const mindName = "sequence"

// StartDb starts the database for this mind (the Mind-state). It blocks until the database is ready to use.
func StartDb(terminate chan struct{}, wg *sync.WaitGroup) *Db {
	s := New()
	// Load current sequences from disk
	if c, ok := database.Open(mindName, "current"); ok {
		s.restoreFromDisk(c)
	}
	s.persist = true
	// we need a channel to listen for a successful database start
	ready := make(chan struct{})
	wg.Add(1)
	go s.start(terminate, wg, ready)
	<-ready //This channel listener blocks until closed by `start`.
	ebbs.LogCLI("Sequence Mind has started", 4)
	return s
}

func (s *Db) start(terminate chan struct{}, wg *sync.WaitGroup, ready chan struct{}) {
	close(ready)
	<-terminate
	s.mutex.Lock()
	s.takeSnapshot()
	s.mutex.Unlock()
	wg.Done()
	ebbs.LogCLI("Sequence Mind has shut down", 4)
}

func (s *Db) restoreFromDisk(f *os.File) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	err := json.NewDecoder(f).Decode(&s.data)
	if err != nil {
		if err.Error() != "EOF" {
			ebbs.LogCLI(err.Error(), 1)
		}
	}
	err = f.Close()
	if err != nil {
		ebbs.LogCLI(err.Error(), 1)
	}
}

// takeSnapshot writes the current sequences to disk and returns their hash. The caller holds the lock.
func (s *Db) takeSnapshot() ebbs.HashSeq {
	hs := hashSeq(s.data)
	b, err := json.MarshalIndent(s.data, "", " ")
	if err != nil {
		ebbs.LogCLI(err.Error(), 1)
		return hs
	}
	if err := database.Write(mindName, "current", b); err != nil {
		ebbs.LogCLI(err.Error(), 1)
	}
	return hs
}

func hashSeq(m map[ebbs.Account]Sequence) (hs ebbs.HashSeq) {
	hs.Mind = mindName
	var accounts []ebbs.Account
	for account := range m {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i] > accounts[j]
	})
	var toHash []any
	for _, account := range accounts {
		seq := m[account]
		hs.Sequence = hs.Sequence + seq.Sequence
		toHash = append(toHash,
			seq.Account,
			seq.Sequence)
	}
	for _, d := range toHash {
		if err := hs.AppendData(d); err != nil {
			ebbs.LogCLI(err, 1)
		}
	}
	hs.S256()
	return
}

// HashSeq returns the hash of every account's sequence, the sequence being their sum.
func (s *Db) HashSeq() ebbs.HashSeq {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return hashSeq(s.data)
}
