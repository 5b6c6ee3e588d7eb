package forum

import (
	"ebbs/auxiliarium/posts"
	"ebbs/consensus/admins"
	"ebbs/ebbs"
)

// Reads are always allowed, active or not, until the instance is killed.

func (f *Forum) readable() error {
	if f.terminated {
		return ebbs.ErrAlreadyTerminated
	}
	return nil
}

func (f *Forum) PostCount() (int64, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return 0, err
	}
	return f.posts.Count(), nil
}

func (f *Forum) GetPost(id int64) (posts.Post, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return posts.Post{}, err
	}
	return f.existing(id)
}

func (f *Forum) AuthorPoints(account ebbs.Account) (int64, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return 0, err
	}
	return f.reputation.Points(account), nil
}

func (f *Forum) VoteOnPost(id int64, voter ebbs.Account) (int64, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return 0, err
	}
	if _, err := f.existing(id); err != nil {
		return 0, err
	}
	return f.posts.VoteOf(id, voter), nil
}

// VotesOnPost returns every standing vote on a post by voter.
func (f *Forum) VotesOnPost(id int64) (map[ebbs.Account]int64, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return nil, err
	}
	if _, err := f.existing(id); err != nil {
		return nil, err
	}
	return f.posts.VotesOn(id), nil
}

// IsAdmin returns account's mask, 0 if it isn't an admin.
func (f *Forum) IsAdmin(account ebbs.Account) (ebbs.Mask, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return 0, err
	}
	return f.admins.MaskOf(account), nil
}

func (f *Forum) AdminCount() (int64, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return 0, err
	}
	return f.admins.Count(), nil
}

func (f *Forum) GetAdmin(index int64) (ebbs.Account, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return "", err
	}
	return f.admins.EntryAt(index)
}

func (f *Forum) IsActive() (bool, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return false, err
	}
	return f.active, nil
}

func (f *Forum) Version() (int64, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return 0, err
	}
	return ebbs.Version, nil
}

func (f *Forum) PreActionHandle() (string, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return "", err
	}
	return f.preHandle, nil
}

func (f *Forum) PostActionHandle() (string, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return "", err
	}
	return f.postHandle, nil
}

// Admins returns every admin with its mask, in list order.
func (f *Forum) Admins() ([]admins.Entry, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return nil, err
	}
	return f.admins.Entries(), nil
}

func (f *Forum) AllPosts() ([]posts.Post, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return nil, err
	}
	return f.posts.All(), nil
}

func (f *Forum) AllReputation() (map[ebbs.Account]int64, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return nil, err
	}
	return f.reputation.All(), nil
}

// HashSeq hashes the canonical form of the whole instance. The sequence is the post count.
func (f *Forum) HashSeq() (ebbs.HashSeq, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if err := f.readable(); err != nil {
		return ebbs.HashSeq{}, err
	}
	return f.hashSeq(), nil
}
