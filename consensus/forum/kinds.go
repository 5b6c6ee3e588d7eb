package forum

// Every mutating call arrives as a signed nostr event of one of these kinds. The caller is the event's pubkey.
const (
	KindCreatePost    int64 = 642000
	KindUpdatePost    int64 = 642002
	KindVote          int64 = 642004
	KindSetMeta       int64 = 642006
	KindSetAdmin      int64 = 642008
	KindSetActive     int64 = 642010
	KindKill          int64 = 642012
	KindSetPreAction  int64 = 642014
	KindSetPostAction int64 = 642016
)

func Kinds() []int64 {
	return []int64{
		KindCreatePost,
		KindUpdatePost,
		KindVote,
		KindSetMeta,
		KindSetAdmin,
		KindSetActive,
		KindKill,
		KindSetPreAction,
		KindSetPostAction,
	}
}

//Kind642000 STATUS: DRAFT
//createPost. Data is base64 on the wire.
type Kind642000 struct {
	InReplyTo int64  `json:"inReplyTo"`
	Data      []byte `json:"data"`
}

//Kind642002 STATUS: DRAFT
//updatePost
type Kind642002 struct {
	PostID int64  `json:"postId"`
	Data   []byte `json:"data"`
}

//Kind642004 STATUS: DRAFT
//vote
type Kind642004 struct {
	PostID int64 `json:"postId"`
	Value  int64 `json:"value"`
}

//Kind642006 STATUS: DRAFT
//setMeta, compare-and-swap from OldMeta to NewMeta
type Kind642006 struct {
	PostID  int64  `json:"postId"`
	OldMeta []byte `json:"oldMeta"`
	NewMeta []byte `json:"newMeta"`
}

//Kind642008 STATUS: DRAFT
//setAdmin
type Kind642008 struct {
	Account string `json:"account"`
	Mask    int64  `json:"mask"`
}

//Kind642010 STATUS: DRAFT
//setActive
type Kind642010 struct {
	Active bool `json:"active"`
}

//Kind642014 STATUS: DRAFT
//setPreActionAddress and setPostActionAddress (642016)
type Kind642014 struct {
	Handle string `json:"handle"`
}
