package ebbs

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Account = string

// Mask is the 2-bit admin capability value. Bit 1 grants the right to update any post, bit 2 the right to set post
// metadata. Both bits together make a full admin.
type Mask = int64

const (
	MaskNone   Mask = 0
	MaskUpdate Mask = 1
	MaskMeta   Mask = 2
	MaskFull   Mask = 3
)

type Wallet struct {
	PrivateKey string
	SeedWords  string
	Account    Account
}

type S256Hash = string

type MindLog struct {
	MindName string
	Comment  string
	Message  interface{}
}

// HashSeq is the hash of a Mind's state together with its sequence (the number of things in it).
type HashSeq struct {
	Hash      S256Hash
	Sequence  int64
	Mind      string
	Data      bytes.Buffer
	CreatedAt int64
	EventID   S256Hash //optional
}
