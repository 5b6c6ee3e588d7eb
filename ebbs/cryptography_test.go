package ebbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "b7e151628aed2a6abf7158809cf4f3c762e7160f38b4da56a784d9045190cfef"

func TestSignAndVerify(t *testing.T) {
	account, err := PubKeyFor(testKey)
	require.NoError(t, err)
	require.Len(t, account, 64)

	sig, err := Sign([]byte("hello forum"), testKey)
	require.NoError(t, err)
	assert.True(t, VerifySignature([]byte("hello forum"), sig, account))
	assert.False(t, VerifySignature([]byte("hello forum!"), sig, account))
	assert.False(t, VerifySignature([]byte("hello forum"), sig, "zz"))
}

func TestPubKeyForRejectsBadKeys(t *testing.T) {
	_, err := PubKeyFor("not hex")
	assert.Error(t, err)
	_, err = PubKeyFor("abcd")
	assert.Error(t, err)
}

func TestHashSeqIsDeterministic(t *testing.T) {
	build := func() HashSeq {
		var hs HashSeq
		require.NoError(t, hs.AppendData("author"))
		require.NoError(t, hs.AppendData(int64(42)))
		require.NoError(t, hs.AppendData([]byte{1, 2, 3}))
		require.NoError(t, hs.AppendData(true))
		hs.S256()
		return hs
	}
	a, b := build(), build()
	assert.Equal(t, a.Hash, b.Hash)
	assert.Len(t, a.Hash, 64)
	assert.Zero(t, a.Data.Len())
}

func TestHashSeqLengthPrefixesBytes(t *testing.T) {
	var a, b HashSeq
	require.NoError(t, a.AppendData([]byte("ab")))
	require.NoError(t, a.AppendData([]byte("c")))
	require.NoError(t, b.AppendData([]byte("a")))
	require.NoError(t, b.AppendData([]byte("bc")))
	a.S256()
	b.S256()
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestHashSeqRejectsUnknownTypes(t *testing.T) {
	var hs HashSeq
	assert.Error(t, hs.AppendData(3.14))
}

func TestInverseBloomFilter(t *testing.T) {
	seen := MakeNewInverseBloomFilter(100)
	assert.True(t, seen("event-1"))
	assert.False(t, seen("event-1"))
	assert.True(t, seen("event-2"))
}

func TestSha256(t *testing.T) {
	assert.Equal(t, Sha256("abc"), Sha256([]byte("abc")))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Sha256("abc"))
}
