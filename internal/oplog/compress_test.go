package oplog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressLogRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte(`{"step":"retrieve","chunks":[1,2,3]}`), 100)

	compressed, compressedSize, uncompressedSize, err := CompressLog(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(len(raw)), uncompressedSize)
	assert.Equal(t, int64(len(compressed)), compressedSize)
	assert.Less(t, compressedSize, uncompressedSize)

	back, err := DecompressLog(compressed)
	require.NoError(t, err)
	assert.Equal(t, raw, back)
}

func TestDecompressLog_RejectsGarbage(t *testing.T) {
	_, err := DecompressLog([]byte("not gzip"))
	assert.Error(t, err)
}

func TestNewTransactionID_Unique(t *testing.T) {
	a := NewTransactionID()
	b := NewTransactionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
