package oplog

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/gzip"
)

// CompressLog gzips a raw transaction log and returns the payload together
// with both byte sizes, ready to be placed into a RagEntry.
func CompressLog(raw []byte) (compressed []byte, compressedSize, uncompressedSize int64, err error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, 0, 0, fmt.Errorf("compress log: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, 0, 0, fmt.Errorf("compress log: %w", err)
	}
	return buf.Bytes(), int64(buf.Len()), int64(len(raw)), nil
}

// DecompressLog is the inverse of CompressLog, for tooling that needs to
// inspect a stored payload.
func DecompressLog(compressed []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress log: %w", err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(zr); err != nil {
		return nil, fmt.Errorf("decompress log: %w", err)
	}
	return buf.Bytes(), nil
}
