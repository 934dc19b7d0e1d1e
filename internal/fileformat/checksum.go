package fileformat

import (
	"fmt"
	"strconv"

	xxh3 "github.com/zeebo/xxh3"
)

const (
	ChecksumAlgo     = "xxh3-64"
	DefaultChunkSize = 1 << 20
)

// ChecksumEntry is the META record for one section: xxh3 hashes of the
// uncompressed payload taken over fixed-size chunks.
type ChecksumEntry struct {
	Algo      string   `json:"algo"`
	ChunkSize int      `json:"chunk_size"`
	Count     int      `json:"count"`
	HashesHex []string `json:"hashes_hex"`
}

func RollXXH3(data []byte, chunk int) []uint64 {
	hashes := make([]uint64, 0, (len(data)+chunk-1)/chunk)
	for i := 0; i < len(data); i += chunk {
		end := i + chunk
		if end > len(data) {
			end = len(data)
		}
		hashes = append(hashes, xxh3.Hash(data[i:end]))
	}
	return hashes
}

func NewChecksumEntry(data []byte, chunk int) ChecksumEntry {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	hashes := RollXXH3(data, chunk)
	hx := make([]string, len(hashes))
	for i, h := range hashes {
		hx[i] = fmt.Sprintf("%016x", h)
	}
	return ChecksumEntry{Algo: ChecksumAlgo, ChunkSize: chunk, Count: len(hx), HashesHex: hx}
}

// Mismatch lists the chunk indices of data that disagree with e.
// A differing chunk count is reported as an error.
func (e ChecksumEntry) Mismatch(data []byte) ([]int, error) {
	if e.Algo != ChecksumAlgo {
		return nil, fmt.Errorf("unsupported checksum algo %q", e.Algo)
	}
	if e.ChunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size %d", e.ChunkSize)
	}
	have := RollXXH3(data, e.ChunkSize)
	if len(have) != len(e.HashesHex) {
		return nil, fmt.Errorf("chunk count mismatch: have %d want %d", len(have), len(e.HashesHex))
	}
	var bad []int
	for i, h := range have {
		want, err := strconv.ParseUint(e.HashesHex[i], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: bad hash %q", i, e.HashesHex[i])
		}
		if h != want {
			bad = append(bad, i)
		}
	}
	return bad, nil
}
