// Package snapshot stores a built CSR matrix and its input vector in a CSRX
// container, so large inputs can be multiplied again without text parsing.
//
// Layout (all little endian):
//
//	META      JSON, see Meta
//	ROWSTART  (n+1) x int64
//	COLINDEX  nnz x uint32
//	VALUES    nnz x float64
//	VECTOR    n x float64
//
// META carries xxh3 chunk checksums of every other section's uncompressed payload.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/qrv0/csrmv/internal/config"
	"github.com/qrv0/csrmv/internal/csr"
	"github.com/qrv0/csrmv/internal/fileformat"
	"github.com/qrv0/csrmv/internal/runerr"
)

const FormatVersion = 1

// META is a small JSON document; anything bigger is not a snapshot.
const maxMetaBytes = 16 << 20

// ErrChecksum reports a section whose payload disagrees with META.
var ErrChecksum = errors.New("snapshot: checksum mismatch")

var dataSections = []uint32{
	fileformat.TypeRowStart,
	fileformat.TypeColIndex,
	fileformat.TypeValues,
	fileformat.TypeVector,
}

type Meta struct {
	FormatVersion int                                 `json:"format_version"`
	N             int                                 `json:"n"`
	NNZ           int                                 `json:"nnz"`
	Source        string                              `json:"source,omitempty"`
	Compression   string                              `json:"compression"`
	ChecksumIndex map[string]fileformat.ChecksumEntry `json:"checksum_index"`
}

type Options struct {
	Compression string // "zstd", "lz4" or "none"; empty means zstd
	ChunkSize   int    // checksum chunk size; 0 means fileformat.DefaultChunkSize
	Source      string // recorded in META
}

type Snapshot struct {
	Meta   Meta
	Matrix *csr.Matrix
	Vector []float64
}

func compressionFlags(name string) (uint32, string, error) {
	switch name {
	case "", "zstd":
		return fileformat.FlagCompZSTD, "zstd", nil
	case "lz4":
		return fileformat.FlagCompLZ4, "lz4", nil
	case "none":
		return 0, "none", nil
	}
	return 0, "", fmt.Errorf("unknown compression %q: %w", name, runerr.ErrUsage)
}

// Write stores m and vec at path.
func Write(path string, m *csr.Matrix, vec []float64, opt Options) error {
	if len(vec) != m.N {
		return fmt.Errorf("snapshot: vector length %d != n %d", len(vec), m.N)
	}
	flags, comp, err := compressionFlags(opt.Compression)
	if err != nil {
		return err
	}
	payloads := map[uint32][]byte{
		fileformat.TypeRowStart: encodeInts64(m.RowStart),
		fileformat.TypeColIndex: encodeUint32s(m.ColIndex),
		fileformat.TypeValues:   encodeFloats(m.Values),
		fileformat.TypeVector:   encodeFloats(vec),
	}
	meta := Meta{
		FormatVersion: FormatVersion,
		N:             m.N,
		NNZ:           m.NNZ(),
		Source:        opt.Source,
		Compression:   comp,
		ChecksumIndex: make(map[string]fileformat.ChecksumEntry, len(payloads)),
	}
	for _, t := range dataSections {
		meta.ChecksumIndex[strconv.Itoa(int(t))] = fileformat.NewChecksumEntry(payloads[t], opt.ChunkSize)
	}
	mb, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	w := fileformat.NewWriter()
	w.AddSection(fileformat.TypeMeta, mb, 0)
	for _, t := range dataSections {
		w.AddSection(t, payloads[t], flags)
	}
	return w.Write(path)
}

// Read loads and fully validates a snapshot: section sizes against META,
// checksums, CSR invariants and the dimension limits.
func Read(path string, lim config.Limits) (*Snapshot, error) {
	r, err := fileformat.Open(path)
	if err != nil {
		if errors.Is(err, fileformat.ErrNotContainer) {
			return nil, fmt.Errorf("%s: %v: %w", path, err, runerr.ErrInputFormat)
		}
		return nil, fmt.Errorf("%v: %w", err, runerr.ErrFileOpen)
	}
	defer r.Close()

	meta, err := readMeta(r)
	if err != nil {
		return nil, err
	}
	if meta.N > lim.MaxN || meta.NNZ > lim.MaxNNZ {
		return nil, fmt.Errorf("n=%d nnz=%d exceed the limits (%d and %d): %w",
			meta.N, meta.NNZ, lim.MaxN, lim.MaxNNZ, runerr.ErrCapacityExceeded)
	}

	want := meta.sectionSizes()
	sections := make(map[uint32][]byte, len(dataSections))
	for _, t := range dataSections {
		b, err := checkedSection(r, meta, t, want[t])
		if err != nil {
			return nil, err
		}
		sections[t] = b
	}
	for _, t := range dataSections {
		if len(sections[t]) != want[t] {
			return nil, fmt.Errorf("%s: %d bytes, want %d: %w",
				fileformat.SectionName(t), len(sections[t]), want[t], runerr.ErrInputFormat)
		}
	}

	m := &csr.Matrix{
		N:        meta.N,
		RowStart: decodeInts64(sections[fileformat.TypeRowStart]),
		ColIndex: decodeUint32s(sections[fileformat.TypeColIndex]),
		Values:   decodeFloats(sections[fileformat.TypeValues]),
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, runerr.ErrInputFormat)
	}
	return &Snapshot{Meta: *meta, Matrix: m, Vector: decodeFloats(sections[fileformat.TypeVector])}, nil
}

func readMeta(r *fileformat.Reader) (*Meta, error) {
	mb, err := r.SectionLimited(fileformat.TypeMeta, maxMetaBytes)
	if err != nil {
		return nil, fmt.Errorf("META: %v: %w", err, runerr.ErrInputFormat)
	}
	var meta Meta
	if err := json.Unmarshal(mb, &meta); err != nil {
		return nil, fmt.Errorf("META: %v: %w", err, runerr.ErrInputFormat)
	}
	if meta.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("META: format_version %d: %w", meta.FormatVersion, runerr.ErrInputFormat)
	}
	if meta.N < 0 || meta.NNZ < 0 {
		return nil, fmt.Errorf("META: negative dimension n=%d nnz=%d: %w", meta.N, meta.NNZ, runerr.ErrInputFormat)
	}
	return &meta, nil
}

// sectionSizes returns the decoded byte length each data section must have.
func (m *Meta) sectionSizes() map[uint32]int {
	return map[uint32]int{
		fileformat.TypeRowStart: 8 * (m.N + 1),
		fileformat.TypeColIndex: 4 * m.NNZ,
		fileformat.TypeValues:   8 * m.NNZ,
		fileformat.TypeVector:   8 * m.N,
	}
}

func checkedSection(r *fileformat.Reader, meta *Meta, t uint32, size int) ([]byte, error) {
	name := fileformat.SectionName(t)
	b, err := r.SectionLimited(t, int64(size))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, err, runerr.ErrInputFormat)
	}
	e, ok := meta.ChecksumIndex[strconv.Itoa(int(t))]
	if !ok {
		return nil, fmt.Errorf("%s: no checksum in META: %w", name, runerr.ErrInputFormat)
	}
	bad, err := e.Mismatch(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", name, err, runerr.ErrInputFormat)
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("%s: chunks %v: %w: %w", name, bad, ErrChecksum, runerr.ErrInputFormat)
	}
	return b, nil
}

func encodeInts64(v []int) []byte {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[8*i:], uint64(int64(x)))
	}
	return b
}

func decodeInts64(b []byte) []int {
	v := make([]int, len(b)/8)
	for i := range v {
		v[i] = int(int64(binary.LittleEndian.Uint64(b[8*i:])))
	}
	return v
}

func encodeUint32s(v []int) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(x))
	}
	return b
}

func decodeUint32s(b []byte) []int {
	v := make([]int, len(b)/4)
	for i := range v {
		v[i] = int(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}

func encodeFloats(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(x))
	}
	return b
}

func decodeFloats(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v
}
