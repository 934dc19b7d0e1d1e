package snapshot

import (
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qrv0/csrmv/internal/config"
	"github.com/qrv0/csrmv/internal/coo"
	"github.com/qrv0/csrmv/internal/csr"
	"github.com/qrv0/csrmv/internal/fileformat"
	"github.com/qrv0/csrmv/internal/runerr"
)

var lim = config.Limits{MaxN: config.DefaultMaxN, MaxNNZ: config.DefaultMaxNNZ}

func sampleMatrix(n, nnz int, seed int64) (*csr.Matrix, []float64) {
	rnd := rand.New(rand.NewSource(seed))
	ts := make([]coo.Triplet, nnz)
	for i := range ts {
		ts[i] = coo.Triplet{Row: rnd.Intn(n), Col: rnd.Intn(n), Value: rnd.NormFloat64()}
	}
	vec := make([]float64, n)
	for i := range vec {
		vec[i] = rnd.Float64()
	}
	return csr.Build(n, ts), vec
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m, vec := sampleMatrix(40, 400, 1)
	m.Values[0] = math.Inf(-1)
	for _, comp := range []string{"", "zstd", "lz4", "none"} {
		t.Run("comp="+comp, func(t *testing.T) {
			path := filepath.Join(dir, "m-"+comp+".csrx")
			require.NoError(t, Write(path, m, vec, Options{Compression: comp, ChunkSize: 256, Source: "sample.txt"}))

			s, err := Read(path, lim)
			require.NoError(t, err)
			require.Equal(t, m, s.Matrix)
			require.Equal(t, vec, s.Vector)
			require.Equal(t, 40, s.Meta.N)
			require.Equal(t, 400, s.Meta.NNZ)
			require.Equal(t, "sample.txt", s.Meta.Source)
			if comp == "" {
				require.Equal(t, "zstd", s.Meta.Compression)
			} else {
				require.Equal(t, comp, s.Meta.Compression)
			}
			require.Equal(t, csr.Multiply(m, vec), csr.Multiply(s.Matrix, s.Vector))
		})
	}
}

func TestRoundTripEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csrx")
	m := csr.Build(0, nil)
	require.NoError(t, Write(path, m, []float64{}, Options{}))
	s, err := Read(path, lim)
	require.NoError(t, err)
	require.Equal(t, []int{0}, s.Matrix.RowStart)
	require.Empty(t, s.Matrix.Values)
	require.Empty(t, s.Vector)
}

func TestWriteRejects(t *testing.T) {
	dir := t.TempDir()
	m, vec := sampleMatrix(3, 3, 2)
	require.Error(t, Write(filepath.Join(dir, "a"), m, vec[:2], Options{}))
	require.ErrorIs(t, Write(filepath.Join(dir, "b"), m, vec, Options{Compression: "gzip"}), runerr.ErrUsage)
}

func TestReadLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csrx")
	m, vec := sampleMatrix(10, 20, 3)
	require.NoError(t, Write(path, m, vec, Options{}))

	_, err := Read(path, config.Limits{MaxN: 10, MaxNNZ: 20})
	require.NoError(t, err)
	_, err = Read(path, config.Limits{MaxN: 9, MaxNNZ: 20})
	require.ErrorIs(t, err, runerr.ErrCapacityExceeded)
	_, err = Read(path, config.Limits{MaxN: 10, MaxNNZ: 19})
	require.ErrorIs(t, err, runerr.ErrCapacityExceeded)
}

func TestReadNotContainer(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(text, []byte("1 0\n1\n"), 0o644))
	_, err := Read(text, lim)
	require.ErrorIs(t, err, runerr.ErrInputFormat)

	_, err = Read(filepath.Join(dir, "missing.csrx"), lim)
	require.ErrorIs(t, err, runerr.ErrFileOpen)
}

// corrupt flips one byte inside the stored payload of section t.
func corrupt(t *testing.T, path string, typeID uint32) {
	t.Helper()
	r, err := fileformat.Open(path)
	require.NoError(t, err)
	var off uint64
	for _, e := range r.TOC {
		if e.TypeID == typeID {
			require.NotZero(t, e.Size)
			off = e.Offset + e.Size/2
		}
	}
	require.NoError(t, r.Close())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	b[off] ^= 0x5a
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestChecksumDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csrx")
	m, vec := sampleMatrix(30, 300, 4)
	require.NoError(t, Write(path, m, vec, Options{Compression: "none", ChunkSize: 128}))
	corrupt(t, path, fileformat.TypeValues)

	_, err := Read(path, lim)
	require.ErrorIs(t, err, ErrChecksum)
	require.ErrorIs(t, err, runerr.ErrInputFormat)

	meta, st, err := Verify(path)
	require.NoError(t, err)
	require.Equal(t, 30, meta.N)
	require.Len(t, st, 4)
	for _, s := range st {
		if s.TypeID == fileformat.TypeValues {
			require.False(t, s.OK())
			require.Len(t, s.BadChunks, 1)
		} else {
			require.True(t, s.OK(), s.Name)
		}
	}
}

func TestVerifyClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csrx")
	m, vec := sampleMatrix(8, 16, 5)
	require.NoError(t, Write(path, m, vec, Options{Compression: "lz4"}))
	_, st, err := Verify(path)
	require.NoError(t, err)
	for _, s := range st {
		require.True(t, s.OK(), s.Name)
		require.NotZero(t, s.RawBytes)
	}
}

func TestReadRejectsInvalidCSR(t *testing.T) {
	// checksums are consistent, but the column index is out of range
	path := filepath.Join(t.TempDir(), "bad.csrx")
	m := &csr.Matrix{N: 2, RowStart: []int{0, 1, 1}, ColIndex: []int{7}, Values: []float64{1}}
	require.NoError(t, Write(path, m, []float64{1, 1}, Options{}))
	_, err := Read(path, lim)
	require.ErrorIs(t, err, runerr.ErrInputFormat)
	require.ErrorContains(t, err, "ColIndex")
}

func TestReadRejectsMetaMismatch(t *testing.T) {
	dir := t.TempDir()
	m, vec := sampleMatrix(4, 6, 6)
	src := filepath.Join(dir, "src.csrx")
	require.NoError(t, Write(src, m, vec, Options{Compression: "none"}))

	// rewrite META claiming a different nnz while keeping the payloads
	r, err := fileformat.Open(src)
	require.NoError(t, err)
	mb, err := r.SectionUncompressed(fileformat.TypeMeta)
	require.NoError(t, err)
	var meta Meta
	require.NoError(t, json.Unmarshal(mb, &meta))
	meta.NNZ = 5
	mb, err = json.Marshal(meta)
	require.NoError(t, err)
	w := fileformat.NewWriter()
	w.AddSection(fileformat.TypeMeta, mb, 0)
	for _, t2 := range dataSections {
		b, err := r.SectionUncompressed(t2)
		require.NoError(t, err)
		w.AddSection(t2, b, 0)
	}
	require.NoError(t, r.Close())
	dst := filepath.Join(dir, "dst.csrx")
	require.NoError(t, w.Write(dst))

	_, err = Read(dst, lim)
	require.ErrorIs(t, err, runerr.ErrInputFormat)
	require.ErrorContains(t, err, "COLINDEX")
}

func TestReadStopsOversizedSection(t *testing.T) {
	// META claims n=1 but ROWSTART inflates to 4 MiB of zeros; checksums match
	// the inflated payload so only the size cap can reject it.
	big := make([]byte, 4<<20)
	vec := encodeFloats([]float64{1})
	for _, flags := range []uint32{fileformat.FlagCompZSTD, fileformat.FlagCompLZ4, 0} {
		path := filepath.Join(t.TempDir(), "big.csrx")
		meta := Meta{
			FormatVersion: FormatVersion,
			N:             1,
			Compression:   "zstd",
			ChecksumIndex: map[string]fileformat.ChecksumEntry{
				"2": fileformat.NewChecksumEntry(big, fileformat.DefaultChunkSize),
				"3": fileformat.NewChecksumEntry(nil, fileformat.DefaultChunkSize),
				"4": fileformat.NewChecksumEntry(nil, fileformat.DefaultChunkSize),
				"5": fileformat.NewChecksumEntry(vec, fileformat.DefaultChunkSize),
			},
		}
		mb, err := json.Marshal(meta)
		require.NoError(t, err)
		w := fileformat.NewWriter()
		w.AddSection(fileformat.TypeMeta, mb, 0)
		w.AddSection(fileformat.TypeRowStart, big, flags)
		w.AddSection(fileformat.TypeColIndex, nil, flags)
		w.AddSection(fileformat.TypeValues, nil, flags)
		w.AddSection(fileformat.TypeVector, vec, flags)
		require.NoError(t, w.Write(path))

		_, err = Read(path, lim)
		require.ErrorIs(t, err, runerr.ErrInputFormat)
		require.ErrorIs(t, err, fileformat.ErrSectionTooLarge)
		require.NotErrorIs(t, err, ErrChecksum)

		_, sections, err := Verify(path)
		require.NoError(t, err)
		require.ErrorIs(t, sections[0].Err, fileformat.ErrSectionTooLarge)
	}
}
