package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qrv0/csrmv/internal/config"
	"github.com/qrv0/csrmv/internal/csr"
	"github.com/qrv0/csrmv/internal/fileformat"
	"github.com/qrv0/csrmv/internal/runerr"
	"github.com/qrv0/csrmv/internal/snapshot"
)

const input = `3 5
0 0 1.5
2 1 -2
0 2 4
1 1 3
1 2 3
1
0.5
-1
`

func packed(t *testing.T, comp string) string {
	t.Helper()
	t.Setenv(config.EnvMaxN, "")
	t.Setenv(config.EnvMaxNNZ, "")
	dir := t.TempDir()
	in := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(in, []byte(input), 0o644))
	out := filepath.Join(dir, "a.csrx")
	var buf bytes.Buffer
	require.NoError(t, cmdPack([]string{"--in", in, "--out", out, "--comp", comp, "--chunk", "8"}, &buf))
	require.Contains(t, buf.String(), "(n=3 nnz=5)")
	return out
}

func TestPackVerifyInspect(t *testing.T) {
	for _, comp := range []string{"zstd", "lz4", "none"} {
		t.Run(comp, func(t *testing.T) {
			path := packed(t, comp)

			var buf bytes.Buffer
			require.NoError(t, cmdVerify([]string{"--in", path}, &buf))
			require.Equal(t, "checksum verify: OK\n", buf.String())

			s, err := snapshot.Read(path, config.Default().Limits)
			require.NoError(t, err)
			require.Equal(t, []int{0, 2, 4, 5}, s.Matrix.RowStart)
			require.Equal(t, []int{0, 2, 1, 2, 1}, s.Matrix.ColIndex)
			require.Equal(t, []float64{1, 0.5, -1}, s.Vector)
			require.Equal(t, []float64{-2.5, -1.5, -1}, csr.Multiply(s.Matrix, s.Vector))

			buf.Reset()
			require.NoError(t, cmdInspect([]string{path}, &buf))
			out := buf.String()
			require.Contains(t, out, `"n": 3`)
			require.Contains(t, out, "ROWSTART")
			require.Contains(t, out, "A =\n")
			require.Contains(t, out, "x =\n")
		})
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	path := packed(t, "none")
	r, err := fileformat.Open(path)
	require.NoError(t, err)
	var off uint64
	for _, e := range r.TOC {
		if e.TypeID == fileformat.TypeValues {
			off = e.Offset + 1
		}
	}
	require.NoError(t, r.Close())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	b[off] ^= 0xff
	require.NoError(t, os.WriteFile(path, b, 0o644))

	var buf bytes.Buffer
	err = cmdVerify([]string{"--in", path}, &buf)
	require.ErrorIs(t, err, errVerifyFailed)
	require.Contains(t, buf.String(), "section VALUES: chunk 0 mismatch")

	_, err = snapshot.Read(path, config.Default().Limits)
	require.ErrorIs(t, err, snapshot.ErrChecksum)
}

func TestUsageErrors(t *testing.T) {
	var buf bytes.Buffer
	require.ErrorIs(t, cmdPack(nil, &buf), runerr.ErrUsage)
	require.ErrorIs(t, cmdPack([]string{"--bogus"}, &buf), runerr.ErrUsage)
	require.ErrorIs(t, cmdVerify(nil, &buf), runerr.ErrUsage)
	require.ErrorIs(t, cmdInspect(nil, &buf), runerr.ErrUsage)
	require.ErrorIs(t, cmdPull(nil, &buf), runerr.ErrUsage)
	require.ErrorIs(t, cmdPull([]string{"not a url"}, &buf), runerr.ErrUsage)
}

func TestPackMissingInput(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	err := cmdPack([]string{"--in", filepath.Join(dir, "missing.txt"), "--out", filepath.Join(dir, "x.csrx")}, &buf)
	require.ErrorIs(t, err, runerr.ErrFileOpen)
}

func TestPull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(input))
	}))
	defer srv.Close()

	dir := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, cmdPull([]string{"--dir", dir, srv.URL + "/inputs/m.txt"}, &buf))
	got, err := os.ReadFile(filepath.Join(dir, "m.txt"))
	require.NoError(t, err)
	require.Equal(t, input, string(got))
	require.Contains(t, buf.String(), "Downloaded: ")
}

// captureStderr returns what fn writes to os.Stderr.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "stderr")
	require.NoError(t, err)
	defer f.Close()
	old := os.Stderr
	os.Stderr = f
	defer func() { os.Stderr = old }()
	fn()
	b, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return string(b)
}

func TestFlagErrorsLeaveUsageToMain(t *testing.T) {
	var buf bytes.Buffer
	out := captureStderr(t, func() {
		require.ErrorIs(t, cmdPack([]string{"--bogus"}, &buf), runerr.ErrUsage)
		require.ErrorIs(t, cmdVerify([]string{"-h"}, &buf), runerr.ErrUsage)
		require.ErrorIs(t, cmdPull([]string{"--dir"}, &buf), runerr.ErrUsage)
	})
	require.Empty(t, out)
	require.Empty(t, buf.String())
}
