// Package report appends run results to the results and timing logs and
// echoes them to the console.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/qrv0/csrmv/internal/runerr"
)

const (
	ResultsFile = "results.txt"
	TimingFile  = "time.txt"
	separator   = "-------------------------------------------------"
)

// Logs holds the two append-only logs of a run. Concurrent runs sharing a
// directory are not serialized.
type Logs struct {
	results *os.File
	timing  *os.File
}

// Open creates dir if needed and opens both logs for appending.
func Open(dir string) (*Logs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%v: %w", err, runerr.ErrFileOpen)
	}
	results, err := openAppend(filepath.Join(dir, ResultsFile))
	if err != nil {
		return nil, err
	}
	timing, err := openAppend(filepath.Join(dir, TimingFile))
	if err != nil {
		results.Close()
		return nil, err
	}
	return &Logs{results: results, timing: timing}, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, runerr.ErrFileOpen)
	}
	return f, nil
}

func (l *Logs) Close() error {
	err := l.results.Close()
	if terr := l.timing.Close(); err == nil {
		err = terr
	}
	return err
}

// Write appends one run to both logs and echoes it to console.
func (l *Logs) Write(console io.Writer, name string, result []float64, elapsed time.Duration) error {
	if err := WriteResults(l.results, name, result); err != nil {
		return err
	}
	if err := WriteTiming(l.timing, name, elapsed); err != nil {
		return err
	}
	return WriteConsole(console, name, result, elapsed)
}

func writeBlock(w *bufio.Writer, name string, result []float64) {
	fmt.Fprintf(w, "Test: %s\n\n", name)
	fmt.Fprintf(w, "Result of A * vector:\n")
	for i, v := range result {
		fmt.Fprintf(w, "result[%d] = %f\n", i, v)
	}
}

func WriteResults(w io.Writer, name string, result []float64) error {
	bw := bufio.NewWriter(w)
	writeBlock(bw, name, result)
	fmt.Fprintf(bw, "\n%s\n\n", separator)
	return bw.Flush()
}

func WriteTiming(w io.Writer, name string, elapsed time.Duration) error {
	_, err := fmt.Fprintf(w, "Test: %s\nMultiplication completed in %f seconds.\n\n", name, elapsed.Seconds())
	return err
}

func WriteConsole(w io.Writer, name string, result []float64, elapsed time.Duration) error {
	bw := bufio.NewWriter(w)
	writeBlock(bw, name, result)
	fmt.Fprintf(bw, "\nMultiplication completed in %f seconds.\n", elapsed.Seconds())
	return bw.Flush()
}
