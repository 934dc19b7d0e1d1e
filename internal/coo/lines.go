package coo

import (
	"bufio"
	"io"
	"strings"
)

const maxLineBytes = 16 << 20

// LineReader yields the data lines of a text input: blank lines and lines
// starting with '#' are skipped, inline "# ..." fragments are dropped and the
// remainder is trimmed.
type LineReader struct {
	sc   *bufio.Scanner
	line int
}

func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	return &LineReader{sc: sc}
}

// Next returns the next data line, or false at end of input or on a read error.
func (lr *LineReader) Next() (string, bool) {
	for lr.sc.Scan() {
		lr.line++
		s := lr.sc.Text()
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		return s, true
	}
	return "", false
}

// Line is the 1-based physical line number of the last line returned by Next.
func (lr *LineReader) Line() int { return lr.line }

// Err reports the first non-EOF read error.
func (lr *LineReader) Err() error { return lr.sc.Err() }
