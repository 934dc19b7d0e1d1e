package coo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineReaderSkipsComments(t *testing.T) {
	in := "# header comment\n" +
		"\n" +
		"   \t \n" +
		"2 3   # n and nnz\n" +
		"   # indented comment\n" +
		"0 0 1.5\r\n" +
		"#\n" +
		"1 1 2   \n" +
		"   # only a comment after spaces\n" +
		"  7  #\n"
	lr := NewLineReader(strings.NewReader(in))

	var got []string
	var lines []int
	for {
		s, ok := lr.Next()
		if !ok {
			break
		}
		got = append(got, s)
		lines = append(lines, lr.Line())
	}
	require.NoError(t, lr.Err())
	require.Equal(t, []string{"2 3", "0 0 1.5", "1 1 2", "7"}, got)
	require.Equal(t, []int{4, 6, 8, 10}, lines)
}

func TestLineReaderEmpty(t *testing.T) {
	lr := NewLineReader(strings.NewReader(""))
	_, ok := lr.Next()
	require.False(t, ok)
	require.NoError(t, lr.Err())
}

func TestLineReaderLongLine(t *testing.T) {
	long := strings.Repeat("1 ", 100_000) + "# tail"
	lr := NewLineReader(strings.NewReader(long + "\n"))
	s, ok := lr.Next()
	require.True(t, ok)
	require.Len(t, s, 2*100_000-1)
}
