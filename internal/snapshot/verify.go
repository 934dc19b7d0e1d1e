package snapshot

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/qrv0/csrmv/internal/fileformat"
	"github.com/qrv0/csrmv/internal/runerr"
)

type SectionStatus struct {
	TypeID      uint32
	Name        string
	StoredBytes int
	RawBytes    int
	Chunks      int
	BadChunks   []int
	Err         error
}

func (s SectionStatus) OK() bool { return s.Err == nil && len(s.BadChunks) == 0 }

// Verify checks every data section of the snapshot at path against the
// checksums in META. It only fails outright when the file or META cannot be
// read; per-section problems are reported in the returned statuses.
func Verify(path string) (*Meta, []SectionStatus, error) {
	r, err := fileformat.Open(path)
	if err != nil {
		if errors.Is(err, fileformat.ErrNotContainer) {
			return nil, nil, fmt.Errorf("%s: %v: %w", path, err, runerr.ErrInputFormat)
		}
		return nil, nil, fmt.Errorf("%v: %w", err, runerr.ErrFileOpen)
	}
	defer r.Close()
	meta, err := readMeta(r)
	if err != nil {
		return nil, nil, err
	}

	want := meta.sectionSizes()
	out := make([]SectionStatus, 0, len(dataSections))
	for _, t := range dataSections {
		st := SectionStatus{TypeID: t, Name: fileformat.SectionName(t)}
		stored, err := r.Section(t)
		if err != nil {
			st.Err = err
			out = append(out, st)
			continue
		}
		st.StoredBytes = len(stored)
		raw, err := r.SectionLimited(t, int64(want[t]))
		if err != nil {
			st.Err = err
			out = append(out, st)
			continue
		}
		st.RawBytes = len(raw)
		e, ok := meta.ChecksumIndex[strconv.Itoa(int(t))]
		if !ok {
			st.Err = fmt.Errorf("missing checksum for section %s", st.Name)
			out = append(out, st)
			continue
		}
		st.Chunks = e.Count
		st.BadChunks, st.Err = e.Mismatch(raw)
		out = append(out, st)
	}
	return meta, out, nil
}
