// Package fileformat implements the CSRX section container: a magic, a table
// of contents and 4096-aligned sections, each optionally compressed with zstd
// or lz4.
package fileformat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	lz4 "github.com/pierrec/lz4/v4"
)

var magic = [8]byte{'C', 'S', 'R', 'X', 0, 0, 0, 0}

const Version = 1

const (
	TypeMeta     = 1
	TypeRowStart = 2
	TypeColIndex = 3
	TypeValues   = 4
	TypeVector   = 5
)

const (
	FlagCompZSTD uint32 = 1 << 0
	FlagCompLZ4  uint32 = 1 << 1
)

const sectionAlign = 4096

// ErrNotContainer is returned by Open for files without the CSRX magic.
var ErrNotContainer = errors.New("fileformat: not a CSRX file")

// ErrSectionTooLarge is returned by SectionLimited when a payload decodes to
// more bytes than allowed.
var ErrSectionTooLarge = errors.New("fileformat: section too large")

type section struct {
	TypeID uint32
	Data   []byte
	Flags  uint32
}

type Writer struct {
	sections []section
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) AddSection(t uint32, data []byte, flags uint32) {
	w.sections = append(w.sections, section{t, data, flags})
}

// compress encodes b with the codec selected by flags.
func compress(flags uint32, b []byte) ([]byte, error) {
	switch {
	case flags&FlagCompZSTD != 0:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
	case flags&FlagCompLZ4 != 0:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(b); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return b, nil
}

// decompress undoes compress. A negative limit means unbounded; otherwise
// decoding stops with ErrSectionTooLarge once more than limit bytes come out.
func decompress(flags uint32, b []byte, limit int64) ([]byte, error) {
	var src io.Reader
	switch {
	case flags&FlagCompZSTD != 0:
		opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if limit >= 0 {
			// zstd windows are at least 1 KiB, so small limits still need headroom
			opts = append(opts, zstd.WithDecoderMaxMemory(uint64(max(limit+1, 1<<20))))
		}
		dec, err := zstd.NewReader(bytes.NewReader(b), opts...)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		src = dec
	case flags&FlagCompLZ4 != 0:
		src = lz4.NewReader(bytes.NewReader(b))
	default:
		if limit >= 0 && int64(len(b)) > limit {
			return nil, fmt.Errorf("%d bytes, limit %d: %w", len(b), limit, ErrSectionTooLarge)
		}
		return b, nil
	}

	var out bytes.Buffer
	if limit < 0 {
		if _, err := io.Copy(&out, src); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	}
	n, err := io.Copy(&out, io.LimitReader(src, limit+1))
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) || n > limit {
		return nil, fmt.Errorf("decodes past limit %d: %w", limit, ErrSectionTooLarge)
	}
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// align rounds x up to the section alignment.
func align(x int64) int64 {
	return (x + sectionAlign - 1) &^ (sectionAlign - 1)
}

type header struct{ Ver, Num, Res uint32 }

type tocEntry struct {
	TypeID uint32
	Offset uint64
	Size   uint64
	Flags  uint32
}

const tocEntrySize = 4 + 8 + 8 + 4

func (w *Writer) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := w.writeTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) writeTo(f *os.File) error {
	payloads := make([][]byte, len(w.sections))
	for i, s := range w.sections {
		data, err := compress(s.Flags, s.Data)
		if err != nil {
			return fmt.Errorf("section %d: %w", s.TypeID, err)
		}
		payloads[i] = data
	}

	if _, err := f.Write(magic[:]); err != nil {
		return err
	}
	hdr := header{Ver: Version, Num: uint32(len(w.sections))}
	if err := binary.Write(f, binary.LittleEndian, &hdr); err != nil {
		return err
	}

	toc := make([]tocEntry, len(w.sections))
	base := int64(len(magic) + 12 + tocEntrySize*len(w.sections))
	offset := align(base)
	for i, s := range w.sections {
		toc[i] = tocEntry{TypeID: s.TypeID, Offset: uint64(offset), Size: uint64(len(payloads[i])), Flags: s.Flags}
		offset = align(offset + int64(len(payloads[i])))
	}
	for i := range toc {
		if err := binary.Write(f, binary.LittleEndian, &toc[i]); err != nil {
			return err
		}
	}
	for i := range toc {
		if _, err := f.WriteAt(payloads[i], int64(toc[i].Offset)); err != nil {
			return err
		}
	}
	// pad to the aligned end so empty trailing sections stay inside the file
	return f.Truncate(offset)
}

type Reader struct {
	f   *os.File
	Ver uint32
	TOC []tocEntry
}

// IsContainer reports whether the file at path starts with the CSRX magic.
func IsContainer(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, magic[:]), nil
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := readTOC(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func readTOC(f *os.File) (*Reader, error) {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(f, head); err != nil {
		return nil, ErrNotContainer
	}
	if !bytes.Equal(head, magic[:]) {
		return nil, ErrNotContainer
	}
	var hdr header
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("fileformat: header: %w", err)
	}
	if hdr.Ver != Version {
		return nil, fmt.Errorf("fileformat: unsupported version %d", hdr.Ver)
	}
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if int64(hdr.Num)*tocEntrySize > st.Size() {
		return nil, fmt.Errorf("fileformat: table of contents with %d entries exceeds file size", hdr.Num)
	}
	toc := make([]tocEntry, hdr.Num)
	for i := range toc {
		if err := binary.Read(f, binary.LittleEndian, &toc[i]); err != nil {
			return nil, fmt.Errorf("fileformat: toc entry %d: %w", i, err)
		}
		if toc[i].Offset+toc[i].Size > uint64(st.Size()) || toc[i].Offset+toc[i].Size < toc[i].Offset {
			return nil, fmt.Errorf("fileformat: section %d extends past end of file", toc[i].TypeID)
		}
	}
	return &Reader{f: f, Ver: hdr.Ver, TOC: toc}, nil
}

func (r *Reader) Close() error { return r.f.Close() }

func (r *Reader) entry(typeID uint32) (tocEntry, bool) {
	for _, e := range r.TOC {
		if e.TypeID == typeID {
			return e, true
		}
	}
	return tocEntry{}, false
}

// Section returns the stored, possibly compressed, payload of a section.
func (r *Reader) Section(typeID uint32) ([]byte, error) {
	e, ok := r.entry(typeID)
	if !ok {
		return nil, fmt.Errorf("section %d not found", typeID)
	}
	buf := make([]byte, e.Size)
	if _, err := r.f.ReadAt(buf, int64(e.Offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// SectionUncompressed returns the payload of a section after undoing its compression.
func (r *Reader) SectionUncompressed(typeID uint32) ([]byte, error) {
	return r.SectionLimited(typeID, -1)
}

// SectionLimited is SectionUncompressed with a cap on the decoded size.
// Uncompressed sections over the cap are rejected before they are read.
func (r *Reader) SectionLimited(typeID uint32, limit int64) ([]byte, error) {
	e, ok := r.entry(typeID)
	if !ok {
		return nil, fmt.Errorf("section %d not found", typeID)
	}
	if limit >= 0 && e.Flags&(FlagCompZSTD|FlagCompLZ4) == 0 && e.Size > uint64(limit) {
		return nil, fmt.Errorf("section %d: %d bytes, limit %d: %w", typeID, e.Size, limit, ErrSectionTooLarge)
	}
	buf, err := r.Section(typeID)
	if err != nil {
		return nil, err
	}
	out, err := decompress(e.Flags, buf, limit)
	if err != nil {
		return nil, fmt.Errorf("section %d: %w", typeID, err)
	}
	return out, nil
}

func SectionName(typeID uint32) string {
	switch typeID {
	case TypeMeta:
		return "META"
	case TypeRowStart:
		return "ROWSTART"
	case TypeColIndex:
		return "COLINDEX"
	case TypeValues:
		return "VALUES"
	case TypeVector:
		return "VECTOR"
	}
	return fmt.Sprintf("TYPE%d", typeID)
}
