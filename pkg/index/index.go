// Package index loads frame index files and turns selections into jumps.
//
// An index file is plain text with one record per line. The first
// comma-delimited field is a zero-based frame number, the rest of the
// line is a free-form label:
//
//	12,exit A
//	340,second pass, left lane
package index

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/user/framereview/pkg/playback"
	"github.com/user/framereview/pkg/ports"
)

// DefaultEncoding is the required text encoding unless Options says otherwise.
const DefaultEncoding = "utf-8"

var (
	// ErrUnknownEncoding is returned for encoding names outside the WHATWG registry.
	ErrUnknownEncoding = fmt.Errorf("index: unknown encoding: %w", playback.ErrInvalidInput)
	// ErrNoEntry is returned when selecting an entry that does not exist.
	ErrNoEntry = fmt.Errorf("index: no such entry: %w", playback.ErrInvalidInput)
)

// Entry is one record of an index file.
type Entry struct {
	// Line is the 1-based line number in the source file.
	Line int
	// Frame is the zero-based frame the entry jumps to.
	Frame int
	// Label is the text after the first comma, trimmed.
	Label string
	// Text is the whole trimmed line as shown in a list.
	Text string
}

// LineError describes a line that was skipped while loading.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Report summarizes one load.
type Report struct {
	Loaded  int
	Skipped []LineError
}

// DecodeError reports bytes that are invalid in the expected encoding.
type DecodeError struct {
	Encoding string
	Offset   int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("index: invalid %s text at byte %d", e.Encoding, e.Offset)
}

func (e *DecodeError) Is(target error) bool {
	return target == playback.ErrDecode
}

// Jumper receives jump requests. *playback.Controller satisfies it.
type Jumper interface {
	RequestJump(frame int) error
}

// Options configures a Table.
type Options struct {
	// Encoding is a WHATWG encoding name. Empty means DefaultEncoding.
	Encoding string
}

// Table is an ordered collection of index entries.
// Entries keep file order. Duplicates and unsorted frames are kept as given.
type Table struct {
	encName string
	enc     encoding.Encoding
	entries []Entry
}

// New creates an empty table.
func New(opts Options) (*Table, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Encoding))
	if name == "" {
		name = DefaultEncoding
	}

	t := &Table{encName: name}
	if name != DefaultEncoding && name != "utf8" {
		enc, err := htmlindex.Get(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, opts.Encoding)
		}
		canonical, _ := htmlindex.Name(enc)
		if canonical != DefaultEncoding {
			t.enc = enc
			t.encName = canonical
		}
	}
	return t, nil
}

// Encoding returns the canonical name of the expected encoding.
func (t *Table) Encoding() string {
	return t.encName
}

// Load replaces the table with the records read from r.
// The table is cleared first. If the text cannot be decoded it stays empty.
func (t *Table) Load(r io.Reader) (Report, error) {
	t.entries = nil

	raw, err := io.ReadAll(r)
	if err != nil {
		return Report{}, fmt.Errorf("read index: %w: %w", playback.ErrIO, err)
	}

	text, err := t.decode(raw)
	if err != nil {
		return Report{}, err
	}

	return t.parse(text), nil
}

// LoadFile loads the table from a file. An empty path is a cancelled dialog
// and does nothing. A file that cannot be read leaves the table untouched.
func (t *Table) LoadFile(fs ports.FileSystem, path string) (Report, error) {
	if path == "" {
		return Report{}, nil
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read index %s: %w: %w", path, playback.ErrIO, err)
	}
	return t.Load(bytes.NewReader(data))
}

func (t *Table) decode(raw []byte) ([]byte, error) {
	if t.enc != nil {
		out, _, err := transform.Bytes(t.enc.NewDecoder(), raw)
		if err != nil {
			return nil, &DecodeError{Encoding: t.encName}
		}
		raw = out
	}
	if !utf8.Valid(raw) {
		return nil, &DecodeError{Encoding: t.encName, Offset: invalidOffset(raw)}
	}
	return bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")), nil
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

func (t *Table) parse(text []byte) Report {
	var report Report
	scanner := bufio.NewScanner(bytes.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}

		entry, err := parseLine(line, s)
		if err != nil {
			report.Skipped = append(report.Skipped, LineError{Line: line, Text: s, Err: err})
			continue
		}
		t.entries = append(t.entries, entry)
	}
	if err := scanner.Err(); err != nil {
		report.Skipped = append(report.Skipped, LineError{Line: line + 1, Err: err})
	}

	report.Loaded = len(t.entries)
	return report
}

func parseLine(line int, s string) (Entry, error) {
	field, label, _ := strings.Cut(s, ",")
	frame, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return Entry{}, fmt.Errorf("frame %q: %w", field, err)
	}
	return Entry{
		Line:  line,
		Frame: frame,
		Label: strings.TrimSpace(label),
		Text:  s,
	}, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entry returns the i-th entry in file order.
func (t *Table) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Entries returns a copy of all entries in file order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Select activates the i-th entry and requests a jump to its frame.
// The jumper validates the frame against the opened video.
func (t *Table) Select(i int, j Jumper) (Entry, error) {
	entry, ok := t.Entry(i)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %d of %d", ErrNoEntry, i, len(t.entries))
	}
	if err := j.RequestJump(entry.Frame); err != nil {
		return entry, fmt.Errorf("select entry %d: %w", i, err)
	}
	return entry, nil
}
