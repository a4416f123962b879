package buffer

import (
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// Buffer holds the text of one document plus a line-start index.
// It provides the primary interface for text access and manipulation.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	lineStarts []ByteOffset
	revisionID RevisionID
	name       string
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		revisionID: NewRevisionID(),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.lineStarts = computeLineStarts(b.text)
	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.text = normalizeLineEndings(s)
	b.lineStarts = computeLineStarts(b.text)
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

// normalizeLineEndings converts CRLF and CR line endings to LF.
func normalizeLineEndings(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// computeLineStarts returns the byte offset of the start of every line.
// An empty buffer has a single line starting at offset 0.
func computeLineStarts(s string) []ByteOffset {
	starts := make([]ByteOffset, 1, 16)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			starts = append(starts, ByteOffset(i+1))
		}
	}
	return starts
}

// Read Operations

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// TextRange returns text in the given byte range.
// The range is clamped to the buffer bounds.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r := Range{Start: start, End: end}.Clamp(ByteOffset(len(b.text)))
	return b.text[r.Start:r.End]
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(len(b.lineStarts))
}

// LineText returns the text of a specific line (without newline).
func (b *Buffer) LineText(line uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start, end := b.lineBounds(line)
	return b.text[start:end]
}

// LineAt returns the text of a line together with its start offset.
func (b *Buffer) LineAt(line uint32) (string, ByteOffset) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start, end := b.lineBounds(line)
	return b.text[start:end], start
}

// LineStartOffset returns the byte offset of the start of a line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start, _ := b.lineBounds(line)
	return start
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, end := b.lineBounds(line)
	return end
}

// lineBounds returns the [start, end) offsets of a line, excluding the
// trailing newline. Lines past the end clamp to the final line.
// Caller must hold at least a read lock.
func (b *Buffer) lineBounds(line uint32) (ByteOffset, ByteOffset) {
	if int(line) >= len(b.lineStarts) {
		line = uint32(len(b.lineStarts) - 1)
	}
	start := b.lineStarts[line]
	end := ByteOffset(len(b.text))
	if int(line)+1 < len(b.lineStarts) {
		end = b.lineStarts[line+1] - 1
	}
	return start, end
}

// Coordinate Conversion

// OffsetToPoint converts a byte offset to line/column.
// Offsets outside the buffer clamp to the nearest valid position.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset > ByteOffset(len(b.text)) {
		offset = ByteOffset(len(b.text))
	}

	// First line whose start is beyond the offset, minus one.
	line := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	}) - 1

	return Point{
		Line:   uint32(line),
		Column: uint32(offset - b.lineStarts[line]),
	}
}

// PointToOffset converts line/column to byte offset.
// Points outside the buffer clamp to the nearest valid offset.
func (b *Buffer) PointToOffset(point Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	line := point.Line
	if int(line) >= len(b.lineStarts) {
		line = uint32(len(b.lineStarts) - 1)
	}
	start := b.lineStarts[line]
	end := ByteOffset(len(b.text))
	if int(line)+1 < len(b.lineStarts) {
		end = b.lineStarts[line+1] - 1
	}

	offset := start + ByteOffset(point.Column)
	if offset > end {
		offset = end
	}
	return offset
}

// LineForOffset returns the line number containing the given offset.
func (b *Buffer) LineForOffset(offset ByteOffset) uint32 {
	return b.OffsetToPoint(offset).Line
}

// Write Operations

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if offset < 0 || offset > ByteOffset(len(b.text)) {
		return 0, ErrOffsetOutOfRange
	}

	text = normalizeLineEndings(text)
	b.replace(offset, offset, text)

	return offset + ByteOffset(len(text)), nil
}

// Delete removes text in the given range.
func (b *Buffer) Delete(start, end ByteOffset) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > ByteOffset(len(b.text)) {
		return ErrRangeInvalid
	}

	b.replace(start, end, "")
	return nil
}

// Replace replaces text in the given range with new text.
// Returns the end position of the replacement text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if start < 0 || start > end || end > ByteOffset(len(b.text)) {
		return 0, ErrRangeInvalid
	}

	text = normalizeLineEndings(text)
	b.replace(start, end, text)

	return start + ByteOffset(len(text)), nil
}

// ApplyEdit applies a single edit to the buffer.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if edit.Range.Start < 0 || edit.Range.Start > edit.Range.End ||
		edit.Range.End > ByteOffset(len(b.text)) {
		return EditResult{}, ErrRangeInvalid
	}

	oldText := b.text[edit.Range.Start:edit.Range.End]
	text := normalizeLineEndings(edit.NewText)
	b.replace(edit.Range.Start, edit.Range.End, text)

	newEnd := edit.Range.Start + ByteOffset(len(text))

	return EditResult{
		OldRange: edit.Range,
		NewRange: Range{Start: edit.Range.Start, End: newEnd},
		OldText:  oldText,
		Delta:    int64(len(text)) - int64(edit.Range.Len()),
	}, nil
}

// replace performs the splice and refreshes the line index and revision.
// Caller must hold the write lock and have validated the range.
func (b *Buffer) replace(start, end ByteOffset, text string) {
	b.text = b.text[:start] + text + b.text[end:]
	b.lineStarts = computeLineStarts(b.text)
	b.revisionID = NewRevisionID()
}

// Buffer State

// RevisionID returns the current revision ID.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revisionID
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text) == 0
}

// Name returns the buffer's name. For file-backed buffers this is the
// filesystem path; it is what filename filters are evaluated against.
func (b *Buffer) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

// SetName sets the buffer's name.
func (b *Buffer) SetName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
}
