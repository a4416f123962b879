package buffer

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer()

	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}

	if b.Len() != 0 {
		t.Errorf("expected length 0, got %d", b.Len())
	}

	if b.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", b.LineCount())
	}
}

func TestNewBufferFromString(t *testing.T) {
	text := "Hello, World!"
	b := NewBufferFromString(text)

	if b.Text() != text {
		t.Errorf("expected %q, got %q", text, b.Text())
	}

	if b.Len() != int64(len(text)) {
		t.Errorf("expected length %d, got %d", len(text), b.Len())
	}
}

func TestNewBufferFromStringMultiline(t *testing.T) {
	text := "line1\nline2\nline3"
	b := NewBufferFromString(text)

	if b.LineCount() != 3 {
		t.Errorf("expected 3 lines, got %d", b.LineCount())
	}

	for i, want := range []string{"line1", "line2", "line3"} {
		if got := b.LineText(uint32(i)); got != want {
			t.Errorf("line %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestNewBufferFromReader(t *testing.T) {
	b, err := NewBufferFromReader(strings.NewReader("one\r\ntwo\rthree"))
	if err != nil {
		t.Fatalf("reader failed: %v", err)
	}

	if b.Text() != "one\ntwo\nthree" {
		t.Errorf("expected normalized text, got %q", b.Text())
	}
}

func TestBufferName(t *testing.T) {
	b := NewBufferFromString("x", WithName("/tmp/file.go"))

	if b.Name() != "/tmp/file.go" {
		t.Errorf("expected name /tmp/file.go, got %q", b.Name())
	}

	b.SetName("/tmp/other.go")
	if b.Name() != "/tmp/other.go" {
		t.Errorf("expected updated name, got %q", b.Name())
	}
}

func TestBufferInsert(t *testing.T) {
	b := NewBufferFromString("Hello World")

	end, err := b.Insert(5, ",")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if end != 6 {
		t.Errorf("expected end position 6, got %d", end)
	}

	if b.Text() != "Hello, World" {
		t.Errorf("expected 'Hello, World', got %q", b.Text())
	}
}

func TestBufferInsertOutOfRange(t *testing.T) {
	b := NewBufferFromString("Hello")

	_, err := b.Insert(100, "X")
	if !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}

	_, err = b.Insert(-1, "X")
	if !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}
}

func TestBufferDelete(t *testing.T) {
	b := NewBufferFromString("Hello, World!")

	if err := b.Delete(5, 7); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if b.Text() != "HelloWorld!" {
		t.Errorf("expected 'HelloWorld!', got %q", b.Text())
	}
}

func TestBufferDeleteInvalidRange(t *testing.T) {
	b := NewBufferFromString("Hello")

	if err := b.Delete(3, 2); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}

	if err := b.Delete(0, 100); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}
}

func TestBufferReplace(t *testing.T) {
	b := NewBufferFromString("foo bar foo")

	end, err := b.Replace(4, 7, "barbaz")
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if end != 10 {
		t.Errorf("expected end position 10, got %d", end)
	}

	if b.Text() != "foo barbaz foo" {
		t.Errorf("expected 'foo barbaz foo', got %q", b.Text())
	}
}

func TestBufferApplyEdit(t *testing.T) {
	b := NewBufferFromString("foo bar foo")

	result, err := b.ApplyEdit(NewEdit(NewRange(4, 7), "barbaz"))
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	if result.OldText != "bar" {
		t.Errorf("expected old text 'bar', got %q", result.OldText)
	}

	if result.NewRange != (Range{Start: 4, End: 10}) {
		t.Errorf("expected new range [4:10), got %s", result.NewRange)
	}

	if result.Delta != 3 {
		t.Errorf("expected delta 3, got %d", result.Delta)
	}
}

func TestBufferApplyEditInvalid(t *testing.T) {
	b := NewBufferFromString("short")

	_, err := b.ApplyEdit(NewEdit(NewRange(2, 99), "x"))
	if !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}
}

func TestBufferTextRange(t *testing.T) {
	b := NewBufferFromString("Hello, World!")

	if got := b.TextRange(7, 12); got != "World" {
		t.Errorf("expected 'World', got %q", got)
	}

	// Out-of-bounds ranges clamp rather than fail.
	if got := b.TextRange(7, 100); got != "World!" {
		t.Errorf("expected 'World!', got %q", got)
	}

	if got := b.TextRange(-5, 5); got != "Hello" {
		t.Errorf("expected 'Hello', got %q", got)
	}
}

func TestBufferLineOffsets(t *testing.T) {
	b := NewBufferFromString("ab\ncde\n\nf")

	tests := []struct {
		line       uint32
		start, end ByteOffset
		text       string
	}{
		{0, 0, 2, "ab"},
		{1, 3, 6, "cde"},
		{2, 7, 7, ""},
		{3, 8, 9, "f"},
	}

	for _, tt := range tests {
		if got := b.LineStartOffset(tt.line); got != tt.start {
			t.Errorf("line %d: expected start %d, got %d", tt.line, tt.start, got)
		}
		if got := b.LineEndOffset(tt.line); got != tt.end {
			t.Errorf("line %d: expected end %d, got %d", tt.line, tt.end, got)
		}
		if got := b.LineText(tt.line); got != tt.text {
			t.Errorf("line %d: expected text %q, got %q", tt.line, tt.text, got)
		}
	}
}

func TestBufferLineAt(t *testing.T) {
	b := NewBufferFromString("ab\ncde")

	text, start := b.LineAt(1)
	if text != "cde" || start != 3 {
		t.Errorf("expected (cde, 3), got (%q, %d)", text, start)
	}
}

func TestBufferOffsetToPoint(t *testing.T) {
	b := NewBufferFromString("ab\ncde\nf")

	tests := []struct {
		offset ByteOffset
		want   Point
	}{
		{0, Point{0, 0}},
		{2, Point{0, 2}},
		{3, Point{1, 0}},
		{5, Point{1, 2}},
		{7, Point{2, 0}},
		{8, Point{2, 1}},
	}

	for _, tt := range tests {
		if got := b.OffsetToPoint(tt.offset); got != tt.want {
			t.Errorf("offset %d: expected %s, got %s", tt.offset, tt.want, got)
		}
	}
}

func TestBufferPointToOffset(t *testing.T) {
	b := NewBufferFromString("ab\ncde\nf")

	tests := []struct {
		point Point
		want  ByteOffset
	}{
		{Point{0, 0}, 0},
		{Point{1, 2}, 5},
		{Point{2, 0}, 7},
		{Point{1, 99}, 6}, // clamps to line end
	}

	for _, tt := range tests {
		if got := b.PointToOffset(tt.point); got != tt.want {
			t.Errorf("point %s: expected %d, got %d", tt.point, tt.want, got)
		}
	}
}

func TestBufferRevisionChanges(t *testing.T) {
	b := NewBufferFromString("abc")
	r1 := b.RevisionID()

	if _, err := b.Insert(0, "x"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if b.RevisionID() == r1 {
		t.Error("revision should change after edit")
	}
}

func TestBufferConcurrentAccess(t *testing.T) {
	b := NewBufferFromString("start\n")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = b.Insert(0, "x")
				_ = b.Text()
				_ = b.LineCount()
				_ = b.OffsetToPoint(b.Len())
			}
		}()
	}
	wg.Wait()

	if b.Len() != int64(len("start\n")+8*50) {
		t.Errorf("unexpected final length %d", b.Len())
	}
}

func TestRangeOperations(t *testing.T) {
	a := NewRange(2, 6)

	if !a.Overlaps(NewRange(5, 9)) {
		t.Error("[2:6) should overlap [5:9)")
	}
	if a.Overlaps(NewRange(6, 9)) {
		t.Error("[2:6) should not overlap [6:9)")
	}
	if !a.Touches(NewRange(6, 9)) {
		t.Error("[2:6) should touch [6:9)")
	}
	if got := a.Union(NewRange(5, 9)); got != NewRange(2, 9) {
		t.Errorf("expected union [2:9), got %s", got)
	}
	if got := a.Pad(1); got != NewRange(1, 7) {
		t.Errorf("expected padded [1:7), got %s", got)
	}
	if got := a.Pad(3).Clamp(5); got != NewRange(0, 5) {
		t.Errorf("expected clamped [0:5), got %s", got)
	}
}
