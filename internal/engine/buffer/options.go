package buffer

// Option configures a Buffer during construction.
type Option func(*Buffer)

// WithName sets the buffer's name (typically its filesystem path).
func WithName(name string) Option {
	return func(b *Buffer) {
		b.name = name
	}
}

// WithText sets the buffer's initial content.
// The text is normalized to LF line endings.
func WithText(text string) Option {
	return func(b *Buffer) {
		b.text = normalizeLineEndings(text)
	}
}
