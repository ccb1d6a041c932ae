package core

// streaming.go cleans import payloads on the fly:
//
//   - BOMSkippingReader: drops the UTF-8 BOM (0xEF 0xBB 0xBF) Excel puts in front of CSV exports
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//
// Use WrapForImport to apply both in the right order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips a leading UTF-8 BOM.
type BOMSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		if b, err := r.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
			_, _ = r.br.Discard(len(utf8BOM))
		}
	}
	return r.br.Read(p)
}

// UTF8Sanitizer wraps an io.Reader and replaces each invalid UTF-8 byte with
// '?'. Multi-byte sequences split across reads are carried over, so memory
// stays at one read buffer plus at most three pending bytes.
type UTF8Sanitizer struct {
	r       io.Reader
	pending []byte
	err     error
}

// NewUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		if s.err != nil && len(s.pending) == 0 {
			return 0, s.err
		}

		n := copy(p, s.pending)
		s.pending = append(s.pending[:0], s.pending[n:]...)
		if s.err == nil && len(s.pending) == 0 && n < len(p) {
			m, err := s.r.Read(p[n:])
			n += m
			s.err = err
		}

		w := s.sanitize(p, n, s.err != nil)
		if w > 0 {
			return w, nil
		}
	}
}

// sanitize rewrites p[:n] in place and returns the number of clean bytes.
// Unless atEOF, an incomplete trailing sequence moves to s.pending.
func (s *UTF8Sanitizer) sanitize(p []byte, n int, atEOF bool) int {
	w := 0
	for i := 0; i < n; {
		if p[i] < utf8.RuneSelf {
			p[w] = p[i]
			w++
			i++
			continue
		}

		r, size := utf8.DecodeRune(p[i:n])
		if r == utf8.RuneError && size == 1 {
			// Sequence cut by the read boundary: finish it next time, unless
			// it already fills the caller's buffer.
			if !atEOF && !utf8.FullRune(p[i:n]) && (w > 0 || n < len(p)) {
				s.pending = append(append(make([]byte, 0, utf8.UTFMax), p[i:n]...), s.pending...)
				return w
			}
			p[w] = '?'
			w++
			i++
			continue
		}

		copy(p[w:], p[i:i+size])
		w += size
		i += size
	}
	return w
}

// WrapForImport strips the BOM, then sanitizes UTF-8.
func WrapForImport(r io.Reader) io.Reader {
	return NewUTF8Sanitizer(NewBOMSkippingReader(r))
}
