package orchestration

import (
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textStream accumulates a streamed response and cuts it into statements.
//
// Chunks are raw bytes; a multi-byte character split across chunks is held
// back until it is complete. After Finish or Fail the stream ignores further
// input.
type textStream struct {
	mu sync.Mutex

	decoder   transform.Transformer
	undecoded []byte
	text      strings.Builder
	consumed  int
	closed    bool

	onText      func(string)
	onStatement func(Statement)
}

func newTextStream(onText func(string), onStatement func(Statement)) *textStream {
	return &textStream{
		decoder:     unicode.UTF8.NewDecoder(),
		onText:      onText,
		onStatement: onStatement,
	}
}

// Feed appends a chunk and emits every statement it completes.
func (s *textStream) Feed(chunk []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	decoded := s.decode(chunk, false)
	if decoded == "" {
		s.mu.Unlock()
		return
	}
	s.text.WriteString(decoded)
	text := s.text.String()
	statements, consumed := splitStatements(text, s.consumed)
	s.consumed = consumed
	s.mu.Unlock()

	s.emit(text, statements)
}

// Finish flushes the undecoded bytes and emits the tail as a final statement
// when it has speakable content.
func (s *textStream) Finish() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true

	decoded := s.decode(nil, true)
	s.text.WriteString(decoded)
	text := s.text.String()
	statements, consumed := splitStatements(text, s.consumed)
	if tail := text[consumed:]; hasSpeakableContent(tail) {
		statements = append(statements, Statement{Raw: tail})
		consumed = len(text)
	}
	s.consumed = consumed
	s.mu.Unlock()

	if decoded == "" {
		text = ""
	}
	s.emit(text, statements)
}

// Fail closes the stream and discards the unterminated tail.
func (s *textStream) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.undecoded = nil
	logger.Debug("text stream failed", "error", err, "discarded", s.text.Len()-s.consumed)
}

// Text returns the accumulated response.
func (s *textStream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

func (s *textStream) emit(text string, statements []Statement) {
	if text != "" && s.onText != nil {
		s.onText(text)
	}
	if s.onStatement == nil {
		return
	}
	for _, statement := range statements {
		s.onStatement(statement)
	}
}

func (s *textStream) decode(chunk []byte, atEOF bool) string {
	src := append(s.undecoded, chunk...)
	if len(src) == 0 {
		return ""
	}

	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	nDst, nSrc, err := s.decoder.Transform(dst, src, atEOF)
	if err != nil && !errors.Is(err, transform.ErrShortSrc) {
		logger.Debug("failed to decode response chunk", "error", err)
	}
	s.undecoded = append([]byte(nil), src[nSrc:]...)
	return string(dst[:nDst])
}
