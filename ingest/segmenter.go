package ingest

import (
	"sort"
	"strings"
	"unicode"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// boundaryZone is how far back from the window end Segment looks for a
// sentence boundary, in bytes.
const boundaryZone = 100

// Segmenter splits document text into fixed-width overlapping chunks whose
// StartPos/EndPos are byte offsets into the original text. It prefers to cut
// at a sentence boundary near the window end, falls back to a word boundary,
// and only cuts mid-word when the window holds a single unbroken token.
//
// Segmenter is stateless after construction and safe for concurrent use.
type Segmenter struct {
	chunkSize int
	overlap   int
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithChunkSize sets the window width in bytes.
func WithChunkSize(n int) SegmenterOption {
	return func(s *Segmenter) {
		s.chunkSize = n
	}
}

// WithOverlapSize sets how many bytes consecutive chunks share.
func WithOverlapSize(n int) SegmenterOption {
	return func(s *Segmenter) {
		s.overlap = n
	}
}

// WithConfig applies both sizes from a ChunkingConfig.
func WithConfig(cfg rag.ChunkingConfig) SegmenterOption {
	return func(s *Segmenter) {
		s.chunkSize = cfg.ChunkSize
		s.overlap = cfg.OverlapSize
	}
}

// NewSegmenter returns a Segmenter using the default chunking configuration
// unless overridden by options. Options are applied as given; callers that
// need validation should check their ChunkingConfig first.
func NewSegmenter(opts ...SegmenterOption) *Segmenter {
	def := rag.DefaultChunkingConfig()
	s := &Segmenter{
		chunkSize: def.ChunkSize,
		overlap:   def.OverlapSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config reports the sizes the Segmenter was built with.
func (s *Segmenter) Config() rag.ChunkingConfig {
	return rag.ChunkingConfig{ChunkSize: s.chunkSize, OverlapSize: s.overlap}
}

// Segment splits text into chunks for the named document. Chunk IDs are
// dense per document: the Nth emitted chunk gets index N-1 regardless of how
// many windows were skipped as whitespace. Chunk text is trimmed of
// surrounding whitespace but positions always refer to the untrimmed window,
// so text[StartPos:EndPos] contains each chunk's text.
//
// Segment always terminates: the window start strictly advances every
// iteration, even on pathological input or a degenerate configuration.
func (s *Segmenter) Segment(text, document string) []rag.Chunk {
	size := s.chunkSize
	if size < 1 {
		size = 1
	}

	var chunks []rag.Chunk
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			// Remainder fits in one window.
			tail := strings.TrimSpace(text[start:])
			if tail != "" {
				chunks = append(chunks, rag.Chunk{
					ID:       rag.ChunkID(document, len(chunks)),
					Document: document,
					Text:     tail,
					StartPos: start,
					EndPos:   len(text),
					Size:     len(tail),
				})
			}
			break
		}

		window := text[start:end]
		actualEnd := end
		if cut := lastSentenceCut(window); cut > 0 {
			actualEnd = start + cut
		} else if cut := dropLastWord(window); cut > 0 {
			actualEnd = start + cut
		}

		body := strings.TrimSpace(text[start:actualEnd])
		if body != "" {
			chunks = append(chunks, rag.Chunk{
				ID:       rag.ChunkID(document, len(chunks)),
				Document: document,
				Text:     body,
				StartPos: start,
				EndPos:   actualEnd,
				Size:     len(body),
			})
		}

		next := actualEnd - s.overlap
		if n := len(chunks); n > 0 && next <= chunks[n-1].StartPos {
			next = actualEnd
		}
		if next <= start {
			next = actualEnd
		}
		start = next
	}
	return chunks
}

// SegmentAll segments every document in texts and collects the results into
// a Corpus. Documents are processed in sorted key order so chunk ordering is
// deterministic regardless of map iteration.
func (s *Segmenter) SegmentAll(texts map[string]string) *rag.Corpus {
	corpus := rag.NewCorpus(s.Config())
	docs := make([]string, 0, len(texts))
	for doc := range texts {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	for _, doc := range docs {
		corpus.SetDocument(doc, s.Segment(texts[doc], doc))
	}
	corpus.Flatten()
	return corpus
}

// lastSentenceCut returns the offset just past the last sentence boundary in
// the final boundaryZone bytes of window, or 0 when none exists. A boundary
// is a '.', '!' or '?' followed by at least one whitespace byte; the returned
// offset sits after the entire whitespace run, so the next window starts on
// the following sentence rather than on its leading spaces.
func lastSentenceCut(window string) int {
	searchStart := len(window) - boundaryZone
	if searchStart < 0 {
		searchStart = 0
	}
	zone := window[searchStart:]
	best := -1
	for i := 0; i < len(zone); i++ {
		if !isTerminator(zone[i]) {
			continue
		}
		j := i + 1
		for j < len(zone) && isSpaceByte(zone[j]) {
			j++
		}
		if j > i+1 {
			best = j
			i = j - 1
		}
	}
	if best < 0 {
		return 0
	}
	return searchStart + best
}

// dropLastWord returns the offset at which window can be cut to drop its
// final, likely truncated word, or 0 when the window holds at most one word.
// The cut lands where the dropped word's preceding text ends in the window,
// keeping positions aligned with the source text.
func dropLastWord(window string) int {
	trimmed := strings.TrimRightFunc(window, unicode.IsSpace)
	i := strings.LastIndexFunc(trimmed, unicode.IsSpace)
	if i < 0 {
		return 0
	}
	rest := strings.TrimRightFunc(trimmed[:i], unicode.IsSpace)
	if rest == "" {
		return 0
	}
	return len(rest)
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
