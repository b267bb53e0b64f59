package ingest

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/sentences"
	"github.com/clipperhouse/uax29/words"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyDocument is returned by AnalyzeDocument for empty input.
var ErrEmptyDocument = errors.New("empty document")

var (
	reBlankLines   = regexp.MustCompile(`\n\s*\n`)
	reSpaceRuns    = regexp.MustCompile(`[ \t]+`)
	reNonASCII     = regexp.MustCompile(`[^\x00-\x7F]+`)
	rePageNumbers  = regexp.MustCompile(`\n\d+\n`)
	reHeaderLines  = regexp.MustCompile(`\n[A-Z\s]{10,}\n`)
	reMissingSpace = regexp.MustCompile(`([a-z])([A-Z])`)
	rePunctSpace   = regexp.MustCompile(`([.!?])([A-Z])`)
	reNewlineRuns  = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes extracted document text for chunking. It applies NFKC
// normalization first so full-width and compatibility characters survive the
// ASCII filter, then removes common extraction artifacts: ragged paragraph
// breaks, space runs, non-ASCII noise, bare page-number lines, all-caps
// header lines, and glued words like "endStart" left by PDF extraction.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)

	s = reBlankLines.ReplaceAllString(s, "\n\n")
	s = reSpaceRuns.ReplaceAllString(s, " ")

	s = reNonASCII.ReplaceAllString(s, "")

	s = rePageNumbers.ReplaceAllString(s, "\n")
	s = reHeaderLines.ReplaceAllString(s, "\n")

	s = reMissingSpace.ReplaceAllString(s, "$1 $2")
	s = rePunctSpace.ReplaceAllString(s, "$1 $2")

	s = strings.TrimSpace(s)
	s = reNewlineRuns.ReplaceAllString(s, "\n\n")
	return s
}

// DocumentStats describes a cleaned document before chunking.
type DocumentStats struct {
	DocumentName       string   `json:"document_name"`
	WordCount          int      `json:"word_count"`
	CharacterCount     int      `json:"character_count"`
	SentenceCount      int      `json:"sentence_count"`
	UniqueWords        int      `json:"unique_words"`
	VocabularyRichness float64  `json:"vocabulary_richness"`
	AvgSentenceLength  float64  `json:"avg_sentence_length"`
	FleschReadingEase  float64  `json:"flesch_reading_ease"`
	QualityIssues      []string `json:"quality_issues"`
}

// AnalyzeDocument computes DocumentStats for a cleaned document. Words and
// sentences follow Unicode segmentation; a segment counts as a word when it
// contains a letter or digit. Reading ease uses the Flesch formula with
// vowel-group syllable counting, which tracks the usual published values
// closely enough for the coarse quality issues reported here.
func AnalyzeDocument(name, text string) (*DocumentStats, error) {
	if text == "" {
		return nil, ErrEmptyDocument
	}

	unique := make(map[string]struct{})
	wordCount := 0
	syllables := 0
	for _, seg := range words.SegmentAll([]byte(text)) {
		if !isWordSegment(seg) {
			continue
		}
		wordCount++
		w := strings.ToLower(string(seg))
		syllables += countSyllables(w)
		if isAlphaWord(w) {
			unique[w] = struct{}{}
		}
	}

	sentenceCount := 0
	for _, seg := range sentences.SegmentAll([]byte(text)) {
		if strings.TrimSpace(string(seg)) != "" {
			sentenceCount++
		}
	}

	richness := float64(len(unique)) / float64(max(wordCount, 1))
	avgSentence := float64(wordCount) / float64(max(sentenceCount, 1))
	flesch := 206.835 - 1.015*avgSentence - 84.6*float64(syllables)/float64(max(wordCount, 1))

	var issues []string
	if wordCount < 1000 {
		issues = append(issues, "Document too short")
	}
	if wordCount > 50000 {
		issues = append(issues, "Document very long")
	}
	if richness < 0.3 {
		issues = append(issues, "Low vocabulary diversity")
	}
	if avgSentence > 30 {
		issues = append(issues, "Very long sentences")
	}

	return &DocumentStats{
		DocumentName:       name,
		WordCount:          wordCount,
		CharacterCount:     len(text),
		SentenceCount:      sentenceCount,
		UniqueWords:        len(unique),
		VocabularyRichness: round3(richness),
		AvgSentenceLength:  round1(avgSentence),
		FleschReadingEase:  round1(flesch),
		QualityIssues:      issues,
	}, nil
}

func isWordSegment(seg []byte) bool {
	for _, r := range string(seg) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func isAlphaWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// countSyllables approximates syllables as runs of vowels, counting 'y' as a
// vowel. Every word counts as at least one syllable.
func countSyllables(w string) int {
	n := 0
	inGroup := false
	for _, r := range w {
		if isVowel(r) {
			if !inGroup {
				n++
			}
			inGroup = true
		} else {
			inGroup = false
		}
	}
	return max(n, 1)
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
