package ingest

import (
	"fmt"
	"math"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// Chunk size thresholds for quality reporting, in bytes of chunk text.
const (
	veryShortLimit = 200
	veryLongLimit  = 1200

	// incompleteRatio is the fraction of incomplete chunks above which the
	// report flags the corpus as a whole.
	incompleteRatio = 0.3
)

// QualityReport summarizes size distribution and sentence completeness for a
// set of chunks.
type QualityReport struct {
	TotalChunks       int            `json:"total_chunks"`
	AvgChunkSize      float64        `json:"avg_chunk_size"`
	MinChunkSize      int            `json:"min_chunk_size"`
	MaxChunkSize      int            `json:"max_chunk_size"`
	SizeStd           float64        `json:"size_std"`
	VeryShortChunks   int            `json:"very_short_chunks"`
	VeryLongChunks    int            `json:"very_long_chunks"`
	IncompleteChunks  int            `json:"incomplete_chunks"`
	QualityIssues     []string       `json:"quality_issues"`
	ChunksPerDocument map[string]int `json:"chunks_per_document"`
}

// AnalyzeChunks computes a QualityReport over every chunk in byDocument.
// Statistics are taken across all documents combined; per-document detail is
// limited to chunk counts. Returns ErrNoChunks when byDocument holds no
// chunks at all.
//
// A chunk counts as incomplete when its text does not end with '.', '!' or
// '?'. The report only raises an issue for incompleteness when more than 30%
// of all chunks are incomplete, since overlapping windows routinely cut a
// minority of chunks mid-sentence.
func AnalyzeChunks(byDocument map[string][]rag.Chunk) (*QualityReport, error) {
	perDoc := make(map[string]int, len(byDocument))
	total := 0
	for doc, chunks := range byDocument {
		perDoc[doc] = len(chunks)
		total += len(chunks)
	}
	if total == 0 {
		return nil, rag.ErrNoChunks
	}

	report := &QualityReport{
		TotalChunks:       total,
		MinChunkSize:      math.MaxInt,
		ChunksPerDocument: perDoc,
	}
	sum := 0
	for _, chunks := range byDocument {
		for _, c := range chunks {
			sum += c.Size
			if c.Size < report.MinChunkSize {
				report.MinChunkSize = c.Size
			}
			if c.Size > report.MaxChunkSize {
				report.MaxChunkSize = c.Size
			}
			if c.Size < veryShortLimit {
				report.VeryShortChunks++
			}
			if c.Size > veryLongLimit {
				report.VeryLongChunks++
			}
			if !endsSentence(c.Text) {
				report.IncompleteChunks++
			}
		}
	}
	report.AvgChunkSize = float64(sum) / float64(total)

	var variance float64
	for _, chunks := range byDocument {
		for _, c := range chunks {
			d := float64(c.Size) - report.AvgChunkSize
			variance += d * d
		}
	}
	report.SizeStd = math.Sqrt(variance / float64(total))

	if report.VeryShortChunks > 0 {
		report.QualityIssues = append(report.QualityIssues,
			fmt.Sprintf("%d chunks are very short (<%d chars)", report.VeryShortChunks, veryShortLimit))
	}
	if report.VeryLongChunks > 0 {
		report.QualityIssues = append(report.QualityIssues,
			fmt.Sprintf("%d chunks are very long (>%d chars)", report.VeryLongChunks, veryLongLimit))
	}
	if float64(report.IncompleteChunks) > float64(total)*incompleteRatio {
		report.QualityIssues = append(report.QualityIssues,
			fmt.Sprintf("%d chunks may have incomplete sentences", report.IncompleteChunks))
	}
	return report, nil
}

// AnalyzeCorpus is a convenience wrapper over the corpus per-document view.
func AnalyzeCorpus(corpus *rag.Corpus) (*QualityReport, error) {
	return AnalyzeChunks(corpus.ByDocument)
}

func endsSentence(text string) bool {
	if text == "" {
		return false
	}
	return isTerminator(text[len(text)-1])
}
