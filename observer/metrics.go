package observer

import (
	"context"
	"time"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"

	"go.opentelemetry.io/otel/metric"
)

// RecordCorpus records document and chunk throughput for a segmented corpus.
func (i *Instruments) RecordCorpus(ctx context.Context, c *rag.Corpus) {
	for _, doc := range c.Documents() {
		chunks := c.ByDocument[doc]
		attrs := metric.WithAttributes(AttrDocument.String(doc))
		i.DocsProcessed.Add(ctx, 1, attrs)
		i.ChunksProduced.Add(ctx, int64(len(chunks)), attrs)
		for _, ch := range chunks {
			i.ChunkSize.Record(ctx, int64(ch.Size), attrs)
		}
	}
}

// RecordQAGenerated counts QA pairs produced for one document and question type.
func (i *Instruments) RecordQAGenerated(ctx context.Context, document, questionType string, n int) {
	i.QAGenerated.Add(ctx, int64(n), metric.WithAttributes(
		AttrDocument.String(document),
		AttrQuestionType.String(questionType),
	))
}

// RecordQueryDuration records the end-to-end latency of one retrieval query.
func (i *Instruments) RecordQueryDuration(ctx context.Context, elapsed time.Duration) {
	i.QueryDuration.Record(ctx, float64(elapsed.Milliseconds()))
}
