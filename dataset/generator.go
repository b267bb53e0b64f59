package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// Generation parameters. Question generation wants variety, so the
// temperature sits well above the answering default.
const (
	genTemperature  = 0.7
	genMaxTokens    = 1500
	promptTextLimit = 2000
)

// prompts maps each question type to its generation prompt. The example
// stems steer the model toward the right question style per type.
var prompts = map[QuestionType]string{
	Factual: `Generate 5 factual questions and answers from this text in JSON format:
[{"question": "What is...", "answer": "...", "type": "factual"}, ...]

Text: %s`,

	Inferential: `Generate 5 inferential questions and answers from this text in JSON format:
[{"question": "Why does...", "answer": "...", "type": "inferential"}, ...]

Text: %s`,

	Analytical: `Generate 5 analytical questions and answers from this text in JSON format:
[{"question": "How does... compare to...", "answer": "...", "type": "analytical"}, ...]

Text: %s`,
}

// Generator produces QA pairs from document texts using a chat provider.
type Generator struct {
	provider rag.Provider
	logger   *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets the logger. Defaults to a no-op logger.
func WithGeneratorLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a Generator on top of the given chat provider.
func NewGenerator(provider rag.Provider, opts ...GeneratorOption) *Generator {
	g := &Generator{provider: provider, logger: nopLogger}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate produces QA pairs of every question type for every document.
// Documents are processed in sorted-name order. A failed or malformed
// generation is logged and skipped so one bad response cannot sink a run;
// context cancellation still aborts.
func (g *Generator) Generate(ctx context.Context, documents map[string]string) (*Dataset, error) {
	docs := make([]string, 0, len(documents))
	for doc := range documents {
		docs = append(docs, doc)
	}
	sort.Strings(docs)

	var pairs []QAPair
	for _, doc := range docs {
		for _, qt := range QuestionTypes() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			generated, err := g.GenerateForText(ctx, documents[doc], doc, qt)
			if err != nil {
				g.logger.Warn("qa generation failed", "document", doc, "type", qt, "error", err)
				continue
			}
			pairs = append(pairs, generated...)
			g.logger.Debug("generated qa pairs", "document", doc, "type", qt, "pairs", len(generated))
		}
	}

	g.logger.Info("qa dataset generated", "documents", len(docs), "pairs", len(pairs))
	return &Dataset{
		Metadata: Metadata{TotalPairs: len(pairs), DocumentsProcessed: len(docs)},
		Pairs:    pairs,
	}, nil
}

// GenerateForText produces QA pairs of one type from one document text.
// Only the first 2000 bytes of the text reach the prompt.
func (g *Generator) GenerateForText(ctx context.Context, text, document string, qt QuestionType) ([]QAPair, error) {
	tmpl, ok := prompts[qt]
	if !ok {
		return nil, fmt.Errorf("unknown question type %q", qt)
	}
	prompt := fmt.Sprintf(tmpl, truncate(text, promptTextLimit))

	resp, err := g.provider.Chat(ctx, rag.ChatRequest{
		Messages: []rag.ChatMessage{rag.UserMessage(prompt)},
		GenerationParams: &rag.GenerationParams{
			Temperature: rag.Float64(genTemperature),
			MaxTokens:   rag.Int(genMaxTokens),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s questions: %w", qt, err)
	}

	pairs, err := parsePairs(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", qt, err)
	}
	for i := range pairs {
		pairs[i].ID = rag.NewID()
		pairs[i].Document = document
	}
	return pairs, nil
}

// parsePairs extracts a JSON array of QA pairs from a model response.
// Models wrap JSON in markdown fences or lead with prose; stripping fences
// and slicing from the first bracket to the last tolerates both.
func parsePairs(content string) ([]QAPair, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var pairs []QAPair
	if err := json.Unmarshal([]byte(content[start:end+1]), &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
