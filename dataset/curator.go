package dataset

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
)

// Quality thresholds in bytes. Questions below minQuestionLen or answers
// below minAnswerLen are almost always truncated or trivial model output.
const (
	minQuestionLen = 20
	minAnswerLen   = 30
)

// Curator applies quality filtering and deterministic splitting to raw QA
// datasets.
type Curator struct {
	seed   int64
	logger *slog.Logger
}

// CuratorOption configures a Curator.
type CuratorOption func(*Curator)

// WithSeed sets the shuffle seed used by the split (default 42). The same
// seed over the same pairs yields the same split.
func WithSeed(seed int64) CuratorOption {
	return func(c *Curator) { c.seed = seed }
}

// WithCuratorLogger sets the logger. Defaults to a no-op logger.
func WithCuratorLogger(l *slog.Logger) CuratorOption {
	return func(c *Curator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCurator creates a Curator.
func NewCurator(opts ...CuratorOption) *Curator {
	c := &Curator{seed: 42, logger: nopLogger}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Filter drops low-quality pairs: questions under 20 characters (which also
// catches missing questions), answers under 30, case-insensitive duplicate
// questions, and unknown question types. Kept pairs carry trimmed question
// and answer text.
func (c *Curator) Filter(pairs []QAPair) []QAPair {
	kept := make([]QAPair, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))
	removed := 0

	for _, qa := range pairs {
		qa.Question = strings.TrimSpace(qa.Question)
		qa.Answer = strings.TrimSpace(qa.Answer)
		key := strings.ToLower(qa.Question)

		if len(qa.Question) < minQuestionLen || len(qa.Answer) < minAnswerLen ||
			seen[key] || !qa.Type.Valid() {
			removed++
			continue
		}
		seen[key] = true
		kept = append(kept, qa)
	}

	c.logger.Info("quality filter applied", "in", len(pairs), "kept", len(kept), "removed", removed)
	return kept
}

// Curate filters the dataset and splits the survivors 70/15/15.
func (c *Curator) Curate(d *Dataset) *CuratedDataset {
	kept := c.Filter(d.Pairs)
	splits := Split(kept, c.seed)

	c.logger.Info("dataset curated",
		"total", len(kept),
		"train", len(splits.Train),
		"validation", len(splits.Validation),
		"test", len(splits.Test))

	return &CuratedDataset{
		Metadata: CuratedMetadata{
			TotalPairs: len(kept),
			SplitSizes: map[string]int{
				"train":      len(splits.Train),
				"validation": len(splits.Validation),
				"test":       len(splits.Test),
			},
		},
		Splits: splits,
	}
}

// Split shuffles pairs with the given seed and partitions them into
// train (70%), validation (15%), and test (remainder) sets. The input
// slice is not modified.
func Split(pairs []QAPair, seed int64) Splits {
	shuffled := make([]QAPair, len(pairs))
	copy(shuffled, pairs)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainEnd := n * 70 / 100
	valEnd := trainEnd + n*15/100

	return Splits{
		Train:      shuffled[:trainEnd],
		Validation: shuffled[trainEnd:valEnd],
		Test:       shuffled[valEnd:],
	}
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
