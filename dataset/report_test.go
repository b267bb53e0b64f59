package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReport(t *testing.T) {
	d := &CuratedDataset{
		Metadata: CuratedMetadata{TotalPairs: 17},
		Splits: Splits{
			Train:      makePairs(11),
			Validation: makePairs(3),
			Test:       makePairs(3),
		},
	}

	got := Report(d)
	for _, want := range []string{
		"# Data Quality Assessment Report",
		"### Dataset Overview",
		"- **Total QA Pairs**: 17",
		"- **Train Split**: 11 pairs",
		"- **Validation Split**: 3 pairs",
		"- **Test Split**: 3 pairs",
		"### Quality Control",
		"- Short questions (< 20 characters)",
		"- Short answers (< 30 characters)",
		"- Duplicate questions",
		"- Invalid question types",
		"### Conclusion",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestSplitsWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "splits")
	s := Split(makePairs(10), 42)

	if err := s.WriteFiles(dir); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}

	for name, want := range map[string]int{
		"train.json":      7,
		"validation.json": 1,
		"test.json":       2,
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var pairs []QAPair
		if err := json.Unmarshal(data, &pairs); err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if len(pairs) != want {
			t.Errorf("%s holds %d pairs, want %d", name, len(pairs), want)
		}
	}
}

func TestDatasetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa_dataset.json")
	d := &Dataset{
		Metadata: Metadata{TotalPairs: 2, DocumentsProcessed: 1},
		Pairs:    makePairs(2),
	}

	if err := d.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadDataset(path)
	if err != nil {
		t.Fatalf("ReadDataset: %v", err)
	}
	if got.Metadata != d.Metadata {
		t.Errorf("metadata = %+v, want %+v", got.Metadata, d.Metadata)
	}
	if len(got.Pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(got.Pairs))
	}
	// IDs are internal and never serialized.
	if got.Pairs[0].ID != "" {
		t.Errorf("ID survived serialization: %q", got.Pairs[0].ID)
	}
	if got.Pairs[0].Question != d.Pairs[0].Question || got.Pairs[0].Type != Factual {
		t.Errorf("pair content lost: %+v", got.Pairs[0])
	}
}
