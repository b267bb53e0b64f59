// Package dataset generates and curates question/answer datasets from
// document collections. A Generator asks a chat provider for factual,
// inferential, and analytical questions per document; a Curator filters the
// raw pairs and partitions the survivors into train/validation/test splits
// for evaluating retrieval pipelines against fine-tuned baselines.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// QuestionType classifies a generated question.
type QuestionType string

const (
	Factual     QuestionType = "factual"
	Inferential QuestionType = "inferential"
	Analytical  QuestionType = "analytical"
)

// QuestionTypes returns every question type in generation order.
func QuestionTypes() []QuestionType {
	return []QuestionType{Factual, Inferential, Analytical}
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case Factual, Inferential, Analytical:
		return true
	}
	return false
}

// QAPair is one generated question with its reference answer. The ID is
// assigned at generation time and stays internal; serialized pairs carry
// only the fields a consumer trains or evaluates on.
type QAPair struct {
	ID       string       `json:"-"`
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Type     QuestionType `json:"type"`
	Document string       `json:"document"`
}

// Dataset is the raw generation output before curation.
type Dataset struct {
	Metadata Metadata `json:"metadata"`
	Pairs    []QAPair `json:"qa_pairs"`
}

// Metadata summarizes a raw dataset.
type Metadata struct {
	TotalPairs         int `json:"total_qa_pairs"`
	DocumentsProcessed int `json:"documents_processed"`
}

// Splits partitions curated pairs for training and evaluation.
type Splits struct {
	Train      []QAPair `json:"train"`
	Validation []QAPair `json:"validation"`
	Test       []QAPair `json:"test"`
}

// CuratedDataset is the quality-filtered, split form of a Dataset.
type CuratedDataset struct {
	Metadata CuratedMetadata `json:"metadata"`
	Splits   Splits          `json:"splits"`
}

// CuratedMetadata summarizes a curated dataset.
type CuratedMetadata struct {
	TotalPairs int            `json:"total_qa_pairs"`
	SplitSizes map[string]int `json:"splits"`
}

// WriteFile saves the dataset as indented JSON at path.
func (d *Dataset) WriteFile(path string) error {
	return writeJSON(path, d)
}

// ReadDataset loads a dataset previously saved with WriteFile.
func ReadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &d, nil
}

// WriteFile saves the curated dataset as indented JSON at path.
func (d *CuratedDataset) WriteFile(path string) error {
	return writeJSON(path, d)
}

// WriteFiles writes each split as its own JSON file (train.json,
// validation.json, test.json) under dir, creating dir if needed.
func (s Splits) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create split dir: %w", err)
	}
	for name, pairs := range map[string][]QAPair{
		"train.json":      s.Train,
		"validation.json": s.Validation,
		"test.json":       s.Test,
	} {
		if err := writeJSON(filepath.Join(dir, name), pairs); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
