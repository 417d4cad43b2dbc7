// Package seedfile loads knowledge graph extensions from a YAML file and
// keeps the graph in sync with the file while it is edited.
package seedfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/interfaces"
	"github.com/giygas/pharmasearch/knowledgegraph"
	"github.com/giygas/pharmasearch/logging"
	"github.com/giygas/pharmasearch/metrics"
)

const (
	DefaultSource     = "seed-file"
	DefaultConfidence = 1.0
)

// File is the decoded content of a seed file.
type File struct {
	Source     string
	Confidence float64
	Entities   []entities.DrugEntity
	Edges      []knowledgegraph.SeedEdge
	Mappings   []entities.CompetitiveMapping
}

type rawFile struct {
	Source     string                        `yaml:"source"`
	Confidence *float64                      `yaml:"confidence"`
	Entities   []entities.DrugEntity         `yaml:"entities"`
	Edges      []knowledgegraph.SeedEdge     `yaml:"edges"`
	Mappings   []entities.CompetitiveMapping `yaml:"mappings"`
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a seed file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var raw rawFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	f := &File{
		Source:     strings.TrimSpace(raw.Source),
		Confidence: DefaultConfidence,
		Entities:   raw.Entities,
		Edges:      raw.Edges,
		Mappings:   raw.Mappings,
	}
	if f.Source == "" {
		f.Source = DefaultSource
	}
	if raw.Confidence != nil {
		f.Confidence = *raw.Confidence
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) validate() error {
	if math.IsNaN(f.Confidence) || f.Confidence < 0 || f.Confidence > 1 {
		return &entities.ValidationError{Field: "confidence", Reason: "must be within [0,1]"}
	}
	for i, e := range f.Edges {
		if strings.TrimSpace(e.Source) == "" || strings.TrimSpace(e.Target) == "" {
			return &entities.ValidationError{Field: fmt.Sprintf("edges[%d]", i), Reason: "source and target are required"}
		}
		if !e.Type.Valid() {
			return &entities.ValidationError{Field: fmt.Sprintf("edges[%d].type", i), Reason: fmt.Sprintf("unknown relationship type %q", e.Type)}
		}
	}
	for i, m := range f.Mappings {
		if m.DrugID == "" || m.IndicationID == "" {
			return &entities.ValidationError{Field: fmt.Sprintf("mappings[%d]", i), Reason: "drug and indication are required"}
		}
	}
	return nil
}

// Seed converts the file into graph seed data. Entities are stamped with
// the file source, and with the file confidence when they carry none.
// Entities without a kind are drugs.
func (f *File) Seed() knowledgegraph.Seed {
	seed := knowledgegraph.Seed{
		Entities: make([]entities.DrugEntity, len(f.Entities)),
		Edges:    slices.Clone(f.Edges),
		Mappings: slices.Clone(f.Mappings),
	}
	for i, e := range f.Entities {
		e = e.Clone()
		if e.Kind == "" {
			e.Kind = entities.KindDrug
		}
		if !slices.Contains(e.Metadata.Sources, f.Source) {
			e.Metadata.Sources = append(e.Metadata.Sources, f.Source)
		}
		if e.Metadata.Confidence == 0 {
			e.Metadata.Confidence = f.Confidence
		}
		seed.Entities[i] = e
	}
	return seed
}

// ApplyResult counts what applying a file did to the graph.
type ApplyResult struct {
	Created  int `json:"created"`
	Merged   int `json:"merged"`
	Rejected int `json:"rejected"`
	Edges    int `json:"edges"`
	Mappings int `json:"mappings"`
	Failed   int `json:"failed"`
}

// Apply merges the file into a live graph. Entities go through the dynamic
// update path so the confidence gate applies; edges that already exist are
// left untouched. A failing entry is logged and counted and does not stop
// the rest of the file.
func Apply(graph interfaces.KnowledgeGraph, f *File) ApplyResult {
	var res ApplyResult

	for _, e := range f.Entities {
		update, err := graph.DynamicUpdate(e, f.Source, f.Confidence)
		if err != nil {
			res.Failed++
			metrics.RecordUpdateError()
			logging.Warn("Seed file entity not applied", "name", e.Name, "error", err)
			continue
		}
		metrics.RecordUpdate(update.Outcome)
		switch update.Outcome {
		case entities.UpdateCreated:
			res.Created++
		case entities.UpdateMerged:
			res.Merged++
		case entities.UpdateRejectedLowConfidence:
			res.Rejected++
		}
	}

	for _, e := range f.Edges {
		if _, err := graph.AddEdge(e.Source, e.Target, e.Type, e.Strength, e.Properties); err != nil {
			res.Failed++
			logging.Warn("Seed file edge not applied", "source", e.Source, "target", e.Target, "type", e.Type, "error", err)
			continue
		}
		res.Edges++
	}

	for _, m := range f.Mappings {
		if err := graph.AddCompetitiveMapping(m); err != nil {
			res.Failed++
			logging.Warn("Seed file mapping not applied", "drug", m.DrugID, "indication", m.IndicationID, "error", err)
			continue
		}
		res.Mappings++
	}

	return res
}
