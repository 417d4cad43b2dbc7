package knowledgegraph

import (
	"fmt"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/logging"
)

// SeedEdge is an edge declared by name in seed data.
type SeedEdge struct {
	Source     string                    `json:"source" yaml:"source"`
	Target     string                    `json:"target" yaml:"target"`
	Type       entities.RelationshipType `json:"type" yaml:"type"`
	Strength   float64                   `json:"strength" yaml:"strength"`
	Properties entities.EdgeProperties   `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Seed is a bulk set of nodes, edges and competitive mappings.
type Seed struct {
	Entities []entities.DrugEntity         `json:"entities" yaml:"entities"`
	Edges    []SeedEdge                    `json:"edges" yaml:"edges"`
	Mappings []entities.CompetitiveMapping `json:"mappings" yaml:"mappings"`
}

// Merge appends the content of other to s.
func (s Seed) Merge(other Seed) Seed {
	return Seed{
		Entities: append(append([]entities.DrugEntity{}, s.Entities...), other.Entities...),
		Edges:    append(append([]SeedEdge{}, s.Edges...), other.Edges...),
		Mappings: append(append([]entities.CompetitiveMapping{}, s.Mappings...), other.Mappings...),
	}
}

// Load inserts every entity, then every edge, then every mapping. It stops at
// the first error: seed data is curated, so a bad entry is a programming
// error and must not be skipped.
func (g *Graph) Load(seed Seed) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, e := range seed.Entities {
		if _, err := g.addNodeLocked(e); err != nil {
			return fmt.Errorf("seed entity %d (%q): %w", i, e.Name, err)
		}
	}
	for i, e := range seed.Edges {
		if _, err := g.addEdgeLocked(e.Source, e.Target, e.Type, e.Strength, e.Properties); err != nil {
			return fmt.Errorf("seed edge %d (%s -%s-> %s): %w", i, e.Source, e.Type, e.Target, err)
		}
	}
	for i, m := range seed.Mappings {
		if err := g.addMappingLocked(m); err != nil {
			return fmt.Errorf("seed mapping %d (%s/%s): %w", i, m.DrugID, m.IndicationID, err)
		}
	}
	return nil
}

// NewSeeded creates a graph loaded with the curated default seed plus any
// extra seeds.
func NewSeeded(extra []Seed, opts ...Option) (*Graph, error) {
	g := New(opts...)

	seed := DefaultSeed()
	for _, s := range extra {
		seed = seed.Merge(s)
	}
	if err := g.Load(seed); err != nil {
		return nil, fmt.Errorf("invalid seed data: %w", err)
	}

	logging.Info("Knowledge graph seeded",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"min_update_confidence", g.minUpdateConfidence,
	)
	return g, nil
}
