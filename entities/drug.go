// Package entities holds the data model shared by the knowledge graph,
// the query enhancer and the relevance scorer.
package entities

import "time"

type NodeKind string

const (
	KindDrug       NodeKind = "drug"
	KindIndication NodeKind = "indication"
)

// Company is the developer or owner of a drug.
type Company struct {
	Name         string `json:"name" yaml:"name"`
	Headquarters string `json:"headquarters,omitempty" yaml:"headquarters,omitempty"`
	Size         string `json:"size,omitempty" yaml:"size,omitempty"` // large, mid, small, academic
}

// Provenance records where a node's data came from and how much it is trusted.
type Provenance struct {
	Sources     []string  `json:"sources" yaml:"sources,omitempty"`
	LastUpdated time.Time `json:"lastUpdated" yaml:"lastUpdated,omitempty"`
	Confidence  float64   `json:"confidence" yaml:"confidence,omitempty"`
}

// DrugEntity is a node of the knowledge graph. Indications use the same
// shape with Kind set to KindIndication; for them Mechanism holds the
// pathophysiology summary and Company is usually nil.
//
// Indications, Competitors and RelatedConditions hold names or aliases,
// resolved through the graph alias table when they are read.
type DrugEntity struct {
	ID                NodeID     `json:"id" yaml:"id,omitempty"`
	Kind              NodeKind   `json:"kind" yaml:"kind"`
	Name              string     `json:"name" yaml:"name"`
	Aliases           []string   `json:"aliases" yaml:"aliases,omitempty"`
	Mechanism         string     `json:"mechanism,omitempty" yaml:"mechanism,omitempty"`
	TherapeuticAreas  []string   `json:"therapeuticAreas" yaml:"therapeuticAreas,omitempty"`
	Modality          string     `json:"modality,omitempty" yaml:"modality,omitempty"`
	Company           *Company   `json:"company,omitempty" yaml:"company,omitempty"`
	Indications       []string   `json:"indications,omitempty" yaml:"indications,omitempty"`
	Competitors       []string   `json:"competitors,omitempty" yaml:"competitors,omitempty"`
	RelatedConditions []string   `json:"relatedConditions,omitempty" yaml:"relatedConditions,omitempty"`
	Metadata          Provenance `json:"metadata" yaml:"metadata,omitempty"`
}

// IsIndication reports whether the node describes a condition rather than a drug.
func (e *DrugEntity) IsIndication() bool {
	return e.Kind == KindIndication
}

// Clone returns a deep copy so callers can never alias graph-owned slices.
func (e DrugEntity) Clone() DrugEntity {
	out := e
	out.Aliases = cloneStrings(e.Aliases)
	out.TherapeuticAreas = cloneStrings(e.TherapeuticAreas)
	out.Indications = cloneStrings(e.Indications)
	out.Competitors = cloneStrings(e.Competitors)
	out.RelatedConditions = cloneStrings(e.RelatedConditions)
	out.Metadata.Sources = cloneStrings(e.Metadata.Sources)
	if e.Company != nil {
		c := *e.Company
		out.Company = &c
	}
	return out
}

// CompetitiveMapping is a precomputed competitor shortcut for a drug in the
// context of one indication. Tiers are kept in priority order.
type CompetitiveMapping struct {
	DrugID                     NodeID   `json:"drugId" yaml:"drug"`
	IndicationID               NodeID   `json:"indicationId" yaml:"indication"`
	DirectCompetitors          []NodeID `json:"directCompetitors" yaml:"direct,omitempty"`
	MechanismCompetitors       []NodeID `json:"mechanismCompetitors" yaml:"mechanism,omitempty"`
	TherapeuticAreaCompetitors []NodeID `json:"therapeuticAreaCompetitors" yaml:"therapeuticArea,omitempty"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
