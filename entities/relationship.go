package entities

import "time"

// RelationshipType is the label of a directed edge between two nodes.
type RelationshipType string

const (
	RelContains            RelationshipType = "contains"
	RelSimilarTo           RelationshipType = "similar_to"
	RelInteractsWith       RelationshipType = "interacts_with"
	RelTreats              RelationshipType = "treats"
	RelCauses              RelationshipType = "causes"
	RelMetabolizedBy       RelationshipType = "metabolized_by"
	RelContraindicatedWith RelationshipType = "contraindicated_with"
	RelAlternativeTo       RelationshipType = "alternative_to"
	RelPrecursorTo         RelationshipType = "precursor_to"
	RelDerivedFrom         RelationshipType = "derived_from"
	RelCompetesWith        RelationshipType = "competes_with"
	RelCombinedWith        RelationshipType = "combined_with"
)

// RelationshipTypes lists every known edge label.
var RelationshipTypes = []RelationshipType{
	RelContains, RelSimilarTo, RelInteractsWith, RelTreats, RelCauses, RelMetabolizedBy,
	RelContraindicatedWith, RelAlternativeTo, RelPrecursorTo, RelDerivedFrom,
	RelCompetesWith, RelCombinedWith,
}

// Valid reports whether t is one of the known relationship types.
func (t RelationshipType) Valid() bool {
	for _, known := range RelationshipTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Evidence levels used in EdgeProperties.EvidenceLevel.
const (
	EvidenceClinical      = "clinical"
	EvidencePreclinical   = "preclinical"
	EvidenceObservational = "observational"
	EvidenceExpertOpinion = "expert_opinion"
)

// EdgeProperties carries the well-known edge attributes as typed fields.
// Anything else goes into Extensions.
type EdgeProperties struct {
	Rationale     string            `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	EvidenceLevel string            `json:"evidenceLevel,omitempty" yaml:"evidenceLevel,omitempty"`
	Extensions    map[string]string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

type EdgeMetadata struct {
	CreatedAt time.Time `json:"createdAt"`
}

// RelationshipEdge is a typed, weighted, directed edge.
type RelationshipEdge struct {
	ID         EdgeID           `json:"id"`
	Source     NodeID           `json:"source"`
	Target     NodeID           `json:"target"`
	Type       RelationshipType `json:"type"`
	Strength   float64          `json:"strength"`
	Properties EdgeProperties   `json:"properties"`
	Metadata   EdgeMetadata     `json:"metadata"`
}

// Clone returns a copy that does not share the extension map.
func (e RelationshipEdge) Clone() RelationshipEdge {
	out := e
	if e.Properties.Extensions != nil {
		out.Properties.Extensions = make(map[string]string, len(e.Properties.Extensions))
		for k, v := range e.Properties.Extensions {
			out.Properties.Extensions[k] = v
		}
	}
	return out
}
