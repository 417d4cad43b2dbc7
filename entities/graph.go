package entities

// RelatedOptions filters a neighborhood query. Zero values fall back to the
// graph defaults.
type RelatedOptions struct {
	MaxResults        int                `json:"maxResults,omitempty"`
	RelationshipTypes []RelationshipType `json:"relationshipTypes,omitempty"`
	MinStrength       float64            `json:"minStrength,omitempty"`
	MaxDepth          int                `json:"maxDepth,omitempty"`
}

// Related is one node reached by a neighborhood query, together with the
// edge it was discovered through.
type Related struct {
	Node     DrugEntity       `json:"node"`
	Edge     RelationshipEdge `json:"edge"`
	Distance int              `json:"distance"`
	Strength float64          `json:"strength"`
	Score    float64          `json:"score"`
}

type PathOptions struct {
	MaxDepth          int                `json:"maxDepth,omitempty"`
	RelationshipTypes []RelationshipType `json:"relationshipTypes,omitempty"`
	MinStrength       float64            `json:"minStrength,omitempty"`
}

// Path is an ordered walk from source to target. Strength is the product of
// the edge strengths divided by the number of hops.
type Path struct {
	Nodes    []NodeID           `json:"nodes"`
	Edges    []RelationshipEdge `json:"edges"`
	Hops     int                `json:"hops"`
	Strength float64            `json:"strength"`
}

type ClusterType string

const (
	ClusterTherapeutic ClusterType = "therapeutic"
	ClusterMechanism   ClusterType = "mechanism"
	ClusterStructure   ClusterType = "structure"
	ClusterIndication  ClusterType = "indication"
)

type ClusterOptions struct {
	MinSize      int         `json:"minSize,omitempty"`
	MaxClusters  int         `json:"maxClusters,omitempty"`
	ClusterType  ClusterType `json:"clusterType,omitempty"`
	MinCoherence float64     `json:"minCoherence,omitempty"`
}

// Cluster is a connected component of the graph restricted to the edge
// types of one ClusterType.
type Cluster struct {
	ID        string      `json:"id"`
	Type      ClusterType `json:"type"`
	Members   []NodeID    `json:"members"`
	Size      int         `json:"size"`
	Coherence float64     `json:"coherence"`
	Score     float64     `json:"score"`
}

type NodeDegree struct {
	ID     NodeID `json:"id"`
	Name   string `json:"name"`
	Degree int    `json:"degree"`
}

type BridgeNode struct {
	ID    NodeID   `json:"id"`
	Name  string   `json:"name"`
	Areas []string `json:"areas"`
	Score float64  `json:"score"`
}

// GraphStats is the analytics summary of a graph.
type GraphStats struct {
	NodeCount       int          `json:"nodeCount"`
	DrugCount       int          `json:"drugCount"`
	IndicationCount int          `json:"indicationCount"`
	EdgeCount       int          `json:"edgeCount"`
	AverageDegree   float64      `json:"averageDegree"`
	Density         float64      `json:"density"`
	Hubs            []NodeDegree `json:"hubs"`
	Bridges         []BridgeNode `json:"bridges"`
	Clusters        []Cluster    `json:"clusters"`
}

// UpdateOutcome describes what a dynamic update did.
type UpdateOutcome string

const (
	UpdateCreated               UpdateOutcome = "created"
	UpdateMerged                UpdateOutcome = "merged"
	UpdateRejectedLowConfidence UpdateOutcome = "rejected_low_confidence"
)

// UpdateResult is returned by a dynamic update. A low-confidence rejection is
// reported here and not as an error.
type UpdateResult struct {
	UpdateID string        `json:"updateId"`
	NodeID   NodeID        `json:"nodeId,omitempty"`
	Applied  bool          `json:"applied"`
	Outcome  UpdateOutcome `json:"outcome"`
}
