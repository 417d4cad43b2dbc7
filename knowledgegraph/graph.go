// Package knowledgegraph implements the in-memory drug relationship graph.
//
// Nodes and edges live in dense slices addressed by integer indices, with
// adjacency lists of edge indices per node. The node table, the alias index
// and the edge table are guarded by a single RWMutex: every mutation holds
// the write lock for its whole duration, reads share the read lock. There is
// no deletion API; the graph only grows for the life of the process.
package knowledgegraph

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/interfaces"
	"github.com/giygas/pharmasearch/logging"
	"github.com/giygas/pharmasearch/validation"
)

const (
	// DefaultMinUpdateConfidence is the acceptance threshold of DynamicUpdate.
	DefaultMinUpdateConfidence = 0.6
	DefaultMaxDepth            = 2
	DefaultMaxResults          = 10
	// DefaultMaxTraversalDepth caps every caller supplied depth.
	DefaultMaxTraversalDepth = 6
)

// Compile-time check to ensure Graph implements KnowledgeGraph
var _ interfaces.KnowledgeGraph = (*Graph)(nil)

type mappingKey struct {
	drug       int
	indication int
}

// Graph is a drug/indication knowledge graph. The zero value is not usable;
// create one with New or NewSeeded.
type Graph struct {
	mu sync.RWMutex

	nodes     []entities.DrugEntity
	nodeIndex map[entities.NodeID]int
	aliases   map[string]int // normalized name or alias -> node index

	edges     []entities.RelationshipEdge
	edgeEnds  [][2]int // edge index -> (source, target) node indices
	edgeIndex map[entities.EdgeID]int
	out       [][]int // node index -> outgoing edge indices
	in        [][]int // node index -> incoming edge indices

	mappings map[mappingKey]entities.CompetitiveMapping

	minUpdateConfidence float64
	defaultMaxDepth     int
	defaultMaxResults   int
	maxTraversalDepth   int
	now                 func() time.Time
}

// Option configures a Graph.
type Option func(*Graph)

// WithMinUpdateConfidence sets the confidence below which dynamic updates are rejected.
func WithMinUpdateConfidence(threshold float64) Option {
	return func(g *Graph) {
		g.minUpdateConfidence = clamp01(threshold)
	}
}

// WithDefaultMaxDepth sets the depth used when a query leaves MaxDepth unset.
func WithDefaultMaxDepth(depth int) Option {
	return func(g *Graph) {
		if depth > 0 {
			g.defaultMaxDepth = depth
		}
	}
}

func WithDefaultMaxResults(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.defaultMaxResults = n
		}
	}
}

// WithMaxTraversalDepth sets the hard upper bound on traversal depth.
func WithMaxTraversalDepth(depth int) Option {
	return func(g *Graph) {
		if depth > 0 {
			g.maxTraversalDepth = depth
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Graph) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodeIndex:           make(map[entities.NodeID]int),
		aliases:             make(map[string]int),
		edgeIndex:           make(map[entities.EdgeID]int),
		mappings:            make(map[mappingKey]entities.CompetitiveMapping),
		minUpdateConfidence: DefaultMinUpdateConfidence,
		defaultMaxDepth:     DefaultMaxDepth,
		defaultMaxResults:   DefaultMaxResults,
		maxTraversalDepth:   DefaultMaxTraversalDepth,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.defaultMaxDepth > g.maxTraversalDepth {
		g.defaultMaxDepth = g.maxTraversalDepth
	}
	return g
}

// MinUpdateConfidence returns the configured dynamic update threshold.
func (g *Graph) MinUpdateConfidence() float64 {
	return g.minUpdateConfidence
}

// AddNode validates and inserts a new node, indexing its canonical name and
// every alias. A node whose id already exists is rejected.
func (g *Graph) AddNode(entity entities.DrugEntity) (entities.NodeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.addNodeLocked(entity)
}

func (g *Graph) addNodeLocked(entity entities.DrugEntity) (entities.NodeID, error) {
	if err := validation.ValidateEntity(&entity); err != nil {
		return "", err
	}

	e := entity.Clone()
	e.Name = strings.TrimSpace(e.Name)
	if e.ID == "" {
		e.ID = entities.NodeIDFromName(e.Name)
	} else {
		e.ID = entities.NodeIDFromName(string(e.ID))
	}
	if _, exists := g.nodeIndex[e.ID]; exists {
		return "", &entities.ValidationError{Field: "id", Reason: fmt.Sprintf("node %q already exists", e.ID)}
	}

	e.Aliases = dedupeFold(e.Aliases)
	e.TherapeuticAreas = dedupeFold(nonEmpty(e.TherapeuticAreas))
	if e.Metadata.LastUpdated.IsZero() {
		e.Metadata.LastUpdated = g.now()
	}
	if e.Metadata.Confidence == 0 {
		e.Metadata.Confidence = 1
	}

	idx := len(g.nodes)
	g.nodes = append(g.nodes, e)
	g.nodeIndex[e.ID] = idx
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.indexAliasesLocked(idx)

	return e.ID, nil
}

// indexAliasesLocked registers the id, display name and aliases of node idx.
// A key already owned by another node moves to idx (last write wins) and
// leaves the previous owner's alias list. Keys equal to another node's
// canonical id stay with that node and are dropped from idx's aliases, so
// every listed alias resolves to the node listing it.
func (g *Graph) indexAliasesLocked(idx int) {
	e := &g.nodes[idx]
	keys := append([]string{string(e.ID), e.Name}, e.Aliases...)
	for _, k := range keys {
		key := entities.NormalizeName(k)
		if key == "" {
			continue
		}
		prev, taken := g.aliases[key]
		if taken && prev != idx {
			if owner, isID := g.nodeIndex[entities.NodeID(key)]; isID && owner == prev {
				logging.Warn("Alias collides with an existing node id, keeping owner",
					"alias", k, "owner", g.nodes[prev].ID, "node", e.ID)
				e.Aliases = withoutKey(e.Aliases, key)
				continue
			}
			logging.Warn("Alias reassigned",
				"alias", k, "from", g.nodes[prev].ID, "to", e.ID)
			g.nodes[prev].Aliases = withoutKey(g.nodes[prev].Aliases, key)
		}
		g.aliases[key] = idx
	}
}

// withoutKey returns values minus the entries normalizing to key.
func withoutKey(values []string, key string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if entities.NormalizeName(v) != key {
			out = append(out, v)
		}
	}
	return out
}

// Resolve maps a name or alias to its canonical id. Matching ignores case,
// diacritics and punctuation.
func (g *Graph) Resolve(nameOrAlias string) (entities.NodeID, bool) {
	key := entities.NormalizeName(nameOrAlias)
	if key == "" {
		return "", false
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.aliases[key]
	if !ok {
		return "", false
	}
	return g.nodes[idx].ID, true
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id entities.NodeID) (entities.DrugEntity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.nodeIndex[id]
	if !ok {
		return entities.DrugEntity{}, false
	}
	return g.nodes[idx].Clone(), true
}

// Lookup resolves a name and returns the node, or a NotFoundError.
func (g *Graph) Lookup(nameOrAlias string) (entities.DrugEntity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.resolveLocked(nameOrAlias)
	if !ok {
		return entities.DrugEntity{}, &entities.NotFoundError{Term: nameOrAlias}
	}
	return g.nodes[idx].Clone(), nil
}

// Nodes returns a copy of every node in insertion order.
func (g *Graph) Nodes() []entities.DrugEntity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]entities.DrugEntity, len(g.nodes))
	for i := range g.nodes {
		out[i] = g.nodes[i].Clone()
	}
	return out
}

func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

func (g *Graph) resolveLocked(nameOrAlias string) (int, bool) {
	key := entities.NormalizeName(nameOrAlias)
	if key == "" {
		return 0, false
	}
	idx, ok := g.aliases[key]
	return idx, ok
}

// AddEdge inserts a directed edge between two names or aliases. Strength is
// clamped into [0,1]. Adding an existing (source, target, type) edge is a
// no-op that returns the existing id.
func (g *Graph) AddEdge(source, target string, relType entities.RelationshipType, strength float64, props entities.EdgeProperties) (entities.EdgeID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.addEdgeLocked(source, target, relType, strength, props)
}

func (g *Graph) addEdgeLocked(source, target string, relType entities.RelationshipType, strength float64, props entities.EdgeProperties) (entities.EdgeID, error) {
	src, ok := g.resolveLocked(source)
	if !ok {
		return 0, &entities.NotFoundError{Term: source}
	}
	tgt, ok := g.resolveLocked(target)
	if !ok {
		return 0, &entities.NotFoundError{Term: target}
	}
	if !relType.Valid() {
		return 0, &entities.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown relationship type %q", relType)}
	}
	if src == tgt {
		return 0, &entities.ValidationError{Field: "target", Reason: fmt.Sprintf("self-loop on %q", g.nodes[src].ID)}
	}

	srcID, tgtID := g.nodes[src].ID, g.nodes[tgt].ID
	id := entities.EdgeIDFor(srcID, tgtID, relType)
	if _, exists := g.edgeIndex[id]; exists {
		return id, nil
	}

	edge := entities.RelationshipEdge{
		ID:         id,
		Source:     srcID,
		Target:     tgtID,
		Type:       relType,
		Strength:   clamp01(strength),
		Properties: props,
		Metadata:   entities.EdgeMetadata{CreatedAt: g.now()},
	}
	edge = edge.Clone()

	ei := len(g.edges)
	g.edges = append(g.edges, edge)
	g.edgeEnds = append(g.edgeEnds, [2]int{src, tgt})
	g.edgeIndex[id] = ei
	g.out[src] = append(g.out[src], ei)
	g.in[tgt] = append(g.in[tgt], ei)

	return id, nil
}

// AddCompetitiveMapping registers the competitor tiers of a drug for one
// indication. Every name in the mapping must resolve.
func (g *Graph) AddCompetitiveMapping(mapping entities.CompetitiveMapping) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.addMappingLocked(mapping)
}

func (g *Graph) addMappingLocked(mapping entities.CompetitiveMapping) error {
	drug, ok := g.resolveLocked(string(mapping.DrugID))
	if !ok {
		return &entities.NotFoundError{Term: string(mapping.DrugID)}
	}
	indication, ok := g.resolveLocked(string(mapping.IndicationID))
	if !ok {
		return &entities.NotFoundError{Term: string(mapping.IndicationID)}
	}

	resolved := entities.CompetitiveMapping{
		DrugID:       g.nodes[drug].ID,
		IndicationID: g.nodes[indication].ID,
	}
	tiers := []struct {
		in  []entities.NodeID
		out *[]entities.NodeID
	}{
		{mapping.DirectCompetitors, &resolved.DirectCompetitors},
		{mapping.MechanismCompetitors, &resolved.MechanismCompetitors},
		{mapping.TherapeuticAreaCompetitors, &resolved.TherapeuticAreaCompetitors},
	}
	for _, tier := range tiers {
		for _, name := range tier.in {
			idx, ok := g.resolveLocked(string(name))
			if !ok {
				return &entities.NotFoundError{Term: string(name)}
			}
			*tier.out = append(*tier.out, g.nodes[idx].ID)
		}
	}

	g.mappings[mappingKey{drug: drug, indication: indication}] = resolved
	return nil
}

// Connected reports whether a direct edge links a and b in either direction.
// With no types every relationship type counts.
func (g *Graph) Connected(a, b entities.NodeID, types ...entities.RelationshipType) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ai, ok := g.nodeIndex[a]
	if !ok {
		return false
	}
	bi, ok := g.nodeIndex[b]
	if !ok {
		return false
	}
	allowed := typeSet(types)
	for _, ei := range g.out[ai] {
		if g.edgeEnds[ei][1] == bi && allowed.has(g.edges[ei].Type) {
			return true
		}
	}
	for _, ei := range g.in[ai] {
		if g.edgeEnds[ei][0] == bi && allowed.has(g.edges[ei].Type) {
			return true
		}
	}
	return false
}

// Snapshot is a deep copy of the whole graph state.
type Snapshot struct {
	Nodes    []entities.DrugEntity
	Edges    []entities.RelationshipEdge
	Aliases  map[string]entities.NodeID
	Mappings []entities.CompetitiveMapping
}

// Snapshot copies the graph under the read lock. Mappings are sorted by
// drug then indication.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Snapshot{
		Nodes:   make([]entities.DrugEntity, len(g.nodes)),
		Edges:   make([]entities.RelationshipEdge, len(g.edges)),
		Aliases: make(map[string]entities.NodeID, len(g.aliases)),
	}
	for i := range g.nodes {
		s.Nodes[i] = g.nodes[i].Clone()
	}
	for i := range g.edges {
		s.Edges[i] = g.edges[i].Clone()
	}
	for k, idx := range g.aliases {
		s.Aliases[k] = g.nodes[idx].ID
	}
	for _, m := range g.mappings {
		s.Mappings = append(s.Mappings, m)
	}
	slices.SortFunc(s.Mappings, func(a, b entities.CompetitiveMapping) int {
		return cmp.Or(cmp.Compare(a.DrugID, b.DrugID), cmp.Compare(a.IndicationID, b.IndicationID))
	})
	return s
}

type relTypeSet map[entities.RelationshipType]struct{}

// typeSet builds a filter; a nil set accepts every type.
func typeSet(types []entities.RelationshipType) relTypeSet {
	if len(types) == 0 {
		return nil
	}
	s := make(relTypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

func (s relTypeSet) has(t entities.RelationshipType) bool {
	if s == nil {
		return true
	}
	_, ok := s[t]
	return ok
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// dedupeFold removes case-insensitive duplicates, keeping the first spelling.
func dedupeFold(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
