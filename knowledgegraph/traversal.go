package knowledgegraph

import (
	"slices"

	"github.com/giygas/pharmasearch/entities"
)

type edgeFilter struct {
	types       relTypeSet
	minStrength float64
}

func (f edgeFilter) accept(e *entities.RelationshipEdge) bool {
	return f.types.has(e.Type) && e.Strength >= f.minStrength
}

func (g *Graph) depthLimit(requested int) int {
	switch {
	case requested <= 0:
		return g.defaultMaxDepth
	case requested > g.maxTraversalDepth:
		return g.maxTraversalDepth
	}
	return requested
}

// RelatedTo walks outgoing edges breadth-first from id and returns every
// node reached within MaxDepth hops through edges that pass the filters.
// Each node is reported once, with the edge it was first discovered through.
// Results are ranked by strength/(distance+1), ties keep discovery order.
// The origin is never part of the result.
func (g *Graph) RelatedTo(id entities.NodeID, opts entities.RelatedOptions) ([]entities.Related, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	origin, ok := g.nodeIndex[id]
	if !ok {
		return nil, &entities.NotFoundError{Term: string(id)}
	}

	maxDepth := g.depthLimit(opts.MaxDepth)
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = g.defaultMaxResults
	}
	filter := edgeFilter{types: typeSet(opts.RelationshipTypes), minStrength: opts.MinStrength}

	type candidate struct {
		related entities.Related
		seq     int
	}
	type queued struct {
		node  int
		depth int
	}

	visited := make([]bool, len(g.nodes))
	visited[origin] = true
	queue := []queued{{node: origin}}
	var found []candidate

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur.depth >= maxDepth {
			continue
		}
		for _, ei := range g.out[cur.node] {
			edge := &g.edges[ei]
			if !filter.accept(edge) {
				continue
			}
			next := g.edgeEnds[ei][1]
			if visited[next] {
				continue
			}
			visited[next] = true

			distance := cur.depth + 1
			found = append(found, candidate{
				related: entities.Related{
					Node:     g.nodes[next].Clone(),
					Edge:     edge.Clone(),
					Distance: distance,
					Strength: edge.Strength,
					Score:    edge.Strength / float64(distance+1),
				},
				seq: len(found),
			})
			queue = append(queue, queued{node: next, depth: distance})
		}
	}

	slices.SortFunc(found, func(a, b candidate) int {
		switch {
		case a.related.Score > b.related.Score:
			return -1
		case a.related.Score < b.related.Score:
			return 1
		}
		return a.seq - b.seq
	})

	if len(found) > maxResults {
		found = found[:maxResults]
	}
	out := make([]entities.Related, len(found))
	for i := range found {
		out[i] = found[i].related
	}
	return out, nil
}

type partialPath struct {
	nodes   []int
	edges   []int
	product float64
}

func (p partialPath) contains(node int) bool {
	return slices.Contains(p.nodes, node)
}

func (p partialPath) extend(edge, node int, strength float64) partialPath {
	nodes := make([]int, len(p.nodes), len(p.nodes)+1)
	copy(nodes, p.nodes)
	edges := make([]int, len(p.edges), len(p.edges)+1)
	copy(edges, p.edges)
	return partialPath{
		nodes:   append(nodes, node),
		edges:   append(edges, edge),
		product: p.product * strength,
	}
}

// ShortestPath finds a path from source to target with the minimum number of
// hops, following outgoing edges that pass the filters. Among several
// shortest paths the one with the highest strength wins, then the first
// discovered. Each level keeps only the strongest partial path ending at a
// node: partial paths of equal length ending at the same node have the same
// continuations, and extending a path never raises its product. ok is false
// when target cannot be reached within MaxDepth.
func (g *Graph) ShortestPath(source, target entities.NodeID, opts entities.PathOptions) (path entities.Path, ok bool, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	src, found := g.nodeIndex[source]
	if !found {
		return entities.Path{}, false, &entities.NotFoundError{Term: string(source)}
	}
	tgt, found := g.nodeIndex[target]
	if !found {
		return entities.Path{}, false, &entities.NotFoundError{Term: string(target)}
	}
	if src == tgt {
		return entities.Path{Nodes: []entities.NodeID{source}, Edges: []entities.RelationshipEdge{}, Strength: 1}, true, nil
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 || maxDepth > g.maxTraversalDepth {
		maxDepth = g.maxTraversalDepth
	}
	filter := edgeFilter{types: typeSet(opts.RelationshipTypes), minStrength: opts.MinStrength}

	// firstDepth[n] is the level at which n was first reached; reaching it
	// again at a deeper level can never be part of a shortest path.
	firstDepth := make([]int, len(g.nodes))
	for i := range firstDepth {
		firstDepth[i] = -1
	}
	firstDepth[src] = 0

	level := []partialPath{{nodes: []int{src}, product: 1}}
	for depth := 1; depth <= maxDepth && len(level) > 0; depth++ {
		var next []partialPath
		slot := make(map[int]int) // node -> index in next
		var best *partialPath

		for _, p := range level {
			last := p.nodes[len(p.nodes)-1]
			for _, ei := range g.out[last] {
				edge := &g.edges[ei]
				if !filter.accept(edge) {
					continue
				}
				n := g.edgeEnds[ei][1]
				if p.contains(n) {
					continue
				}
				if firstDepth[n] != -1 && depth > firstDepth[n] {
					continue
				}
				if firstDepth[n] == -1 {
					firstDepth[n] = depth
				}

				product := p.product * edge.Strength
				if n == tgt {
					if best == nil || product > best.product {
						extended := p.extend(ei, n, edge.Strength)
						best = &extended
					}
					continue
				}
				if i, seen := slot[n]; seen {
					if product > next[i].product {
						next[i] = p.extend(ei, n, edge.Strength)
					}
					continue
				}
				slot[n] = len(next)
				next = append(next, p.extend(ei, n, edge.Strength))
			}
		}

		if best != nil {
			return g.buildPath(*best), true, nil
		}
		level = next
	}

	return entities.Path{}, false, nil
}

func (g *Graph) buildPath(p partialPath) entities.Path {
	out := entities.Path{
		Nodes: make([]entities.NodeID, len(p.nodes)),
		Edges: make([]entities.RelationshipEdge, len(p.edges)),
		Hops:  len(p.edges),
	}
	for i, n := range p.nodes {
		out.Nodes[i] = g.nodes[n].ID
	}
	for i, ei := range p.edges {
		out.Edges[i] = g.edges[ei].Clone()
	}
	if out.Hops > 0 {
		out.Strength = p.product / float64(out.Hops)
	}
	return out
}

// CompetitorsOf returns the competitors of a drug. When indicationID is set
// and a competitive mapping exists for the pair, the union of its direct,
// mechanism and therapeutic-area tiers is returned in that order. Otherwise
// the node's static competitor list is resolved. Unresolvable static
// entries are skipped.
func (g *Graph) CompetitorsOf(id, indicationID entities.NodeID) ([]entities.NodeID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.nodeIndex[id]
	if !ok {
		return nil, &entities.NotFoundError{Term: string(id)}
	}

	seen := map[entities.NodeID]struct{}{id: {}}
	var out []entities.NodeID
	add := func(c entities.NodeID) {
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	if indicationID != "" {
		if ind, ok := g.nodeIndex[indicationID]; ok {
			if m, ok := g.mappings[mappingKey{drug: idx, indication: ind}]; ok {
				for _, tier := range [][]entities.NodeID{m.DirectCompetitors, m.MechanismCompetitors, m.TherapeuticAreaCompetitors} {
					for _, c := range tier {
						add(c)
					}
				}
				return out, nil
			}
		}
	}

	for _, name := range g.nodes[idx].Competitors {
		if ci, ok := g.resolveLocked(name); ok {
			add(g.nodes[ci].ID)
		}
	}
	return out, nil
}
