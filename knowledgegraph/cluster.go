package knowledgegraph

import (
	"fmt"
	"slices"

	"github.com/giygas/pharmasearch/entities"
)

const (
	defaultClusterMinSize     = 2
	defaultClusterMaxClusters = 10
)

// clusterEdgeTypes lists the relationship types that may join two nodes in a
// cluster of the given type.
var clusterEdgeTypes = map[entities.ClusterType][]entities.RelationshipType{
	entities.ClusterTherapeutic: {
		entities.RelTreats, entities.RelSimilarTo, entities.RelAlternativeTo, entities.RelCompetesWith,
	},
	entities.ClusterMechanism: {
		entities.RelSimilarTo, entities.RelInteractsWith, entities.RelMetabolizedBy, entities.RelCompetesWith,
	},
	entities.ClusterStructure: {
		entities.RelContains, entities.RelDerivedFrom, entities.RelPrecursorTo, entities.RelSimilarTo,
	},
	entities.ClusterIndication: {
		entities.RelTreats, entities.RelCauses, entities.RelContraindicatedWith,
	},
}

// Cluster groups nodes into connected components of the undirected graph
// made of the edge types allowed for opts.ClusterType. Coherence is the share
// of member pairs joined by at least one such edge. Components under MinSize
// or MinCoherence are dropped; the rest are ranked by size × coherence.
func (g *Graph) Cluster(opts entities.ClusterOptions) []entities.Cluster {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.clusterLocked(opts)
}

func (g *Graph) clusterLocked(opts entities.ClusterOptions) []entities.Cluster {
	if opts.ClusterType == "" {
		opts.ClusterType = entities.ClusterTherapeutic
	}
	allowedTypes, known := clusterEdgeTypes[opts.ClusterType]
	if !known {
		return []entities.Cluster{}
	}
	if opts.MinSize <= 0 {
		opts.MinSize = defaultClusterMinSize
	}
	if opts.MaxClusters <= 0 {
		opts.MaxClusters = defaultClusterMaxClusters
	}
	allowed := typeSet(allowedTypes)

	type pair struct{ a, b int }
	neighbors := make([][]int, len(g.nodes))
	linked := make(map[pair]struct{})
	for ei := range g.edges {
		if !allowed.has(g.edges[ei].Type) {
			continue
		}
		s, t := g.edgeEnds[ei][0], g.edgeEnds[ei][1]
		neighbors[s] = append(neighbors[s], t)
		neighbors[t] = append(neighbors[t], s)
		if s > t {
			s, t = t, s
		}
		linked[pair{s, t}] = struct{}{}
	}

	type ranked struct {
		cluster entities.Cluster
		seq     int
	}
	var found []ranked

	visited := make([]bool, len(g.nodes))
	for start := range g.nodes {
		if visited[start] {
			continue
		}

		// Explicit stack instead of recursion keeps the Go stack flat on
		// long chains.
		var members []int
		stack := []int{start}
		visited[start] = true
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			members = append(members, n)
			for _, m := range neighbors[n] {
				if !visited[m] {
					visited[m] = true
					stack = append(stack, m)
				}
			}
		}

		if len(members) < opts.MinSize {
			continue
		}
		slices.Sort(members)

		connected := 0
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if _, ok := linked[pair{members[i], members[j]}]; ok {
					connected++
				}
			}
		}
		possible := len(members) * (len(members) - 1) / 2
		coherence := 0.0
		if possible > 0 {
			coherence = float64(connected) / float64(possible)
		}
		if coherence < opts.MinCoherence {
			continue
		}

		ids := make([]entities.NodeID, len(members))
		for i, m := range members {
			ids[i] = g.nodes[m].ID
		}
		found = append(found, ranked{
			cluster: entities.Cluster{
				Type:      opts.ClusterType,
				Members:   ids,
				Size:      len(ids),
				Coherence: coherence,
				Score:     float64(len(ids)) * coherence,
			},
			seq: len(found),
		})
	}

	slices.SortFunc(found, func(a, b ranked) int {
		switch {
		case a.cluster.Score > b.cluster.Score:
			return -1
		case a.cluster.Score < b.cluster.Score:
			return 1
		}
		return a.seq - b.seq
	})
	if len(found) > opts.MaxClusters {
		found = found[:opts.MaxClusters]
	}

	out := make([]entities.Cluster, len(found))
	for i := range found {
		out[i] = found[i].cluster
		out[i].ID = fmt.Sprintf("%s-%d", opts.ClusterType, i+1)
	}
	return out
}
