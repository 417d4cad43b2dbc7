package knowledgegraph

import (
	"slices"
	"strings"

	"github.com/giygas/pharmasearch/entities"
)

const (
	hubCount    = 5
	bridgeCount = 5
)

// Analytics summarizes the graph: counts, average degree (2E/N), density
// E/(N(N-1)), the five highest-degree hubs, bridge nodes and therapeutic
// clusters.
func (g *Graph) Analytics() entities.GraphStats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, e := len(g.nodes), len(g.edges)
	stats := entities.GraphStats{
		NodeCount: n,
		EdgeCount: e,
		Hubs:      []entities.NodeDegree{},
		Bridges:   []entities.BridgeNode{},
	}
	for i := range g.nodes {
		if g.nodes[i].IsIndication() {
			stats.IndicationCount++
		} else {
			stats.DrugCount++
		}
	}
	if n > 0 {
		stats.AverageDegree = 2 * float64(e) / float64(n)
	}
	if n > 1 {
		stats.Density = float64(e) / float64(n*(n-1))
	}

	stats.Hubs = g.hubsLocked()
	stats.Bridges = g.bridgesLocked()
	stats.Clusters = g.clusterLocked(entities.ClusterOptions{ClusterType: entities.ClusterTherapeutic})
	return stats
}

func (g *Graph) degree(idx int) int {
	return len(g.out[idx]) + len(g.in[idx])
}

func (g *Graph) hubsLocked() []entities.NodeDegree {
	order := make([]int, 0, len(g.nodes))
	for i := range g.nodes {
		if g.degree(i) > 0 {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return g.degree(b) - g.degree(a)
	})
	if len(order) > hubCount {
		order = order[:hubCount]
	}

	hubs := make([]entities.NodeDegree, len(order))
	for i, idx := range order {
		hubs[i] = entities.NodeDegree{ID: g.nodes[idx].ID, Name: g.nodes[idx].Name, Degree: g.degree(idx)}
	}
	return hubs
}

// bridgesLocked scores nodes whose neighbors span at least two therapeutic
// areas, at least one of which the node itself is not tagged with. The
// score is the number of distinct neighbor areas divided by the degree, so
// a node connecting many areas through few edges ranks first.
func (g *Graph) bridgesLocked() []entities.BridgeNode {
	type scored struct {
		bridge entities.BridgeNode
		seq    int
	}
	var found []scored

	for idx := range g.nodes {
		deg := g.degree(idx)
		if deg == 0 {
			continue
		}

		own := make(map[string]struct{})
		for _, a := range g.nodes[idx].TherapeuticAreas {
			own[strings.ToLower(a)] = struct{}{}
		}

		seen := make(map[string]struct{})
		var areas []string
		foreign := false
		visit := func(neighbor int) {
			for _, a := range g.nodes[neighbor].TherapeuticAreas {
				key := strings.ToLower(a)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				areas = append(areas, key)
				if _, mine := own[key]; !mine {
					foreign = true
				}
			}
		}
		for _, ei := range g.out[idx] {
			visit(g.edgeEnds[ei][1])
		}
		for _, ei := range g.in[idx] {
			visit(g.edgeEnds[ei][0])
		}

		if len(areas) < 2 || !foreign {
			continue
		}
		slices.Sort(areas)
		found = append(found, scored{
			bridge: entities.BridgeNode{
				ID:    g.nodes[idx].ID,
				Name:  g.nodes[idx].Name,
				Areas: areas,
				Score: float64(len(areas)) / float64(deg),
			},
			seq: len(found),
		})
	}

	slices.SortFunc(found, func(a, b scored) int {
		switch {
		case a.bridge.Score > b.bridge.Score:
			return -1
		case a.bridge.Score < b.bridge.Score:
			return 1
		}
		return a.seq - b.seq
	})
	if len(found) > bridgeCount {
		found = found[:bridgeCount]
	}

	out := make([]entities.BridgeNode, len(found))
	for i := range found {
		out[i] = found[i].bridge
	}
	return out
}
