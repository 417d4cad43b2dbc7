package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/knowledgegraph"
	"github.com/giygas/pharmasearch/seedfile"
)

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Resolve a drug or indication name, brand or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"query": args[0],
				"id":    node.ID,
				"name":  node.Name,
				"kind":  node.Kind,
			})
		},
	}
}

func newNodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "node <name>",
		Short: "Show the full entity a name resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, node)
		},
	}
}

func newRelatedCmd(a *app) *cobra.Command {
	var (
		opts  entities.RelatedOptions
		types []string
	)

	cmd := &cobra.Command{
		Use:   "related <name>",
		Short: "List the entities reachable from a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			if opts.RelationshipTypes, err = parseTypes(types); err != nil {
				return err
			}

			related, err := a.graph.RelatedTo(node.ID, opts)
			if err != nil {
				return err
			}
			if related == nil {
				related = []entities.Related{}
			}
			return printJSON(cmd, map[string]any{
				"node":    node.ID,
				"count":   len(related),
				"related": related,
			})
		},
	}

	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "traversal depth (0 uses the graph default)")
	cmd.Flags().IntVar(&opts.MaxResults, "max-results", 0, "maximum number of results (0 uses the graph default)")
	cmd.Flags().Float64Var(&opts.MinStrength, "min-strength", 0, "ignore edges weaker than this")
	cmd.Flags().StringSliceVar(&types, "types", nil, "relationship types to follow")
	return cmd
}

func newCompetitorsCmd(a *app) *cobra.Command {
	var indication string

	cmd := &cobra.Command{
		Use:   "competitors <drug>",
		Short: "List the competitors of a drug, optionally for one indication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			var indicationID entities.NodeID
			if indication != "" {
				ind, err := a.lookup(indication)
				if err != nil {
					return err
				}
				indicationID = ind.ID
			}

			ids, err := a.graph.CompetitorsOf(node.ID, indicationID)
			if err != nil {
				return err
			}
			competitors := make([]map[string]any, 0, len(ids))
			for _, id := range ids {
				c, _ := a.graph.Node(id)
				competitors = append(competitors, map[string]any{"id": id, "name": c.Name})
			}
			return printJSON(cmd, map[string]any{
				"node":        node.ID,
				"indication":  indicationID,
				"count":       len(competitors),
				"competitors": competitors,
			})
		},
	}

	cmd.Flags().StringVar(&indication, "indication", "", "indication to use competitive mappings for")
	return cmd
}

func newPathCmd(a *app) *cobra.Command {
	var (
		opts  entities.PathOptions
		types []string
	)

	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Find the shortest, strongest path between two entities",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			to, err := a.lookup(args[1])
			if err != nil {
				return err
			}
			if opts.RelationshipTypes, err = parseTypes(types); err != nil {
				return err
			}

			path, found, err := a.graph.ShortestPath(from.ID, to.ID, opts)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no path from %s to %s", from.Name, to.Name)
			}
			return printJSON(cmd, path)
		},
	}

	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum number of hops (0 uses the graph default)")
	cmd.Flags().Float64Var(&opts.MinStrength, "min-strength", 0, "ignore edges weaker than this")
	cmd.Flags().StringSliceVar(&types, "types", nil, "relationship types to follow")
	return cmd
}

func newClustersCmd(a *app) *cobra.Command {
	var (
		opts        entities.ClusterOptions
		clusterType string
	)

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Group entities by therapeutic area, mechanism, structure or indication",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch t := entities.ClusterType(clusterType); t {
			case "", entities.ClusterTherapeutic, entities.ClusterMechanism, entities.ClusterStructure, entities.ClusterIndication:
				opts.ClusterType = t
			default:
				return fmt.Errorf("unknown cluster type %q", clusterType)
			}

			g, err := a.loadGraph()
			if err != nil {
				return err
			}
			clusters := g.Cluster(opts)
			if clusters == nil {
				clusters = []entities.Cluster{}
			}
			return printJSON(cmd, map[string]any{
				"count":    len(clusters),
				"clusters": clusters,
			})
		},
	}

	cmd.Flags().StringVar(&clusterType, "type", string(entities.ClusterTherapeutic), "therapeutic, mechanism, structure or indication")
	cmd.Flags().IntVar(&opts.MinSize, "min-size", 0, "smallest cluster to report")
	cmd.Flags().IntVar(&opts.MaxClusters, "max-clusters", 0, "maximum number of clusters")
	cmd.Flags().Float64Var(&opts.MinCoherence, "min-coherence", 0, "drop clusters below this coherence")
	return cmd
}

func newAnalyticsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Print graph statistics, hubs, bridges and clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph()
			if err != nil {
				return err
			}
			return printJSON(cmd, g.Analytics())
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <seed-file>",
		Short: "Check that a seed file loads cleanly on top of the default graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seedfile.Load(args[0])
			if err != nil {
				return err
			}
			g, err := knowledgegraph.NewSeeded([]knowledgegraph.Seed{f.Seed()},
				knowledgegraph.WithMinUpdateConfidence(a.minConfidence),
			)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{
				"source":     f.Source,
				"confidence": f.Confidence,
				"entities":   len(f.Entities),
				"edges":      len(f.Edges),
				"mappings":   len(f.Mappings),
				"nodeCount":  g.NodeCount(),
				"edgeCount":  g.EdgeCount(),
			})
		},
	}
}
