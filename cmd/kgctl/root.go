package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/knowledgegraph"
	"github.com/giygas/pharmasearch/logging"
	"github.com/giygas/pharmasearch/seedfile"
	"github.com/giygas/pharmasearch/validation"
)

// app holds the global flags and the graph shared by every subcommand.
type app struct {
	seedFile      string
	logLevel      string
	minConfidence float64
	maxDepth      int

	graph *knowledgegraph.Graph
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "kgctl",
		Short: "kgctl: pharmaceutical knowledge graph tool",
		Long: `kgctl resolves drugs and indications, walks their relationships and
runs the query enhancer and relevance scorer against the curated knowledge
graph, without starting the API server.

Extra entities, edges and competitive mappings can be loaded from a YAML
seed file with --seed-file.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logs go to stderr so stdout stays valid JSON
			logging.InitLoggerWithOptions(logging.Options{
				Output: cmd.ErrOrStderr(),
				Level:  a.logLevel,
			})
		},
	}

	cmd.PersistentFlags().StringVar(&a.seedFile, "seed-file", "", "YAML seed file extending the default graph")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "error", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().Float64Var(&a.minConfidence, "min-confidence", knowledgegraph.DefaultMinUpdateConfidence, "minimum confidence for dynamic updates")
	cmd.PersistentFlags().IntVar(&a.maxDepth, "max-traversal-depth", 0, "hard limit on traversal depth (0 keeps the graph default)")

	cmd.AddCommand(
		newResolveCmd(a),
		newNodeCmd(a),
		newRelatedCmd(a),
		newCompetitorsCmd(a),
		newPathCmd(a),
		newClustersCmd(a),
		newAnalyticsCmd(a),
		newValidateCmd(a),
		newEnhanceCmd(a),
		newStrategiesCmd(a),
		newScoreCmd(a),
		newSearchCmd(a),
	)
	return cmd
}

// loadGraph builds the graph on first use.
func (a *app) loadGraph() (*knowledgegraph.Graph, error) {
	if a.graph != nil {
		return a.graph, nil
	}

	var extra []knowledgegraph.Seed
	if a.seedFile != "" {
		f, err := seedfile.Load(a.seedFile)
		if err != nil {
			return nil, err
		}
		extra = append(extra, f.Seed())
	}

	g, err := knowledgegraph.NewSeeded(extra,
		knowledgegraph.WithMinUpdateConfidence(a.minConfidence),
		knowledgegraph.WithMaxTraversalDepth(a.maxDepth),
	)
	if err != nil {
		return nil, err
	}
	a.graph = g
	return g, nil
}

// lookup validates a user supplied term and resolves it to a node.
func (a *app) lookup(term string) (entities.DrugEntity, error) {
	if err := validation.ValidateInput(term); err != nil {
		return entities.DrugEntity{}, err
	}
	g, err := a.loadGraph()
	if err != nil {
		return entities.DrugEntity{}, err
	}
	return g.Lookup(term)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseTypes(raw []string) ([]entities.RelationshipType, error) {
	var out []entities.RelationshipType
	for _, r := range raw {
		t := entities.RelationshipType(strings.TrimSpace(r))
		if !t.Valid() {
			return nil, fmt.Errorf("unknown relationship type %q", r)
		}
		out = append(out, t)
	}
	return out, nil
}
