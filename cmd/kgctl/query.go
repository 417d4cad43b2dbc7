package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/handlers"
	"github.com/giygas/pharmasearch/queryenhancer"
	"github.com/giygas/pharmasearch/relevance"
	"github.com/giygas/pharmasearch/search"
	"github.com/giygas/pharmasearch/validation"
)

// queryFlags are shared by enhance and strategies.
type queryFlags struct {
	params entities.SearchParams
	sctx   entities.ScoringContext
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.params.Query.Intervention, "intervention", "", "drug or intervention term")
	cmd.Flags().StringVar(&q.params.Query.Condition, "condition", "", "condition term")
	cmd.Flags().StringVar(&q.params.Query.Sponsor, "sponsor", "", "sponsor term")
	cmd.Flags().StringSliceVar(&q.params.Filter.Phase, "phase", nil, "phase filter")
	q.registerContext(cmd)
}

func (q *queryFlags) registerContext(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.sctx.PrimaryDrug, "drug", "", "primary drug of the scoring context")
	cmd.Flags().StringVar(&q.sctx.PrimaryIndication, "indication", "", "primary indication of the scoring context")
	cmd.Flags().StringVar((*string)(&q.sctx.Intent), "intent", "", "competitive_analysis, drug_development, safety_monitoring, market_research or general")
	cmd.Flags().StringVar(&q.sctx.UserCompany, "company", "", "company running the search")
}

// context returns nil when no scoring context flag was set.
func (q *queryFlags) context() (*entities.ScoringContext, error) {
	if q.sctx.Intent != "" && !q.sctx.Intent.Valid() {
		return nil, fmt.Errorf("unknown intent %q", q.sctx.Intent)
	}
	if q.sctx == (entities.ScoringContext{}) {
		return nil, nil
	}
	sctx := q.sctx
	return &sctx, nil
}

func (q *queryFlags) prepare() (entities.SearchParams, *entities.ScoringContext, error) {
	params := q.params
	if err := validation.NewEntityValidator().ValidateSearchParams(&params); err != nil {
		return params, nil, err
	}
	sctx, err := q.context()
	return params, sctx, err
}

func newEnhanceCmd(a *app) *cobra.Command {
	var q queryFlags

	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Expand a registry search with aliases, competitors and related conditions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, sctx, err := q.prepare()
			if err != nil {
				return err
			}
			g, err := a.loadGraph()
			if err != nil {
				return err
			}
			return printJSON(cmd, queryenhancer.NewEnhancer(g).Enhance(params, sctx))
		},
	}
	q.register(cmd)
	return cmd
}

func newStrategiesCmd(a *app) *cobra.Command {
	var q queryFlags

	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "List the alternative searches generated for a query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, sctx, err := q.prepare()
			if err != nil {
				return err
			}
			g, err := a.loadGraph()
			if err != nil {
				return err
			}
			strategies := queryenhancer.NewEnhancer(g).GenerateStrategies(params, sctx)
			return printJSON(cmd, map[string]any{
				"count":      len(strategies),
				"strategies": strategies,
			})
		},
	}
	q.register(cmd)
	return cmd
}

func newScoreCmd(a *app) *cobra.Command {
	var q queryFlags

	cmd := &cobra.Command{
		Use:   "score <records.json|->",
		Short: "Rank registry records by relevance to a scoring context",
		Long: `Rank registry records by relevance to a scoring context.

The input is a JSON array of records with id, title, interventions,
conditions, phases, status and sponsorName. Use - to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(cmd, args[0])
			if err != nil {
				return err
			}
			if len(records) > handlers.MaxScoreRecords {
				return fmt.Errorf("too many records: %d (max %d)", len(records), handlers.MaxScoreRecords)
			}
			sctx, err := q.context()
			if err != nil {
				return err
			}
			if sctx == nil {
				sctx = &entities.ScoringContext{}
			}

			g, err := a.loadGraph()
			if err != nil {
				return err
			}
			scored := relevance.NewScorer(g).ScoreAll(records, *sctx)
			return printJSON(cmd, map[string]any{
				"count":   len(scored),
				"records": scored,
			})
		},
	}
	q.registerContext(cmd)
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		q             queryFlags
		parallelism   int
		maxStrategies int
		timeout       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search <records.json|->",
		Short: "Run the enhanced strategy fan-out over a local export of registry records",
		Long: `Run the enhanced strategy fan-out over a local export of registry records.

Every generated strategy is matched against the records, the results are
merged by record id and ranked by relevance. The input uses the same format
as score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, sctx, err := q.prepare()
			if err != nil {
				return err
			}
			records, err := readRecords(cmd, args[0])
			if err != nil {
				return err
			}
			g, err := a.loadGraph()
			if err != nil {
				return err
			}

			o := search.NewOrchestrator(
				queryenhancer.NewEnhancer(g),
				relevance.NewScorer(g),
				search.NewLocalExecutor(records),
				search.WithParallelism(parallelism),
				search.WithMaxStrategies(maxStrategies),
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := o.Search(ctx, params, sctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	q.register(cmd)
	cmd.Flags().IntVar(&parallelism, "parallelism", search.DefaultParallelism, "strategies executed concurrently")
	cmd.Flags().IntVar(&maxStrategies, "max-strategies", search.DefaultMaxStrategies, "upper bound on generated strategies")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall search timeout")
	return cmd
}

func readRecords(cmd *cobra.Command, path string) ([]entities.Record, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open records: %w", err)
		}
		defer f.Close()
		r = f
	}
	return search.DecodeRecords(r)
}
