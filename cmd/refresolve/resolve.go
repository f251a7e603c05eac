// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refresolve/internal/checkpoint"
	"github.com/pdiddy/refresolve/internal/llm"
	"github.com/pdiddy/refresolve/internal/recordstore"
	"github.com/pdiddy/refresolve/internal/resolve"
	"github.com/pdiddy/refresolve/internal/scorer"
	"github.com/pdiddy/refresolve/internal/search"
	"github.com/pdiddy/refresolve/internal/selection"
	"github.com/pdiddy/refresolve/internal/validator"
	"github.com/pdiddy/refresolve/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <records-file>",
	Short: "Search, validate and select URLs for references",
	Long: `Resolve runs the pipeline over a records file: it plans search queries
for each reference, gathers and scores candidate URLs, validates the best of
them by fetching their content, and selects Primary, Secondary and Tertiary
URLs. Instance records get their own Secondary URL and relevance text.

The records file is rewritten atomically when the batch ends, including
when the budget runs out. Each processed reference is recorded in the
checkpoint database; pass --run with an earlier run ID to resume it.

Selection never finalizes a reference; use "refresolve finalize".`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringSlice("ids", nil, "only resolve these reference IDs (comma-separated)")
	resolveCmd.Flags().Float64("budget", -1, "cost ceiling for the batch, 0 for unlimited (default from config)")
	resolveCmd.Flags().String("run", "", "resume the checkpoint run with this ID")
	resolveCmd.Flags().String("checkpoint-db", checkpoint.DefaultPath, "checkpoint database path")
	resolveCmd.Flags().Bool("dry-run", false, "resolve without writing the records file or checkpoint")
	resolveCmd.Flags().Bool("llm", false, "use the language model for queries, ranking, content matching and relevance text")
	resolveCmd.Flags().String("candidates-dir", "", "save search hits per reference here and reuse them on later runs")
	resolveCmd.Flags().Bool("force", false, "re-resolve finalized references")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	path := args[0]
	ids, _ := cmd.Flags().GetStringSlice("ids")
	runID, _ := cmd.Flags().GetString("run")
	dbPath, _ := cmd.Flags().GetString("checkpoint-db")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	useLLM, _ := cmd.Flags().GetBool("llm")
	candDir, _ := cmd.Flags().GetString("candidates-dir")
	force, _ := cmd.Flags().GetBool("force")

	cfg := resolveConfig()
	if b, _ := cmd.Flags().GetFloat64("budget"); b >= 0 {
		cfg.Budget = b
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	file, err := loadRecords(path)
	if err != nil {
		return err
	}

	var (
		run  *checkpoint.Run
		skip map[string]bool
	)
	if !dryRun {
		store, err := checkpoint.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if runID != "" {
			run, err = store.ResumeRun(ctx, runID)
			if err != nil {
				return err
			}
			if skip, err = run.Processed(ctx); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Resuming run %s: %d references already processed, %.3f spent\n", run.ID(), len(skip), run.Info().Spent)
		} else {
			run, err = store.StartRun(ctx, cfg.BatchVersion, path, cfg.Budget)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Started run %s\n", run.ID())
		}
	}

	spent := 0.0
	if run != nil {
		spent = run.Info().Spent
	}
	budget := resolve.NewBudget(cfg.Budget, spent)

	r, cleanup, err := newResolver(ctx, cfg, budget, useLLM, candDir)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := resolve.BatchOptions{IDs: ids, Force: force, Skip: skip}
	if run != nil {
		opts.Recorder = run
	}
	refs, sum, batchErr := r.ResolveBatch(ctx, file.References, opts)

	if !dryRun {
		if err := recordstore.Save(path, refs); err != nil {
			return err
		}
	}
	printBatchSummary(os.Stdout, sum, cfg.Budget)

	if run != nil {
		status := checkpoint.StatusCompleted
		switch {
		case errors.Is(batchErr, types.ErrBudgetExceeded):
			status = checkpoint.StatusBudgetExceeded
		case batchErr != nil:
			status = checkpoint.StatusInterrupted
		}
		if err := run.Finish(context.WithoutCancel(ctx), status); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		if batchErr != nil {
			fmt.Fprintf(os.Stdout, "Resume with: refresolve resolve %s --run %s\n", path, run.ID())
		}
	}

	if errors.Is(batchErr, types.ErrBudgetExceeded) {
		return nil
	}
	return batchErr
}

// newResolver wires the pipeline from configuration and loaded secrets.
// The returned cleanup closes the validation cache, if one was opened.
func newResolver(ctx context.Context, cfg types.ResolveConfig, budget *resolve.Budget, useLLM bool, candDir string) (*resolve.Resolver, func(), error) {
	scfg := searchConfig()
	searchers, err := search.Backends(scfg)
	if err != nil {
		return nil, nil, err
	}

	var client *llm.Client
	if useLLM {
		client = llm.New(aiConfig())
		if client.APIKey == "" {
			return nil, nil, llm.ErrNoAPIKey
		}
		client.Meter = budget
		client.Cost = cfg.Costs.LLM
	}

	v, cleanup, err := newValidator(ctx, client)
	if err != nil {
		return nil, nil, err
	}

	log := io.Writer(os.Stdout)
	opts := []resolve.Option{
		resolve.WithBudget(budget),
		resolve.WithLog(log),
		resolve.WithVerbose(verbose),
		resolve.WithSearchLimit(scfg.Concurrency),
		resolve.WithCandidateDir(candDir),
	}
	if client != nil {
		opts = append(opts,
			resolve.WithPlanner(search.LLMPlanner{Client: client, Max: cfg.MaxQueries, Log: log}),
			resolve.WithRanker(search.LLMRanker{Client: client}),
			resolve.WithRelevance(search.LLMRelevance{Client: client}),
		)
	}

	r := resolve.New(cfg, searchers,
		scorer.New(scoringConfig()), v,
		selection.New(selectionConfig()), opts...)
	return r, cleanup, nil
}

// newValidator builds the validator, with the Redis cache when configured
// and the model-backed content matcher when client is set.
func newValidator(ctx context.Context, client *llm.Client) (*validator.Validator, func(), error) {
	vcfg := validationConfig()
	opts := []validator.Option{}
	if verbose {
		opts = append(opts, validator.WithLog(os.Stderr))
	}
	if client != nil {
		opts = append(opts, validator.WithMatcher(validator.LLMMatcher{
			Client:   client,
			Fallback: validator.BasicMatcher{Threshold: vcfg.MatchThreshold},
		}))
	}

	cleanup := func() {}
	if vcfg.RedisURL != "" {
		cache, err := validator.DialCache(ctx, vcfg.RedisURL, vcfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, validator.WithCache(cache))
		cleanup = func() { cache.Close() }
	}
	return validator.New(vcfg, opts...), cleanup, nil
}

func printBatchSummary(w io.Writer, s resolve.BatchSummary, limit float64) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "References: %d  resolved: %d  with primary: %d  manual review: %d  skipped: %d  instances: %d\n",
		s.Total, s.Resolved, s.WithPrimary, s.ManualReview, s.Skipped, s.Instances)
	if limit > 0 {
		fmt.Fprintf(w, "Spent: %.3f of %.3f\n", s.Spent, limit)
	} else {
		fmt.Fprintf(w, "Spent: %.3f\n", s.Spent)
	}
	if s.Halted {
		fmt.Fprintln(w, "Batch halted before all references were processed.")
	}
}
