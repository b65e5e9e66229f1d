package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reportlib/titleparser/internal/cache"
	"github.com/reportlib/titleparser/internal/patternstore"
	"github.com/reportlib/titleparser/internal/pipeline"
)

// newReloadPatternsCmd publishes a reload signal so a running process
// re-runs patternstore.Store.Load without restarting (spec.md §3.4).
func newReloadPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload-patterns",
		Short: "Notify running pipeline processes to reload the pattern library",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := cache.NewRedisClient(cache.RedisConfig{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
				PoolSize: cfg.Cache.Redis.PoolSize,
			})
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer client.Close()

			if err := client.PublishReload(cmd.Context(), cfg.Cache.ReloadTopic); err != nil {
				return fmt.Errorf("publish reload: %w", err)
			}
			ui.Success("published reload to %q", cfg.Cache.ReloadTopic)
			return nil
		},
	}
}

// newValidateLibraryCmd loads a pattern library (Mongo or a local
// file) and reports whether it satisfies the store's load-time
// invariants (spec.md §4.1), without starting a pipeline.
func newValidateLibraryCmd() *cobra.Command {
	var patternsFile string

	cmd := &cobra.Command{
		Use:   "validate-library",
		Short: "Validate a pattern library without running the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := patternstore.New(logger)

			src, closeSrc, err := resolvePatternSource(ctx, patternsFile)
			if err != nil {
				return fmt.Errorf("open pattern source: %w", err)
			}
			defer closeSrc()

			if err := store.Load(ctx, src); err != nil {
				ui.Error("library invalid: %v", err)
				return err
			}

			rows := [][]string{}
			for _, t := range []patternstore.PatternType{
				patternstore.TypeMarketTerm,
				patternstore.TypeDatePattern,
				patternstore.TypeReportType,
				patternstore.TypeGeographic,
				patternstore.TypeSeparator,
				patternstore.TypeCleanupRule,
			} {
				rows = append(rows, []string{string(t), fmt.Sprint(len(store.PatternsFor(t, "")))})
			}

			ui.Success("library valid (boundary_marker \"Market\" present)")
			ui.Table([]string{"type", "record count"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&patternsFile, "patterns-file", "", "validate a local JSON file instead of Mongo")
	return cmd
}

// newLastErrorsCmd reads a JSONL results file produced by `run --out`
// and prints the most recent non-ok entries — the debugging surface
// spec.md §9 calls for, without requiring a long-lived audit process.
func newLastErrorsCmd() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "last-errors <results-file>",
		Short: "Show the most recent non-ok results from a prior run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open results file: %w", err)
			}
			defer f.Close()

			var bad []pipeline.PipelineResult
			scanner := bufio.NewScanner(f)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				var res pipeline.PipelineResult
				if err := json.Unmarshal(scanner.Bytes(), &res); err != nil {
					continue
				}
				if res.Status != pipeline.StatusOK {
					bad = append(bad, res)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("scan results file: %w", err)
			}

			if len(bad) > n {
				bad = bad[len(bad)-n:]
			}
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				for _, res := range bad {
					_ = enc.Encode(res)
				}
				return nil
			}

			rows := make([][]string, 0, len(bad))
			for _, res := range bad {
				rows = append(rows, []string{res.Status, fmt.Sprint(res.ProcessingNotes)})
			}
			ui.Table([]string{"status", "notes"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "limit", "n", 20, "maximum number of entries to show")
	return cmd
}
