package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reportlib/titleparser/internal/monitoring"
	"github.com/reportlib/titleparser/internal/patternstore"
	"github.com/reportlib/titleparser/internal/pipeline"
)

// newRunCmd creates the run subcommand: load the pattern library, parse
// every title in --file (or stdin, one title per line) through the
// C1-C5 pipeline, and print a PipelineResult per line.
func newRunCmd() *cobra.Command {
	var (
		inputFile    string
		patternsFile string
		outFile      string
		maxWorkers   int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Parse a batch of titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			spin := ui.LoadingSpinner("loading pattern library")
			if spin != nil {
				spin.Start()
			}
			store := patternstore.New(logger)
			src, closeSrc, err := resolvePatternSource(ctx, patternsFile)
			if err != nil {
				if spin != nil {
					spin.Stop()
				}
				return fmt.Errorf("open pattern source: %w", err)
			}
			defer closeSrc()

			if err := store.Load(ctx, src); err != nil {
				if spin != nil {
					spin.Stop()
				}
				return fmt.Errorf("load pattern library: %w", err)
			}
			if spin != nil {
				spin.Stop()
			}

			titles, err := readTitles(inputFile)
			if err != nil {
				return fmt.Errorf("read titles: %w", err)
			}
			if len(titles) == 0 {
				ui.Warning("no titles to process")
				return nil
			}

			out := os.Stdout
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			workers := maxWorkers
			if workers <= 0 {
				workers = cfg.Pipeline.MaxWorkers
			}
			p := pipeline.New(store, logger)
			wp := pipeline.NewWorkerPool(p, workers, cfg.Pipeline.PerTitleBudget)

			bar := ui.WorkerBar(int64(len(titles)))
			audit := monitoring.NewAuditLogger(logger, nil, 200)

			run := wp.Process(ctx, titles)
			enc := json.NewEncoder(out)
			counts := map[string]int{}
			for i, res := range run.Results {
				if bar != nil {
					bar.Increment()
				}
				counts[res.Status]++
				_ = audit.LogResult(ctx, titles[i], res)
				if err := enc.Encode(res); err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
			}
			ui.Close()

			ui.Info("run %s processed %d title(s)", run.ID, len(titles))
			ui.Table([]string{"status", "count"}, statusRows(counts))

			if errs := audit.LastErrors(5); len(errs) > 0 {
				ui.Warning("last %d error(s) this run (newest first):", len(errs))
				ui.Table([]string{"title_hash", "status", "notes"}, lastErrorRows(errs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "file of titles, one per line (default: stdin)")
	cmd.Flags().StringVar(&patternsFile, "patterns-file", "", "load patterns from a local JSON file instead of Mongo")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write results to this file instead of stdout")
	cmd.Flags().IntVarP(&maxWorkers, "workers", "w", 0, "worker pool size (default: config pipeline.max_workers)")
	return cmd
}

func statusRows(counts map[string]int) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, status := range []string{pipeline.StatusOK, pipeline.StatusTimeout, pipeline.StatusInvalidInput} {
		if n, ok := counts[status]; ok {
			rows = append(rows, []string{status, fmt.Sprint(n)})
		}
	}
	return rows
}

func lastErrorRows(events []monitoring.Event) [][]string {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{e.TitleHash, e.Status, strings.Join(e.Notes, "; ")})
	}
	return rows
}

func readTitles(path string) ([]string, error) {
	var r *os.File
	if path == "" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var titles []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		titles = append(titles, line)
	}
	return titles, scanner.Err()
}

// resolvePatternSource opens a local-file Source when patternsFile is
// set, or a Mongo-backed Source from cfg.Store otherwise.
func resolvePatternSource(ctx context.Context, patternsFile string) (patternstore.Source, func() error, error) {
	if patternsFile != "" {
		return patternstore.NewFileSource(patternsFile), func() error { return nil }, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	defer cancel()
	mongoSrc, err := patternstore.NewMongoSource(connectCtx, patternstore.MongoConfig{
		URI:        cfg.Store.URI,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
		Timeout:    cfg.Store.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return mongoSrc, func() error { return mongoSrc.Close(context.Background()) }, nil
}
