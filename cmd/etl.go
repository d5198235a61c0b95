package main

import (
	"fmt"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/openings-cli/internal/ingest"
	"github.com/sells-group/openings-cli/internal/merge"
	"github.com/sells-group/openings-cli/internal/model"
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Fetch new events from all sources and merge them into venues",
	Long: `Runs the full ingestion pipeline: fetches events from every
configured source in parallel, stores them, links them to venues, and
records the run.

Examples:
  # Default lookback window
  etl

  # Backfill the last 30 days from TABC only
  etl --days 30 --sources TABC

  # Fetch without merging (merge later with the merge command)
  etl --skip-merge`,
	RunE: runETL,
}

func init() {
	f := etlCmd.Flags()
	f.Int("days", 0, "lookback window in days (0=use config)")
	f.String("sources", "", "comma-separated source names (default: all configured)")
	f.Bool("skip-merge", false, "store events without linking them to venues")

	rootCmd.AddCommand(etlCmd)
}

func runETL(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "etl"))

	days, _ := cmd.Flags().GetInt("days")
	if days <= 0 {
		days = cfg.ETL.LookbackDays
	}
	skipMerge, _ := cmd.Flags().GetBool("skip-merge")
	only, _ := cmd.Flags().GetString("sources")

	sources, err := buildSources(only)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return eris.New("etl: no sources selected")
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	startedAt := time.Now().UTC()
	since := startedAt.AddDate(0, 0, -days).Format("2006-01-02")
	log.Info("starting etl run",
		zap.String("since", since),
		zap.Int("sources", len(sources)))

	// Fetch all sources in parallel. A source failing is logged and
	// noted on the run record; the others still land.
	var (
		mu        sync.Mutex
		events    []model.SourceEvent
		rowCounts = map[string]int{}
		notes     []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			fetched, err := src.Fetch(gctx, since)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn("source fetch failed",
					zap.String("source", src.Name()),
					zap.Error(err))
				notes = append(notes, fmt.Sprintf("%s: %v", src.Name(), eris.Cause(err)))
				rowCounts[src.Name()] = 0
				return nil
			}
			events = append(events, fetched...)
			rowCounts[src.Name()] = len(fetched)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "etl: fetch sources")
	}

	inserted, err := st.InsertSourceEvents(ctx, events)
	if err != nil {
		return eris.Wrap(err, "etl: store events")
	}

	var result merge.Result
	if !skipMerge {
		cl, err := buildClassifier()
		if err != nil {
			return err
		}
		sc, err := buildScorer()
		if err != nil {
			return err
		}
		result, err = merge.New(st, cl, sc).ProcessUnlinked(ctx)
		if err != nil {
			return err
		}
	}

	runID, err := st.InsertETLRun(ctx, model.ETLRun{
		ID:           uuid.New().String(),
		StartedAt:    startedAt,
		FinishedAt:   time.Now().UTC(),
		LookbackDays: days,
		RowCounts:    rowCounts,
		Notes:        strings.Join(notes, "; "),
	})
	if err != nil {
		return err
	}

	fmt.Printf("ETL run %s complete\n", runID)
	for name, n := range rowCounts {
		fmt.Printf("  %-15s %d events\n", name, n)
	}
	fmt.Printf("Stored:  %d events\n", inserted)
	if !skipMerge {
		fmt.Printf("Linked:  %d (new venues: %d, skipped: %d)\n",
			result.Processed, result.Created, result.Skipped)
	}
	return nil
}

// buildSources assembles the configured source adapters, optionally
// filtered to a comma-separated allow list.
func buildSources(only string) ([]ingest.Source, error) {
	client := ingest.NewSocrataClient(
		cfg.Ingest.SocrataAppToken,
		time.Duration(cfg.Ingest.FetchTimeoutSecs)*time.Second,
		cfg.Ingest.MaxRowsPerSource,
	)

	all := []ingest.Source{
		ingest.NewTABCSource(client, cfg.Ingest.TABCEndpoint, cfg.Ingest.TargetCounties),
		ingest.NewSalesTaxSource(client, cfg.Ingest.SalesTaxEndpoint, cfg.Ingest.SalesTaxCounties, cfg.Ingest.SalesTaxNAICS),
		ingest.NewDallasCOSource(client, cfg.Ingest.DallasCOEndpoint),
	}
	if cfg.Ingest.FortWorthCOPath != "" {
		all = append(all, ingest.NewFortWorthCOSource(cfg.Ingest.FortWorthCOPath))
	}

	if only == "" {
		return all, nil
	}

	want := map[string]bool{}
	for _, name := range strings.Split(only, ",") {
		want[strings.ToUpper(strings.TrimSpace(name))] = true
	}
	var selected []ingest.Source
	for _, src := range all {
		if want[src.Name()] {
			selected = append(selected, src)
			delete(want, src.Name())
		}
	}
	for name := range want {
		return nil, eris.Errorf("etl: unknown source %q", name)
	}
	return selected, nil
}
