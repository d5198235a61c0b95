package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/scorer"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute priority scores for every venue",
	Long: `Recomputes each venue's priority score from its cumulative
signals: recency, status, type, contact info, and how many distinct
sources corroborate it. Run after enrichment, or periodically so
recency decay is reflected.`,
	RunE: runRescore,
}

func init() {
	rootCmd.AddCommand(rescoreCmd)
}

func runRescore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	sc, err := buildScorer()
	if err != nil {
		return err
	}

	signals, err := st.VenueScoreSignals(ctx)
	if err != nil {
		return err
	}

	scores := make([]int, 0, len(signals))
	for _, sig := range signals {
		scores = append(scores, sc.Score(sig))
	}

	updated, err := scorer.Recompute(ctx, st, sc)
	if err != nil {
		return err
	}

	fmt.Printf("Rescored %d venues\n\n", updated)

	dist := scorer.Distribution(scores)
	for _, b := range []string{"Hot (100+)", "Warm (70-99)", "Cool (40-69)", "Cold (<40)"} {
		fmt.Printf("  %-14s %d\n", b, dist[b])
	}
	return nil
}
