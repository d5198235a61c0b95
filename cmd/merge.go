package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/merge"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Link stored source events to venues",
	Long: `Processes every source event not yet linked to a venue:
normalizes, classifies, scores, and either creates a venue or merges
into the matching one. Safe to re-run; already-linked events are
untouched.`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	cl, err := buildClassifier()
	if err != nil {
		return err
	}
	sc, err := buildScorer()
	if err != nil {
		return err
	}

	result, err := merge.New(st, cl, sc).ProcessUnlinked(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Linked:     %d\n", result.Processed)
	fmt.Printf("New venues: %d\n", result.Created)
	fmt.Printf("Skipped:    %d\n", result.Skipped)
	return nil
}
