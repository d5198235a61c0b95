package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/store"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Purge venues that are clearly not restaurants or bars",
	Long: `Finds venues whose names match exclusion keywords
(contractors, liquor stores, gas stations, churches...) and removes
them together with their source events and activity log. Names that
also match an inclusion keyword are kept.

Always preview with --dry-run first.`,
	RunE: runClean,
}

func init() {
	f := cleanCmd.Flags()
	f.Bool("dry-run", false, "list what would be purged without deleting")
	f.Bool("yes", false, "skip the confirmation prompt")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	cl, err := buildClassifier()
	if err != nil {
		return err
	}

	// Page through all venues; ListVenues caps at its limit.
	var ids []int64
	var names []string
	offset := 0
	const page = 500
	for {
		venues, err := st.ListVenues(ctx, store.VenueFilter{Limit: page, Offset: offset})
		if err != nil {
			return err
		}
		for _, v := range venues {
			if cl.Disqualified(v.Name) {
				ids = append(ids, v.ID)
				names = append(names, fmt.Sprintf("%d  %s (%s)", v.ID, v.Name, v.City))
			}
		}
		if len(venues) < page {
			break
		}
		offset += page
	}

	if len(ids) == 0 {
		fmt.Println("Nothing to clean.")
		return nil
	}

	fmt.Printf("%d venue(s) match exclusion keywords:\n", len(ids))
	for i, line := range names {
		if i == 20 {
			fmt.Printf("  ... and %d more\n", len(names)-20)
			break
		}
		fmt.Println("  " + line)
	}

	if dryRun {
		return nil
	}

	if !yes {
		fmt.Print("Delete these venues and their events? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	result, err := st.PurgeVenues(ctx, ids)
	if err != nil {
		return err
	}

	fmt.Printf("Purged %d venues, %d events, %d activities\n",
		result.Venues, result.Events, result.Activities)
	return nil
}
