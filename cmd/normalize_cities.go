package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/normalize"
)

var normalizeCitiesCmd = &cobra.Command{
	Use:   "normalize-cities",
	Short: "Re-title venue city names to a consistent casing",
	Long: `Upstream feeds disagree on casing ("DALLAS", "dallas",
"Dallas"). This rewrites every stored city to title case so listings
and per-city metrics group correctly.`,
	RunE: runNormalizeCities,
}

func init() {
	normalizeCitiesCmd.Flags().Bool("dry-run", false, "show renames without applying them")
	rootCmd.AddCommand(normalizeCitiesCmd)
}

func runNormalizeCities(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	cities, err := st.DistinctCities(ctx)
	if err != nil {
		return err
	}

	var renamed int64
	for _, c := range cities {
		titled := normalize.City(c.City)
		if titled == c.City {
			continue
		}
		fmt.Printf("%-25s -> %-25s (%d venues)\n", c.City, titled, c.Count)
		if dryRun {
			continue
		}
		n, err := st.RetitleCity(ctx, c.City, titled)
		if err != nil {
			return err
		}
		renamed += n
	}

	if dryRun {
		fmt.Println("Dry run, nothing changed.")
		return nil
	}
	fmt.Printf("Updated %d venue(s)\n", renamed)
	return nil
}
