package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/ingest"
	"github.com/sells-group/openings-cli/internal/merge"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a CSV or XLSX drop as source events",
	Long: `Imports a local spreadsheet from a feed that publishes file
exports instead of an API. Column names are mapped with flags; by
default the Fort Worth CO export layout is assumed.

Examples:
  import fortworth_co.xlsx
  import permits.csv --source SOUTHLAKE_PERMIT --event-type permit_filed \
      --name-col "Applicant" --address-col "Site Address" --city Southlake --date-col "Issued"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.String("source", "", "source system name (default: FORTWORTH_CO)")
	f.String("event-type", "co_issued", "event type to record")
	f.String("city", "", "default city when the file has no city column")
	f.String("name-col", "", "column holding the business name")
	f.String("address-col", "", "column holding the street address")
	f.String("city-col", "", "column holding the city")
	f.String("date-col", "", "column holding the event date")
	f.String("id-col", "", "column holding the upstream record id")
	f.String("since", "1970-01-01", "ignore rows dated before this (YYYY-MM-DD)")
	f.Bool("skip-merge", false, "store events without linking them to venues")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := args[0]
	system, _ := cmd.Flags().GetString("source")
	eventType, _ := cmd.Flags().GetString("event-type")
	city, _ := cmd.Flags().GetString("city")
	nameCol, _ := cmd.Flags().GetString("name-col")
	addressCol, _ := cmd.Flags().GetString("address-col")
	cityCol, _ := cmd.Flags().GetString("city-col")
	dateCol, _ := cmd.Flags().GetString("date-col")
	idCol, _ := cmd.Flags().GetString("id-col")
	since, _ := cmd.Flags().GetString("since")
	skipMerge, _ := cmd.Flags().GetBool("skip-merge")

	var src ingest.Source
	if system == "" || strings.EqualFold(system, ingest.SystemFortWorthCO) {
		src = ingest.NewFortWorthCOSource(path)
	} else {
		if nameCol == "" || addressCol == "" {
			return eris.New("import: --name-col and --address-col are required for custom sources")
		}
		src = ingest.NewFileSource(strings.ToUpper(system), eventType, path, city, ingest.ColumnMap{
			Name:     nameCol,
			Address:  addressCol,
			City:     cityCol,
			Date:     dateCol,
			RecordID: idCol,
		})
	}

	events, err := src.Fetch(ctx, since)
	if err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	inserted, err := st.InsertSourceEvents(ctx, events)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d event(s) from %s\n", inserted, path)

	if skipMerge {
		return nil
	}

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
	fmt.Printf("Linked:  %d (new venues: %d, skipped: %d)\n",
		result.Processed, result.Created, result.Skipped)
	return nil
}
