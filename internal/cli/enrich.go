package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch page metadata for pending bookmarks",
	Long: `Fetch title, favicon, preview image and description for every
bookmark that has not been enriched yet.

Unreachable pages are marked done with hostname-derived fallback data so
they are not retried forever.`,
	RunE: runEnrich,
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pending, err := dbClient.ListPendingMetadata(ctx)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}
	if len(pending) == 0 {
		fmt.Println("Nothing to enrich.")
		return nil
	}

	fmt.Printf("Enriching %d bookmarks...\n", len(pending))
	newEnricher().RunOnce(ctx)
	fmt.Println("Done.")
	return nil
}
