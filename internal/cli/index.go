package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the semantic search index",
	Long: `Embed all bookmarks for semantic search.

Bookmarks whose content (title, URL, description) has not changed since
they were last embedded are skipped. Use --force to re-embed everything,
for example after switching embedding models.

Examples:
  linkhoard index
  linkhoard index --force`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "re-embed unchanged bookmarks too")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	queue, err := newIndexQueue()
	if err != nil {
		return err
	}

	if err := queue.StartBackfill(ctx, indexForce); err != nil {
		return err
	}
	if err := queue.Wait(ctx); err != nil {
		return err
	}

	status := queue.Status()
	fmt.Printf("Indexed %d bookmarks (%d unchanged, %d failed)\n",
		status.Processed, status.Skipped, status.Failed)
	if status.Failed > 0 {
		return fmt.Errorf("%d bookmarks failed to index", status.Failed)
	}
	return nil
}
