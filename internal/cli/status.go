package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkhoard/linkhoard/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show collection and pipeline status",
	Long: `Show the size of the bookmark collection, how much metadata
enrichment is outstanding, and the semantic search configuration.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	bookmarks, err := dbClient.ListBookmarks(ctx)
	if err != nil {
		return fmt.Errorf("list bookmarks: %w", err)
	}
	folders, err := dbClient.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("list folders: %w", err)
	}

	pending := 0
	for _, b := range bookmarks {
		if b.MetadataStatus == models.MetadataPending {
			pending++
		}
	}

	fmt.Printf("Owner:     %s\n", cfg.Owner)
	fmt.Printf("Bookmarks: %d (%d awaiting metadata)\n", len(bookmarks), pending)
	fmt.Printf("Folders:   %d\n", len(folders))

	if cfg.SemanticSearchEnabled {
		fmt.Printf("Semantic:  enabled (%s via %s, %d dims)\n",
			cfg.EmbedModel, cfg.EmbedProvider, cfg.EmbedDimension)
	} else {
		fmt.Println("Semantic:  disabled")
	}

	if verbose {
		snap := collector.Snapshot()
		fmt.Println("\nSession timings:")
		if snap.DBQuery != nil {
			fmt.Printf("  db queries:      %d (avg %.1fms)\n", snap.DBQuery.Count, snap.DBQuery.AvgTimeMs)
		}
		if snap.Embedding != nil {
			fmt.Printf("  embeddings:      %d (avg %.1fms)\n", snap.Embedding.Count, snap.Embedding.AvgTimeMs)
		}
		if snap.MetadataFetch != nil {
			fmt.Printf("  metadata fetch:  %d (avg %.1fms)\n", snap.MetadataFetch.Count, snap.MetadataFetch.AvgTimeMs)
		}
	}

	return nil
}
