package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkhoard/linkhoard/internal/llm"
	"github.com/linkhoard/linkhoard/internal/service"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search bookmarks by meaning",
	Long: `Search bookmarks semantically. The query is embedded and matched
against bookmark embeddings by cosine similarity, so "debugging slow sql"
finds a bookmark titled "Why is my Postgres query not using the index".

When semantic search is disabled the query falls back to substring
matching on titles and URLs.

Examples:
  linkhoard search "vector database tutorial"
  linkhoard search "that article about goroutine leaks" --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "max results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var emb *llm.Embedder
	if cfg.SemanticSearchEnabled {
		var err error
		emb, err = getEmbedder()
		if err != nil {
			return err
		}
	}

	var svc *service.SearchService
	if emb != nil {
		svc = service.NewSearchService(dbClient, emb)
	} else {
		svc = service.NewSearchService(dbClient, nil)
	}

	results, err := svc.Search(ctx, args[0], searchLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range results {
		if svc.Semantic() {
			fmt.Printf("%d. %s (%.3f)\n   %s\n", i+1, r.Title, r.Score, r.URL)
		} else {
			fmt.Printf("%d. %s\n   %s\n", i+1, r.Title, r.URL)
		}
		if verbose && r.Description != nil && *r.Description != "" {
			fmt.Printf("   %s\n", *r.Description)
		}
	}

	return nil
}
