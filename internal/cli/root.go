// Package cli provides the command-line interface for linkhoard.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linkhoard/linkhoard/internal/config"
	"github.com/linkhoard/linkhoard/internal/db"
	"github.com/linkhoard/linkhoard/internal/llm"
	"github.com/linkhoard/linkhoard/internal/metadata"
	"github.com/linkhoard/linkhoard/internal/metrics"
	"github.com/linkhoard/linkhoard/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client

	collector = metrics.NewCollector()

	// Lazy-initialized embedder; nil until a command asks for it.
	embedder *llm.Embedder
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "linkhoard",
	Short: "Bookmark manager with semantic search",
	Long: `Linkhoard is a bookmark manager that imports browser bookmark exports,
enriches every link with page metadata, and makes the collection searchable
by meaning, not just by title.

Bookmarks are stored in SurrealDB; embeddings for semantic search are
generated locally via Ollama (or through the OpenAI API).`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
			Owner:     cfg.Owner,
		}

		dbClient, err = db.NewClient(ctx, dbCfg, nil, collector)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	},
}

// getEmbedder lazily initializes the embedding provider. Returns an error
// when semantic search is disabled by configuration.
func getEmbedder() (*llm.Embedder, error) {
	if !cfg.SemanticSearchEnabled {
		return nil, fmt.Errorf("semantic search is disabled (set LINKHOARD_SEMANTIC_SEARCH=true)")
	}
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg, collector)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
	}
	return embedder, nil
}

// newEnricher builds a metadata enricher against the connected store.
func newEnricher() *service.Enricher {
	fetcher := metadata.NewFetcher(cfg.MetadataTimeout, collector)
	return service.NewEnricher(dbClient, fetcher, cfg.EnrichConcurrency, nil)
}

// newIndexQueue builds the indexing queue, requiring a working embedder.
func newIndexQueue() (*service.IndexQueue, error) {
	emb, err := getEmbedder()
	if err != nil {
		return nil, err
	}
	cache, err := service.NewHashCache(cfg.HashCachePath)
	if err != nil {
		return nil, fmt.Errorf("open hash cache: %w", err)
	}
	return service.NewIndexQueue(dbClient, emb, cache, true, nil), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(statusCmd)
}
