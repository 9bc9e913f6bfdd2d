package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkhoard/linkhoard/internal/db"
	"github.com/linkhoard/linkhoard/internal/service"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a bookmark",
	Long: `Delete a bookmark by id, together with its search embedding.

Subcommands:
  folder <id>  Delete a folder (bookmarks inside are kept)

Examples:
  linkhoard delete 9f2c4d1a
  linkhoard delete folder 1b3e5f7a`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteFolderCmd = &cobra.Command{
	Use:   "folder <id>",
	Short: "Delete a folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeleteFolder,
}

func init() {
	deleteCmd.AddCommand(deleteFolderCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	// Best effort on the queue side: without an embedder configured the
	// stored embedding (if any) is still removed directly.
	var queue *service.IndexQueue
	if cfg.SemanticSearchEnabled {
		if q, err := newIndexQueue(); err == nil {
			queue = q
		}
	}

	svc := service.NewBookmarks(dbClient, nil, queue, nil)
	if err := svc.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("bookmark %s not found", id)
		}
		return err
	}
	if queue == nil {
		if err := dbClient.DeleteBookmarkEmbedding(ctx, id); err != nil {
			fmt.Printf("Warning: could not remove embedding: %v\n", err)
		}
	}

	fmt.Printf("Deleted bookmark %s\n", id)
	return nil
}

func runDeleteFolder(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	id := args[0]

	if err := dbClient.DeleteFolder(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("folder %s not found", id)
		}
		return err
	}

	fmt.Printf("Deleted folder %s\n", id)
	return nil
}
