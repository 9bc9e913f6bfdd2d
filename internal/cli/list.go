package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkhoard/linkhoard/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks or folders",
	Long: `List all bookmarks, grouped by folder.

Subcommands:
  bookmarks  List bookmarks (default)
  folders    List folders with bookmark counts

Examples:
  linkhoard list
  linkhoard list folders`,
	RunE: runListBookmarks,
}

var listBookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List bookmarks",
	RunE:  runListBookmarks,
}

var listFoldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List folders with bookmark counts",
	RunE:  runListFolders,
}

func init() {
	listCmd.AddCommand(listBookmarksCmd)
	listCmd.AddCommand(listFoldersCmd)
}

func runListBookmarks(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	bookmarks, err := dbClient.ListBookmarks(ctx)
	if err != nil {
		return fmt.Errorf("list bookmarks: %w", err)
	}
	if len(bookmarks) == 0 {
		fmt.Println("No bookmarks found.")
		return nil
	}

	folderNames := make(map[string]string)
	folders, err := dbClient.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("list folders: %w", err)
	}
	for _, f := range folders {
		folderNames[models.MustRecordIDString(f.ID)] = f.Name
	}

	fmt.Printf("Bookmarks (%d):\n\n", len(bookmarks))
	for _, b := range bookmarks {
		pendingMark := ""
		if b.MetadataStatus == models.MetadataPending {
			pendingMark = " [pending]"
		}
		folder := ""
		if b.Folder != nil {
			if name, ok := folderNames[models.MustRecordIDString(*b.Folder)]; ok {
				folder = fmt.Sprintf(" (%s)", name)
			}
		}
		fmt.Printf("- %s%s%s\n  %s\n", b.Title, folder, pendingMark, b.URL)
		if verbose {
			fmt.Printf("  ID: %s\n", models.MustRecordIDString(b.ID))
			if b.Description != nil && *b.Description != "" {
				fmt.Printf("  %s\n", *b.Description)
			}
		}
	}

	return nil
}

func runListFolders(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	folders, err := dbClient.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("list folders: %w", err)
	}
	if len(folders) == 0 {
		fmt.Println("No folders found.")
		return nil
	}

	counts := make(map[string]int)
	bookmarks, err := dbClient.ListBookmarks(ctx)
	if err != nil {
		return fmt.Errorf("list bookmarks: %w", err)
	}
	for _, b := range bookmarks {
		if b.Folder != nil {
			counts[models.MustRecordIDString(*b.Folder)]++
		}
	}

	fmt.Printf("Folders (%d):\n\n", len(folders))
	for _, f := range folders {
		id := models.MustRecordIDString(f.ID)
		fmt.Printf("- %s (%d)\n", f.Name, counts[id])
		if verbose {
			fmt.Printf("  ID: %s\n", id)
		}
	}

	return nil
}
