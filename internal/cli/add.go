package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linkhoard/linkhoard/internal/models"
	"github.com/linkhoard/linkhoard/internal/service"
)

var (
	addTitle   string
	addFolder  string
	addNoFetch bool
)

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a bookmark",
	Long: `Add a bookmark by URL.

Page metadata (title, favicon, preview image, description) is fetched
immediately unless --no-fetch is given. Adding a URL that already exists
is a no-op and prints the existing bookmark's id.

Examples:
  linkhoard add https://go.dev/blog/error-handling
  linkhoard add https://example.com --title "My Example" --folder Reading
  linkhoard add https://example.com --no-fetch`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "bookmark title (defaults to the page title)")
	addCmd.Flags().StringVarP(&addFolder, "folder", "f", "", "folder name (created if missing)")
	addCmd.Flags().BoolVar(&addNoFetch, "no-fetch", false, "skip metadata fetching")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	url := args[0]

	input := models.BookmarkInput{Title: addTitle, URL: url}
	if input.Title == "" {
		input.Title = url
	}

	if addFolder != "" {
		folderID, err := findOrCreateFolder(ctx, addFolder)
		if err != nil {
			return err
		}
		input.FolderID = &folderID
	}

	svc := service.NewBookmarks(dbClient, nil, nil, nil)
	id, err := svc.Add(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("Added bookmark: %s (%s)\n", input.Title, id)

	if !addNoFetch {
		newEnricher().RunOnce(ctx)
		b, err := dbClient.GetBookmark(ctx, id)
		if err == nil && verbose {
			fmt.Printf("  Title: %s\n", b.Title)
			if b.Description != nil {
				fmt.Printf("  Description: %s\n", *b.Description)
			}
		}
	}

	return nil
}

// findOrCreateFolder resolves a folder name to an id, creating the folder on
// first use. Matching is exact.
func findOrCreateFolder(ctx context.Context, name string) (string, error) {
	folders, err := dbClient.ListFolders(ctx)
	if err != nil {
		return "", fmt.Errorf("list folders: %w", err)
	}
	for _, f := range folders {
		if f.Name == name {
			return models.MustRecordIDString(f.ID), nil
		}
	}
	id, err := dbClient.CreateFolder(ctx, name, nil)
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	return id, nil
}
