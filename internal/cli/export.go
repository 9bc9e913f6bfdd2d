package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linkhoard/linkhoard/internal/service"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export bookmarks as Netscape bookmark HTML",
	Long: `Export all bookmarks in the Netscape bookmark file format, the
interchange format every browser accepts for import.

Writes to stdout unless --output is given.

Examples:
  linkhoard export > bookmarks.html
  linkhoard export --output bookmarks.html`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc := service.NewBookmarks(dbClient, nil, nil, nil)
	html, err := svc.Export(ctx)
	if err != nil {
		return err
	}

	if exportOutput == "" {
		fmt.Print(html)
		return nil
	}

	if err := os.WriteFile(exportOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("write %s: %w", exportOutput, err)
	}
	fmt.Fprintf(os.Stderr, "Exported to %s\n", exportOutput)
	return nil
}
