package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/linkhoard/linkhoard/internal/service"
)

var (
	importYes      bool
	importNoEnrich bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a browser bookmark export",
	Long: `Import a Netscape bookmark HTML file, the format every browser
produces when exporting bookmarks.

The file is parsed and summarized first; the import only runs after
confirmation. Bookmarks already present (same URL) are skipped, so
importing the same file twice is safe. After the import, page metadata
is fetched for the new bookmarks unless --no-enrich is given.

Examples:
  linkhoard import ~/Downloads/bookmarks.html
  linkhoard import bookmarks.html --yes --no-enrich`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "skip the confirmation prompt")
	importCmd.Flags().BoolVar(&importNoEnrich, "no-enrich", false, "skip metadata fetching after import")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc := service.NewImportService(dbClient, cfg.ImportChunkSize, collector, nil)
	if err := svc.LoadFile(args[0]); err != nil {
		return err
	}

	state := svc.State()
	fmt.Printf("Parsed %s: %d bookmarks, %d folders\n", args[0], state.BookmarkCount, state.FolderCount)
	if len(state.Result.Errors) > 0 {
		fmt.Printf("Warnings (%d):\n", len(state.Result.Errors))
		for _, e := range state.Result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	if !importYes && !confirmPrompt("Import?") {
		svc.Reset()
		fmt.Println("Aborted.")
		return nil
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		if err := runImportProgress(svc, func() error {
			return svc.ConfirmImport(ctx)
		}); err != nil {
			return err
		}
	} else {
		svc.Subscribe(func(st service.ImportState) {
			if st.Phase == service.PhaseImporting && st.Imported > 0 {
				fmt.Printf("  %d/%d bookmarks\n", st.Imported, st.Total)
			}
		})
		if err := svc.ConfirmImport(ctx); err != nil {
			return err
		}
	}

	final := svc.State()
	fmt.Printf("Imported %d bookmarks.\n", final.Imported)

	if !importNoEnrich {
		fmt.Println("Fetching page metadata...")
		newEnricher().RunOnce(ctx)
		fmt.Println("Done.")
	}

	return nil
}

// confirmPrompt asks a yes/no question on stdin.
func confirmPrompt(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
