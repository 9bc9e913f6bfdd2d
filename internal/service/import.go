package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linkhoard/linkhoard/internal/metrics"
	"github.com/linkhoard/linkhoard/internal/models"
	"github.com/linkhoard/linkhoard/internal/netscape"
)

// ImportPhase is the lifecycle phase of an import job.
type ImportPhase string

const (
	PhaseIdle       ImportPhase = "idle"
	PhaseParsing    ImportPhase = "parsing"
	PhasePreviewing ImportPhase = "previewing"
	PhaseImporting  ImportPhase = "importing"
	PhaseDone       ImportPhase = "done"
	PhaseError      ImportPhase = "error"
)

// ImportState is an immutable snapshot of an import job. Observers receive a
// fresh snapshot on every transition; fields are populated per phase.
type ImportState struct {
	Phase ImportPhase `json:"phase"`
	JobID string      `json:"job_id,omitempty"`

	// Previewing: the parsed file awaiting confirmation.
	Result        *netscape.ParseResult `json:"-"`
	BookmarkCount int                   `json:"bookmark_count,omitempty"`
	FolderCount   int                   `json:"folder_count,omitempty"`

	// Importing: chunked progress.
	Imported int `json:"imported"`
	Total    int `json:"total"`

	// Error: a user-presentable message. Details go to the log only.
	Message string `json:"message,omitempty"`
}

// ImportObserver receives state snapshots. Callbacks run on the importing
// goroutine; observers must not block.
type ImportObserver func(ImportState)

// ImportService orchestrates bookmark file imports: parse, preview, then
// chunked persistence with progress reporting. One import runs at a time.
type ImportService struct {
	store     Store
	chunkSize int
	collector *metrics.Collector
	log       *slog.Logger

	mu        sync.Mutex
	state     ImportState
	observers []ImportObserver
}

// NewImportService creates an import orchestrator. chunkSize bounds how many
// bookmarks are written per store round-trip.
func NewImportService(store Store, chunkSize int, collector *metrics.Collector, log *slog.Logger) *ImportService {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	if log == nil {
		log = slog.Default()
	}
	return &ImportService{
		store:     store,
		chunkSize: chunkSize,
		collector: collector,
		log:       log,
		state:     ImportState{Phase: PhaseIdle},
	}
}

// Subscribe registers an observer for state transitions. The observer is
// immediately called with the current state.
func (s *ImportService) Subscribe(fn ImportObserver) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	state := s.state
	s.mu.Unlock()
	fn(state)
}

// State returns the current snapshot.
func (s *ImportService) State() ImportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ImportService) transition(state ImportState) {
	s.mu.Lock()
	s.state = state
	observers := slices.Clone(s.observers)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(state)
	}
}

// LoadFile parses a bookmark file and moves the job to the previewing phase.
// Only .html/.htm files are accepted. The file is not persisted until
// ConfirmImport.
func (s *ImportService) LoadFile(path string) error {
	s.mu.Lock()
	if s.state.Phase == PhaseImporting {
		s.mu.Unlock()
		return fmt.Errorf("an import is already running")
	}
	s.mu.Unlock()

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".html" && ext != ".htm" {
		return fmt.Errorf("unsupported file type %q: expected a .html bookmark export", ext)
	}

	jobID := uuid.New().String()[:8]
	s.transition(ImportState{Phase: PhaseParsing, JobID: jobID})

	data, err := os.ReadFile(path)
	if err != nil {
		s.fail(jobID, "could not read the selected file", err)
		return fmt.Errorf("read bookmark file: %w", err)
	}

	result := netscape.Parse(string(data))
	if len(result.Errors) > 0 {
		// A result with parse errors may be partial and must not be imported.
		s.log.Warn("bookmark file parsed with errors", "job", jobID, "errors", result.Errors)
		s.fail(jobID, result.Errors[0], nil)
		return fmt.Errorf("parse %s: %s", filepath.Base(path), result.Errors[0])
	}
	if len(result.Bookmarks) == 0 {
		s.fail(jobID, "no bookmarks found in the file", nil)
		return fmt.Errorf("no bookmarks found in %s", filepath.Base(path))
	}

	s.log.Info("bookmark file parsed",
		"job", jobID,
		"file", filepath.Base(path),
		"bookmarks", len(result.Bookmarks),
		"folders", len(result.Folders))

	s.transition(ImportState{
		Phase:         PhasePreviewing,
		JobID:         jobID,
		Result:        &result,
		BookmarkCount: len(result.Bookmarks),
		FolderCount:   len(result.Folders),
	})
	return nil
}

// ConfirmImport persists the previewed file: folders first, then bookmarks in
// chunks, emitting a progress snapshot after every chunk. Duplicate bookmarks
// (same URL for this owner) are silently skipped by the store, so re-importing
// the same file is safe.
func (s *ImportService) ConfirmImport(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Phase != PhasePreviewing || s.state.Result == nil {
		phase := s.state.Phase
		s.mu.Unlock()
		return fmt.Errorf("no parsed file to import (phase %s)", phase)
	}
	jobID := s.state.JobID
	result := *s.state.Result
	s.mu.Unlock()

	total := len(result.Bookmarks)
	s.transition(ImportState{Phase: PhaseImporting, JobID: jobID, Imported: 0, Total: total})

	folderIDs := make(map[string]string, len(result.Folders))
	for _, name := range result.Folders {
		id, err := s.store.CreateFolder(ctx, name, nil)
		if err != nil {
			s.fail(jobID, "import failed while creating folders", err)
			return fmt.Errorf("create folder %q: %w", name, err)
		}
		folderIDs[name] = id
	}

	imported := 0
	for chunk := range slices.Chunk(result.Bookmarks, s.chunkSize) {
		if err := ctx.Err(); err != nil {
			s.fail(jobID, "import cancelled", err)
			return err
		}

		inputs := make([]models.BookmarkInput, 0, len(chunk))
		for _, b := range chunk {
			input := models.BookmarkInput{Title: b.Title, URL: b.URL}
			if b.Folder != "" {
				if id, ok := folderIDs[b.Folder]; ok {
					input.FolderID = &id
				}
			}
			inputs = append(inputs, input)
		}

		start := time.Now()
		created, err := s.store.BatchCreateBookmarks(ctx, inputs)
		if s.collector != nil {
			s.collector.RecordTiming(metrics.OpImportChunk, time.Since(start))
		}
		if err != nil {
			s.fail(jobID, "import failed while saving bookmarks", err)
			return fmt.Errorf("import chunk: %w", err)
		}

		imported += len(chunk)
		s.log.Debug("import chunk persisted",
			"job", jobID, "chunk", len(chunk), "created", len(created), "imported", imported, "total", total)
		s.transition(ImportState{Phase: PhaseImporting, JobID: jobID, Imported: imported, Total: total})
	}

	s.log.Info("import complete", "job", jobID, "bookmarks", total, "folders", len(result.Folders))
	s.transition(ImportState{Phase: PhaseDone, JobID: jobID, Imported: imported, Total: total})
	return nil
}

// Reset returns the service to idle. It does not abort a store write already
// in flight; it only clears the job state so a new file can be loaded.
func (s *ImportService) Reset() {
	s.transition(ImportState{Phase: PhaseIdle})
}

func (s *ImportService) fail(jobID, message string, err error) {
	if err != nil {
		s.log.Error("import failed", "job", jobID, "error", err)
	} else {
		s.log.Error("import failed", "job", jobID, "reason", message)
	}
	s.transition(ImportState{Phase: PhaseError, JobID: jobID, Message: message})
}
