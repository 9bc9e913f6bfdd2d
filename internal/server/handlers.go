package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/linkhoard/linkhoard/internal/db"
	"github.com/linkhoard/linkhoard/internal/models"
)

// maxImportBytes caps uploaded bookmark files.
const maxImportBytes = 32 << 20

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// storeError maps store sentinel errors to HTTP status codes.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, db.ErrNoOwner):
		s.writeError(w, http.StatusForbidden, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"metrics": s.collector.Snapshot(),
	}
	if s.queue != nil {
		stats["index_queue"] = s.queue.Status()
	}
	stats["enrichment"] = s.enricher.Progress()
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.bookmarks.List(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, bookmarks)
}

func (s *Server) handleGetBookmark(w http.ResponseWriter, r *http.Request) {
	b, err := s.bookmarks.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	var input models.BookmarkInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if input.URL == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("url is required"))
		return
	}
	if input.Title == "" {
		input.Title = input.URL
	}

	id, err := s.bookmarks.Add(r.Context(), input)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateBookmark(w http.ResponseWriter, r *http.Request) {
	var patch models.BookmarkPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}

	id := r.PathValue("id")
	if err := s.bookmarks.Update(r.Context(), id, patch); err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := s.bookmarks.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.bookmarks.ListFolders(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, folders)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if input.Name == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}

	id, err := s.bookmarks.CreateFolder(r.Context(), input.Name, input.ParentID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.bookmarks.DeleteFolder(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.search.Search(r.Context(), query, limit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if results == nil {
		results = []models.ScoredBookmark{}
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	html, err := s.bookmarks.Export(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookmarks.html"`)
	_, _ = io.WriteString(w, html)
}

// handleImport accepts a bookmark file as multipart form data (field "file")
// and runs the full import. Progress is streamed on /ws/progress; the
// response returns once the import finished.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	// The import service works on paths; spool the upload to a temp file
	// keeping the original extension for the file type check.
	tmp, err := os.CreateTemp("", "linkhoard-import-*"+filepath.Ext(header.Filename))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	tmp.Close()

	if err := s.importer.LoadFile(tmp.Name()); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.importer.ConfirmImport(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	state := s.importer.State()
	s.importer.Reset()

	// New bookmarks need metadata; the enricher chains into indexing.
	s.enricher.Kick(context.WithoutCancel(r.Context()))

	s.writeJSON(w, http.StatusOK, map[string]any{
		"imported": state.Imported,
		"job_id":   state.JobID,
	})
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		s.writeError(w, http.StatusConflict, fmt.Errorf("semantic indexing is disabled"))
		return
	}
	force := r.URL.Query().Get("force") == "true"
	if err := s.queue.StartBackfill(context.WithoutCancel(r.Context()), force); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, s.queue.Status())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		s.writeError(w, http.StatusConflict, fmt.Errorf("semantic indexing is disabled"))
		return
	}
	s.queue.Pause()
	s.writeJSON(w, http.StatusOK, s.queue.Status())
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		s.writeError(w, http.StatusConflict, fmt.Errorf("semantic indexing is disabled"))
		return
	}
	s.queue.Resume(context.WithoutCancel(r.Context()))
	s.writeJSON(w, http.StatusOK, s.queue.Status())
}
