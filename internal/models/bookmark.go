// Package models defines data structures for the linkhoard bookmark store.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// MetadataStatus tracks whether page metadata has been fetched for a bookmark.
type MetadataStatus string

const (
	MetadataPending   MetadataStatus = "pending"
	MetadataCompleted MetadataStatus = "completed"
)

// Bookmark is a stored bookmark owned by a single principal.
type Bookmark struct {
	ID             surrealmodels.RecordID  `json:"id"`
	Owner          string                  `json:"owner"`
	Title          string                  `json:"title"`
	URL            string                  `json:"url"`
	Folder         *surrealmodels.RecordID `json:"folder,omitempty"`
	Favicon        *string                 `json:"favicon,omitempty"`
	OGImage        *string                 `json:"og_image,omitempty"`
	Description    *string                 `json:"description,omitempty"`
	MetadataStatus MetadataStatus          `json:"metadata_status"`
	Created        time.Time               `json:"created,omitempty"`
}

// BookmarkInput holds the fields for creating a bookmark.
type BookmarkInput struct {
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	FolderID *string `json:"folder_id,omitempty"`
	Favicon  *string `json:"favicon,omitempty"`
	OGImage  *string `json:"og_image,omitempty"`
}

// BookmarkPatch holds optional fields for a partial update.
// Nil fields are left untouched; title and url are never nulled out.
type BookmarkPatch struct {
	Title       *string `json:"title,omitempty"`
	URL         *string `json:"url,omitempty"`
	FolderID    *string `json:"folder_id,omitempty"`
	Favicon     *string `json:"favicon,omitempty"`
	OGImage     *string `json:"og_image,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Folder groups bookmarks. Folders may nest via ParentID.
type Folder struct {
	ID       surrealmodels.RecordID  `json:"id"`
	Owner    string                  `json:"owner"`
	Name     string                  `json:"name"`
	ParentID *surrealmodels.RecordID `json:"parent,omitempty"`
	Created  time.Time               `json:"created,omitempty"`
}
