package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// BookmarkEmbedding is the stored vector for one bookmark, keyed by bookmark id.
// Upserts replace the record wholesale.
type BookmarkEmbedding struct {
	ID          surrealmodels.RecordID `json:"id"`
	Owner       string                 `json:"owner"`
	Embedding   []float32              `json:"embedding"`
	Dim         int                    `json:"dim"`
	Model       string                 `json:"model"`
	Dtype       string                 `json:"dtype"`
	ContentHash string                 `json:"content_hash"`
	Updated     time.Time              `json:"updated,omitempty"`
}

// ScoredBookmark is a bookmark with its semantic search distance.
type ScoredBookmark struct {
	Bookmark
	Score float64 `json:"score"`
}
