// Package db provides error types for database operations.
package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the requested record does not exist or is not
	// owned by the current principal.
	ErrNotFound = errors.New("record not found")

	// ErrNoOwner indicates a mutation was attempted without an authenticated
	// owner. Mutations are rejected before any state change.
	ErrNoOwner = errors.New("no owner configured")

	// ErrDuplicate indicates a unique index rejected the write. Bookmark
	// creation handles this internally via the (owner, url) natural key;
	// seeing it escape means a concurrent writer won the race.
	ErrDuplicate = errors.New("record already exists")
)

// wrapQueryError inspects a SurrealDB error and wraps it with the appropriate
// sentinel error if it matches a known query error pattern. Returns the
// original error otherwise.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		if strings.Contains(queryErr.Message, "already contains") ||
			strings.Contains(queryErr.Message, "already exists") {
			return fmt.Errorf("%w: %s", ErrDuplicate, queryErr.Message)
		}
	}

	return err
}
