// package models defines the data model shared by the shiftswap client, its views and the sandbox backend.
//
// Backend-owned records ([Event], [SwapRequest], [User]) are plain values decoded from JSON.
// Records the client keeps on disk, such as [Notification], implement [Model] and are stored
// through a [Repository].
package models

import (
	"time"
)

// Model is a record persisted in the client's state database.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	// Validate reports the first invalid field, wrapped in ErrInvalidInput.
	Validate() error
}

// Repository is the local store of one [Model] kind.
//
// List criteria are column filters; "limit" bounds the result and never filters.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}
