package models

import "github.com/google/uuid"

// LookupStatus distinguishes the three states a client can observe for a
// single-entity query. Servers only ever produce NotFound or Found;
// Loading is the state a client holds before the response arrives.
type LookupStatus string

const (
	LookupLoading  LookupStatus = "loading"
	LookupNotFound LookupStatus = "not_found"
	LookupFound    LookupStatus = "found"
)

// Lookup is an explicit tagged result: Value is set only when Status is
// LookupFound.
type Lookup[T any] struct {
	Status LookupStatus `json:"status"`
	Value  *T           `json:"value,omitempty"`
}

func Found[T any](v T) Lookup[T] {
	return Lookup[T]{Status: LookupFound, Value: &v}
}

func NotFound[T any]() Lookup[T] {
	return Lookup[T]{Status: LookupNotFound}
}

func (l Lookup[T]) IsFound() bool {
	return l.Status == LookupFound && l.Value != nil
}

// NewID returns a fresh record id.
func NewID() string {
	return uuid.NewString()
}
