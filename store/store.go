// Package store contains the gorm-backed persistence layer. Each store
// owns one table; atomicity of single-row operations is delegated to
// the database.
package store

import "errors"

// ErrNotFound is returned when a lookup matches no row. Every other
// store error wraps the underlying driver error.
var ErrNotFound = errors.New("record not found")
