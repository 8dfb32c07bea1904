// Package db defines shared error types for the storage drivers.
package db

import "errors"

// ErrKeyNotFound is returned by point lookups when the backend
// confirmed the key or document does not exist.
var ErrKeyNotFound = errors.New("db: key not found")

// ErrInvalidKey is returned when an identifier cannot be interpreted by
// the store at all. No backend operation took place, so callers must
// not treat it as evidence about backend health.
var ErrInvalidKey = errors.New("db: invalid key")

// Op constants name the backend command for error context.
const (
	OpGet        = "GET"
	OpSet        = "SET"
	OpIncr       = "INCR"
	OpExpire     = "EXPIRE"
	OpLPush      = "LPUSH"
	OpLRange     = "LRANGE"
	OpPing       = "PING"
	OpFind       = "find"
	OpFindOne    = "findOne"
	OpCount      = "count"
	OpInsertMany = "insertMany"
	OpIndexes    = "createIndexes"
)

// Error wraps an underlying driver error with the operation name.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
