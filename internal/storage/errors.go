package storage

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicate is returned when a unique constraint rejects a write,
// such as registering an email twice.
var ErrDuplicate = errors.New("storage: duplicate")
