package store

import "errors"

// ErrEmptyText is returned when insert, search, or embed gets text that is
// blank after trimming. It is a validation failure, never fatal.
var ErrEmptyText = errors.New("text cannot be empty")
