package repository

import "errors"

// ErrStaleState is returned when a conditional update matched no row because
// the row no longer holds the status the caller locked.
var ErrStaleState = errors.New("row state changed concurrently")
