// README: Shared error kind for unexpected failures (store down, driver errors).
package types

import "errors"

// ErrInternal marks failures that are not the caller's fault. Services wrap
// store errors with it so callers can tell them apart from domain errors.
var ErrInternal = errors.New("internal failure")
