package reading

import "errors"

// ErrMalformed is returned when a persisted record cannot be decoded.
var ErrMalformed = errors.New("reading: malformed record")
