package datasource

import "errors"

// ErrUnavailable is returned when the tunnel or database connection cannot be established.
// The underlying cause is wrapped.
var ErrUnavailable = errors.New("datasource: unavailable")
