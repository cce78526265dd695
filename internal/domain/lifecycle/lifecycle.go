// Package lifecycle holds shared constants for component startup and shutdown.
package lifecycle

import "time"

// DefaultTimeout bounds how long a component may take to start or stop
// during fx lifecycle transitions.
const DefaultTimeout = 10 * time.Second
