// Package delivery defines the contract shared by the transport servers.
package delivery

import "context"

// Delivery is a long-running transport endpoint, such as an HTTP server.
// Implementations block in Serve until the server stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
