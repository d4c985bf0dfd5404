// Package kit holds the transport-agnostic service plumbing: the Endpoint
// abstraction shared by HTTP and MCP transports, middleware chaining, and
// request-scoped context accessors.
package kit

import "context"

// Endpoint is one request/response operation, independent of transport.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
