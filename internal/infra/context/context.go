// Package context holds request-scoped values shared between the transport
// layer, services and logging.
package context

type contextKey string
