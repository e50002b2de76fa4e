// Package middleware wraps session stores with at-rest transformations:
// conversation logs carry free-text user input, so deployments can mask
// PII before persisting and encrypt the stored payload.
package middleware

import "github.com/rehearse-dev/rehearse/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares so the first listed is the outermost.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
