// Package sentinel holds errors for infrastructure facts about simulated external
// contracts (NFT collections, resolvers). Callers wrap them with context and registries
// translate them into domain-errors codes.
package sentinel

import "errors"

var (
	// ErrNotFound: the token or contract does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: the address or token id is already taken.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState: the caller may not perform the operation in the current state.
	ErrInvalidState = errors.New("invalid state")
)
