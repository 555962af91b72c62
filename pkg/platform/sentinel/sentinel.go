// Package sentinel holds infrastructure facts returned by stores. Services
// match them with errors.Is and translate them into domain errors; input
// validation uses pkg/domain-errors instead.
package sentinel

import "errors"

var (
	// ErrNotFound: no record under the key.
	ErrNotFound = errors.New("not found")
	// ErrExpired: the record exists but its expiry has passed, or a write
	// would store an already expired record.
	ErrExpired = errors.New("expired")
	// ErrInvalidState: the caller asked for something the store cannot
	// represent, such as a non-positive TTL.
	ErrInvalidState = errors.New("invalid state")
)
