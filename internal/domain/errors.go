package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product id does not resolve
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidInput is returned when request parameters or raw exports are unusable
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable is returned when the persistence layer cannot be reached
	ErrUpstreamUnavailable = errors.New("persistence layer unavailable")

	// ErrVersionConflict is returned when a product changed between load and save
	ErrVersionConflict = errors.New("product was modified concurrently")

	// ErrCartItemNotFound is returned when a cart line does not exist
	ErrCartItemNotFound = errors.New("item not found in cart")

	// ErrUnauthorized is returned when no user identity could be resolved
	ErrUnauthorized = errors.New("not authorized")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrFeedUnavailable is returned when a remote catalog export cannot be fetched
	ErrFeedUnavailable = errors.New("catalog feed unavailable")
)
