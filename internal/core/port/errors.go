package port

import "errors"

var (
	// ErrNotFound signals an operation against an unknown campaign or
	// post id where no nil result can carry the outcome.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState signals an operation attempted outside the status
	// that permits it (drawing a non-lottery campaign, updating a posted
	// post, restarting a running scheduler).
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrDuplicateEntry signals a second entry attempt by the same user
	// for the same campaign.
	ErrDuplicateEntry = errors.New("duplicate campaign entry")

	// ErrPrizeExhausted signals an award attempt against a prize with no
	// remaining inventory.
	ErrPrizeExhausted = errors.New("prize exhausted")
)
