package numerator

import "errors"

var (
	// ErrSequenceExhausted is wrapped by the error Next returns after every
	// attempt collided with an existing document.
	ErrSequenceExhausted = errors.New("document number sequence exhausted")

	// ErrDuplicateCheckUnavailable is wrapped when the registry lookup failed
	// under the fail-closed policy.
	ErrDuplicateCheckUnavailable = errors.New("duplicate registry unavailable")
)
