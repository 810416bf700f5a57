package core

import (
	"errors"
	"fmt"
)

// ErrInvalidBid is matched by every *ValidationError via errors.Is.
var ErrInvalidBid = errors.New("invalid bid")

// Bid fields named in validation errors.
const (
	FieldProposedRate     = "proposed_rate"
	FieldFreelancerRating = "freelancer_rating"
)

// ValidationError reports a bid that a strategy refuses to rank.
type ValidationError struct {
	BidID  string
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bid %q: %s %v: %s", e.BidID, e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidBid) true for validation failures.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidBid
}
