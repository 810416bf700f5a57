package core

import "math"

// ValidateScorable checks that every bid can be fed to the composite score:
// the proposed rate must be positive and finite with a finite inverse, the
// rating finite.
// Rating bounds are not enforced. The first offending bid is reported.
func ValidateScorable(bids []Bid) error {
	for _, bid := range bids {
		if err := validateRate(bid); err != nil {
			return err
		}
		if math.IsNaN(bid.FreelancerRating) || math.IsInf(bid.FreelancerRating, 0) {
			return &ValidationError{
				BidID:  bid.ID,
				Field:  FieldFreelancerRating,
				Value:  bid.FreelancerRating,
				Reason: "must be a finite number",
			}
		}
	}
	return nil
}

func validateRate(bid Bid) error {
	rate := bid.ProposedRate
	switch {
	case math.IsNaN(rate) || math.IsInf(rate, 0):
		return &ValidationError{BidID: bid.ID, Field: FieldProposedRate, Value: rate, Reason: "must be a finite number"}
	case rate <= 0:
		return &ValidationError{BidID: bid.ID, Field: FieldProposedRate, Value: rate, Reason: "must be greater than zero"}
	case math.IsInf(1/rate, 0):
		return &ValidationError{BidID: bid.ID, Field: FieldProposedRate, Value: rate, Reason: "is too small to score"}
	}
	return nil
}
