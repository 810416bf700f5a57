package core

import (
	"math"
	"sort"
)

// Strategy tokens understood by the Selector.
const (
	StrategyPrice     = "price"
	StrategyRating    = "rating"
	StrategyComposite = "composite"
)

// RankingStrategy orders a project's bids. Rank returns a new slice holding
// exactly the input bids, permuted; the input slice is never modified.
type RankingStrategy interface {
	// Name returns the selector token of the strategy.
	Name() string
	Rank(bids []Bid) ([]Bid, error)
}

var (
	_ RankingStrategy = PriceAscending{}
	_ RankingStrategy = RatingDescending{}
	_ RankingStrategy = CompositeScore{}
)

// PriceAscending ranks the cheapest bids first.
// Bids with equal rates keep their input order; NaN rates sort last.
type PriceAscending struct{}

func (PriceAscending) Name() string { return StrategyPrice }

func (PriceAscending) Rank(bids []Bid) ([]Bid, error) {
	result := copyBids(bids)
	sort.SliceStable(result, func(i, j int) bool {
		return lessNaNLast(result[i].ProposedRate, result[j].ProposedRate)
	})
	return result, nil
}

// RatingDescending ranks the best-rated freelancers first.
// Bids with equal ratings keep their input order; NaN ratings sort last.
type RatingDescending struct{}

func (RatingDescending) Name() string { return StrategyRating }

func (RatingDescending) Rank(bids []Bid) ([]Bid, error) {
	result := copyBids(bids)
	sort.SliceStable(result, func(i, j int) bool {
		return lessNaNLast(-result[i].FreelancerRating, -result[j].FreelancerRating)
	})
	return result, nil
}

// CompositeWeights are the multipliers of the composite score.
type CompositeWeights struct {
	Price  float64 `json:"price" koanf:"price"`   // applied to 1/proposed_rate
	Rating float64 `json:"rating" koanf:"rating"` // applied to freelancer_rating
}

// DefaultCompositeWeights returns the standard 0.4 price-inverse / 0.6 rating split.
func DefaultCompositeWeights() CompositeWeights {
	return CompositeWeights{Price: 0.4, Rating: 0.6}
}

// CompositeScore ranks bids by
//
//	score = weights.Price * (1 / proposed_rate) + weights.Rating * freelancer_rating
//
// highest score first. Exact score ties keep their input order.
// The zero value uses DefaultCompositeWeights.
type CompositeScore struct {
	weights *CompositeWeights
}

// NewCompositeScore returns a composite strategy with the given weights.
func NewCompositeScore(weights CompositeWeights) CompositeScore {
	return CompositeScore{weights: &weights}
}

func (CompositeScore) Name() string { return StrategyComposite }

// Weights returns the weights used for scoring.
func (s CompositeScore) Weights() CompositeWeights {
	if s.weights == nil {
		return DefaultCompositeWeights()
	}
	return *s.weights
}

// Score computes the composite score of a single bid. The bid must have a
// positive, finite rate; Rank enforces that before scoring.
func (s CompositeScore) Score(bid Bid) float64 {
	w := s.Weights()
	var score float64
	// A zero weight drops its term entirely so 0*Inf never yields NaN
	if w.Price != 0 {
		score += w.Price * (1 / bid.ProposedRate)
	}
	if w.Rating != 0 {
		score += w.Rating * bid.FreelancerRating
	}
	return score
}

// Rank validates every bid first and returns a *ValidationError without
// ranking anything if one of them cannot be scored.
func (s CompositeScore) Rank(bids []Bid) ([]Bid, error) {
	if err := ValidateScorable(bids); err != nil {
		return nil, err
	}

	type scoredBid struct {
		bid   Bid
		score float64
	}

	entries := make([]scoredBid, len(bids))
	for i, bid := range bids {
		entries[i] = scoredBid{bid: bid, score: s.Score(bid)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	result := make([]Bid, len(entries))
	for i, entry := range entries {
		result[i] = entry.bid
	}
	return result, nil
}

func copyBids(bids []Bid) []Bid {
	result := make([]Bid, len(bids))
	copy(result, bids)
	return result
}

// lessNaNLast orders a before b ascending, with NaN after every number.
func lessNaNLast(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}
