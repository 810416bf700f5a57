package core

// Selector resolves a request's strategy token to a RankingStrategy.
// Unknown or empty tokens resolve to the composite strategy; that is the
// intended default, not an error path.
type Selector struct {
	strategies map[string]RankingStrategy
	fallback   RankingStrategy
}

// NewSelector builds the token table once. The weights configure the
// composite strategy.
func NewSelector(weights CompositeWeights) *Selector {
	composite := NewCompositeScore(weights)
	return &Selector{
		strategies: map[string]RankingStrategy{
			StrategyPrice:     PriceAscending{},
			StrategyRating:    RatingDescending{},
			StrategyComposite: composite,
		},
		fallback: composite,
	}
}

// Select returns the strategy for token. Matching is exact.
func (s *Selector) Select(token string) RankingStrategy {
	if strategy, ok := s.strategies[token]; ok {
		return strategy
	}
	return s.fallback
}

// IsKnown reports whether token names a strategy rather than falling back.
func (s *Selector) IsKnown(token string) bool {
	_, ok := s.strategies[token]
	return ok
}

var defaultSelector = NewSelector(DefaultCompositeWeights())

// SelectStrategy resolves token using the default composite weights.
func SelectStrategy(token string) RankingStrategy {
	return defaultSelector.Select(token)
}
