package core

// Ranker is the entry point callers use to rank bids. It holds one strategy
// and delegates to it.
type Ranker struct {
	strategy RankingStrategy
}

// NewRanker returns a Ranker for strategy. A nil strategy falls back to the
// default composite strategy.
func NewRanker(strategy RankingStrategy) *Ranker {
	if strategy == nil {
		strategy = SelectStrategy(StrategyComposite)
	}
	return &Ranker{strategy: strategy}
}

// Strategy returns the strategy the ranker delegates to.
func (r *Ranker) Strategy() RankingStrategy {
	return r.strategy
}

// RankBids returns bids in the order chosen by the held strategy.
func (r *Ranker) RankBids(bids []Bid) ([]Bid, error) {
	return r.strategy.Rank(bids)
}
