package core

import (
	"errors"
	"fmt"
	"strconv"
)

// RankOptions configures RankProjectBids.
type RankOptions struct {
	// Strategy is the selector token ("price", "rating", "composite" or anything else)
	Strategy string

	// Currency, when set together with ConversionRates, normalizes proposed
	// rates into this currency before ranking
	Currency        string
	ConversionRates map[string]float64

	// Selector overrides the default selector (e.g. configured composite weights)
	Selector *Selector
}

// RankProjectBids executes the ranking flow for one project:
//  1. Resolve the strategy from the selector token
//  2. Rank the bids, on rates normalized into the project currency if requested
//  3. Build positions and pick the top bid
//
// Returned bids are the submitted bids, field for field, in ranked order.
// Normalized rates only decide the order.
func RankProjectBids(bids []Bid, opts RankOptions) (*RankingResult, error) {
	// Step 1: Resolve strategy
	selector := opts.Selector
	if selector == nil {
		selector = defaultSelector
	}
	ranker := NewRanker(selector.Select(opts.Strategy))

	// Step 2: Rank, normalizing first when a currency was requested
	var ranked []Bid
	var err error
	if opts.Currency != "" && len(opts.ConversionRates) > 0 {
		ranked, err = rankNormalized(ranker, bids, NormalizeRates(bids, opts.ConversionRates, opts.Currency))
	} else {
		ranked, err = ranker.RankBids(bids)
	}
	if err != nil {
		return nil, err
	}

	// Step 3: Positions
	result := &RankingResult{
		Strategy: ranker.Strategy().Name(),
		Bids:     ranked,
		Ranks:    make(map[string]int, len(ranked)),
	}
	for i := range ranked {
		if ranked[i].ID != "" {
			if _, seen := result.Ranks[ranked[i].ID]; !seen {
				result.Ranks[ranked[i].ID] = i + 1
			}
		}
	}
	if len(ranked) > 0 {
		result.Top = &ranked[0]
	}

	return result, nil
}

// BidIDs returns the IDs of bids in order.
func BidIDs(bids []Bid) []string {
	ids := make([]string, len(bids))
	for i, bid := range bids {
		ids[i] = bid.ID
	}
	return ids
}

// rankNormalized ranks the normalized copies and maps the order back onto the
// submitted bids. Copies are tagged with their input position so duplicate
// IDs map back exactly.
func rankNormalized(ranker *Ranker, submitted, normalized []Bid) ([]Bid, error) {
	tagged := make([]Bid, len(normalized))
	for i, bid := range normalized {
		tagged[i] = bid
		tagged[i].ID = strconv.Itoa(i)
	}

	ranked, err := ranker.RankBids(tagged)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			if i, convErr := strconv.Atoi(verr.BidID); convErr == nil && i >= 0 && i < len(submitted) {
				verr.BidID = submitted[i].ID
			}
		}
		return nil, err
	}

	result := make([]Bid, len(ranked))
	for pos, bid := range ranked {
		i, err := strconv.Atoi(bid.ID)
		if err != nil || i < 0 || i >= len(submitted) {
			return nil, fmt.Errorf("strategy %s returned an unknown bid %q", ranker.Strategy().Name(), bid.ID)
		}
		result[pos] = submitted[i]
	}
	return result, nil
}
