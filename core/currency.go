package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeRates converts each bid's proposed rate into the target currency.
// conversionRates maps a currency code to the number of target units per one
// unit of that currency. Codes are matched case-insensitively.
//
// Bids already in the target currency, bids without a currency and bids whose
// currency has no positive conversion rate are returned unchanged. Non-finite
// rates are left alone for validation to reject.
func NormalizeRates(bids []Bid, conversionRates map[string]float64, targetCurrency string) []Bid {
	result := make([]Bid, len(bids))
	target := strings.ToUpper(targetCurrency)

	rates := make(map[string]float64, len(conversionRates))
	for code, rate := range conversionRates {
		rates[strings.ToUpper(code)] = rate
	}

	for i, bid := range bids {
		result[i] = bid

		currency := strings.ToUpper(bid.Currency)
		if currency == "" || currency == target {
			continue
		}
		rate, ok := rates[currency]
		if !ok || !(rate > 0) || math.IsInf(rate, 0) {
			continue
		}
		if math.IsNaN(bid.ProposedRate) || math.IsInf(bid.ProposedRate, 0) {
			continue
		}

		// Use decimal arithmetic for precise calculation
		converted := decimal.NewFromFloat(bid.ProposedRate).Mul(decimal.NewFromFloat(rate))
		result[i].ProposedRate, _ = converted.Float64()
		result[i].Currency = target
	}

	return result
}
