package validation

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/bidranking/core"
	"github.com/cloudx-io/bidranking/rankapi"
)

func TestValidateRankingProof_ValidForEveryStrategy(t *testing.T) {
	for _, strategy := range []string{core.StrategyPrice, core.StrategyRating, core.StrategyComposite} {
		t.Run(strategy, func(t *testing.T) {
			key, publicKeyPEM := newSigningKey(t)
			bids := testBids()
			proof, ids := buildProof(t, bids, strategy)

			result, err := ValidateRankingProof(&RankingValidationInput{
				Proof:        signProof(t, key, proof),
				PublicKeyPEM: publicKeyPEM,
				Bids:         bids,
				RankedBidIDs: ids,
			})
			assert.NoError(t, err)
			check.True(t, result.SignatureValid)
			check.True(t, result.BidHashesValid)
			check.True(t, result.RankingValid)
			check.True(t, result.ResponseOrderOK)
			check.True(t, result.IsValid())
			check.Equal(t, strategy, result.Proof.Strategy)
		})
	}
}

func TestValidateRankingProof_WrongKey(t *testing.T) {
	key, _ := newSigningKey(t)
	_, otherPEM := newSigningKey(t)
	bids := testBids()
	proof, _ := buildProof(t, bids, core.StrategyComposite)

	result, err := ValidateRankingProof(&RankingValidationInput{
		Proof:        signProof(t, key, proof),
		PublicKeyPEM: otherPEM,
		Bids:         bids,
	})
	assert.NoError(t, err)
	check.False(t, result.SignatureValid)
	check.True(t, result.BidHashesValid)
	check.True(t, result.RankingValid)
	check.False(t, result.IsValid())
}

func TestValidateRankingProof_TamperedBid(t *testing.T) {
	key, publicKeyPEM := newSigningKey(t)
	bids := testBids()
	proof, _ := buildProof(t, bids, core.StrategyPrice)

	tampered := testBids()
	tampered[1].ProposedRate = 90 // was the cheapest

	result, err := ValidateRankingProof(&RankingValidationInput{
		Proof:        signProof(t, key, proof),
		PublicKeyPEM: publicKeyPEM,
		Bids:         tampered,
	})
	assert.NoError(t, err)
	check.True(t, result.SignatureValid)
	check.False(t, result.BidHashesValid)
	check.False(t, result.RankingValid)
	check.False(t, result.IsValid())
}

func TestValidateRankingProof_MissingBid(t *testing.T) {
	key, publicKeyPEM := newSigningKey(t)
	bids := testBids()
	proof, _ := buildProof(t, bids, core.StrategyRating)

	result, err := ValidateRankingProof(&RankingValidationInput{
		Proof:        signProof(t, key, proof),
		PublicKeyPEM: publicKeyPEM,
		Bids:         bids[:2],
	})
	assert.NoError(t, err)
	check.False(t, result.BidHashesValid)
	check.True(t, strings.Contains(strings.Join(result.ValidationDetails, "\n"), "Bid count mismatch"))
}

func TestValidateRankingProof_ForgedOrder(t *testing.T) {
	key, publicKeyPEM := newSigningKey(t)
	bids := testBids()
	proof, ids := buildProof(t, bids, core.StrategyPrice)

	// A proof claiming the reverse order cannot be reproduced from the bids
	reversed := []string{ids[2], ids[1], ids[0]}
	proof.RankingHash = core.ComputeRankingHash(proof.Strategy, reversed, proof.Nonce)

	result, err := ValidateRankingProof(&RankingValidationInput{
		Proof:        signProof(t, key, proof),
		PublicKeyPEM: publicKeyPEM,
		Bids:         bids,
		RankedBidIDs: reversed,
	})
	assert.NoError(t, err)
	check.True(t, result.SignatureValid)
	check.True(t, result.BidHashesValid)
	check.False(t, result.RankingValid)
	check.True(t, result.ResponseOrderOK)
	check.False(t, result.IsValid())
}

func TestValidateRankingProof_ResponseOrderMismatch(t *testing.T) {
	key, publicKeyPEM := newSigningKey(t)
	bids := testBids()
	proof, ids := buildProof(t, bids, core.StrategyComposite)

	result, err := ValidateRankingProof(&RankingValidationInput{
		Proof:        signProof(t, key, proof),
		PublicKeyPEM: publicKeyPEM,
		Bids:         bids,
		RankedBidIDs: []string{ids[1], ids[0], ids[2]},
	})
	assert.NoError(t, err)
	check.True(t, result.RankingValid)
	check.False(t, result.ResponseOrderOK)
	check.False(t, result.IsValid())
}

func TestValidateRankingProof_CurrencyNormalized(t *testing.T) {
	key, publicKeyPEM := newSigningKey(t)
	bids := []core.Bid{
		{ID: "usd", ProposedRate: 100, FreelancerRating: 4, Currency: "USD"},
		{ID: "eur", ProposedRate: 90, FreelancerRating: 4, Currency: "EUR"},
	}
	rates := map[string]float64{"EUR": 1.2}

	result, err := core.RankProjectBids(bids, core.RankOptions{
		Strategy:        core.StrategyPrice,
		Currency:        "USD",
		ConversionRates: rates,
	})
	assert.NoError(t, err)
	ids := core.BidIDs(result.Bids)
	check.Equal(t, []string{"usd", "eur"}, ids)

	proof := &rankapi.RankingProof{
		ProofID:         "proof-fx",
		Strategy:        result.Strategy,
		BidHashes:       core.ComputeBidHashes(bids, testNonce),
		RankingHash:     core.ComputeRankingHash(result.Strategy, ids, testNonce),
		Nonce:           testNonce,
		Weights:         core.DefaultCompositeWeights(),
		Currency:        "USD",
		ConversionRates: rates,
	}

	validation, err := ValidateRankingProof(&RankingValidationInput{
		Proof:        signProof(t, key, proof),
		PublicKeyPEM: publicKeyPEM,
		Bids:         bids,
		RankedBidIDs: ids,
	})
	assert.NoError(t, err)
	check.True(t, validation.IsValid())
}

func TestValidateRankingProof_UnknownStrategyInProof(t *testing.T) {
	key, publicKeyPEM := newSigningKey(t)
	bids := testBids()
	proof, _ := buildProof(t, bids, core.StrategyComposite)
	proof.Strategy = "newest"

	result, err := ValidateRankingProof(&RankingValidationInput{
		Proof:        signProof(t, key, proof),
		PublicKeyPEM: publicKeyPEM,
		Bids:         bids,
	})
	assert.NoError(t, err)
	check.False(t, result.RankingValid)
}

func TestValidateRankingProof_EmptyBidList(t *testing.T) {
	key, publicKeyPEM := newSigningKey(t)
	proof, _ := buildProof(t, []core.Bid{}, core.StrategyComposite)

	result, err := ValidateRankingProof(&RankingValidationInput{
		Proof:        signProof(t, key, proof),
		PublicKeyPEM: publicKeyPEM,
		Bids:         []core.Bid{},
	})
	assert.NoError(t, err)
	check.True(t, result.IsValid())
}

func TestValidateRankingProof_MalformedInput(t *testing.T) {
	_, publicKeyPEM := newSigningKey(t)

	_, err := ValidateRankingProof(nil)
	check.Error(t, err)

	_, err = ValidateRankingProof(&RankingValidationInput{Proof: "not base64!", PublicKeyPEM: publicKeyPEM})
	check.Error(t, err)

	_, err = ValidateRankingProof(&RankingValidationInput{
		Proof:        rankapi.COSE([]byte("not cbor")).EncodeBase64(),
		PublicKeyPEM: publicKeyPEM,
	})
	check.Error(t, err)
}
