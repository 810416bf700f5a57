package validation

import (
	"fmt"

	"github.com/cloudx-io/bidranking/core"
	"github.com/cloudx-io/bidranking/rankapi"
)

// ValidateRankingProof checks a signed ranking proof and verifies:
// - The proof was signed by the given key
// - Every submitted bid is committed to, unchanged and in order
// - Re-ranking the submitted bids with the proof's strategy reproduces the ranking hash
// - The order returned to the client is the attested one (when supplied)
//
// Returns:
//   - RankingValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed proof)
func ValidateRankingProof(input *RankingValidationInput) (*RankingValidationResult, error) {
	if input == nil {
		return nil, fmt.Errorf("validation input is nil")
	}

	coseBytes, err := input.Proof.Decode()
	if err != nil {
		return nil, err
	}

	proof, err := coseBytes.RankingProof()
	if err != nil {
		return nil, err
	}

	result := &RankingValidationResult{
		Proof:             proof,
		ValidationDetails: []string{},
	}

	if err := VerifyProofSignature(coseBytes, input.PublicKeyPEM); err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Signature invalid: %v", err))
	} else {
		result.SignatureValid = true
		result.ValidationDetails = append(result.ValidationDetails, "COSE signature verified")
	}

	if proof.Nonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Nonce missing from proof")
		return result, nil
	}

	result.BidHashesValid = validateBidHashes(input.Bids, proof, result)
	result.RankingValid = validateRankingHash(input.Bids, proof, result)
	result.ResponseOrderOK = validateResponseOrder(input.RankedBidIDs, proof, result)

	return result, nil
}

func validateBidHashes(bids []core.Bid, proof *rankapi.RankingProof, result *RankingValidationResult) bool {
	if len(bids) != len(proof.BidHashes) {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Bid count mismatch: supplied %d, proof has %d", len(bids), len(proof.BidHashes)))
		return false
	}

	computed := core.ComputeBidHashes(bids, proof.Nonce)
	for i := range computed {
		if computed[i] != proof.BidHashes[i] {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Bid hash mismatch for bid %q at position %d", bids[i].ID, i))
			return false
		}
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("All %d bid hashes match", len(computed)))
	return true
}

func validateRankingHash(bids []core.Bid, proof *rankapi.RankingProof, result *RankingValidationResult) bool {
	ranked, err := core.RankProjectBids(bids, core.RankOptions{
		Strategy:        proof.Strategy,
		Currency:        proof.Currency,
		ConversionRates: proof.ConversionRates,
		Selector:        core.NewSelector(proof.Weights),
	})
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Re-ranking failed: %v", err))
		return false
	}

	if ranked.Strategy != proof.Strategy {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Unknown strategy in proof: %q", proof.Strategy))
		return false
	}

	computed := core.ComputeRankingHash(ranked.Strategy, core.BidIDs(ranked.Bids), proof.Nonce)
	if computed != proof.RankingHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Ranking hash mismatch: computed %s, proof has %s", computed, proof.RankingHash))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Ranking reproduced with strategy %s", ranked.Strategy))
	return true
}

func validateResponseOrder(rankedIDs []string, proof *rankapi.RankingProof, result *RankingValidationResult) bool {
	if len(rankedIDs) == 0 {
		result.ValidationDetails = append(result.ValidationDetails, "Response order not supplied, skipped")
		return true
	}

	if core.ComputeRankingHash(proof.Strategy, rankedIDs, proof.Nonce) != proof.RankingHash {
		result.ValidationDetails = append(result.ValidationDetails, "Response order does not match the attested ranking")
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, "Response order matches the attested ranking")
	return true
}
