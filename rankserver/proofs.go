package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cloudx-io/bidranking/core"
	"github.com/cloudx-io/bidranking/rankapi"
)

// generateSecureRandomBytes reads length bytes from crypto/rand. Inside an
// enclave the kernel pool is seeded by the NSM.
func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

func generateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32) // 256 bits of entropy
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}

// GenerateRankingProof builds the proof for one ranking. Bid hashes cover the
// request's bids as submitted; the ranking hash covers the produced order.
func GenerateRankingProof(req rankapi.RankRequest, result *core.RankingResult, weights core.CompositeWeights, now time.Time) (*rankapi.RankingProof, error) {
	if result == nil {
		return nil, fmt.Errorf("ranking result is nil")
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate proof nonce: %w", err)
	}

	proof := &rankapi.RankingProof{
		ProofID:     uuid.NewString(),
		RequestID:   req.RequestID,
		ProjectID:   req.ProjectID,
		Strategy:    result.Strategy,
		BidHashes:   core.ComputeBidHashes(req.Bids, nonce),
		RankingHash: core.ComputeRankingHash(result.Strategy, core.BidIDs(result.Bids), nonce),
		Nonce:       nonce,
		Timestamp:   now.UnixMilli(),
		Weights:     weights,
	}
	if req.Currency != "" && len(req.ConversionRates) > 0 {
		proof.Currency = req.Currency
		proof.ConversionRates = req.ConversionRates
	}

	return proof, nil
}
