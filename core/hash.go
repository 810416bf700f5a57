package core

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ComputeBidHash computes the hash that commits to a bid's ranking inputs.
// It is used by the ranking service (to build proofs) and by validation (to verify them).
//
// Formula: SHA256(bid_id + "|" + sprintf("%.6f", rate) + "|" + sprintf("%.6f", rating) + "|" + nonce)
//
// Numbers are formatted to exactly 6 decimal places so the hash does not depend
// on how a float is represented in memory.
func ComputeBidHash(bidID string, proposedRate, freelancerRating float64, nonce string) string {
	data := fmt.Sprintf("%s|%.6f|%.6f|%s", bidID, proposedRate, freelancerRating, nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeRankingHash commits to the order a strategy produced.
//
// Formula: SHA256(nonce + "|" + strategy + "|" + len(id_1) + ":" + id_1 + ... + "|" + len(id_n) + ":" + id_n)
//
// Each ID is length-prefixed so IDs containing "|" cannot shift into their neighbours.
func ComputeRankingHash(strategy string, orderedBidIDs []string, nonce string) string {
	var data strings.Builder
	data.WriteString(nonce + "|" + strategy)
	for _, id := range orderedBidIDs {
		fmt.Fprintf(&data, "|%d:%s", len(id), id)
	}
	hash := sha256.Sum256([]byte(data.String()))
	return fmt.Sprintf("%x", hash)
}

// ComputeBidHashes hashes every bid in input order.
func ComputeBidHashes(bids []Bid, nonce string) []string {
	hashes := make([]string, len(bids))
	for i, bid := range bids {
		hashes[i] = ComputeBidHash(bid.ID, bid.ProposedRate, bid.FreelancerRating, nonce)
	}
	return hashes
}
