package rankapi

import (
	"time"

	"github.com/cloudx-io/bidranking/core"
)

// Message types exchanged with the ranking service. Every request and
// response carries one of these in its "type" field.
const (
	TypePing         = "ping"
	TypePong         = "pong"
	TypeKeyRequest   = "key_request"
	TypeKeyResponse  = "key_response"
	TypeRankRequest  = "rank_request"
	TypeRankResponse = "rank_response"
	TypeError        = "error"
)

// RankRequest asks the service to rank the bids of one project.
// Strategy is the selector token ("price", "rating", "composite"); an empty
// or unrecognized token ranks by composite score.
type RankRequest struct {
	Type            string             `json:"type"`
	RequestID       string             `json:"request_id,omitempty"`
	ProjectID       string             `json:"project_id"`
	Strategy        string             `json:"strategy,omitempty"`
	Currency        string             `json:"currency,omitempty"`         // Optional: project currency to normalize rates into
	ConversionRates map[string]float64 `json:"conversion_rates,omitempty"` // currency code -> project currency units per unit
	Bids            []core.Bid         `json:"bids"`
	Timestamp       time.Time          `json:"timestamp"`
}

// InvalidBid describes a bid that made the service refuse to rank a request.
type InvalidBid struct {
	BidID  string  `json:"bid_id"`
	Field  string  `json:"field"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

// NewInvalidBid converts a core validation error for transport.
func NewInvalidBid(err *core.ValidationError) InvalidBid {
	return InvalidBid{
		BidID:  err.BidID,
		Field:  err.Field,
		Value:  err.Value,
		Reason: err.Reason,
	}
}

// RankResponse is returned for every rank request.
// Bids contain the request's bids, field for field, in ranked order.
type RankResponse struct {
	Type           string         `json:"type"`
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	RequestID      string         `json:"request_id"`
	ProjectID      string         `json:"project_id"`
	Strategy       string         `json:"strategy,omitempty"`
	Bids           []core.Bid     `json:"bids"`
	Ranks          map[string]int `json:"ranks,omitempty"`
	InvalidBids    []InvalidBid   `json:"invalid_bids,omitempty"` // Set when Success is false because of bad input
	Proof          COSEBase64     `json:"proof,omitempty"`        // Signed RankingProof
	ProcessingTime int64          `json:"processing_time_ms"`
}

// RankingProof is the signed statement attached to a successful ranking.
// It commits to every input bid and to the produced order, so a bidder or
// project owner can check a ranking without trusting the transport.
type RankingProof struct {
	ProofID     string   `cbor:"proof_id" json:"proof_id"`
	RequestID   string   `cbor:"request_id" json:"request_id"`
	ProjectID   string   `cbor:"project_id" json:"project_id"`
	Strategy    string   `cbor:"strategy" json:"strategy"`
	BidHashes   []string `cbor:"bid_hashes" json:"bid_hashes"`     // core.ComputeBidHash of each input bid, input order
	RankingHash string   `cbor:"ranking_hash" json:"ranking_hash"` // core.ComputeRankingHash of the output order
	Nonce       string   `cbor:"nonce" json:"nonce"`
	Timestamp   int64    `cbor:"timestamp" json:"timestamp"` // Unix milliseconds

	// Inputs needed to reproduce the order
	Weights         core.CompositeWeights `cbor:"weights" json:"weights"`
	Currency        string                `cbor:"currency,omitempty" json:"currency,omitempty"`
	ConversionRates map[string]float64    `cbor:"conversion_rates,omitempty" json:"conversion_rates,omitempty"`
}

// KeyResponse publishes the key that signs ranking proofs.
type KeyResponse struct {
	Type        string     `json:"type"`
	Algorithm   string     `json:"algorithm"`             // e.g. "ES256"
	PublicKey   string     `json:"public_key"`            // PEM format
	Attestation COSEBase64 `json:"attestation,omitempty"` // Optional Nitro attestation over the public key
}

// ErrorResponse is returned for malformed or unknown requests.
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// KeyAttestationUserData is the user data embedded in a Nitro attestation
// over the proof signing key.
type KeyAttestationUserData struct {
	KeyAlgorithm string `json:"key_algorithm"`
	PublicKey    string `json:"public_key"` // PEM format
}
