package validation

import (
	"github.com/cloudx-io/bidranking/core"
	"github.com/cloudx-io/bidranking/rankapi"
)

// RankingValidationInput contains everything needed to check a ranking proof.
type RankingValidationInput struct {
	Proof        rankapi.COSEBase64 // RankResponse.Proof
	PublicKeyPEM string             // KeyResponse.PublicKey

	// Bids exactly as submitted in the RankRequest
	Bids []core.Bid

	// RankedBidIDs is the order the response claimed. Optional: when empty
	// only the re-ranked order is checked against the proof.
	RankedBidIDs []string
}

// RankingValidationResult holds the outcome of each ranking proof check.
type RankingValidationResult struct {
	SignatureValid    bool
	BidHashesValid    bool
	RankingValid      bool
	ResponseOrderOK   bool
	Proof             *rankapi.RankingProof
	ValidationDetails []string
}

// IsValid returns true if all ranking proof checks passed.
func (r *RankingValidationResult) IsValid() bool {
	return r.SignatureValid && r.BidHashesValid && r.RankingValid && r.ResponseOrderOK
}

// KeyValidationResult contains validation results for a signing key attestation.
type KeyValidationResult struct {
	PCRsValid         bool
	CertificateValid  bool
	SignatureValid    bool
	PublicKeyMatch    bool
	ValidationDetails []string
}

// IsValid returns true if all key validation checks passed.
func (r *KeyValidationResult) IsValid() bool {
	return r.PCRsValid && r.CertificateValid && r.SignatureValid && r.PublicKeyMatch
}

// PCRSet represents a known-good set of PCR measurements (hex encoded).
type PCRSet struct {
	PCR0       string `json:"pcr0"`
	PCR1       string `json:"pcr1"`
	PCR2       string `json:"pcr2"`
	CommitHash string `json:"commit_hash"` // commit used to build the server image
}

// PCRConfig represents the PCR configuration file structure.
type PCRConfig struct {
	PCRSets []PCRSet `json:"pcr_sets"`
}
