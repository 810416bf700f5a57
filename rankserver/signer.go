package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/cloudx-io/bidranking/rankapi"
)

// KeyAlgorithm is the COSE algorithm used for ranking proofs.
const KeyAlgorithm = "ES256"

// ProofSigner holds the ECDSA P-256 key that signs ranking proofs.
// The key lives only in memory and is regenerated on every start.
type ProofSigner struct {
	privateKey *ecdsa.PrivateKey // Keep private - sensitive!
	PublicKey  *ecdsa.PublicKey
}

// NewProofSigner generates a fresh signing key.
func NewProofSigner() (*ProofSigner, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	return &ProofSigner{
		privateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}, nil
}

// PublicKeyPEM returns the public key in PEM format.
func (ps *ProofSigner) PublicKeyPEM() (string, error) {
	derBytes, err := x509.MarshalPKIXPublicKey(ps.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}

// Sign signs proof as a COSE_Sign1 message.
func (ps *ProofSigner) Sign(proof *rankapi.RankingProof) (rankapi.COSE, error) {
	return rankapi.SignRankingProof(ps.privateKey, proof)
}

// HandleKeyRequest returns the signing key. When attester is non-nil the key
// is also bound to an NSM attestation document.
func HandleKeyRequest(attester EnclaveAttester, signer *ProofSigner) (*rankapi.KeyResponse, error) {
	publicKeyPEM, err := signer.PublicKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to export public key: %w", err)
	}

	resp := &rankapi.KeyResponse{
		Type:      rankapi.TypeKeyResponse,
		Algorithm: KeyAlgorithm,
		PublicKey: publicKeyPEM,
	}

	if attester != nil {
		attestation, err := GenerateKeyAttestation(attester, publicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to generate key attestation: %w", err)
		}
		resp.Attestation = attestation.EncodeBase64()
	}

	return resp, nil
}
