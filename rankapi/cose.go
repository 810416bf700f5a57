package rankapi

import (
	"crypto"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

// COSE holds raw COSE_Sign1 bytes (ranking proofs, Nitro attestations).
type COSE []byte

// COSEBase64 is the standard base64 form used in JSON messages.
type COSEBase64 string

// EncodeBase64 encodes the COSE bytes for JSON transport.
func (c COSE) EncodeBase64() COSEBase64 {
	return COSEBase64(base64.StdEncoding.EncodeToString(c))
}

// Decode returns the raw COSE bytes.
func (b COSEBase64) Decode() (COSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return COSE(data), nil
}

func (b COSEBase64) String() string {
	return string(b)
}

// Message parses the bytes as a tagged COSE_Sign1 message.
func (c COSE) Message() (*cose.Sign1Message, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(c); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}
	return &msg, nil
}

// RankingProof decodes the CBOR payload of a signed ranking proof.
// The signature is not checked; see validation.VerifyProofSignature.
func (c COSE) RankingProof() (*RankingProof, error) {
	msg, err := c.Message()
	if err != nil {
		return nil, err
	}

	var proof RankingProof
	if err := cbor.Unmarshal(msg.Payload, &proof); err != nil {
		return nil, fmt.Errorf("parse ranking proof payload: %w", err)
	}
	return &proof, nil
}

// SignRankingProof encodes proof as CBOR and signs it as a tagged COSE_Sign1
// message using ES256.
func SignRankingProof(key crypto.Signer, proof *RankingProof) (COSE, error) {
	if proof == nil {
		return nil, fmt.Errorf("ranking proof is nil")
	}

	payload, err := cbor.Marshal(proof)
	if err != nil {
		return nil, fmt.Errorf("encode ranking proof: %w", err)
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, key)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	msg := &cose.Sign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: cose.AlgorithmES256,
			},
		},
		Payload: payload,
	}
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("sign ranking proof: %w", err)
	}

	data, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("marshal COSE_Sign1: %w", err)
	}
	return COSE(data), nil
}
