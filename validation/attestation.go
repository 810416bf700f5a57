package validation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/bidranking/rankapi"
)

// AttestationDocument is the CBOR payload of an NSM attestation.
type AttestationDocument struct {
	ModuleID    string          `cbor:"module_id"`
	Digest      string          `cbor:"digest"`
	Timestamp   uint64          `cbor:"timestamp"` // Unix milliseconds
	PCRs        map[uint][]byte `cbor:"pcrs"`
	Certificate []byte          `cbor:"certificate"`
	CABundle    [][]byte        `cbor:"cabundle"`
	PublicKey   []byte          `cbor:"public_key"`
	UserData    []byte          `cbor:"user_data"`
	Nonce       []byte          `cbor:"nonce"`
}

// Time returns the attestation timestamp.
func (d *AttestationDocument) Time() time.Time {
	return time.UnixMilli(int64(d.Timestamp))
}

// KeyUserData decodes the user data of a signing key attestation.
func (d *AttestationDocument) KeyUserData() (*rankapi.KeyAttestationUserData, error) {
	var userData rankapi.KeyAttestationUserData
	if len(d.UserData) == 0 {
		return &userData, nil
	}
	if err := json.Unmarshal(d.UserData, &userData); err != nil {
		return nil, fmt.Errorf("parse user data: %w", err)
	}
	return &userData, nil
}

// ParseAttestationDocument parses an NSM attestation, which is an untagged
// COSE_Sign1 message. The signature is not checked.
func ParseAttestationDocument(attestation rankapi.COSE) (*AttestationDocument, *cose.UntaggedSign1Message, error) {
	var msg cose.UntaggedSign1Message
	if err := msg.UnmarshalCBOR(attestation); err != nil {
		return nil, nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}

	var doc AttestationDocument
	if err := cbor.Unmarshal(msg.Payload, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse attestation document: %w", err)
	}
	return &doc, &msg, nil
}
