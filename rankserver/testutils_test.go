package main

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	enclave "github.com/edgebitio/nitro-enclaves-sdk-go"
	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/bidranking/core"
	"github.com/cloudx-io/bidranking/validation"
)

// MockEnclaveHandle implements the Attest method for testing
type MockEnclaveHandle struct {
	AttestFunc func(options enclave.AttestationOptions) ([]byte, error)
	Calls      int
}

func (m *MockEnclaveHandle) Attest(options enclave.AttestationOptions) ([]byte, error) {
	m.Calls++
	if m.AttestFunc != nil {
		return m.AttestFunc(options)
	}
	return nil, fmt.Errorf("mock not configured")
}

// CreateMockEnclave returns an attester producing NSM-shaped documents
// (untagged COSE_Sign1, ES384) that embed the requested user data.
func CreateMockEnclave(t *testing.T) *MockEnclaveHandle {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatalf("generate attestation key: %v", err)
	}

	return &MockEnclaveHandle{
		AttestFunc: func(options enclave.AttestationOptions) ([]byte, error) {
			payload, err := cbor.Marshal(&validation.AttestationDocument{
				ModuleID:  "test-enclave-12345",
				Digest:    "SHA384",
				Timestamp: uint64(time.Now().UnixMilli()),
				PCRs: map[uint][]byte{
					0: {0x3b, 0x4c, 0xef, 0x27},
					1: {0x4b, 0x4d, 0x5b, 0x36},
					2: {0x2b, 0xdd, 0x28, 0xc1},
				},
				Certificate: []byte("test-certificate-data"),
				CABundle:    [][]byte{[]byte("test-ca-cert")},
				UserData:    options.UserData,
				Nonce:       options.Nonce,
			})
			if err != nil {
				return nil, err
			}

			signer, err := cose.NewSigner(cose.AlgorithmES384, key)
			if err != nil {
				return nil, err
			}
			msg := &cose.UntaggedSign1Message{
				Headers: cose.Headers{
					Protected: cose.ProtectedHeader{cose.HeaderLabelAlgorithm: cose.AlgorithmES384},
				},
				Payload: payload,
			}
			if err := msg.Sign(rand.Reader, nil, signer); err != nil {
				return nil, err
			}
			return msg.MarshalCBOR()
		},
	}
}

func testLogger(buf *bytes.Buffer) zerolog.Logger {
	if buf == nil {
		return zerolog.Nop()
	}
	return zerolog.New(buf)
}

func testConfig() *Config {
	return &Config{
		Network:     NetworkTCP,
		Host:        "127.0.0.1",
		Port:        DefaultPort,
		MaxWorkers:  4,
		ReadTimeout: 5 * time.Second,
		Weights:     core.DefaultCompositeWeights(),
		LogLevel:    "debug",
		LogFormat:   LogFormatJSON,
	}
}

func testBids() []core.Bid {
	return []core.Bid{
		{ID: "b1", ProjectID: "p1", FreelancerID: "f1", ProposedRate: 50, FreelancerRating: 4.5, CoverLetter: "hello"},
		{ID: "b2", ProjectID: "p1", FreelancerID: "f2", ProposedRate: 30, FreelancerRating: 3.8},
		{ID: "b3", ProjectID: "p1", FreelancerID: "f3", ProposedRate: 80, FreelancerRating: 4.9},
	}
}
