package validation

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/peterldowns/testy/assert"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/bidranking/core"
	"github.com/cloudx-io/bidranking/rankapi"
)

const testNonce = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

func testBids() []core.Bid {
	return []core.Bid{
		{ID: "b1", ProjectID: "p1", FreelancerID: "f1", ProposedRate: 50, FreelancerRating: 4.5},
		{ID: "b2", ProjectID: "p1", FreelancerID: "f2", ProposedRate: 30, FreelancerRating: 3.8},
		{ID: "b3", ProjectID: "p1", FreelancerID: "f3", ProposedRate: 80, FreelancerRating: 4.9},
	}
}

func newSigningKey(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	assert.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	assert.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// buildProof ranks bids the way the server does and returns the proof for it.
func buildProof(t *testing.T, bids []core.Bid, strategy string) (*rankapi.RankingProof, []string) {
	t.Helper()
	weights := core.DefaultCompositeWeights()
	result, err := core.RankProjectBids(bids, core.RankOptions{
		Strategy: strategy,
		Selector: core.NewSelector(weights),
	})
	assert.NoError(t, err)

	ids := core.BidIDs(result.Bids)
	return &rankapi.RankingProof{
		ProofID:     "proof-1",
		RequestID:   "req-1",
		ProjectID:   "p1",
		Strategy:    result.Strategy,
		BidHashes:   core.ComputeBidHashes(bids, testNonce),
		RankingHash: core.ComputeRankingHash(result.Strategy, ids, testNonce),
		Nonce:       testNonce,
		Timestamp:   time.Now().UnixMilli(),
		Weights:     weights,
	}, ids
}

func signProof(t *testing.T, key *ecdsa.PrivateKey, proof *rankapi.RankingProof) rankapi.COSEBase64 {
	t.Helper()
	signed, err := rankapi.SignRankingProof(key, proof)
	assert.NoError(t, err)
	return signed.EncodeBase64()
}

// testPKI is a throwaway CA standing in for the Nitro root.
type testPKI struct {
	roots   *x509.CertPool
	caDER   []byte
	leafDER []byte
	leafKey *ecdsa.PrivateKey
}

func newTestPKI(t *testing.T) *testPKI {
	t.Helper()
	notBefore := time.Now().Add(-time.Hour)
	notAfter := time.Now().Add(time.Hour)

	caKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	assert.NoError(t, err)
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-root"},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	assert.NoError(t, err)
	caCert, err := x509.ParseCertificate(caDER)
	assert.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	assert.NoError(t, err)
	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "test-enclave"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, caCert, &leafKey.PublicKey, caKey)
	assert.NoError(t, err)

	roots := x509.NewCertPool()
	roots.AddCert(caCert)

	return &testPKI{roots: roots, caDER: caDER, leafDER: leafDER, leafKey: leafKey}
}

var testPCRs = map[uint][]byte{
	0: {0x3b, 0x4c, 0xef, 0x27},
	1: {0x4b, 0x4d, 0x5b, 0x36},
	2: {0x2b, 0xdd, 0x28, 0xc1},
}

var knownTestPCRs = []PCRSet{{PCR0: "3b4cef27", PCR1: "4b4d5b36", PCR2: "2bdd28c1", CommitHash: "abc123"}}

// attest produces an untagged COSE_Sign1 attestation over publicKeyPEM,
// shaped like an NSM response.
func (p *testPKI) attest(t *testing.T, publicKeyPEM string) rankapi.COSEBase64 {
	t.Helper()
	userData, err := json.Marshal(&rankapi.KeyAttestationUserData{KeyAlgorithm: "ES256", PublicKey: publicKeyPEM})
	assert.NoError(t, err)

	payload, err := cbor.Marshal(&AttestationDocument{
		ModuleID:    "test-enclave-12345",
		Digest:      "SHA384",
		Timestamp:   uint64(time.Now().UnixMilli()),
		PCRs:        testPCRs,
		Certificate: p.leafDER,
		CABundle:    [][]byte{p.caDER},
		UserData:    userData,
		Nonce:       []byte("nonce"),
	})
	assert.NoError(t, err)

	signer, err := cose.NewSigner(cose.AlgorithmES384, p.leafKey)
	assert.NoError(t, err)

	msg := &cose.UntaggedSign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{cose.HeaderLabelAlgorithm: cose.AlgorithmES384},
		},
		Payload: payload,
	}
	assert.NoError(t, msg.Sign(rand.Reader, nil, signer))

	data, err := msg.MarshalCBOR()
	assert.NoError(t, err)
	return rankapi.COSE(data).EncodeBase64()
}
