package validation

import (
	"crypto/x509"
	"fmt"
	"strings"

	"github.com/cloudx-io/bidranking/rankapi"
)

// ValidateKeyAttestation validates the Nitro attestation returned with a
// ranking server's signing key.
//
// Parameters:
//   - attestation: KeyResponse.Attestation
//   - expectedPublicKey: PEM-encoded key the proofs will be checked against (KeyResponse.PublicKey)
//   - knownPCRs: accepted enclave image measurements
//
// Returns:
//   - KeyValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed input)
func ValidateKeyAttestation(attestation rankapi.COSEBase64, expectedPublicKey string, knownPCRs []PCRSet) (*KeyValidationResult, error) {
	roots, err := NitroRootPool()
	if err != nil {
		return nil, err
	}
	return validateKeyAttestation(attestation, expectedPublicKey, knownPCRs, roots)
}

func validateKeyAttestation(attestation rankapi.COSEBase64, expectedPublicKey string, knownPCRs []PCRSet, roots *x509.CertPool) (*KeyValidationResult, error) {
	coseBytes, err := attestation.Decode()
	if err != nil {
		return nil, err
	}

	doc, msg, err := ParseAttestationDocument(coseBytes)
	if err != nil {
		return nil, err
	}

	userData, err := doc.KeyUserData()
	if err != nil {
		return nil, err
	}

	result := &KeyValidationResult{
		ValidationDetails: []string{},
	}

	// PCRs
	if len(knownPCRs) == 0 {
		result.ValidationDetails = append(result.ValidationDetails, "No known PCR sets supplied")
	} else if match, idx := ValidatePCRs(doc.PCRs, knownPCRs); match {
		result.PCRsValid = true
		result.ValidationDetails = append(result.ValidationDetails, "PCR measurements valid")
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Matched PCR set: #%d (commit: %s)", idx, knownPCRs[idx].CommitHash))
	} else {
		for i := uint(0); i < 3; i++ {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("PCR%d: %x (no match)", i, doc.PCRs[i]))
		}
	}

	// Certificate chain at the attestation timestamp
	switch {
	case len(doc.Certificate) == 0:
		result.ValidationDetails = append(result.ValidationDetails, "Missing certificate")
	case len(doc.CABundle) == 0:
		result.ValidationDetails = append(result.ValidationDetails, "Missing CA bundle")
	default:
		if err := ValidateCertificateChain(doc.Certificate, doc.CABundle, roots, doc.Time()); err != nil {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Certificate chain validation failed: %v", err))
		} else {
			result.CertificateValid = true
			result.ValidationDetails = append(result.ValidationDetails, "Certificate chain verified")
		}
	}

	// COSE signature
	if len(doc.Certificate) == 0 {
		result.ValidationDetails = append(result.ValidationDetails, "COSE signature not checked: no certificate")
	} else if err := verifyAttestationSignature(msg, doc.Certificate); err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("COSE signature verification failed: %v", err))
	} else {
		result.SignatureValid = true
		result.ValidationDetails = append(result.ValidationDetails, "COSE signature verified")
	}

	// Public key binding. PEM encoding may differ in trailing newlines.
	switch {
	case userData.PublicKey == "":
		result.ValidationDetails = append(result.ValidationDetails, "Public key missing from attestation")
	case strings.TrimSpace(expectedPublicKey) == strings.TrimSpace(userData.PublicKey):
		result.PublicKeyMatch = true
		result.ValidationDetails = append(result.ValidationDetails, "Public key matches attestation")
	default:
		result.ValidationDetails = append(result.ValidationDetails, "Public key mismatch: provided key does not match attested key")
	}

	return result, nil
}
