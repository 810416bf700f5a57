package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/cloudx-io/bidranking/rankapi"
	"github.com/cloudx-io/bidranking/validation"
)

// logger prints bare messages to stdout, without timestamps or levels.
var logger = zerolog.New(zerolog.ConsoleWriter{
	Out:        os.Stdout,
	NoColor:    true,
	PartsOrder: []string{zerolog.MessageFieldName},
})

func main() {
	var (
		keyResponsePath = flag.String("key-response", "", "Path to key response JSON file (required)")
		pcrsPath        = flag.String("pcrs", "", "Path to known PCR sets JSON file (required)")
		outputFormat    = flag.String("format", "text", "Output format: text or json")
		help            = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	if *help || *keyResponsePath == "" || *pcrsPath == "" {
		showUsage()
		if !*help {
			os.Exit(1)
		}
		os.Exit(0)
	}

	keyResponse, err := readKeyResponse(*keyResponsePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading key response: %v\n", err)
		os.Exit(2)
	}

	knownPCRs, err := validation.LoadPCRsFromFile(*pcrsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading PCR sets: %v\n", err)
		os.Exit(2)
	}

	result, err := validation.ValidateKeyAttestation(keyResponse.Attestation, keyResponse.PublicKey, knownPCRs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	if *outputFormat == "json" {
		if err := outputJSON(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
			os.Exit(2)
		}
	} else {
		outputText(result)
	}

	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	logger.Info().Msg("Signing Key Attestation Validator")
	logger.Info().Msg("")
	logger.Info().Msg("Checks that a ranking server's proof signing key was generated inside an attested enclave.")
	logger.Info().Msg("")
	logger.Info().Msg("Usage:")
	logger.Info().Msg("  key-validator --key-response <path> --pcrs <path> [options]")
	logger.Info().Msg("")
	logger.Info().Msg("Required Flags:")
	logger.Info().Msg("  --key-response <path>             Key response JSON returned by the server")
	logger.Info().Msg("  --pcrs <path>                     Known PCR sets JSON ({\"pcr_sets\": [...]})")
	logger.Info().Msg("")
	logger.Info().Msg("Optional Flags:")
	logger.Info().Msg("  --format <text|json>              Output format (default: text)")
	logger.Info().Msg("  --help                            Show this help message")
	logger.Info().Msg("")
	logger.Info().Msg("Exit Codes:")
	logger.Info().Msg("  0 - Validation passed")
	logger.Info().Msg("  1 - Validation failed")
	logger.Info().Msg("  2 - Invalid input or runtime error")
}

func readKeyResponse(path string) (*rankapi.KeyResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var keyResponse rankapi.KeyResponse
	if err := json.Unmarshal(data, &keyResponse); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if keyResponse.Attestation == "" {
		return nil, fmt.Errorf("missing attestation field in key response")
	}
	if keyResponse.PublicKey == "" {
		return nil, fmt.Errorf("missing public_key field in key response")
	}

	return &keyResponse, nil
}

func outputText(result *validation.KeyValidationResult) {
	logger.Info().Msg("Signing Key Attestation Validator")
	logger.Info().Msg("=================================")
	logger.Info().Msg("")
	logger.Info().Msg("Summary:")
	logger.Info().Msgf("  PCRs Valid:        %v", result.PCRsValid)
	logger.Info().Msgf("  Certificate Valid: %v", result.CertificateValid)
	logger.Info().Msgf("  Signature Valid:   %v", result.SignatureValid)
	logger.Info().Msgf("  Public Key Match:  %v", result.PublicKeyMatch)
	logger.Info().Msg("")
	logger.Info().Msg("Details:")
	for _, detail := range result.ValidationDetails {
		logger.Info().Msgf("  - %s", detail)
	}

	logger.Info().Msg("")
	logger.Info().Msg("=================================")
	if result.IsValid() {
		logger.Info().Msg("VALIDATION: ✓ PASSED")
		logger.Info().Msg("Exit Code: 0")
	} else {
		logger.Info().Msg("VALIDATION: ✗ FAILED")
		logger.Info().Msg("Exit Code: 1")
	}
}

func outputJSON(result *validation.KeyValidationResult) error {
	output := map[string]any{
		"valid":             result.IsValid(),
		"pcrs_valid":        result.PCRsValid,
		"certificate_valid": result.CertificateValid,
		"signature_valid":   result.SignatureValid,
		"public_key_match":  result.PublicKeyMatch,
		"details":           result.ValidationDetails,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
