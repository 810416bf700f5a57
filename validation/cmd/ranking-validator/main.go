package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cloudx-io/bidranking/rankapi"
	"github.com/cloudx-io/bidranking/validation"
)

func main() {
	var (
		requestInput   = flag.String("request", "", "Rank request JSON (file path or inline JSON)")
		responseInput  = flag.String("response", "", "Rank response JSON (file path or inline JSON)")
		publicKeyInput = flag.String("public-key", "", "Signing key: PEM or key response JSON (file path or inline)")
		outputFormat   = flag.String("format", "text", "Output format: text or json")
		help           = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}

	if *requestInput == "" || *responseInput == "" || *publicKeyInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: All three inputs are required (--request, --response, --public-key)\n")
		os.Exit(1)
	}

	requestJSON, err := readInput(*requestInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading request: %v\n", err)
		os.Exit(2)
	}

	responseJSON, err := readInput(*responseInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading response: %v\n", err)
		os.Exit(2)
	}

	publicKey, err := readInput(*publicKeyInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading public key: %v\n", err)
		os.Exit(2)
	}

	validationInput, err := extractValidationInput(requestJSON, responseJSON, publicKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting validation data: %v\n", err)
		os.Exit(2)
	}

	result, err := validation.ValidateRankingProof(validationInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	if *outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}

	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Bid Ranking Proof Validator")
	fmt.Println()
	fmt.Println("Checks that a ranking was produced by the ranking server from the submitted bids.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ranking-validator --request <json> --response <json> --public-key <pem|json> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --request <json>                  Rank request that was sent")
	fmt.Println("  --response <json>                 Rank response that was received")
	fmt.Println("  --public-key <pem|json>           Signing key PEM, or the server's key response")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
	fmt.Println()
	fmt.Println("Input Format:")
	fmt.Println("  Each flag accepts either a file path or an inline value.")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ranking-validator --request request.json --response response.json --public-key key.pem")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readInput(input string) ([]byte, error) {
	// Try reading as file first
	if data, err := os.ReadFile(input); err == nil {
		return data, nil
	}
	// Treat as inline value
	return []byte(input), nil
}

func extractValidationInput(requestJSON, responseJSON, publicKey []byte) (*validation.RankingValidationInput, error) {
	var request rankapi.RankRequest
	if err := json.Unmarshal(requestJSON, &request); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}

	var response rankapi.RankResponse
	if err := json.Unmarshal(responseJSON, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if !response.Success {
		return nil, fmt.Errorf("response is not a successful ranking: %s", response.Message)
	}
	if response.Proof == "" {
		return nil, fmt.Errorf("missing 'proof' in response")
	}

	publicKeyPEM := strings.TrimSpace(string(publicKey))
	if strings.HasPrefix(publicKeyPEM, "{") {
		var keyResponse rankapi.KeyResponse
		if err := json.Unmarshal(publicKey, &keyResponse); err != nil {
			return nil, fmt.Errorf("parse key response: %w", err)
		}
		publicKeyPEM = keyResponse.PublicKey
	}

	rankedIDs := make([]string, len(response.Bids))
	for i, bid := range response.Bids {
		rankedIDs[i] = bid.ID
	}

	return &validation.RankingValidationInput{
		Proof:        response.Proof,
		PublicKeyPEM: publicKeyPEM,
		Bids:         request.Bids,
		RankedBidIDs: rankedIDs,
	}, nil
}

func outputText(result *validation.RankingValidationResult) {
	fmt.Println("Bid Ranking Proof Validator")
	fmt.Println("===========================")
	fmt.Println()

	if result.Proof != nil {
		fmt.Println("Proof:")
		fmt.Printf("  Proof ID:   %s\n", result.Proof.ProofID)
		fmt.Printf("  Project ID: %s\n", result.Proof.ProjectID)
		fmt.Printf("  Strategy:   %s\n", result.Proof.Strategy)
		fmt.Printf("  Bids:       %d\n", len(result.Proof.BidHashes))
		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  Signature Valid:     %v\n", result.SignatureValid)
	fmt.Printf("  Bid Hashes Valid:    %v\n", result.BidHashesValid)
	fmt.Printf("  Ranking Valid:       %v\n", result.RankingValid)
	fmt.Printf("  Response Order OK:   %v\n", result.ResponseOrderOK)

	fmt.Println()
	fmt.Println("Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}

	fmt.Println()
	fmt.Println("===========================")
	if result.IsValid() {
		fmt.Println("VALIDATION: ✓ PASSED")
		fmt.Println("Exit Code: 0")
	} else {
		fmt.Println("VALIDATION: ✗ FAILED")
		fmt.Println("Exit Code: 1")
	}
}

func outputJSON(result *validation.RankingValidationResult) {
	output := map[string]any{
		"valid":             result.IsValid(),
		"signature_valid":   result.SignatureValid,
		"bid_hashes_valid":  result.BidHashesValid,
		"ranking_valid":     result.RankingValid,
		"response_order_ok": result.ResponseOrderOK,
		"proof":             result.Proof,
		"details":           result.ValidationDetails,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(data))
}
