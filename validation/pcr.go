package validation

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// LoadPCRsFromFile loads known PCR sets from a JSON file.
func LoadPCRsFromFile(path string) ([]PCRSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PCR config file: %w", err)
	}

	var config PCRConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse PCR config: %w", err)
	}

	if len(config.PCRSets) == 0 {
		return nil, fmt.Errorf("no PCR sets found in config file")
	}

	return config.PCRSets, nil
}

// ValidatePCRs checks PCR0-2 against each known set.
// Returns the index of the matching set, or -1.
func ValidatePCRs(pcrs map[uint][]byte, knownSets []PCRSet) (bool, int) {
	pcr0 := hex.EncodeToString(pcrs[0])
	pcr1 := hex.EncodeToString(pcrs[1])
	pcr2 := hex.EncodeToString(pcrs[2])

	for i, known := range knownSets {
		if pcr0 == strings.ToLower(known.PCR0) &&
			pcr1 == strings.ToLower(known.PCR1) &&
			pcr2 == strings.ToLower(known.PCR2) {
			return true, i
		}
	}
	return false, -1
}
