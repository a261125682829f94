package hash

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// ProfileHash returns the hex SHA3-256 digest of v's JSON encoding. Map keys are
// sorted by encoding/json, so equal snapshots hash equally.
func ProfileHash(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode profile for hashing: %w", err)
	}

	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
