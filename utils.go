package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalHash returns the hex SHA-256 digest of the canonical JSON
// serialization of a payload. encoding/json emits map keys in sorted
// order, so byte-identical content always hashes identically regardless
// of the order the adapter assembled the map in.
func CanonicalHash(payload Payload) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("payload not serializable: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
