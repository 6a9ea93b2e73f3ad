package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeFillID computes a deterministic fill_id using SHA256.
// Formula: SHA256(run_id|position_key|sequence)
// Returns hex-encoded hash (64 characters).
func ComputeFillID(runID, positionKey string, sequence int) string {
	data := fmt.Sprintf("%s|%s|%d", runID, positionKey, sequence)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
