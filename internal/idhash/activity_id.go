package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ComputeActivityID computes a deterministic id for an activity record that
// carries none.
// Formula: SHA256(tx_hash|asset|side|timestamp|size|price)
// Returns hex-encoded hash (64 characters).
func ComputeActivityID(
	txHash string,
	asset string,
	side string,
	timestamp int64,
	size float64,
	price float64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%s|%s",
		txHash,
		asset,
		side,
		timestamp,
		formatFloat(size),
		formatFloat(price),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// formatFloat renders the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
