package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash returns the hex SHA-256 digest of data. Instance and DOT content
// hashes are the resultHash and instanceHash arguments of a [Keyer].
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON hashes the JSON encoding of v.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return Hash(data), nil
}

// hashKey returns "kind:" followed by the hash of parts. Parts are key
// option structs and hashes, which always marshal.
func hashKey(kind string, parts ...any) string {
	h, _ := HashJSON(parts)
	return kind + ":" + h
}
