// Package hexid renders opaque concurrency tokens (etag / as-of values) in
// the textual form clients see: two lowercase hex digits per byte.
package hexid

import "encoding/hex"

// Encode converts a raw token to its presentation form. The empty slice
// encodes to the empty string.
func Encode(token []byte) string {
	return hex.EncodeToString(token)
}

// Decode parses a presentation-form token back to raw bytes.
func Decode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
