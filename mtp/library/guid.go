package library

import (
	"encoding/hex"
	"strings"
)

// parseGUID converts a hyphenated GUID string ("45a663b5-b1cb-4a91-bff6-
// 2bef7bbfdd76") into the 16-byte mixed-endian form the Zune artist-metadata
// property (0xDA97) expects: the first three components (4, 2, 2 bytes)
// little-endian, the last two components (2, 6 bytes, treated here as one
// 8-byte block) big-endian, matching the Windows GUID wire layout.
func parseGUID(s string) ([]byte, error) {
	hexStr := strings.ReplaceAll(s, "-", "")
	raw, err := hex.DecodeString(hexStr)
	if err != nil || len(raw) != 16 {
		return nil, LibraryError{Op: "parseGUID", Reason: "expected 32 hex characters after removing dashes"}
	}

	out := make([]byte, 16)
	// Component 1: 4 bytes, little-endian.
	out[0], out[1], out[2], out[3] = raw[3], raw[2], raw[1], raw[0]
	// Component 2: 2 bytes, little-endian.
	out[4], out[5] = raw[5], raw[4]
	// Component 3: 2 bytes, little-endian.
	out[6], out[7] = raw[7], raw[6]
	// Component 4: 8 bytes, big-endian (as-is).
	copy(out[8:], raw[8:16])
	return out, nil
}
