// Package dataurl handles the self-describing payload format used for stored
// artifacts: "data:<mime>;base64,<data>".
package dataurl

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EstimateSize returns the approximate decoded byte size of a data URL without
// decoding it. Base64 encodes 3 bytes as 4 characters, so the size is
// floor(len(data) * 3 / 4). Payloads without a comma separator, or with no
// data after it, estimate to zero.
func EstimateSize(payload string) int64 {
	_, data, ok := strings.Cut(payload, ",")
	if !ok || data == "" {
		return 0
	}
	// Only the segment up to a second comma counts, matching a split on ','.
	if i := strings.IndexByte(data, ','); i >= 0 {
		data = data[:i]
	}
	return int64(len(data)) * 3 / 4
}

// Encode builds a base64 data URL for the given MIME type and bytes.
func Encode(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode parses a base64 data URL and returns its MIME type and decoded bytes.
func Decode(payload string) (string, []byte, error) {
	header, data, ok := strings.Cut(payload, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data url: missing ',' separator")
	}

	meta, found := strings.CutPrefix(header, "data:")
	if !found {
		return "", nil, fmt.Errorf("malformed data url: missing data: prefix")
	}

	mimeType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return "", nil, fmt.Errorf("unsupported data url encoding: %q", encoding)
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("decoding base64 payload: %w", err)
	}
	return mimeType, decoded, nil
}
