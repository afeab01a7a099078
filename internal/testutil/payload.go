package testutil

import (
	"strings"

	"gallery-go/internal/gallery"
)

// MB is one mebibyte.
const MB = 1024 * 1024

// Payload returns a data URL whose estimated size is exactly n bytes.
// The body is not meant to decode to anything useful.
func Payload(mime string, n int64) string {
	// ceil(4n/3) base64 characters estimate back to exactly n bytes.
	chars := (4*n + 2) / 3
	return "data:" + mime + ";base64," + strings.Repeat("A", int(chars))
}

// VideoOfSize returns a new video artifact with a payload of n estimated bytes.
func VideoOfSize(prompt string, n int64) *gallery.NewArtifact {
	return &gallery.NewArtifact{Prompt: prompt, Payload: Payload("video/mp4", n)}
}

// ImageOfSize returns a new image artifact with a payload of n estimated bytes.
func ImageOfSize(prompt string, n int64) *gallery.NewArtifact {
	return &gallery.NewArtifact{Prompt: prompt, Payload: Payload("image/png", n)}
}
