package gallery

import (
	"fmt"
	"time"
)

// Kind identifies a media collection. Each kind is stored in its own
// independent keyspace.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// Kinds lists every supported collection.
var Kinds = []Kind{KindVideo, KindImage}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindVideo, KindImage:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown artifact kind: %q", s)
	}
}

// Params are the optional generation attributes recorded with an artifact.
// They are used only for price lookup and may be absent on older records or
// partial API responses.
type Params struct {
	Model      Optional[string]
	Resolution Optional[string] // video resolution or image size, e.g. "1280x720"
	Duration   Optional[int]    // seconds; videos only
	Quality    Optional[string] // images only
}

// Artifact is a generated media item as persisted in a collection.
//
// ID and Timestamp are assigned by the store on insert. Prompt and Payload
// never change after creation.
type Artifact struct {
	ID        string
	Prompt    string
	Payload   string // data URL, e.g. "data:video/mp4;base64,..."
	Timestamp int64  // creation time, epoch milliseconds
	Params    Params
}

// CreatedAt returns the timestamp as a time.Time.
func (a *Artifact) CreatedAt() time.Time {
	return time.UnixMilli(a.Timestamp)
}

// NewArtifact carries the caller-supplied fields of an artifact to insert.
type NewArtifact struct {
	Prompt  string
	Payload string
	Params  Params
}
