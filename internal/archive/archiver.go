package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gallery-go/internal/gallery"
)

// encryptedSuffix is appended to the key of encrypted objects.
const encryptedSuffix = ".age"

// Document is the JSON form of an archived artifact. Absent params are
// omitted rather than written as empty values.
type Document struct {
	Kind       gallery.Kind `json:"kind"`
	ID         string       `json:"id"`
	Prompt     string       `json:"prompt"`
	Payload    string       `json:"payload"`
	Timestamp  int64        `json:"timestamp"`
	ArchivedAt int64        `json:"archived_at"`
	Model      *string      `json:"model,omitempty"`
	Resolution *string      `json:"resolution,omitempty"`
	Duration   *int         `json:"duration,omitempty"`
	Quality    *string      `json:"quality,omitempty"`
}

// Artifact converts the document back to an artifact.
func (d *Document) Artifact() *gallery.Artifact {
	return &gallery.Artifact{
		ID:        d.ID,
		Prompt:    d.Prompt,
		Payload:   d.Payload,
		Timestamp: d.Timestamp,
		Params: gallery.Params{
			Model:      fromPtr(d.Model),
			Resolution: fromPtr(d.Resolution),
			Duration:   fromPtr(d.Duration),
			Quality:    fromPtr(d.Quality),
		},
	}
}

func toPtr[T any](o gallery.Optional[T]) *T {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}

func fromPtr[T any](p *T) gallery.Optional[T] {
	if p == nil {
		return gallery.None[T]()
	}
	return gallery.Some(*p)
}

// Archiver writes evicted artifacts to an ArchiveStore, encrypting them when
// an Encryptor is configured.
type Archiver struct {
	store     gallery.ArchiveStore
	encryptor gallery.Encryptor
	clock     gallery.Clock
}

var _ gallery.Archiver = (*Archiver)(nil)

// NewArchiver creates an Archiver. encryptor may be nil for plaintext
// archives; clock may be nil for the real clock.
func NewArchiver(store gallery.ArchiveStore, encryptor gallery.Encryptor, clock gallery.Clock) *Archiver {
	if clock == nil {
		clock = gallery.RealClock{}
	}
	return &Archiver{store: store, encryptor: encryptor, clock: clock}
}

// Key returns the object key for an artifact: "<kind>/<id>.json", with
// ".age" appended when archives are encrypted.
func (a *Archiver) Key(kind gallery.Kind, id string) string {
	key := fmt.Sprintf("%s/%s.json", kind, id)
	if a.encryptor != nil {
		key += encryptedSuffix
	}
	return key
}

// Archive serializes the artifact and stores it.
func (a *Archiver) Archive(ctx context.Context, kind gallery.Kind, art *gallery.Artifact) error {
	doc := Document{
		Kind:       kind,
		ID:         art.ID,
		Prompt:     art.Prompt,
		Payload:    art.Payload,
		Timestamp:  art.Timestamp,
		ArchivedAt: a.clock.Now().UnixMilli(),
		Model:      toPtr(art.Params.Model),
		Resolution: toPtr(art.Params.Resolution),
		Duration:   toPtr(art.Params.Duration),
		Quality:    toPtr(art.Params.Quality),
	}

	data, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encoding %s %s: %w", kind, art.ID, err)
	}

	if a.encryptor != nil {
		var buf bytes.Buffer
		if err := a.encryptor.Encrypt(bytes.NewReader(data), &buf); err != nil {
			return fmt.Errorf("encrypting %s %s: %w", kind, art.ID, err)
		}
		data = buf.Bytes()
	}

	key := a.Key(kind, art.ID)
	if err := a.store.Put(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// Retrieve loads an archived artifact. dctx is required when archives are
// encrypted and ignored otherwise.
func (a *Archiver) Retrieve(ctx context.Context, kind gallery.Kind, id string, dctx gallery.DecryptionContext) (*Document, error) {
	key := a.Key(kind, id)

	var raw bytes.Buffer
	if err := a.store.Get(ctx, key, &raw); err != nil {
		return nil, err
	}

	data := raw.Bytes()
	if a.encryptor != nil {
		if dctx == nil {
			return nil, fmt.Errorf("archive %s is encrypted; unlock required", key)
		}
		var plain bytes.Buffer
		if err := dctx.Decrypt(&raw, &plain); err != nil {
			return nil, fmt.Errorf("decrypting %s: %w", key, err)
		}
		data = plain.Bytes()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &doc, nil
}

// Encrypted reports whether archives are written encrypted.
func (a *Archiver) Encrypted() bool {
	return a.encryptor != nil
}

// ArchivedTime returns when the document was archived.
func (d *Document) ArchivedTime() time.Time {
	return time.UnixMilli(d.ArchivedAt)
}
