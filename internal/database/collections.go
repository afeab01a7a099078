package database

import (
	"context"
	"fmt"

	"gallery-go/internal/database/sqlc"
	"gallery-go/internal/gallery"
)

// videoCollection implements gallery.ArtifactStore over the videos table.
type videoCollection struct {
	queries *sqlc.Queries
	clock   gallery.Clock
	idgen   gallery.IDGenerator
}

var _ gallery.ArtifactStore = (*videoCollection)(nil)

func (c *videoCollection) Kind() gallery.Kind { return gallery.KindVideo }

func (c *videoCollection) Insert(ctx context.Context, a *gallery.NewArtifact) (*gallery.Artifact, error) {
	row, err := c.queries.InsertVideo(ctx, sqlc.InsertVideoParams{
		ID:         c.idgen.New(),
		Prompt:     a.Prompt,
		Payload:    a.Payload,
		Timestamp:  c.clock.Now().UnixMilli(),
		Model:      nullString(a.Params.Model),
		Resolution: nullString(a.Params.Resolution),
		Duration:   nullInt64(a.Params.Duration),
	})
	if err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("inserting video: %w", gallery.ErrConflict)
		}
		return nil, fmt.Errorf("inserting video: %w", err)
	}
	return videoFromRow(row), nil
}

func (c *videoCollection) ListPage(ctx context.Context, limit, offset int) ([]*gallery.Artifact, error) {
	if err := checkOffset(offset); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []*gallery.Artifact{}, nil
	}
	rows, err := c.queries.ListVideosPage(ctx, sqlc.ListVideosPageParams{
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	return videosFromRows(rows), nil
}

func (c *videoCollection) ListAll(ctx context.Context) ([]*gallery.Artifact, error) {
	rows, err := c.queries.ListVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	return videosFromRows(rows), nil
}

func (c *videoCollection) Count(ctx context.Context) (int, error) {
	n, err := c.queries.CountVideos(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting videos: %w", err)
	}
	return int(n), nil
}

func (c *videoCollection) DeleteByID(ctx context.Context, id string) error {
	if err := c.queries.DeleteVideo(ctx, id); err != nil {
		return fmt.Errorf("deleting video %s: %w", id, err)
	}
	return nil
}

func (c *videoCollection) Clear(ctx context.Context) error {
	if err := c.queries.ClearVideos(ctx); err != nil {
		return fmt.Errorf("clearing videos: %w", err)
	}
	return nil
}

func videoFromRow(v sqlc.Video) *gallery.Artifact {
	return &gallery.Artifact{
		ID:        v.ID,
		Prompt:    v.Prompt,
		Payload:   v.Payload,
		Timestamp: v.Timestamp,
		Params: gallery.Params{
			Model:      optionalString(v.Model),
			Resolution: optionalString(v.Resolution),
			Duration:   optionalInt(v.Duration),
		},
	}
}

func videosFromRows(rows []sqlc.Video) []*gallery.Artifact {
	out := make([]*gallery.Artifact, 0, len(rows))
	for _, row := range rows {
		out = append(out, videoFromRow(row))
	}
	return out
}

// imageCollection implements gallery.ArtifactStore over the images table.
// Params.Resolution is stored in the size column.
type imageCollection struct {
	queries *sqlc.Queries
	clock   gallery.Clock
	idgen   gallery.IDGenerator
}

var _ gallery.ArtifactStore = (*imageCollection)(nil)

func (c *imageCollection) Kind() gallery.Kind { return gallery.KindImage }

func (c *imageCollection) Insert(ctx context.Context, a *gallery.NewArtifact) (*gallery.Artifact, error) {
	row, err := c.queries.InsertImage(ctx, sqlc.InsertImageParams{
		ID:        c.idgen.New(),
		Prompt:    a.Prompt,
		Payload:   a.Payload,
		Timestamp: c.clock.Now().UnixMilli(),
		Model:     nullString(a.Params.Model),
		Quality:   nullString(a.Params.Quality),
		Size:      nullString(a.Params.Resolution),
	})
	if err != nil {
		if isConflict(err) {
			return nil, fmt.Errorf("inserting image: %w", gallery.ErrConflict)
		}
		return nil, fmt.Errorf("inserting image: %w", err)
	}
	return imageFromRow(row), nil
}

func (c *imageCollection) ListPage(ctx context.Context, limit, offset int) ([]*gallery.Artifact, error) {
	if err := checkOffset(offset); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []*gallery.Artifact{}, nil
	}
	rows, err := c.queries.ListImagesPage(ctx, sqlc.ListImagesPageParams{
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return imagesFromRows(rows), nil
}

func (c *imageCollection) ListAll(ctx context.Context) ([]*gallery.Artifact, error) {
	rows, err := c.queries.ListImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return imagesFromRows(rows), nil
}

func (c *imageCollection) Count(ctx context.Context) (int, error) {
	n, err := c.queries.CountImages(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting images: %w", err)
	}
	return int(n), nil
}

func (c *imageCollection) DeleteByID(ctx context.Context, id string) error {
	if err := c.queries.DeleteImage(ctx, id); err != nil {
		return fmt.Errorf("deleting image %s: %w", id, err)
	}
	return nil
}

func (c *imageCollection) Clear(ctx context.Context) error {
	if err := c.queries.ClearImages(ctx); err != nil {
		return fmt.Errorf("clearing images: %w", err)
	}
	return nil
}

func imageFromRow(i sqlc.Image) *gallery.Artifact {
	return &gallery.Artifact{
		ID:        i.ID,
		Prompt:    i.Prompt,
		Payload:   i.Payload,
		Timestamp: i.Timestamp,
		Params: gallery.Params{
			Model:      optionalString(i.Model),
			Resolution: optionalString(i.Size),
			Quality:    optionalString(i.Quality),
		},
	}
}

func imagesFromRows(rows []sqlc.Image) []*gallery.Artifact {
	out := make([]*gallery.Artifact, 0, len(rows))
	for _, row := range rows {
		out = append(out, imageFromRow(row))
	}
	return out
}

// checkOffset rejects negative offsets. Callers short-circuit limit <= 0 to an
// empty page since SQLite reads a negative LIMIT as unbounded.
func checkOffset(offset int) error {
	if offset < 0 {
		return fmt.Errorf("invalid page offset %d", offset)
	}
	return nil
}
