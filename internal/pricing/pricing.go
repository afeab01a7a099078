// Package pricing provides the default price tables for generated artifacts.
package pricing

import "gallery-go/internal/gallery"

const (
	// VideoFallbackPrice is charged when a video's model, resolution, or
	// duration is missing or not in the table.
	VideoFallbackPrice = 1.0

	// ImageFallbackPrice is charged when an image's model, quality, or size is
	// missing or not in the table. It equals the price of the defaults the
	// image schema backfill applies (gpt-image-1, low, 1024x1024).
	ImageFallbackPrice = 0.01088

	// DefaultVideoModel is assumed when a video record has no model.
	DefaultVideoModel = "sora-2"
)

// costPerSecond maps video model -> resolution -> USD per second.
var costPerSecond = map[string]map[string]float64{
	"sora-2": {
		"720x1280": 0.10,
		"1280x720": 0.10,
	},
	"sora-2-pro": {
		"720x1280":  0.30,
		"1280x720":  0.30,
		"1024x1792": 0.50,
		"1792x1024": 0.50,
	},
}

// videoDurations are the clip lengths the API accepts, in seconds.
var videoDurations = map[int]bool{4: true, 8: true, 12: true}

// imagePrices maps image model -> quality -> size -> USD per image.
// Derived from output token counts at $40 (gpt-image-1) and $8
// (gpt-image-1-mini) per million tokens.
var imagePrices = map[string]map[string]map[string]float64{
	"gpt-image-1": {
		"low":    {"1024x1024": 0.01088, "1024x1536": 0.01632, "1536x1024": 0.016},
		"medium": {"1024x1024": 0.04224, "1024x1536": 0.06336, "1536x1024": 0.06272},
		"high":   {"1024x1024": 0.1664, "1024x1536": 0.2496, "1536x1024": 0.24832},
	},
	"gpt-image-1-mini": {
		"low":    {"1024x1024": 0.002176, "1024x1536": 0.003264, "1536x1024": 0.0032},
		"medium": {"1024x1024": 0.008448, "1024x1536": 0.012672, "1536x1024": 0.012544},
		"high":   {"1024x1024": 0.03328, "1024x1536": 0.04992, "1536x1024": 0.049664},
	},
}

// Video prices video artifacts by model, resolution, and duration.
type Video struct{}

var _ gallery.Pricer = Video{}

func (Video) Price(p gallery.Params) float64 {
	model := p.Model.OrElse(DefaultVideoModel)
	if model == "" {
		model = DefaultVideoModel
	}
	resolution, ok := p.Resolution.Get()
	if !ok {
		return VideoFallbackPrice
	}
	seconds, ok := p.Duration.Get()
	if !ok || !videoDurations[seconds] {
		return VideoFallbackPrice
	}
	cps, ok := costPerSecond[model][resolution]
	if !ok {
		return VideoFallbackPrice
	}
	return float64(seconds) * cps
}

// Image prices image artifacts by model, quality, and size.
type Image struct{}

var _ gallery.Pricer = Image{}

func (Image) Price(p gallery.Params) float64 {
	model, ok := p.Model.Get()
	if !ok {
		return ImageFallbackPrice
	}
	quality, ok := p.Quality.Get()
	if !ok {
		return ImageFallbackPrice
	}
	size, ok := p.Resolution.Get()
	if !ok {
		return ImageFallbackPrice
	}
	price, ok := imagePrices[model][quality][size]
	if !ok {
		return ImageFallbackPrice
	}
	return price
}

// ForKind returns the default Pricer for a collection.
func ForKind(kind gallery.Kind) gallery.Pricer {
	if kind == gallery.KindImage {
		return Image{}
	}
	return Video{}
}
