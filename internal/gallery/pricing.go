package gallery

// Pricer looks up the cost of generating an artifact from its params.
// Implementations return a fixed fallback price when a key is missing or
// unrecognized.
type Pricer interface {
	Price(p Params) float64
}

// PricerFunc adapts a function to the Pricer interface.
type PricerFunc func(p Params) float64

func (f PricerFunc) Price(p Params) float64 { return f(p) }
