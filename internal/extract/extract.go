// Package extract locates a numeric price inside raw page markup.
//
// Source pages are third-party and uncontrolled, so extraction is
// deliberately heuristic: a strategy probes structural selectors and fails
// soft. One unparseable page never aborts the run for other models.
package extract

import (
	"fmt"

	"github.com/mwatts/pricewatch/internal/pricing"
)

// Strategy is the capability of pulling a price out of one kind of source
// page. Implementations report found=false instead of returning errors;
// nothing in this package panics on malformed markup.
type Strategy interface {
	Name() pricing.StrategyName
	Extract(page *pricing.RawPage) (price float64, found bool)
}

// Options tunes the heuristics shared by the strategies.
type Options struct {
	// AssumeCents treats storefront digit runs longer than two as
	// cent-denominated (so "1,234" reads as 12.34). See config.ExtractConfig.
	AssumeCents bool
	// MinPrice and MaxPrice bound plausible marketplace listings; values
	// outside (MinPrice, MaxPrice) are discarded as noise.
	MinPrice float64
	MaxPrice float64
}

// ForStrategy returns the Strategy registered under name. Adding a source
// means adding a Strategy implementation here, not branching on strings
// elsewhere.
func ForStrategy(name pricing.StrategyName, opts Options) (Strategy, error) {
	switch name {
	case pricing.StrategyStorefrontSingleValue:
		return NewStorefront(opts), nil
	case pricing.StrategyMarketplaceAggregateMin:
		return NewMarketplace(opts), nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q", name)
	}
}
