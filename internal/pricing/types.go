// Package pricing defines core types shared across subsystems.
package pricing

import (
	"context"
	"time"
)

// StrategyName identifies the extraction heuristic used for a source page.
type StrategyName string

// Strategy names persisted in the history file's source field.
const (
	StrategyStorefrontSingleValue   StrategyName = "storefront-single-value"
	StrategyMarketplaceAggregateMin StrategyName = "marketplace-aggregate-min"
)

// Observation is one price record captured at one point in time for one
// tracked model. The JSON keys form the persisted history file contract.
type Observation struct {
	Timestamp string       `json:"timestamp"`
	Model     string       `json:"model"`
	Price     float64      `json:"price"`
	Source    StrategyName `json:"source"`
	URL       string       `json:"url"`
	ImageURL  string       `json:"imageUrl"`
}

// TrackedModel is the static configuration for one monitored product:
// where its page lives and how to pull a price out of it.
type TrackedModel struct {
	Name             string       `mapstructure:"name"`
	Strategy         StrategyName `mapstructure:"strategy"`
	SourceURL        string       `mapstructure:"source_url"`
	ImageURL         string       `mapstructure:"image_url"`
	ThresholdKey     string       `mapstructure:"threshold_key"`
	ThresholdPercent float64      `mapstructure:"-"`
}

// RawPage is the unparsed result of fetching a source page.
type RawPage struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves a page and returns the raw markup plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*RawPage, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
