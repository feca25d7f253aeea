package extract

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mwatts/pricewatch/internal/pricing"
)

// marketplaceSelectors cover the listing cards on marketplace search
// pages. All matches of all selectors are collected; the page mixes real
// listings with ads, shipping fees, and unrelated products.
var marketplaceSelectors = []string{
	`[class*="price"]`,
	`[data-price]`,
	`.product-price`,
	`.price-value`,
}

// Marketplace extracts the lowest plausible listing price from a
// marketplace search-results page.
type Marketplace struct {
	selectors []string
	minPrice  float64
	maxPrice  float64
}

// NewMarketplace builds the marketplace-aggregate-min strategy.
func NewMarketplace(opts Options) *Marketplace {
	return &Marketplace{
		selectors: marketplaceSelectors,
		minPrice:  opts.MinPrice,
		maxPrice:  opts.MaxPrice,
	}
}

// Name returns the registered strategy name.
func (m *Marketplace) Name() pricing.StrategyName {
	return pricing.StrategyMarketplaceAggregateMin
}

// Extract parses every selector match, discards values outside the
// plausible bound as noise, and returns the minimum survivor.
func (m *Marketplace) Extract(page *pricing.RawPage) (float64, bool) {
	if page == nil || len(page.Body) == 0 {
		return 0, false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return 0, false
	}

	var lowest float64
	found := false
	for _, selector := range m.selectors {
		doc.Find(selector).Each(func(_ int, elem *goquery.Selection) {
			value, ok := m.parseListing(elem.Text())
			if !ok {
				return
			}
			if !found || value < lowest {
				lowest = value
				found = true
			}
		})
	}
	return lowest, found
}

// parseListing cleans one listing's text to digits plus a decimal point
// and applies the plausibility bound.
func (m *Marketplace) parseListing(text string) (float64, bool) {
	cleaned := priceChars(text)
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if value <= m.minPrice || value >= m.maxPrice {
		return 0, false
	}
	return value, true
}

// priceChars strips thousands separators and keeps digits and dots.
// Text carrying more than one dot fails the later parse and is dropped.
func priceChars(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
