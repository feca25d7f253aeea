package extract

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mwatts/pricewatch/internal/pricing"
)

// storefrontSelectors probe a single-product storefront page, most to
// least specific. The first selector with a usable element wins.
var storefrontSelectors = []string{
	`span[class*="price"]`,
	`div[class*="price"]`,
	`[data-autom="price"]`,
	`.as-price-currentprice`,
}

// Storefront extracts the single displayed price from a storefront
// product page.
type Storefront struct {
	selectors   []string
	assumeCents bool
}

// NewStorefront builds the storefront-single-value strategy.
func NewStorefront(opts Options) *Storefront {
	return &Storefront{
		selectors:   storefrontSelectors,
		assumeCents: opts.AssumeCents,
	}
}

// Name returns the registered strategy name.
func (s *Storefront) Name() pricing.StrategyName {
	return pricing.StrategyStorefrontSingleValue
}

// Extract probes the selector list in order and parses the first element
// carrying a usable digit run.
func (s *Storefront) Extract(page *pricing.RawPage) (float64, bool) {
	if page == nil || len(page.Body) == 0 {
		return 0, false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return 0, false
	}

	for _, selector := range s.selectors {
		elem := doc.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		digits := digitsOnly(elem.Text())
		if digits == "" {
			continue
		}
		value, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			continue
		}
		// Digit runs longer than two are taken as cent-denominated
		// markup ("99900" -> 999.00). Misreads four-figure whole-dollar
		// prices; toggleable until the markup settles.
		if s.assumeCents && len(digits) > 2 {
			value /= 100
		}
		return value, true
	}
	return 0, false
}

// digitsOnly strips thousands separators and keeps only digit runes.
func digitsOnly(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
