// Package detect decides whether a new observation is a meaningful price
// drop versus the latest prior observation for the same model.
package detect

import "github.com/mwatts/pricewatch/internal/pricing"

// LatestPriorPrice selects, among all observations for model, the one
// with the greatest timestamp and returns its price. RFC 3339 timestamps
// compare lexicographically as a proxy for chronological order. On equal
// timestamps the last-inserted entry wins, which keeps the lookup
// deterministic for entries written within the same run.
func LatestPriorPrice(history []pricing.Observation, model string) (float64, bool) {
	var (
		latest pricing.Observation
		found  bool
	)
	for _, obs := range history {
		if obs.Model != model {
			continue
		}
		if !found || obs.Timestamp >= latest.Timestamp {
			latest = obs
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return latest.Price, true
}

// IsDrop reports whether newPrice is lower than oldPrice by at least
// thresholdPercent percent. Callers with no prior baseline must not call
// this with a zero oldPrice; LatestPriorPrice's found flag guards that.
func IsDrop(newPrice, oldPrice, thresholdPercent float64) bool {
	if oldPrice <= 0 {
		return false
	}
	dropPercent := (oldPrice - newPrice) / oldPrice * 100
	return dropPercent >= thresholdPercent
}
