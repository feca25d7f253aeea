// Package monitor sequences one full price-monitoring run: fetch,
// extract, record, detect, notify, persist.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mwatts/pricewatch/internal/detect"
	"github.com/mwatts/pricewatch/internal/extract"
	"github.com/mwatts/pricewatch/internal/fetcher"
	"github.com/mwatts/pricewatch/internal/metrics"
	"github.com/mwatts/pricewatch/internal/notify"
	"github.com/mwatts/pricewatch/internal/pricing"
)

// HistoryStore persists the full observation log.
type HistoryStore interface {
	LoadAll() []pricing.Observation
	SaveAll(observations []pricing.Observation) error
}

// Notifier delivers a price-drop event and reports how many sinks
// succeeded.
type Notifier interface {
	Notify(ctx context.Context, event notify.Event) int
}

// Engine owns one run of the monitoring pipeline. Models are processed
// one at a time, never concurrently, to bound the outbound request rate
// against the scraped sites.
type Engine struct {
	models     []pricing.TrackedModel
	fetch      pricing.Fetcher
	pacer      fetcher.Pacer
	strategies map[pricing.StrategyName]extract.Strategy
	store      HistoryStore
	notifier   Notifier
	clock      pricing.Clock
	logger     *zap.Logger
}

// NewEngine wires the pipeline. The strategy map must cover every
// strategy named by the tracked models.
func NewEngine(
	models []pricing.TrackedModel,
	fetch pricing.Fetcher,
	pacer fetcher.Pacer,
	strategies map[pricing.StrategyName]extract.Strategy,
	store HistoryStore,
	notifier Notifier,
	clock pricing.Clock,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		models:     models,
		fetch:      fetch,
		pacer:      pacer,
		strategies: strategies,
		store:      store,
		notifier:   notifier,
		clock:      clock,
		logger:     logger,
	}
}

// Run executes one monitoring pass. History is loaded once up front and
// persisted once at the end; a failure on one model is logged and never
// aborts the others. Only context cancellation stops the run early.
func (e *Engine) Run(ctx context.Context) error {
	runID := uuid.NewString()
	log := e.logger.With(zap.String("run_id", runID))
	log.Info("Starting price monitoring", zap.Int("models", len(e.models)))

	observations := e.store.LoadAll()
	timestamp := e.clock.Now().Format(time.RFC3339)
	recorded := 0

	for _, model := range e.models {
		if err := ctx.Err(); err != nil {
			return err
		}

		price, strategy, ok := e.observe(ctx, log, model)
		if !ok {
			continue
		}

		// Detection baseline is the history as it stood before this
		// run touched the model.
		oldPrice, hasPrior := detect.LatestPriorPrice(observations, model.Name)

		observations = append(observations, pricing.Observation{
			Timestamp: timestamp,
			Model:     model.Name,
			Price:     price,
			Source:    strategy,
			URL:       model.SourceURL,
			ImageURL:  model.ImageURL,
		})
		recorded++
		metrics.RecordObservation(model.Name)
		log.Info("Recorded price",
			zap.String("model", model.Name),
			zap.Float64("price", price))

		if !hasPrior {
			continue
		}
		if !detect.IsDrop(price, oldPrice, model.ThresholdPercent) {
			continue
		}
		metrics.RecordDrop(model.Name)
		log.Info("Price drop detected",
			zap.String("model", model.Name),
			zap.Float64("old_price", oldPrice),
			zap.Float64("new_price", price),
			zap.Float64("threshold_percent", model.ThresholdPercent))
		e.notifier.Notify(ctx, notify.NewEvent(model.Name, oldPrice, price, e.clock.Now()))
	}

	if err := e.store.SaveAll(observations); err != nil {
		// The run still completes; only this run's observations are
		// lost, prior history on disk is untouched.
		log.Error("Failed to persist history", zap.Error(err))
	}

	metrics.RecordRun()
	log.Info("Price monitoring completed", zap.Int("recorded", recorded))
	return nil
}

// observe paces, fetches, and extracts one model's price. Any failure
// logs, counts, and skips the model for this run.
func (e *Engine) observe(
	ctx context.Context,
	log *zap.Logger,
	model pricing.TrackedModel,
) (float64, pricing.StrategyName, bool) {
	strategy, ok := e.strategies[model.Strategy]
	if !ok {
		log.Error("No strategy registered for model",
			zap.String("model", model.Name),
			zap.String("strategy", string(model.Strategy)))
		return 0, "", false
	}

	if err := e.pacer.Wait(ctx); err != nil {
		log.Warn("Pacing interrupted",
			zap.String("model", model.Name), zap.Error(err))
		return 0, "", false
	}

	page, err := e.fetch.Fetch(ctx, model.SourceURL)
	if err != nil {
		reason := string(fetcher.ReasonNetwork)
		var fetchErr *fetcher.FetchError
		if errors.As(err, &fetchErr) {
			reason = string(fetchErr.Reason)
		}
		metrics.RecordFetchFailure(reason)
		log.Warn("Fetch failed; skipping model",
			zap.String("model", model.Name),
			zap.String("reason", reason),
			zap.Error(err))
		return 0, "", false
	}

	price, found := strategy.Extract(page)
	if !found {
		metrics.RecordExtractionMiss(model.Name)
		log.Warn("No price found on page; skipping model",
			zap.String("model", model.Name),
			zap.String("url", model.SourceURL))
		return 0, "", false
	}

	return price, strategy.Name(), true
}
