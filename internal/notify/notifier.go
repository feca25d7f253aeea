// Package notify fans price-drop events out to configured delivery sinks.
//
// Sinks are independently optional and independently failable: a delivery
// failure is logged and counted, and never stops the remaining sinks or
// the run.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mwatts/pricewatch/internal/metrics"
)

// Event carries everything a sink needs to describe one price drop. The
// JSON tags double as the webhook payload contract.
type Event struct {
	Model       string  `json:"model"`
	OldPrice    float64 `json:"old_price"`
	NewPrice    float64 `json:"new_price"`
	Savings     float64 `json:"savings"`
	DropPercent float64 `json:"drop_percent"`
	Timestamp   string  `json:"timestamp"`
}

// NewEvent computes the derived savings fields shared by every sink.
func NewEvent(model string, oldPrice, newPrice float64, at time.Time) Event {
	return Event{
		Model:       model,
		OldPrice:    oldPrice,
		NewPrice:    newPrice,
		Savings:     oldPrice - newPrice,
		DropPercent: (oldPrice - newPrice) / oldPrice * 100,
		Timestamp:   at.Format(time.RFC3339),
	}
}

// Sink is one notification delivery channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Notifier delivers an event to every configured sink.
type Notifier struct {
	sinks  []Sink
	logger *zap.Logger
}

// New builds a Notifier over the given sinks. Construct only the sinks
// whose configuration is complete; an empty sink list is valid and makes
// Notify a no-op.
func New(logger *zap.Logger, sinks ...Sink) *Notifier {
	return &Notifier{sinks: sinks, logger: logger}
}

// Notify attempts delivery on each sink in order and returns how many
// succeeded. Failures are isolated per sink.
func (n *Notifier) Notify(ctx context.Context, event Event) int {
	delivered := 0
	for _, sink := range n.sinks {
		if err := sink.Deliver(ctx, event); err != nil {
			metrics.RecordNotification(sink.Name(), "error")
			n.logger.Error("Notification delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("model", event.Model),
				zap.Error(err))
			continue
		}
		metrics.RecordNotification(sink.Name(), "ok")
		n.logger.Info("Notification sent",
			zap.String("sink", sink.Name()),
			zap.String("model", event.Model))
		delivered++
	}
	return delivered
}
