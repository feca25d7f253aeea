package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mwatts/pricewatch/internal/clock/system"
	"github.com/mwatts/pricewatch/internal/config"
	"github.com/mwatts/pricewatch/internal/extract"
	"github.com/mwatts/pricewatch/internal/fetcher"
	"github.com/mwatts/pricewatch/internal/history"
	"github.com/mwatts/pricewatch/internal/monitor"
	"github.com/mwatts/pricewatch/internal/notify"
	"github.com/mwatts/pricewatch/internal/pricing"
)

// newRunCmd creates the 'run' subcommand, which executes a single
// monitoring pass and exits. An external scheduler invokes it
// periodically; overlapping runs are the scheduler's job to prevent.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Executes one price-monitoring pass",
		Long: `Fetches the source page for every tracked model, extracts and records
the current price, checks for threshold-exceeding drops against the
stored history, sends configured notifications, and persists the
updated history.`,
		RunE: runMonitorCommand,
	}
}

func runMonitorCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	if err := engine.Run(cmd.Context()); err != nil {
		return fmt.Errorf("run monitor: %w", err)
	}
	return nil
}

func buildEngine(cfg config.Config, logger *zap.Logger) (*monitor.Engine, error) {
	fetch := fetcher.NewColly(fetcher.Config{
		UserAgent: cfg.Monitor.UserAgent,
		Timeout:   cfg.Monitor.RequestTimeout(),
	}, logger)

	pacer := fetcher.NewFixedIntervalPacer(cfg.Monitor.Delay())

	opts := extract.Options{
		AssumeCents: cfg.Extract.AssumeCents,
		MinPrice:    cfg.Extract.MinPrice,
		MaxPrice:    cfg.Extract.MaxPrice,
	}
	strategies := make(map[pricing.StrategyName]extract.Strategy)
	for _, name := range []pricing.StrategyName{
		pricing.StrategyStorefrontSingleValue,
		pricing.StrategyMarketplaceAggregateMin,
	} {
		strategy, err := extract.ForStrategy(name, opts)
		if err != nil {
			return nil, fmt.Errorf("init strategy: %w", err)
		}
		strategies[name] = strategy
	}

	store := history.NewFileStore(cfg.Monitor.HistoryPath, logger)
	notifier := notify.New(logger, buildSinks(cfg, logger)...)

	return monitor.NewEngine(
		cfg.Models,
		fetch,
		pacer,
		strategies,
		store,
		notifier,
		system.New(),
		logger,
	), nil
}

// buildSinks constructs only the sinks whose configuration is complete;
// a partially configured sink is skipped, not an error.
func buildSinks(cfg config.Config, logger *zap.Logger) []notify.Sink {
	var sinks []notify.Sink
	if cfg.SMTP.Enabled() {
		sinks = append(sinks, notify.NewEmailSink(notify.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			To:       cfg.SMTP.To,
		}))
	} else {
		logger.Info("SMTP credentials not fully configured; email sink disabled")
	}
	if cfg.Webhook.Enabled() {
		sinks = append(sinks, notify.NewWebhookSink(notify.WebhookConfig{
			URL:     cfg.Webhook.URL,
			Timeout: cfg.Webhook.Timeout(),
		}))
	} else {
		logger.Debug("Webhook URL not configured; webhook sink disabled")
	}
	return sinks
}
