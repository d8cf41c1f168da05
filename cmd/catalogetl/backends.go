package main

import (
	"catalogetl/internal/config"
	"catalogetl/internal/logger"
	"catalogetl/internal/metrics"
	"catalogetl/internal/metrics/datadog"
	"catalogetl/internal/metrics/prompush"
)

// metricsBackend builds the configured backend and its release func.
func metricsBackend(cfg config.Config, runID string, log *logger.Logger) (metrics.Backend, func(), error) {
	switch cfg.Metrics.Backend {
	case "prom":
		b, err := prompush.NewBackend(prompush.Config{
			GatewayURL: cfg.Metrics.PushgatewayURL,
			Job:        cfg.Job,
			RunID:      runID,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("metrics enabled", "backend", "prom", "url", cfg.Metrics.PushgatewayURL)
		return b, func() {}, nil

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  cfg.Metrics.Namespace,
			GlobalTags: []string{"run_id:" + runID},
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("metrics enabled", "backend", "datadog", "addr", cfg.Metrics.DatadogAddr)
		return b, func() {
			if err := b.Close(); err != nil {
				log.Warn("datadog close failed", "error", err)
			}
		}, nil
	}
	return metrics.Nop(), func() {}, nil
}
