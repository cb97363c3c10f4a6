package utils

import (
	"log/slog"

	"github.com/artie-labs/cursor/config"
	"github.com/artie-labs/cursor/lib/mtr"
)

// SetUpMetrics builds a statsd client from the optional metrics section, nil when the section is
// absent.
func SetUpMetrics(cfg *config.Metrics) (*mtr.Client, error) {
	if cfg == nil {
		return nil, nil
	}

	slog.Info("Creating metrics client")
	client, err := mtr.New(cfg.Namespace, cfg.Tags, 0.5)
	if err != nil {
		return nil, err
	}
	return &client, nil
}
