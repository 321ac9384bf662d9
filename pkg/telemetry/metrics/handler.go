package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the scrape endpoint for everything the collector
// registers. Mount it at the path from MetricsConfig (default "/metrics"):
//
//	collector := metrics.NewCollector(cfg, nil)
//	mux.Handle(cfg.Path, collector.Handler())
//
// Scrapes are served in OpenMetrics encoding when the scraper negotiates
// it. A failing metric does not take down the scrape: whatever collected
// cleanly is still served and the failure goes to the process-wide slog
// logger.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	})
}
