package command

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/burugo/modelkit/config"
	"github.com/burugo/modelkit/logger"
	"github.com/burugo/modelkit/metrics"
)

// Telemetry is the metrics observer of one command run.
type Telemetry struct {
	Observer metrics.Recorder
	Registry *prometheus.Registry
}

// provideTelemetry registers a collector on a private registry when a metrics textfile
// is configured. The cleanup writes the registry to that file.
func provideTelemetry(conf *config.Config, log logger.Interface) (*Telemetry, func()) {
	if !conf.Metrics.Enabled() {
		return &Telemetry{Observer: metrics.Nop{}}, func() {}
	}

	reg := prometheus.NewRegistry()
	telemetry := &Telemetry{Observer: metrics.NewWithRegistry(reg), Registry: reg}
	cleanup := func() {
		if err := prometheus.WriteToTextfile(conf.Metrics.Textfile, reg); err != nil {
			log.Error(context.Background(), "could not write metrics", "path", conf.Metrics.Textfile, "error", err.Error())
		}
	}
	return telemetry, cleanup
}
