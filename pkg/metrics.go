package pkg

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetrics writes the outcome of a comparison in the node exporter
// textfile format.
func WriteMetrics(path string, changes []DiffLine, now time.Time) error {
	reg := prometheus.NewRegistry()
	extra := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "psdiff",
		Name:      "extra_processes",
		Help:      "Processes running that are not in the snapshot.",
	})
	missing := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "psdiff",
		Name:      "missing_processes",
		Help:      "Processes in the snapshot that are not running.",
	})
	checked := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "psdiff",
		Name:      "last_check_timestamp_seconds",
		Help:      "Unix time of the last comparison.",
	})
	reg.MustRegister(extra, missing, checked)

	extra.Set(float64(len(Extra(changes))))
	missing.Set(float64(len(Missing(changes))))
	checked.Set(float64(now.Unix()))

	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return pkgerrors.Wrapf(err, "write metrics %s", path)
	}
	return nil
}
