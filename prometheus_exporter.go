package pinbench

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// PrometheusMeasurementExporter collects measurements as gauges in a private
// registry and writes them in the text exposition format on Close, ready
// for the node_exporter textfile collector.
type PrometheusMeasurementExporter struct {
	io.WriteCloser
	registry *prometheus.Registry
	values   *prometheus.GaugeVec
}

func NewPrometheusMeasurementExporter(w io.WriteCloser) *PrometheusMeasurementExporter {
	values := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pinbench_measurement",
			Help: "Exported pinbench measurements by metric and measurement name",
		},
		[]string{"metric", "measurement"},
	)
	registry := prometheus.NewRegistry()
	registry.MustRegister(values)
	return &PrometheusMeasurementExporter{
		WriteCloser: w,
		registry:    registry,
		values:      values,
	}
}

// Write records v. Values that are not numbers are skipped.
func (self *PrometheusMeasurementExporter) Write(metric string, measurement string, v interface{}) error {
	f, ok := toFloat64(v)
	if !ok {
		return nil
	}
	self.values.WithLabelValues(metric, measurement).Set(f)
	return nil
}

func (self *PrometheusMeasurementExporter) Close() error {
	families, err := self.registry.Gather()
	if err == nil {
		for _, mf := range families {
			if _, err = expfmt.MetricFamilyToText(self.WriteCloser, mf); err != nil {
				break
			}
		}
	}
	err2 := self.WriteCloser.Close()
	if err != nil {
		return err
	}
	return err2
}

func toFloat64(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
