package iuu

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts session round trips.
type Metrics struct {
	Commands     *prometheus.CounterVec // labels: opcode
	Errors       *prometheus.CounterVec // labels: opcode, kind
	BytesWritten prometheus.Counter
	BytesRead    prometheus.Counter
	RoundTrip    *prometheus.HistogramVec // labels: opcode
}

// NewMetrics creates the session metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iuu",
			Name:      "commands_total",
			Help:      "Commands sent to the device by opcode.",
		}, []string{"opcode"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iuu",
			Name:      "command_errors_total",
			Help:      "Failed commands by opcode and error kind.",
		}, []string{"opcode", "kind"}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iuu",
			Name:      "bytes_written_total",
			Help:      "Bytes written to the bulk OUT endpoint.",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "iuu",
			Name:      "bytes_read_total",
			Help:      "Bytes read from the bulk IN endpoint.",
		}),
		RoundTrip: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "iuu",
			Name:      "round_trip_seconds",
			Help:      "Duration of one command write and its response read.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"opcode"}),
	}
	reg.MustRegister(m.Commands, m.Errors, m.BytesWritten, m.BytesRead, m.RoundTrip)
	return m
}

func (m *Metrics) observe(op Opcode, written, read int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	name := op.String()
	m.Commands.WithLabelValues(name).Inc()
	m.BytesWritten.Add(float64(written))
	m.BytesRead.Add(float64(read))
	m.RoundTrip.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		m.Errors.WithLabelValues(name, errorKind(err)).Inc()
	}
}
