package receipt

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the receipt-level counters. A nil *Metrics records nothing.
type Metrics struct {
	Processed prometheus.Counter
	Rejected  prometheus.Counter
	Lookups   *prometheus.CounterVec
	Points    prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "receipts_processed_total",
			Help: "Receipts scored and stored",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "receipts_rejected_total",
			Help: "Receipts rejected by validation",
		}),
		Lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_points_lookups_total",
				Help: "Points lookups by result",
			},
			[]string{"result"},
		),
		Points: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "receipt_points",
			Help:    "Points awarded per receipt",
			Buckets: []float64{10, 25, 50, 75, 100, 150, 250, 500, 1000},
		}),
	}

	reg.MustRegister(m.Processed, m.Rejected, m.Lookups, m.Points)
	return m
}

func (m *Metrics) processed(points int) {
	if m == nil {
		return
	}
	m.Processed.Inc()
	m.Points.Observe(float64(points))
}

func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}

func (m *Metrics) lookup(found bool) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "not_found"
	}
	m.Lookups.WithLabelValues(result).Inc()
}
