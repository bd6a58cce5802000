package tokenrefresh

import "github.com/prometheus/client_golang/prometheus"

// Metrics records coordinator activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Refreshes *prometheus.CounterVec
	Replays   prometheus.Counter
	Waiting   prometheus.Gauge
}

// NewMetrics creates the coordinator collectors and registers them with reg
// when it is non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionkit_token_refresh_total",
			Help: "Total number of token refresh calls by result",
		}, []string{"result"}),
		Replays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sessionkit_token_replays_total",
			Help: "Total number of requests replayed after a token refresh",
		}),
		Waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sessionkit_token_refresh_waiting",
			Help: "Current number of requests waiting on a token refresh",
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Refreshes, m.Replays, m.Waiting} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) refreshResult(result string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) replayed() {
	if m == nil {
		return
	}
	m.Replays.Inc()
}

func (m *Metrics) setWaiting(n int64) {
	if m == nil {
		return
	}
	m.Waiting.Set(float64(n))
}
