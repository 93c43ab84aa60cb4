package questiongen

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors for generation runs. A nil
// *Metrics records nothing.
type Metrics struct {
	runs      *prometheus.CounterVec
	drafts    prometheus.Counter
	persisted prometheus.Counter
	skipped   *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers the generation collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edugen_generation_runs_total",
				Help: "Total number of generation runs by result",
			},
			[]string{"result"},
		),
		drafts: f.NewCounter(prometheus.CounterOpts{
			Name: "edugen_drafts_parsed_total",
			Help: "Total number of question drafts recovered from model replies",
		}),
		persisted: f.NewCounter(prometheus.CounterOpts{
			Name: "edugen_questions_persisted_total",
			Help: "Total number of generated questions stored",
		}),
		skipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edugen_items_skipped_total",
				Help: "Total number of generated items skipped by reason",
			},
			[]string{"reason"},
		),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "edugen_generation_duration_seconds",
			Help:    "Duration of admitted generation runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
}

func (m *Metrics) observeRun(result RunResult) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(result)).Inc()
}

func (m *Metrics) observeReport(r Report) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(r.Result)).Inc()
	m.drafts.Add(float64(r.Drafts))
	m.duration.Observe(r.Duration.Seconds())
	for _, o := range r.Outcomes {
		switch o.Status {
		case OutcomePersisted:
			m.persisted.Inc()
		default:
			m.skipped.WithLabelValues(o.Reason).Inc()
		}
		if o.AnswersSkipped > 0 {
			m.skipped.WithLabelValues(ReasonAnswerFailed).Add(float64(o.AnswersSkipped))
		}
	}
}
