package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/hjreach/internal/solver"
)

// Prometheus exports solver progress as collectors on a registry.
type Prometheus struct {
	subSteps  prometheus.Counter
	samples   prometheus.Counter
	stepSize  prometheus.Histogram
	solveTime prometheus.Gauge
	waveSpeed *prometheus.GaugeVec
	reach     prometheus.Gauge
}

// NewPrometheus registers the collectors on reg, or on the default
// registerer when reg is nil. Registering twice on one registry fails.
func NewPrometheus(reg prometheus.Registerer) (p *Prometheus, err error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("metrics: register collectors: %v", r)
		}
	}()

	f := promauto.With(reg)
	return &Prometheus{
		subSteps: f.NewCounter(prometheus.CounterOpts{
			Namespace: "hjreach",
			Name:      "substeps_total",
			Help:      "Accepted solver sub-steps.",
		}),
		samples: f.NewCounter(prometheus.CounterOpts{
			Namespace: "hjreach",
			Name:      "samples_total",
			Help:      "Time samples reached.",
		}),
		stepSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hjreach",
			Name:      "substep_size",
			Help:      "CFL-limited sub-step size in solver time units.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		solveTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "hjreach",
			Name:      "solver_time",
			Help:      "Solver time after the latest sub-step.",
		}),
		waveSpeed: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hjreach",
			Name:      "max_wave_speed",
			Help:      "Largest dissipation coefficient of the latest sub-step.",
		}, []string{"axis"}),
		reach: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "hjreach",
			Name:      "reach_fraction",
			Help:      "Share of nodes inside the zero sublevel set at the latest sample.",
		}),
	}, nil
}

func (p *Prometheus) OnSubStep(step solver.SubStep) {
	p.subSteps.Inc()
	p.stepSize.Observe(step.Dt)
	p.solveTime.Set(step.Time)
	for axis, a := range step.MaxAlpha {
		p.waveSpeed.WithLabelValues(fmt.Sprint(axis)).Set(a)
	}
}

func (p *Prometheus) OnSample(_ int, _ float64, field []float64) {
	p.samples.Inc()
	p.reach.Set(Fraction(field))
}
