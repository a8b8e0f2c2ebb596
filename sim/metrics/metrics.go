// Package metrics exposes fitness-pass and generation statistics as
// Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/popsim-lab/popsim/sim"
)

// Recorder implements sim.Observer. Each Recorder owns its registry so
// several runs in one process do not collide.
type Recorder struct {
	registry *prometheus.Registry

	fitnessPasses       *prometheus.CounterVec
	callbackInvocations *prometheus.CounterVec
	meanFitness         *prometheus.GaugeVec
	totalFitness        *prometheus.GaugeVec
	subpopSize          *prometheus.GaugeVec
	generation          prometheus.Gauge
	swaps               *prometheus.CounterVec
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fitnessPasses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "popsim_fitness_passes_total",
				Help: "Total number of fitness passes",
			},
			[]string{"subpop", "variant"},
		),
		callbackInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "popsim_fitness_callback_invocations_total",
				Help: "Total number of fitness callback executions",
			},
			[]string{"subpop"},
		),
		meanFitness: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "popsim_mean_fitness",
				Help: "Mean fitness of the parent generation after the last pass",
			},
			[]string{"subpop"},
		),
		totalFitness: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "popsim_total_fitness",
				Help: "Total fitness of the parent generation after the last pass",
			},
			[]string{"subpop"},
		),
		subpopSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "popsim_subpopulation_size",
				Help: "Number of parent individuals evaluated in the last pass",
			},
			[]string{"subpop"},
		),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "popsim_generation",
			Help: "Generation of the most recent event",
		}),
		swaps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "popsim_generation_swaps_total",
				Help: "Total number of generation swaps",
			},
			[]string{"subpop", "regenerated"},
		),
	}
	r.registry.MustRegister(
		r.fitnessPasses,
		r.callbackInvocations,
		r.meanFitness,
		r.totalFitness,
		r.subpopSize,
		r.generation,
		r.swaps,
	)
	return r
}

func subpopLabel(id int) string { return "p" + strconv.Itoa(id) }

// FitnessUpdated implements sim.Observer.
func (r *Recorder) FitnessUpdated(pass sim.FitnessPass) {
	label := subpopLabel(pass.SubpopID)
	r.fitnessPasses.WithLabelValues(label, pass.Variant.String()).Inc()
	r.callbackInvocations.WithLabelValues(label).Add(float64(pass.CallbackInvocations))
	r.meanFitness.WithLabelValues(label).Set(pass.Summary.Mean)
	r.totalFitness.WithLabelValues(label).Set(pass.Summary.Total)
	r.subpopSize.WithLabelValues(label).Set(float64(pass.Summary.Count))
	r.generation.Set(float64(pass.Generation))
}

// GenerationSwapped implements sim.Observer.
func (r *Recorder) GenerationSwapped(subpopID int, generation int64, regenerated bool) {
	r.swaps.WithLabelValues(subpopLabel(subpopID), strconv.FormatBool(regenerated)).Inc()
	r.generation.Set(float64(generation))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the Recorder's metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
