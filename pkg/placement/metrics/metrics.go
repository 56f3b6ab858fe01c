/*
Copyright 2025 The KCP Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics records Prometheus metrics about placement runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kcp-dev/placer/pkg/placement/scheduler"
	"github.com/kcp-dev/placer/pkg/placement/spec"
)

// Result label values of placer_placements_total.
const (
	ResultSuccess          = "success"
	ResultSpecInvalid      = "spec_invalid"
	ResultPlacementInvalid = "placement_invalid"
	ResultError            = "error"
)

// Recorder records the outcome of placement runs.
type Recorder interface {
	// RecordPlacement records one placement run of a service type.
	RecordPlacement(serviceType string, hosts int, err error, duration time.Duration)
}

type recorder struct {
	placements    *prometheus.CounterVec
	selectedHosts *prometheus.HistogramVec
	duration      *prometheus.HistogramVec
}

// NewRecorder returns a Recorder whose metrics are registered with
// registerer. A nil registerer leaves them unregistered.
func NewRecorder(registerer prometheus.Registerer) Recorder {
	r := &recorder{
		placements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "placer_placements_total",
				Help: "Total number of placement runs by service type and result",
			},
			[]string{"service_type", "result"},
		),
		selectedHosts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "placer_selected_hosts",
				Help:    "Number of hosts selected by successful placement runs",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 50, 100},
			},
			[]string{"service_type"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "placer_placement_duration_seconds",
				Help:    "Time taken to compute a placement",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"service_type"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(r.placements, r.selectedHosts, r.duration)
	}
	return r
}

// RecordPlacement implements Recorder.
func (r *recorder) RecordPlacement(serviceType string, hosts int, err error, duration time.Duration) {
	result := Result(err)
	r.placements.WithLabelValues(serviceType, result).Inc()
	r.duration.WithLabelValues(serviceType).Observe(duration.Seconds())
	if result == ResultSuccess {
		r.selectedHosts.WithLabelValues(serviceType).Observe(float64(hosts))
	}
}

// Result maps the error of a placement run to its result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case spec.IsServiceSpecValidationError(err):
		return ResultSpecInvalid
	case scheduler.IsOrchestratorValidationError(err):
		return ResultPlacementInvalid
	default:
		return ResultError
	}
}

// Place runs a and records its outcome under the service type of svc.
func Place(r Recorder, svc *spec.ServiceSpec, a *scheduler.HostAssignment) ([]spec.HostPlacementSpec, error) {
	start := time.Now()
	hosts, err := a.Place()
	r.RecordPlacement(svc.ServiceType, len(hosts), err, time.Since(start))
	return hosts, err
}

type noopRecorder struct{}

// NewNoopRecorder returns a Recorder that records nothing.
func NewNoopRecorder() Recorder {
	return noopRecorder{}
}

func (noopRecorder) RecordPlacement(string, int, error, time.Duration) {}
