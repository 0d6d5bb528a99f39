/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics records story service operations with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder observes completed service operations.
type Recorder interface {
	ObserveOperation(operation, outcome string, duration time.Duration)
}

// PrometheusRecorder implements Recorder with a counter and a histogram.
type PrometheusRecorder struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder registers the story metrics on reg. A nil reg uses
// the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storyboard",
				Name:      "story_operations_total",
				Help:      "Total number of story service operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "storyboard",
				Name:      "story_operation_duration_seconds",
				Help:      "Duration of story service operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// ObserveOperation records one completed operation.
func (p *PrometheusRecorder) ObserveOperation(operation, outcome string, duration time.Duration) {
	p.operationsTotal.WithLabelValues(operation, outcome).Inc()
	p.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// NopRecorder discards observations.
type NopRecorder struct{}

func (NopRecorder) ObserveOperation(string, string, time.Duration) {}
