/*
Copyright 2024 The DRF Controller Authors.

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

// Package metrics exposes prometheus collectors for the reconciliation
// loop's per-tick behavior.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "drf_controller"

var (
	// TickDuration measures wall-clock time spent in a single tick.
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Duration of a single reconciliation tick.",
		Buckets:   prometheus.DefBuckets,
	})

	// JobsObserved is the number of pending jobs seen in the most recent tick.
	JobsObserved = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_observed",
		Help:      "Pending jobs observed in the most recent tick.",
	})

	// JobsAdmitted is the number of jobs that survived the gang filter.
	JobsAdmitted = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_admitted",
		Help:      "Jobs admitted by the gang filter in the most recent tick.",
	})

	// UpdateOutcomes counts queue-updater results by outcome label:
	// "success", "not_found", "patch_failed".
	UpdateOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "update_outcomes_total",
		Help:      "Count of admission-object update attempts by outcome.",
	}, []string{"outcome"})

	// TickErrors counts ticks aborted by an observer failure.
	TickErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tick_errors_total",
		Help:      "Ticks aborted due to an observation failure.",
	})
)

// MustRegister registers every collector with reg. Called once at
// startup; a second registration attempt is a programming error.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(TickDuration, JobsObserved, JobsAdmitted, UpdateOutcomes, TickErrors)
}

// ObserveTick records the duration of a completed tick.
func ObserveTick(d time.Duration) {
	TickDuration.Observe(d.Seconds())
}
