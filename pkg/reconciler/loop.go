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

// Package reconciler drives the periodic observe-score-rank-update tick.
package reconciler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	clusterapi "github.com/drf-scheduler/drf-controller/pkg/apis/cluster"
	jobapi "github.com/drf-scheduler/drf-controller/pkg/apis/job"
	"github.com/drf-scheduler/drf-controller/pkg/drf"
	"github.com/drf-scheduler/drf-controller/pkg/drferr"
	"github.com/drf-scheduler/drf-controller/pkg/gang"
	"github.com/drf-scheduler/drf-controller/pkg/metrics"
	"github.com/drf-scheduler/drf-controller/pkg/queue"
)

// JobObserver lists pending jobs for a tick.
type JobObserver interface {
	List(ctx context.Context) ([]jobapi.Record, error)
}

// ClusterObserver reports cluster-wide resource capacity for a tick.
type ClusterObserver interface {
	Observe(ctx context.Context) (clusterapi.Snapshot, error)
}

// QueueUpdater patches priority onto the ranked jobs' admission objects.
type QueueUpdater interface {
	UpdateAll(ctx context.Context, ranked []drf.ScoredJob) ([]queue.Outcome, error)
}

// Options configures a Loop.
type Options struct {
	Interval     time.Duration
	KueueEnabled bool
}

// Loop runs the bounded 7-step tick on a fixed interval until Stop is
// called. It never cancels a tick mid-flight: shutdown is observed only
// at the sleep boundary between ticks, mirroring the distilled source's
// cooperative running flag.
type Loop struct {
	jobs    JobObserver
	cluster ClusterObserver
	scorer  *drf.Scorer
	updater QueueUpdater
	opts    Options
	clock   clock.PassiveClock

	running atomic.Bool
}

// New constructs a Loop. updater may be nil when KueueEnabled is false;
// in that case Tick scores and ranks but never patches the cluster.
func New(jobs JobObserver, cluster ClusterObserver, scorer *drf.Scorer, updater QueueUpdater, opts Options) *Loop {
	return &Loop{
		jobs:    jobs,
		cluster: cluster,
		scorer:  scorer,
		updater: updater,
		opts:    opts,
		clock:   clock.RealClock{},
	}
}

// Run blocks, ticking every Interval, until ctx is cancelled or Stop is
// called. It returns nil on a clean shutdown.
func (l *Loop) Run(ctx context.Context) error {
	l.running.Store(true)
	klog.InfoS("starting reconciliation loop", "interval", l.opts.Interval, "kueueEnabled", l.opts.KueueEnabled)

	for l.running.Load() {
		start := l.clock.Now()
		if err := l.Tick(ctx); err != nil {
			klog.ErrorS(err, "tick aborted")
		}
		metrics.ObserveTick(l.clock.Now().Sub(start))

		select {
		case <-ctx.Done():
			l.running.Store(false)
			return nil
		case <-time.After(l.opts.Interval):
		}
	}
	klog.InfoS("reconciliation loop stopped")
	return nil
}

// Stop requests shutdown at the next sleep boundary. It does not
// interrupt a tick already in progress.
func (l *Loop) Stop() {
	l.running.Store(false)
}

// Tick runs a single observe -> filter -> score -> rank -> update pass.
// An observer failure aborts the tick and is returned as an error; it
// never panics the loop.
func (l *Loop) Tick(ctx context.Context) error {
	jobs, err := l.jobs.List(ctx)
	if err != nil {
		metrics.TickErrors.Inc()
		return err
	}
	metrics.JobsObserved.Set(float64(len(jobs)))

	snapshot, err := l.cluster.Observe(ctx)
	if err != nil {
		metrics.TickErrors.Inc()
		return err
	}

	admissible := gang.Filter(jobs)
	metrics.JobsAdmitted.Set(float64(len(admissible)))

	scored := l.scorer.ScoreAll(admissible, snapshot)
	ranked := drf.Rank(scored)

	if !l.opts.KueueEnabled || l.updater == nil {
		klog.V(2).InfoS("kueue integration disabled, skipping priority update", "ranked", len(ranked))
		return nil
	}

	outcomes, err := l.updater.UpdateAll(ctx, ranked)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		metrics.UpdateOutcomes.WithLabelValues(outcomeLabel(o)).Inc()
	}
	klog.InfoS("tick complete", "observed", len(jobs), "admitted", len(admissible), "updated", len(outcomes))
	return nil
}

func outcomeLabel(o queue.Outcome) string {
	switch {
	case o.Err == nil:
		return "success"
	case errors.Is(o.Err, drferr.ErrNotFound):
		return "not_found"
	case errors.Is(o.Err, drferr.ErrPatchFailed):
		return "patch_failed"
	default:
		return "failed"
	}
}
