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

// Package drf implements Dominant Resource Fairness scoring with an aging
// term and a coarse priority-class override. The scorer is pure: it has no
// I/O and no time source other than the clock.PassiveClock passed in,
// which keeps it deterministic under test.
package drf

import (
	"sort"

	"k8s.io/utils/clock"

	clusterapi "github.com/drf-scheduler/drf-controller/pkg/apis/cluster"
	jobapi "github.com/drf-scheduler/drf-controller/pkg/apis/job"
	"github.com/drf-scheduler/drf-controller/pkg/apis/resource"
)

// DefaultAgingAlpha is the constructor-time default aging constant.
// Production deployments typically override this; see Scorer.WithAlpha.
const DefaultAgingAlpha = 0.1

// ScoredJob pairs a job.Record with its computed dominant share, aging
// term, and final score. Lower Score means higher priority.
type ScoredJob struct {
	Job           jobapi.Record
	DominantShare float64
	AgingTerm     float64
	Score         float64
}

// Scorer computes DRF + aging + priority-class scores against a fixed
// aging constant and clock.
type Scorer struct {
	alpha float64
	clock clock.PassiveClock
}

// NewScorer constructs a Scorer with DefaultAgingAlpha and the real clock.
func NewScorer() *Scorer {
	return &Scorer{alpha: DefaultAgingAlpha, clock: clock.RealClock{}}
}

// WithAlpha returns a copy of the Scorer using the given aging constant.
func (s *Scorer) WithAlpha(alpha float64) *Scorer {
	out := *s
	out.alpha = alpha
	return &out
}

// WithClock returns a copy of the Scorer using the given clock, primarily
// for deterministic tests.
func (s *Scorer) WithClock(c clock.PassiveClock) *Scorer {
	out := *s
	out.clock = c
	return &out
}

// DominantShare returns the job's dominant share against the cluster
// snapshot: for every kind with a positive total, the ratio of requested
// to total; kinds with a zero or absent total are skipped entirely (never
// treated as +Inf). The result is the max over considered kinds, or 0 if
// no kind was considered.
func DominantShare(j jobapi.Record, c clusterapi.Snapshot) float64 {
	var max float64
	for _, k := range []resource.Kind{resource.CPU, resource.Memory, resource.Accelerator} {
		total := c.Totals.Get(k)
		if total <= 0 {
			continue
		}
		share := j.Request.Get(k) / total
		if share > max {
			max = share
		}
	}
	return max
}

// agingTerm returns alpha * age_seconds, clamping negative ages (clock
// skew) to zero age.
func (s *Scorer) agingTerm(j jobapi.Record) float64 {
	age := s.clock.Now().Sub(j.CreationTime).Seconds()
	if age < 0 {
		age = 0
	}
	return s.alpha * age
}

// Score computes score(J, C) = classWeight(J.priorityClass) +
// dominantShare(J, C) - alpha*age_seconds.
func (s *Scorer) Score(j jobapi.Record, c clusterapi.Snapshot) ScoredJob {
	dominantShare := DominantShare(j, c)
	aging := s.agingTerm(j)
	return ScoredJob{
		Job:           j,
		DominantShare: dominantShare,
		AgingTerm:     aging,
		Score:         j.PriorityClass.ClassWeight() + dominantShare - aging,
	}
}

// ScoreAll scores every job in jobs against the same cluster snapshot.
func (s *Scorer) ScoreAll(jobs []jobapi.Record, c clusterapi.Snapshot) []ScoredJob {
	scored := make([]ScoredJob, 0, len(jobs))
	for _, j := range jobs {
		scored = append(scored, s.Score(j, c))
	}
	return scored
}

// Rank sorts scored jobs ascending by score, breaking ties by creation
// time ascending and then by identity lexicographically. The sort is
// stable so identical re-ranking of identical inputs is reproducible.
func Rank(scored []ScoredJob) []ScoredJob {
	ranked := make([]ScoredJob, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, k int) bool {
		a, b := ranked[i], ranked[k]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if !a.Job.CreationTime.Equal(b.Job.CreationTime) {
			return a.Job.CreationTime.Before(b.Job.CreationTime)
		}
		return a.Job.Identity.String() < b.Job.Identity.String()
	})
	return ranked
}
