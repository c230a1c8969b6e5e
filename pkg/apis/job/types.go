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

// Package job defines the per-tick representation of a pending batch job.
package job

import (
	"fmt"
	"time"

	"github.com/drf-scheduler/drf-controller/pkg/apis/resource"
)

// PriorityClass is the coarse, operator-visible priority override. URGENT
// strictly dominates NORMAL regardless of dominant share or age.
type PriorityClass int

const (
	Normal PriorityClass = iota
	Urgent
)

func (c PriorityClass) String() string {
	if c == Urgent {
		return "Urgent"
	}
	return "Normal"
}

// ClassWeight returns the additive score component for the class: 0 for
// Urgent, 1000 for Normal. The spread must exceed any realistic
// (dominantShare - aging) value so class dominance is absolute.
func (c PriorityClass) ClassWeight() float64 {
	if c == Urgent {
		return 0
	}
	return 1000
}

// Identity uniquely identifies a job across the pending set.
type Identity struct {
	Name      string
	Namespace string
}

func (id Identity) String() string {
	return fmt.Sprintf("%s/%s", id.Namespace, id.Name)
}

// Gang carries the job's gang-scheduling membership, if any. Size is the
// expected number of jobs sharing GroupID; it is what lets the gang filter
// tell a fully-pending gang apart from one whose siblings have already
// been admitted elsewhere. A Size of 0 means the operator did not declare
// an expected size, in which case the filter treats whatever it currently
// observes for that GroupID as complete.
type Gang struct {
	Enabled bool
	GroupID string
	Size    int
}

// Record is the per-tick, immutable view of a pending batch job.
type Record struct {
	Identity      Identity
	PriorityClass PriorityClass
	CreationTime  time.Time
	Request       resource.Vector
	Gang          Gang
}
