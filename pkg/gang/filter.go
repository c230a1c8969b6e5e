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

// Package gang implements the all-or-nothing gang admissibility filter.
// A gang group is admissible for a tick iff every member of the group is
// present in the pending set passed to Filter; because the job observer
// only sees pending jobs, a partially admitted gang (one whose siblings
// have already been dequeued elsewhere) naturally becomes inadmissible.
package gang

import jobapi "github.com/drf-scheduler/drf-controller/pkg/apis/job"

// Filter partitions jobs into admissible singletons and admissible,
// fully-present gang groups. Inadmissible gangs contribute none of their
// members to the result. Output order is unspecified; callers re-rank
// downstream.
//
// Completeness for a group is judged against the largest Size declared by
// any of its observed members (job.Gang.Size). A group with no declared
// Size is treated as complete by definition - there is nothing else to
// compare the observed count against.
func Filter(jobs []jobapi.Record) []jobapi.Record {
	groups := make(map[string][]jobapi.Record)
	var singletons []jobapi.Record

	for _, j := range jobs {
		if j.Gang.Enabled && j.Gang.GroupID != "" {
			groups[j.Gang.GroupID] = append(groups[j.Gang.GroupID], j)
			continue
		}
		singletons = append(singletons, j)
	}

	out := make([]jobapi.Record, 0, len(jobs))
	out = append(out, singletons...)
	for _, members := range groups {
		if isComplete(members) {
			out = append(out, members...)
		}
	}
	return out
}

func isComplete(members []jobapi.Record) bool {
	expected := 0
	for _, m := range members {
		if m.Gang.Size > expected {
			expected = m.Gang.Size
		}
	}
	if expected == 0 {
		return true
	}
	return len(members) >= expected
}
