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

package gang

import (
	"testing"

	"github.com/stretchr/testify/assert"

	jobapi "github.com/drf-scheduler/drf-controller/pkg/apis/job"
)

func named(name string, g jobapi.Gang) jobapi.Record {
	return jobapi.Record{Identity: jobapi.Identity{Name: name}, Gang: g}
}

func names(jobs []jobapi.Record) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Identity.Name)
	}
	return out
}

// Scenario 4: gang admissibility.
func TestScenario_GangAdmissibility(t *testing.T) {
	complete := []jobapi.Record{
		named("g1-a", jobapi.Gang{Enabled: true, GroupID: "g1", Size: 2}),
		named("g1-b", jobapi.Gang{Enabled: true, GroupID: "g1", Size: 2}),
		named("h1", jobapi.Gang{}),
	}
	out := Filter(complete)
	assert.ElementsMatch(t, []string{"g1-a", "g1-b", "h1"}, names(out))

	partial := []jobapi.Record{
		named("g1-a", jobapi.Gang{Enabled: true, GroupID: "g1", Size: 2}),
		named("h1", jobapi.Gang{}),
	}
	out = Filter(partial)
	assert.ElementsMatch(t, []string{"h1"}, names(out))
}

func TestFilter_NoSizeDeclaredTreatsObservedAsComplete(t *testing.T) {
	jobs := []jobapi.Record{
		named("g1-a", jobapi.Gang{Enabled: true, GroupID: "g1"}),
	}
	assert.ElementsMatch(t, []string{"g1-a"}, names(Filter(jobs)))
}

func TestFilter_SingletonsAlwaysPass(t *testing.T) {
	jobs := []jobapi.Record{named("s1", jobapi.Gang{}), named("s2", jobapi.Gang{})}
	assert.ElementsMatch(t, []string{"s1", "s2"}, names(Filter(jobs)))
}

func TestFilter_NoMemberOfIncompleteGangLeaks(t *testing.T) {
	jobs := []jobapi.Record{
		named("g1-a", jobapi.Gang{Enabled: true, GroupID: "g1", Size: 3}),
		named("g1-b", jobapi.Gang{Enabled: true, GroupID: "g1", Size: 3}),
	}
	assert.Empty(t, Filter(jobs))
}
