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

// Package cluster defines the per-tick snapshot of cluster capacity.
package cluster

import "github.com/drf-scheduler/drf-controller/pkg/apis/resource"

// Snapshot is the immutable view of cluster capacity taken once at the
// start of a tick. For every kind, 0 <= Allocatable <= Totals is expected
// to hold, though the scorer does not depend on Allocatable at all -
// it is carried for observers and future use only.
type Snapshot struct {
	Totals      resource.Vector
	Allocatable resource.Vector
}
