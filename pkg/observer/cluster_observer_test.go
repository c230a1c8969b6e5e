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

package observer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/client-go/kubernetes/fake"

	resourceapi "github.com/drf-scheduler/drf-controller/pkg/apis/resource"
)

func node(name string, capacity, allocatable corev1.ResourceList) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status:     corev1.NodeStatus{Capacity: capacity, Allocatable: allocatable},
	}
}

func TestClusterObserver_AggregatesAcrossNodes(t *testing.T) {
	n1 := node("n1",
		corev1.ResourceList{corev1.ResourceCPU: resource.MustParse("16"), corev1.ResourceMemory: resource.MustParse("64Gi")},
		corev1.ResourceList{corev1.ResourceCPU: resource.MustParse("15"), corev1.ResourceMemory: resource.MustParse("60Gi")},
	)
	n2 := node("n2",
		corev1.ResourceList{corev1.ResourceCPU: resource.MustParse("16"), corev1.ResourceName("nvidia.com/gpu"): resource.MustParse("4")},
		corev1.ResourceList{corev1.ResourceCPU: resource.MustParse("16"), corev1.ResourceName("nvidia.com/gpu"): resource.MustParse("4")},
	)

	client := fake.NewSimpleClientset(n1, n2)
	o := NewClusterObserver(client)

	snap, err := o.Observe(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 32, snap.Totals.Get(resourceapi.CPU), 1e-9)
	assert.InDelta(t, 4, snap.Totals.Get(resourceapi.Accelerator), 1e-9)
	assert.InDelta(t, 31, snap.Allocatable.Get(resourceapi.CPU), 1e-9)
	assert.Greater(t, snap.Totals.Get(resourceapi.Memory), 0.0)
}

func TestClusterObserver_EmptyClusterYieldsZeroSnapshot(t *testing.T) {
	client := fake.NewSimpleClientset()
	o := NewClusterObserver(client)

	snap, err := o.Observe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Totals.Get(resourceapi.CPU))
}
