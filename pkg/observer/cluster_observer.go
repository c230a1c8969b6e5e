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
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"

	clusterapi "github.com/drf-scheduler/drf-controller/pkg/apis/cluster"
	"github.com/drf-scheduler/drf-controller/pkg/apis/resource"
	"github.com/drf-scheduler/drf-controller/pkg/drferr"
	"github.com/drf-scheduler/drf-controller/pkg/resourceparser"
)

// ClusterObserver lists node capacity and allocatable resources and
// aggregates them into a single cluster-wide Snapshot.
type ClusterObserver struct {
	client kubernetes.Interface
}

// NewClusterObserver constructs a ClusterObserver bound to client.
func NewClusterObserver(client kubernetes.Interface) *ClusterObserver {
	return &ClusterObserver{client: client}
}

// Observe sums status.capacity and status.allocatable across every node.
// A listing failure aborts the whole tick: the controller has no sound
// fallback total to score against, unlike a malformed quantity on a single
// node, which only drops that one field.
func (o *ClusterObserver) Observe(ctx context.Context) (clusterapi.Snapshot, error) {
	nodes, err := o.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return clusterapi.Snapshot{}, fmt.Errorf("listing nodes: %w", drferr.ErrObserveFailed)
	}

	var snap clusterapi.Snapshot
	snap.Totals = resource.Vector{}
	snap.Allocatable = resource.Vector{}

	for i := range nodes.Items {
		n := &nodes.Items[i]
		addQuantities(&snap.Totals, n.Name, "capacity", n.Status.Capacity)
		addQuantities(&snap.Allocatable, n.Name, "allocatable", n.Status.Allocatable)
	}
	return snap, nil
}

func addQuantities(v *resource.Vector, nodeName, field string, list corev1.ResourceList) {
	if q, ok := list[corev1.ResourceCPU]; ok {
		if cores, err := resourceparser.ParseCPU(q.String()); err != nil {
			klog.V(4).InfoS("dropping malformed node cpu "+field, "node", nodeName, "err", err)
		} else {
			v.Set(resource.CPU, v.Get(resource.CPU)+cores)
		}
	}
	if q, ok := list[corev1.ResourceMemory]; ok {
		if mebibytes, err := resourceparser.ParseMemory(q.String()); err != nil {
			klog.V(4).InfoS("dropping malformed node memory "+field, "node", nodeName, "err", err)
		} else {
			v.Set(resource.Memory, v.Get(resource.Memory)+mebibytes)
		}
	}
	if q, ok := list[corev1.ResourceName(resource.AcceleratorResourceName)]; ok {
		if count, err := resourceparser.ParseAccelerator(q.String()); err != nil {
			klog.V(4).InfoS("dropping malformed node accelerator "+field, "node", nodeName, "err", err)
		} else {
			v.Set(resource.Accelerator, v.Get(resource.Accelerator)+count)
		}
	}
}
