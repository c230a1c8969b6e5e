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

// Package observer lists pending batch jobs and cluster node capacity from
// the batch and core APIs and converts them into the controller's own
// job.Record and cluster.Snapshot views.
package observer

import (
	"context"
	"fmt"
	"strconv"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"

	jobapi "github.com/drf-scheduler/drf-controller/pkg/apis/job"
	"github.com/drf-scheduler/drf-controller/pkg/apis/resource"
	"github.com/drf-scheduler/drf-controller/pkg/drferr"
	"github.com/drf-scheduler/drf-controller/pkg/resourceparser"
)

const (
	annotationPriority      = "priority"
	annotationPriorityValue = "approved"
	annotationGangEnabled   = "gang-scheduling"
	annotationGangID        = "gang-id"
	annotationGangSize      = "gang-size"

	jobConditionPending batchv1.JobConditionType = "Pending"
)

// JobObserver lists pending batch jobs across all namespaces.
type JobObserver struct {
	client kubernetes.Interface
}

// NewJobObserver constructs a JobObserver bound to client.
func NewJobObserver(client kubernetes.Interface) *JobObserver {
	return &JobObserver{client: client}
}

// List returns the JobRecords for every pending job the batch API reports.
// Listing itself failing is the caller's OBSERVE_FAILED; a single job's
// missing fields (no containers, no annotations) never drop it from the
// tick - they just contribute zero to whatever they would have populated.
func (o *JobObserver) List(ctx context.Context) ([]jobapi.Record, error) {
	jobs, err := o.client.BatchV1().Jobs(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", drferr.ErrObserveFailed)
	}

	records := make([]jobapi.Record, 0, len(jobs.Items))
	for i := range jobs.Items {
		j := &jobs.Items[i]
		if !isPending(j) {
			continue
		}
		records = append(records, extract(j))
	}
	return records, nil
}

func isPending(j *batchv1.Job) bool {
	if len(j.Status.Conditions) == 0 {
		return true
	}
	for _, c := range j.Status.Conditions {
		if c.Type == jobConditionPending && c.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

func extract(j *batchv1.Job) jobapi.Record {
	class := jobapi.Normal
	if j.Annotations[annotationPriority] == annotationPriorityValue {
		class = jobapi.Urgent
	}

	// A job with no containers contributes an empty (zero) request vector
	// rather than failing extraction - missing fields read as 0, not as a
	// reason to drop the job from the tick.
	var requests corev1.ResourceList
	if len(j.Spec.Template.Spec.Containers) > 0 {
		requests = j.Spec.Template.Spec.Containers[0].Resources.Requests
	}
	req := extractRequest(j.Namespace, j.Name, requests)

	gangEnabled, _ := strconv.ParseBool(j.Annotations[annotationGangEnabled])
	gangSize, err := strconv.Atoi(j.Annotations[annotationGangSize])
	if err != nil {
		gangSize = 0
	}

	return jobapi.Record{
		Identity:      jobapi.Identity{Name: j.Name, Namespace: j.Namespace},
		PriorityClass: class,
		CreationTime:  j.CreationTimestamp.Time,
		Request:       req,
		Gang: jobapi.Gang{
			Enabled: gangEnabled,
			GroupID: j.Annotations[annotationGangID],
			Size:    gangSize,
		},
	}
}

func extractRequest(namespace, name string, requests corev1.ResourceList) resource.Vector {
	var v resource.Vector

	if q, ok := requests[corev1.ResourceCPU]; ok {
		if cores, err := resourceparser.ParseCPU(q.String()); err != nil {
			klog.V(4).InfoS("dropping malformed cpu request", "job", namespace+"/"+name, "err", err)
		} else {
			v.Set(resource.CPU, cores)
		}
	}
	if q, ok := requests[corev1.ResourceMemory]; ok {
		if mebibytes, err := resourceparser.ParseMemory(q.String()); err != nil {
			klog.V(4).InfoS("dropping malformed memory request", "job", namespace+"/"+name, "err", err)
		} else {
			v.Set(resource.Memory, mebibytes)
		}
	}
	if q, ok := requests[corev1.ResourceName(resource.AcceleratorResourceName)]; ok {
		if count, err := resourceparser.ParseAccelerator(q.String()); err != nil {
			klog.V(4).InfoS("dropping malformed accelerator request", "job", namespace+"/"+name, "err", err)
		} else {
			v.Set(resource.Accelerator, count)
		}
	}
	return v
}
