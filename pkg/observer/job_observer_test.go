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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/client-go/kubernetes/fake"

	jobapi "github.com/drf-scheduler/drf-controller/pkg/apis/job"
	resourceapi "github.com/drf-scheduler/drf-controller/pkg/apis/resource"
)

func podSpecWithRequests(requests corev1.ResourceList) batchv1.JobSpec {
	return batchv1.JobSpec{
		Template: corev1.PodTemplateSpec{
			Spec: corev1.PodSpec{
				Containers: []corev1.Container{
					{
						Name:      "main",
						Resources: corev1.ResourceRequirements{Requests: requests},
					},
				},
			},
		},
	}
}

func TestJobObserver_ListSkipsNonPendingAndExtractsFields(t *testing.T) {
	now := metav1.NewTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	pending := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:              "pending-job",
			Namespace:         "default",
			CreationTimestamp: now,
			Annotations: map[string]string{
				annotationPriority:    "approved",
				annotationGangEnabled: "true",
				annotationGangID:      "g1",
				annotationGangSize:    "2",
			},
		},
		Spec: podSpecWithRequests(corev1.ResourceList{
			corev1.ResourceCPU:    resource.MustParse("500m"),
			corev1.ResourceMemory: resource.MustParse("1Gi"),
		}),
	}

	completed := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{Name: "done-job", Namespace: "default"},
		Spec:       podSpecWithRequests(nil),
		Status: batchv1.JobStatus{
			Conditions: []batchv1.JobCondition{
				{Type: batchv1.JobComplete, Status: corev1.ConditionTrue},
			},
		},
	}

	noContainers := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{Name: "no-containers", Namespace: "default"},
		Spec:       batchv1.JobSpec{},
	}

	client := fake.NewSimpleClientset(pending, completed, noContainers)
	o := NewJobObserver(client)

	records, err := o.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	byName := make(map[string]jobapi.Record, len(records))
	for _, r := range records {
		byName[r.Identity.Name] = r
	}

	r := byName["pending-job"]
	assert.Equal(t, jobapi.Urgent, r.PriorityClass)
	assert.InDelta(t, 0.5, r.Request.Get(resourceapi.CPU), 1e-9)
	assert.InDelta(t, 1024, r.Request.Get(resourceapi.Memory), 1e-6)
	assert.True(t, r.Gang.Enabled)
	assert.Equal(t, "g1", r.Gang.GroupID)
	assert.Equal(t, 2, r.Gang.Size)

	// A job with no containers is still scored, just with a zero request
	// vector - missing fields contribute 0, they don't drop the job.
	noContainersRecord, ok := byName["no-containers"]
	require.True(t, ok)
	assert.Equal(t, 0.0, noContainersRecord.Request.Get(resourceapi.CPU))
}

func TestJobObserver_DefaultsToNormalWithoutPriorityAnnotation(t *testing.T) {
	j := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{Name: "plain", Namespace: "default"},
		Spec:       podSpecWithRequests(corev1.ResourceList{corev1.ResourceCPU: resource.MustParse("1")}),
	}
	client := fake.NewSimpleClientset(j)
	o := NewJobObserver(client)

	records, err := o.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, jobapi.Normal, records[0].PriorityClass)
	assert.Equal(t, 0, records[0].Gang.Size)
}
