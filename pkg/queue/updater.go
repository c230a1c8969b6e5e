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

// Package queue patches priority fields onto the external admission
// objects (Kueue-like Workloads) that back each ranked job.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/klog/v2"

	"golang.org/x/sync/errgroup"

	"github.com/drf-scheduler/drf-controller/pkg/drf"
	"github.com/drf-scheduler/drf-controller/pkg/drferr"
)

const (
	annotationPriorityScore = "drf-scheduler/priority-score"
	annotationRank          = "drf-scheduler/rank"
	annotationUpdatedBy     = "drf-scheduler/updated-by"
	updatedByValue          = "drf-controller"

	batchSize = 10
)

// DefaultGVR is the Kueue Workload resource the distilled source hardcodes.
var DefaultGVR = schema.GroupVersionResource{
	Group:    "kueue.x-k8s.io",
	Version:  "v1beta1",
	Resource: "workloads",
}

// Outcome records what happened when patching a single ranked job.
type Outcome struct {
	JobName string
	Rank    int
	Err     error
}

// Updater discovers admission objects via the dynamic client and patches
// priority onto the one matching each ranked job.
type Updater struct {
	client dynamic.Interface
	gvr    schema.GroupVersionResource
}

// NewUpdater constructs an Updater against gvr using client.
func NewUpdater(client dynamic.Interface, gvr schema.GroupVersionResource) *Updater {
	return &Updater{client: client, gvr: gvr}
}

// NewDefaultUpdater constructs an Updater against DefaultGVR.
func NewDefaultUpdater(client dynamic.Interface) *Updater {
	return NewUpdater(client, DefaultGVR)
}

// UpdateAll patches every ranked job's admission object, in sequential
// batches of 10 ordered ascending by rank (rank 1 = highest priority), so
// higher-priority updates are dispatched no later than lower-priority
// ones. The admission-object list is fetched once for the whole call.
func (u *Updater) UpdateAll(ctx context.Context, ranked []drf.ScoredJob) ([]Outcome, error) {
	objects, err := u.client.Resource(u.gvr).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing admission objects: %w", drferr.ErrObserveFailed)
	}

	outcomes := make([]Outcome, len(ranked))
	for start := 0; start < len(ranked); start += batchSize {
		end := start + batchSize
		if end > len(ranked) {
			end = len(ranked)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			rank := i + 1
			scored := ranked[i]
			g.Go(func() error {
				err := u.updateOne(gctx, objects.Items, scored, rank)
				outcomes[i] = Outcome{JobName: scored.Job.Identity.String(), Rank: rank, Err: err}
				if err != nil {
					klog.ErrorS(err, "failed to update admission object priority", "job", scored.Job.Identity)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (u *Updater) updateOne(ctx context.Context, objects []unstructured.Unstructured, scored drf.ScoredJob, rank int) error {
	obj := findByName(objects, scored.Job.Identity.Name)
	if obj == nil {
		return fmt.Errorf("job %s: %w", scored.Job.Identity, drferr.ErrNotFound)
	}

	patch := map[string]interface{}{
		"metadata": map[string]interface{}{
			"annotations": map[string]interface{}{
				annotationPriorityScore: strconv.FormatFloat(scored.Score, 'f', -1, 64),
				annotationRank:          strconv.Itoa(rank),
				annotationUpdatedBy:     updatedByValue,
			},
		},
		"spec": map[string]interface{}{
			"priority": int64(scored.Score * 1000),
		},
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshaling patch for %s: %w", scored.Job.Identity, drferr.ErrPatchFailed)
	}

	_, err = u.client.Resource(u.gvr).Namespace(obj.GetNamespace()).Patch(
		ctx, obj.GetName(), types.MergePatchType, body, metav1.PatchOptions{},
	)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return fmt.Errorf("job %s: %w", scored.Job.Identity, drferr.ErrNotFound)
		}
		return fmt.Errorf("patching %s/%s: %w", obj.GetNamespace(), obj.GetName(), drferr.ErrPatchFailed)
	}
	return nil
}

// findByName implements the distilled source's discovery rule: the
// admission object whose name contains the job's name, first match wins.
func findByName(objects []unstructured.Unstructured, jobName string) *unstructured.Unstructured {
	for i := range objects {
		if strings.Contains(objects[i].GetName(), jobName) {
			return &objects[i]
		}
	}
	return nil
}
