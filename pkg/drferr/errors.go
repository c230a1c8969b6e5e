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

// Package drferr holds the sentinel error kinds the controller uses
// throughout a tick. Call sites wrap these with fmt.Errorf("...: %w", ...)
// and callers identify the kind with errors.Is.
package drferr

import "errors"

var (
	// ErrMalformedQuantity is returned by the resource parser when a
	// quantity string does not match any recognized form. The caller
	// treats the contributing field as absent rather than failing the job.
	ErrMalformedQuantity = errors.New("malformed resource quantity")

	// ErrExtractFailed means a pending job could not be converted into a
	// job.Record. The job is skipped for the tick; the tick continues.
	ErrExtractFailed = errors.New("job extraction failed")

	// ErrObserveFailed means listing jobs or nodes failed. The tick is
	// aborted with no updates issued.
	ErrObserveFailed = errors.New("cluster observation failed")

	// ErrNotFound means no admission object matched a job's identity.
	// The update is counted unsuccessful; the tick continues.
	ErrNotFound = errors.New("admission object not found")

	// ErrPatchFailed means the patch RPC against an admission object
	// failed. Same tick-continuation behavior as ErrNotFound.
	ErrPatchFailed = errors.New("admission object patch failed")
)
