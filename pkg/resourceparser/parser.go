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

// Package resourceparser converts textual resource quantities into the
// normalized units the DRF scorer operates in. It is a pure, I/O-free
// contract: the caller decides what happens with a malformed quantity
// (in practice, the field is treated as absent).
package resourceparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/drf-scheduler/drf-controller/pkg/drferr"
)

// ParseCPU converts a CPU quantity string into cores. Strings suffixed
// with "m" are milli-cores and are divided by 1000; anything else is
// parsed as whole cores.
func ParseCPU(s string) (float64, error) {
	if strings.HasSuffix(s, "m") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "m"), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing cpu quantity %q: %w", s, drferr.ErrMalformedQuantity)
		}
		return v / 1000, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing cpu quantity %q: %w", s, drferr.ErrMalformedQuantity)
	}
	return v, nil
}

const (
	kibi = 1024
	mebi = 1024 * 1024
	gibi = 1024 * 1024 * 1024
	tebi = 1024 * 1024 * 1024 * 1024
)

// ParseMemory converts a memory quantity string into mebibytes. The
// binary suffixes Ki, Mi, Gi, Ti are each a power of 1024; an unsuffixed
// string is interpreted as a byte count and divided by 1024^2.
func ParseMemory(s string) (float64, error) {
	scale := func(suffix string, bytesPerUnit float64) (float64, bool, error) {
		if !strings.HasSuffix(s, suffix) {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, suffix), 64)
		if err != nil {
			return 0, true, fmt.Errorf("parsing memory quantity %q: %w", s, drferr.ErrMalformedQuantity)
		}
		return v * bytesPerUnit / mebi, true, nil
	}

	for _, unit := range []struct {
		suffix string
		bytes  float64
	}{
		{"Ki", kibi},
		{"Mi", mebi},
		{"Gi", gibi},
		{"Ti", tebi},
	} {
		if v, matched, err := scale(unit.suffix, unit.bytes); matched {
			return v, err
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing memory quantity %q: %w", s, drferr.ErrMalformedQuantity)
	}
	return v / mebi, nil
}

// ParseAccelerator converts an accelerator count string into a
// non-negative whole device count.
func ParseAccelerator(s string) (float64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("parsing accelerator quantity %q: %w", s, drferr.ErrMalformedQuantity)
	}
	return float64(v), nil
}
