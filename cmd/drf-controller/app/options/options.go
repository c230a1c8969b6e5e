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

// Package options defines the command-line and environment configuration
// surface for the drf-controller binary.
package options

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

const (
	envKueueEnabled       = "KUEUE_ENABLED"
	envSchedulingInterval = "SCHEDULING_INTERVAL"

	defaultKueueEnabled       = true
	defaultSchedulingInterval = 30 * time.Second
	minSchedulingInterval     = time.Second
)

// Options holds the controller's runtime configuration.
type Options struct {
	Kubeconfig         string
	KueueEnabled       bool
	SchedulingInterval time.Duration
	AgingAlpha         float64
	MetricsAddr        string
}

// NewOptions returns an Options populated with defaults, applying
// environment-variable overrides the way KUEUE_ENABLED and
// SCHEDULING_INTERVAL are documented to. SCHEDULING_INTERVAL is an integer
// number of seconds, matching the original environment contract; malformed
// values are ignored and the default stands. Flags parsed later take final
// precedence over both.
func NewOptions() *Options {
	o := &Options{
		KueueEnabled:       defaultKueueEnabled,
		SchedulingInterval: defaultSchedulingInterval,
		AgingAlpha:         0.1,
		MetricsAddr:        ":8080",
	}
	if v, ok := os.LookupEnv(envKueueEnabled); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			o.KueueEnabled = parsed
		}
	}
	if v, ok := os.LookupEnv(envSchedulingInterval); ok {
		if seconds, err := strconv.Atoi(v); err == nil {
			o.SchedulingInterval = time.Duration(seconds) * time.Second
		}
	}
	return o
}

// AddFlags registers the Options' fields onto fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Kubeconfig, "kubeconfig", o.Kubeconfig, "Path to a kubeconfig file. Omit to use in-cluster config.")
	fs.BoolVar(&o.KueueEnabled, "kueue-enabled", o.KueueEnabled, "Patch priority onto Kueue Workload admission objects each tick.")
	fs.DurationVar(&o.SchedulingInterval, "scheduling-interval", o.SchedulingInterval, "Interval between reconciliation ticks.")
	fs.Float64Var(&o.AgingAlpha, "aging-alpha", o.AgingAlpha, "Aging constant applied to job age in seconds.")
	fs.StringVar(&o.MetricsAddr, "metrics-bind-address", o.MetricsAddr, "Address the Prometheus metrics endpoint binds to.")
}

// Validate checks invariants that flag parsing alone cannot enforce.
func (o *Options) Validate() error {
	if o.SchedulingInterval < minSchedulingInterval {
		return fmt.Errorf("scheduling-interval must be >= %s, got %s", minSchedulingInterval, o.SchedulingInterval)
	}
	return nil
}
