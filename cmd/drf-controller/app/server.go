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

// Package app implements a Server object for running the DRF controller.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"

	"github.com/drf-scheduler/drf-controller/cmd/drf-controller/app/options"
	"github.com/drf-scheduler/drf-controller/pkg/drf"
	"github.com/drf-scheduler/drf-controller/pkg/metrics"
	"github.com/drf-scheduler/drf-controller/pkg/observer"
	"github.com/drf-scheduler/drf-controller/pkg/queue"
	"github.com/drf-scheduler/drf-controller/pkg/reconciler"
)

// NewControllerCommand creates a *cobra.Command for the drf-controller
// binary with default options.
func NewControllerCommand() *cobra.Command {
	opts := options.NewOptions()

	cmd := &cobra.Command{
		Use:   "drf-controller",
		Short: "Dominant Resource Fairness priority controller for batch jobs",
		Long: `drf-controller observes pending batch jobs and cluster capacity, scores
jobs by dominant resource fairness with aging and a priority-class override,
filters incomplete gang-scheduling groups, and patches the resulting rank
onto each job's Kueue Workload admission object.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(opts)
		},
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
			}
			return nil
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

// runCommand validates opts, builds the controller's dependencies, and
// runs it until an interrupt is received.
func runCommand(opts *options.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		klog.InfoS("received shutdown signal")
		cancel()
	}()

	restConfig, err := loadKubeconfig(opts.Kubeconfig)
	if err != nil {
		return fmt.Errorf("loading kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return fmt.Errorf("building clientset: %w", err)
	}
	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return fmt.Errorf("building dynamic client: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)
	go serveMetrics(opts.MetricsAddr, registry)

	var updater reconciler.QueueUpdater
	if opts.KueueEnabled {
		updater = queue.NewDefaultUpdater(dynamicClient)
	}

	loop := reconciler.New(
		observer.NewJobObserver(clientset),
		observer.NewClusterObserver(clientset),
		drf.NewScorer().WithAlpha(opts.AgingAlpha),
		updater,
		reconciler.Options{Interval: opts.SchedulingInterval, KueueEnabled: opts.KueueEnabled},
	)

	return loop.Run(ctx)
}

// loadKubeconfig resolves credentials in-cluster first, falling back to
// the supplied (or default) kubeconfig path for out-of-cluster runs.
func loadKubeconfig(path string) (*rest.Config, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		loadingRules.ExplicitPath = path
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	klog.InfoS("serving metrics", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		klog.ErrorS(err, "metrics server exited")
	}
}
