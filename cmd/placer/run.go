/*
Copyright 2025 The KCP Authors.

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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"github.com/kcp-dev/placer/cmd/placer/options"
	"github.com/kcp-dev/placer/pkg/placement/inventory"
	"github.com/kcp-dev/placer/pkg/placement/metrics"
	"github.com/kcp-dev/placer/pkg/placement/plan"
	"github.com/kcp-dev/placer/pkg/placement/scheduler"
	"github.com/kcp-dev/placer/pkg/placement/spec"
)

// runner carries the state of one place or plan invocation.
type runner struct {
	opts   *options.Options
	out    io.Writer
	errOut io.Writer
	logger logr.Logger

	inventory *inventory.Inventory
	services  []*spec.ServiceSpec
	strategy  scheduler.Strategy

	registry *prometheus.Registry
	recorder metrics.Recorder
}

func newRunner(ctx context.Context, opts *options.Options, out, errOut io.Writer) (*runner, error) {
	if err := opts.Complete(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	inv, err := inventory.Load(opts.InventoryFile)
	if err != nil {
		return nil, err
	}
	services, err := loadServices(opts)
	if err != nil {
		return nil, err
	}

	r := &runner{
		opts:      opts,
		out:       out,
		errOut:    errOut,
		logger:    klog.FromContext(ctx).WithName("placer"),
		inventory: inv,
		services:  services,
		strategy:  opts.NewStrategy(),
		recorder:  metrics.NewNoopRecorder(),
	}
	if opts.DumpMetrics {
		r.registry = prometheus.NewRegistry()
		r.recorder = metrics.NewRecorder(r.registry)
	}
	r.logger.V(2).Info("Loaded placement input", "services", len(services), "strategy", opts.Strategy, "seed", opts.Seed)
	return r, nil
}

// loadServices returns the services named on the command line or in the
// spec file.
func loadServices(opts *options.Options) ([]*spec.ServiceSpec, error) {
	if opts.SpecFile != "" {
		f, err := os.Open(opts.SpecFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open service spec file: %w", err)
		}
		defer f.Close()
		return spec.LoadServiceSpecs(f)
	}

	placement, err := spec.ParseString(opts.Placement)
	if err != nil {
		return nil, err
	}
	return []*spec.ServiceSpec{{
		ServiceType: opts.ServiceType,
		ServiceID:   opts.ServiceID,
		Placement:   *placement,
	}}, nil
}

// placeResult is the place output of one service.
type placeResult struct {
	Service string                   `json:"service"`
	Hosts   []spec.HostPlacementSpec `json:"hosts"`
}

// placeService runs the host assignment of one service against a fresh
// snapshot of the inventory.
func (r *runner) placeService(svc *spec.ServiceSpec) ([]spec.HostPlacementSpec, error) {
	a := scheduler.NewHostAssignment(svc, r.inventory.HostsFunc(), r.inventory.DaemonsFunc(),
		scheduler.WithStrategy(r.strategy))
	hosts, err := metrics.Place(r.recorder, svc, a)
	if err != nil {
		return nil, err
	}
	r.logger.V(2).Info("Placed service", "service", svc.ServiceName(), "hosts", len(hosts))
	return hosts, nil
}

func (r *runner) place() error {
	results := make([]placeResult, 0, len(r.services))
	for _, svc := range r.services {
		if svc.Unmanaged {
			r.logger.Info("Skipping unmanaged service", "service", svc.ServiceName())
			continue
		}
		hosts, err := r.placeService(svc)
		if err != nil {
			return err
		}
		results = append(results, placeResult{Service: svc.ServiceName(), Hosts: hosts})
	}

	if r.opts.Output != options.OutputText {
		return r.encode(results)
	}
	for _, res := range results {
		tokens := make([]string, 0, len(res.Hosts))
		for _, h := range res.Hosts {
			tokens = append(tokens, h.String())
		}
		if len(tokens) == 0 {
			tokens = append(tokens, "<none>")
		}
		fmt.Fprintf(r.out, "%s: %s\n", res.Service, strings.Join(tokens, " "))
	}
	return nil
}

func (r *runner) plan() error {
	plans := make([]*plan.Plan, 0, len(r.services))
	namer := plan.NewNamer(rand.NewSource(r.opts.Seed))
	for _, svc := range r.services {
		if svc.Unmanaged {
			r.logger.Info("Skipping unmanaged service", "service", svc.ServiceName())
			continue
		}
		hosts, err := r.placeService(svc)
		if err != nil {
			return err
		}
		plans = append(plans, plan.Compute(svc, hosts, r.inventory.DaemonsFunc()(svc.ServiceType), namer))
	}

	if r.opts.Output != options.OutputText {
		return r.encode(plans)
	}

	create := color.New(color.FgGreen)
	remove := color.New(color.FgRed)
	keep := color.New(color.Faint)
	for _, p := range plans {
		fmt.Fprintf(r.out, "%s:\n", p.Service)
		if p.IsEmpty() && len(p.Keep) == 0 {
			fmt.Fprintln(r.out, "  nothing to do")
			continue
		}
		for _, a := range p.Create {
			if a.Network != "" {
				create.Fprintf(r.out, "  + %s on %s (network %s)\n", a.Daemon.Name(), a.Daemon.Hostname, a.Network)
				continue
			}
			create.Fprintf(r.out, "  + %s on %s\n", a.Daemon.Name(), a.Daemon.Hostname)
		}
		for _, d := range p.Remove {
			remove.Fprintf(r.out, "  - %s on %s\n", d.Name(), d.Hostname)
		}
		for _, d := range p.Keep {
			keep.Fprintf(r.out, "  = %s on %s\n", d.Name(), d.Hostname)
		}
	}
	return nil
}

func (r *runner) encode(v any) error {
	return encode(r.out, r.opts.Output, v)
}

func encode(out io.Writer, format string, v any) error {
	switch format {
	case options.OutputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case options.OutputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// dumpMetrics writes the collected metrics to the error stream when
// --dump-metrics is set.
func (r *runner) dumpMetrics() {
	if r.registry == nil {
		return
	}
	families, err := r.registry.Gather()
	if err != nil {
		r.logger.Error(err, "Failed to gather metrics")
		return
	}
	if err := writeMetrics(r.errOut, families); err != nil {
		r.logger.Error(err, "Failed to write metrics")
	}
}

func writeMetrics(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func validate(opts *options.Options, out io.Writer) error {
	if opts.SpecFile == "" {
		placement, err := spec.ParseString(opts.Placement)
		if err != nil {
			return err
		}
		if opts.ServiceType != "" {
			svc := &spec.ServiceSpec{ServiceType: opts.ServiceType, ServiceID: opts.ServiceID, Placement: *placement}
			if err := svc.Validate(); err != nil {
				return err
			}
		}
		if opts.Output != options.OutputText {
			return encode(out, opts.Output, placement)
		}
		fmt.Fprintf(out, "valid placement: %s\n", placement)
		return nil
	}

	services, err := loadServices(opts)
	if err != nil {
		return err
	}
	if opts.Output != options.OutputText {
		return encode(out, opts.Output, services)
	}
	for _, svc := range services {
		fmt.Fprintf(out, "valid service %s: %s\n", svc.ServiceName(), svc.Placement)
	}
	return nil
}
