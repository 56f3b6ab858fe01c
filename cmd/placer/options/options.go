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

package options

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/pflag"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/kcp-dev/placer/pkg/placement/scheduler"
)

// Output formats.
const (
	OutputText = "text"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// Tie-break strategies.
const (
	StrategyRandom  = "random"
	StrategyLexical = "lexical"
)

var (
	validOutputs    = sets.New(OutputText, OutputYAML, OutputJSON)
	validStrategies = sets.New(StrategyRandom, StrategyLexical)
)

// Options holds the command line options shared by the placer commands.
type Options struct {
	// Cluster state
	InventoryFile string

	// Service selection, either from flags or from a spec file
	ServiceType string
	ServiceID   string
	Placement   string
	SpecFile    string

	// Placement behaviour
	Strategy string
	Seed     int64

	// Output
	Output      string
	DumpMetrics bool
}

// NewOptions returns Options with default values.
func NewOptions() *Options {
	return &Options{
		Strategy: StrategyRandom,
		Output:   OutputText,
	}
}

// AddFlags binds the options to fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.InventoryFile, "inventory", o.InventoryFile,
		"Path to the inventory file listing hosts and running daemons (YAML or JSON)")

	fs.StringVar(&o.ServiceType, "service", o.ServiceType,
		"Service type to place, e.g. mon or rgw")
	fs.StringVar(&o.ServiceID, "service-id", o.ServiceID,
		"Optional service id, e.g. the file system name of an mds service")
	fs.StringVar(&o.Placement, "placement", o.Placement,
		`Placement in token form, e.g. "3 label:mon" or "host1 host2"`)
	fs.StringVar(&o.SpecFile, "spec", o.SpecFile,
		"Path to a YAML file with one or more service specs; replaces --service and --placement")

	fs.StringVar(&o.Strategy, "strategy", o.Strategy,
		fmt.Sprintf("How to choose among equally eligible hosts, one of %v", sets.List(validStrategies)))
	fs.Int64Var(&o.Seed, "seed", o.Seed,
		"Seed of the random strategy; 0 seeds from the clock")

	fs.StringVarP(&o.Output, "output", "o", o.Output,
		fmt.Sprintf("Output format, one of %v", sets.List(validOutputs)))
	fs.BoolVar(&o.DumpMetrics, "dump-metrics", o.DumpMetrics,
		"Write placement metrics in Prometheus text format to stderr when done")
}

// Complete fills in values derived from other options.
func (o *Options) Complete() error {
	if o.Strategy == StrategyRandom && o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return nil
}

// Validate checks the options of the place and plan commands.
func (o *Options) Validate() error {
	if err := o.validateCommon(); err != nil {
		return err
	}
	if o.InventoryFile == "" {
		return fmt.Errorf("--inventory is required")
	}
	if o.SpecFile == "" && o.ServiceType == "" {
		return fmt.Errorf("either --spec or --service is required")
	}
	return nil
}

// ValidateSpecOnly checks the options of the validate command, which needs
// no inventory and accepts a bare --placement.
func (o *Options) ValidateSpecOnly() error {
	if err := o.validateCommon(); err != nil {
		return err
	}
	if o.SpecFile == "" && o.Placement == "" {
		return fmt.Errorf("either --spec or --placement is required")
	}
	return nil
}

func (o *Options) validateCommon() error {
	if !validOutputs.Has(o.Output) {
		return fmt.Errorf("--output must be one of %v, got %q", sets.List(validOutputs), o.Output)
	}
	if !validStrategies.Has(o.Strategy) {
		return fmt.Errorf("--strategy must be one of %v, got %q", sets.List(validStrategies), o.Strategy)
	}
	if o.SpecFile != "" && (o.ServiceType != "" || o.ServiceID != "" || o.Placement != "") {
		return fmt.Errorf("--spec cannot be combined with --service, --service-id or --placement")
	}
	return nil
}

// NewStrategy returns the tie-break strategy selected by the options.
// Complete must have been called.
func (o *Options) NewStrategy() scheduler.Strategy {
	if o.Strategy == StrategyLexical {
		return scheduler.LexicalStrategy{}
	}
	return scheduler.NewRandomStrategy(rand.NewSource(o.Seed))
}
