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

package inventory

import (
	"fmt"
	"os"

	"go.uber.org/multierr"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"github.com/kcp-dev/placer/pkg/placement/scheduler"
	"github.com/kcp-dev/placer/pkg/placement/spec"
)

// File is the on-disk form of an inventory, in YAML or JSON.
type File struct {
	Hosts   []Host                        `json:"hosts"`
	Daemons []scheduler.DaemonDescription `json:"daemons,omitempty"`
}

// Validate returns every problem in the file: invalid host names,
// duplicate hosts, duplicate daemons and daemons on unknown hosts.
func (f *File) Validate() error {
	var errs error

	hostsPath := field.NewPath("hosts")
	seen := sets.New[string]()
	for i, h := range f.Hosts {
		if fieldErrs := spec.ValidateHostname(h.Hostname, hostsPath.Index(i).Child("hostname")); len(fieldErrs) > 0 {
			errs = multierr.Append(errs, fieldErrs.ToAggregate())
			continue
		}
		if seen.Has(h.Hostname) {
			errs = multierr.Append(errs, fmt.Errorf("hosts[%d]: duplicate host %q", i, h.Hostname))
			continue
		}
		seen.Insert(h.Hostname)
	}

	names := sets.New[string]()
	for i, d := range f.Daemons {
		switch {
		case d.ServiceType == "" || d.DaemonID == "":
			errs = multierr.Append(errs, fmt.Errorf("daemons[%d]: service_type and daemon_id are required", i))
		case !seen.Has(d.Hostname):
			errs = multierr.Append(errs, fmt.Errorf("daemons[%d]: daemon %s is on unknown host %q", i, d.Name(), d.Hostname))
		case names.Has(d.Name()):
			errs = multierr.Append(errs, fmt.Errorf("daemons[%d]: duplicate daemon %s", i, d.Name()))
		default:
			names.Insert(d.Name())
		}
	}

	return errs
}

// Decode builds an Inventory from YAML or JSON data. Unknown fields are
// rejected and all validation problems are reported together.
func Decode(data []byte) (*Inventory, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode inventory: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inventory: %w", err)
	}

	inv := New()
	for _, h := range f.Hosts {
		inv.AddHost(h)
	}
	for _, d := range f.Daemons {
		if err := inv.AddDaemon(d); err != nil {
			return nil, err
		}
	}
	klog.V(2).InfoS("Decoded inventory", "hosts", len(f.Hosts), "daemons", len(f.Daemons))
	return inv, nil
}

// Load reads and decodes the inventory file at path.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	inv, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inv, nil
}

// Encode renders the inventory in its YAML file form.
func (i *Inventory) Encode() ([]byte, error) {
	return yaml.Marshal(File{Hosts: i.Hosts(), Daemons: i.Daemons()})
}
