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

// Package inventory keeps the hosts and daemons known to the orchestrator
// and hands consistent snapshots of them to the scheduler.
package inventory

import (
	"fmt"
	"sort"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"

	"github.com/kcp-dev/placer/pkg/placement/scheduler"
)

// Host is a cluster host the orchestrator can place daemons on.
type Host struct {
	Hostname string   `json:"hostname"`
	Addr     string   `json:"addr,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

// Inventory tracks the known hosts and the daemons running on them. It is
// safe for concurrent use.
type Inventory struct {
	mu      sync.RWMutex
	hosts   map[string]*hostEntry
	daemons map[string]scheduler.DaemonDescription
}

type hostEntry struct {
	addr   string
	labels sets.Set[string]
}

// New returns an empty Inventory.
func New() *Inventory {
	return &Inventory{
		hosts:   make(map[string]*hostEntry),
		daemons: make(map[string]scheduler.DaemonDescription),
	}
}

// AddHost adds a host, or replaces the address and labels of a known one.
func (i *Inventory) AddHost(h Host) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.hosts[h.Hostname] = &hostEntry{
		addr:   h.Addr,
		labels: sets.New(h.Labels...),
	}
	klog.V(2).InfoS("Added host to inventory", "host", h.Hostname, "labels", h.Labels)
}

// RemoveHost forgets a host. It fails while daemons still run on it.
func (i *Inventory) RemoveHost(hostname string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.hosts[hostname]; !ok {
		return fmt.Errorf("host %q not found", hostname)
	}
	var running []string
	for name, d := range i.daemons {
		if d.Hostname == hostname {
			running = append(running, name)
		}
	}
	if len(running) > 0 {
		sort.Strings(running)
		return fmt.Errorf("host %q still runs daemons %v", hostname, running)
	}
	delete(i.hosts, hostname)
	klog.V(2).InfoS("Removed host from inventory", "host", hostname)
	return nil
}

// AddLabel adds label to a known host.
func (i *Inventory) AddLabel(hostname, label string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	e, ok := i.hosts[hostname]
	if !ok {
		return fmt.Errorf("host %q not found", hostname)
	}
	e.labels.Insert(label)
	klog.V(4).InfoS("Added label", "host", hostname, "label", label)
	return nil
}

// RemoveLabel removes label from a known host. Removing a label the host
// does not carry is not an error.
func (i *Inventory) RemoveLabel(hostname, label string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	e, ok := i.hosts[hostname]
	if !ok {
		return fmt.Errorf("host %q not found", hostname)
	}
	e.labels.Delete(label)
	klog.V(4).InfoS("Removed label", "host", hostname, "label", label)
	return nil
}

// AddDaemon records a running daemon. The host must be known and the daemon
// name unique.
func (i *Inventory) AddDaemon(d scheduler.DaemonDescription) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.hosts[d.Hostname]; !ok {
		return fmt.Errorf("daemon %s: host %q not found", d.Name(), d.Hostname)
	}
	if existing, ok := i.daemons[d.Name()]; ok {
		return fmt.Errorf("daemon %s already runs on host %q", d.Name(), existing.Hostname)
	}
	i.daemons[d.Name()] = d
	klog.V(2).InfoS("Added daemon to inventory", "daemon", d.Name(), "host", d.Hostname)
	return nil
}

// RemoveDaemon forgets a daemon by name ("<type>.<id>").
func (i *Inventory) RemoveDaemon(name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.daemons[name]; !ok {
		return fmt.Errorf("daemon %q not found", name)
	}
	delete(i.daemons, name)
	klog.V(2).InfoS("Removed daemon from inventory", "daemon", name)
	return nil
}

// Hosts returns a copy of all hosts, sorted by hostname.
func (i *Inventory) Hosts() []Host {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]Host, 0, len(i.hosts))
	for name, e := range i.hosts {
		out = append(out, Host{Hostname: name, Addr: e.addr, Labels: sets.List(e.labels)})
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Hostname < out[b].Hostname
	})
	return out
}

// Daemons returns a copy of all daemons, sorted by name.
func (i *Inventory) Daemons() []scheduler.DaemonDescription {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.sortedDaemons("")
}

// sortedDaemons must be called with the lock held. An empty serviceType
// returns every daemon.
func (i *Inventory) sortedDaemons(serviceType string) []scheduler.DaemonDescription {
	out := make([]scheduler.DaemonDescription, 0, len(i.daemons))
	for _, d := range i.daemons {
		if serviceType == "" || d.ServiceType == serviceType {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].Name() < out[b].Name()
	})
	return out
}

// HostsFunc returns a host accessor over a snapshot of the current hosts.
// Later changes to the inventory are not visible through it.
func (i *Inventory) HostsFunc() scheduler.HostsFunc {
	i.mu.RLock()
	labels := make(map[string]sets.Set[string], len(i.hosts))
	for name, e := range i.hosts {
		labels[name] = e.labels.Clone()
	}
	i.mu.RUnlock()

	return func(label string) []string {
		out := make([]string, 0, len(labels))
		for name, l := range labels {
			if label == "" || l.Has(label) {
				out = append(out, name)
			}
		}
		sort.Strings(out)
		return out
	}
}

// DaemonsFunc returns a daemon accessor over a snapshot of the current
// daemons.
func (i *Inventory) DaemonsFunc() scheduler.DaemonsFunc {
	i.mu.RLock()
	snapshot := i.sortedDaemons("")
	i.mu.RUnlock()

	return func(serviceType string) []scheduler.DaemonDescription {
		var out []scheduler.DaemonDescription
		for _, d := range snapshot {
			if d.ServiceType == serviceType {
				out = append(out, d)
			}
		}
		return out
	}
}
