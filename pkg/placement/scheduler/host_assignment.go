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

package scheduler

import (
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/kcp-dev/placer/pkg/placement/spec"
)

// Option configures a HostAssignment.
type Option func(*HostAssignment)

// WithStrategy sets the strategy used to choose among equally eligible
// hosts. The default is a RandomStrategy seeded from the clock.
func WithStrategy(s Strategy) Option {
	return func(a *HostAssignment) {
		a.strategy = s
	}
}

// WithFilterNewHost drops hosts that do not yet run the service and for
// which filter returns false. It only applies when a count is set; hosts
// already running the service are never filtered.
func WithFilterNewHost(filter func(hostname string) bool) Option {
	return func(a *HostAssignment) {
		a.filterNewHost = filter
	}
}

// HostAssignment computes the hosts a service should run on from a
// snapshot of the cluster. It performs no I/O of its own and never changes
// the cluster.
type HostAssignment struct {
	spec          *spec.ServiceSpec
	getHosts      HostsFunc
	getDaemons    DaemonsFunc
	strategy      Strategy
	filterNewHost func(hostname string) bool
}

// NewHostAssignment returns a HostAssignment for svc. getHosts and
// getDaemons must describe one consistent snapshot of the cluster.
func NewHostAssignment(svc *spec.ServiceSpec, getHosts HostsFunc, getDaemons DaemonsFunc, opts ...Option) *HostAssignment {
	a := &HostAssignment{
		spec:       svc,
		getHosts:   getHosts,
		getDaemons: getDaemons,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.strategy == nil {
		a.strategy = defaultStrategy()
	}
	return a
}

// Place returns the hosts the service should run on.
//
// The spec is validated first and a *spec.ServiceSpecValidationError is
// returned unchanged. A valid spec that the snapshot cannot satisfy yields
// an *OrchestratorValidationError. An explicit host list bounds the result:
// a count only ever trims it. When a count forces a choice, hosts already
// running the service are kept in preference to the others.
func (a *HostAssignment) Place() ([]spec.HostPlacementSpec, error) {
	if err := a.spec.Validate(); err != nil {
		return nil, err
	}

	candidates, err := a.candidates()
	if err != nil {
		return nil, err
	}

	placement := a.spec.Placement
	if placement.Count == nil {
		return candidates, nil
	}
	return a.selectByCount(candidates, *placement.Count), nil
}

// candidates resolves the selector of the placement spec against the known
// hosts.
func (a *HostAssignment) candidates() ([]spec.HostPlacementSpec, error) {
	placement := a.spec.Placement
	if placement.IsEmpty() {
		return nil, errEmptyPlacement()
	}

	switch {
	case placement.HasExplicitHosts():
		explicit := placement.ExplicitHosts()
		known := sets.New(a.getHosts("")...)
		unknown := sets.New[string]()
		for _, h := range explicit {
			if !known.Has(h.Hostname) {
				unknown.Insert(h.Hostname)
			}
		}
		if unknown.Len() > 0 {
			return nil, newOrchestratorValidationError("Cannot place %s on %s: Unknown hosts",
				a.spec.OneLineString(), strings.Join(sets.List(unknown), ", "))
		}
		if len(explicit) == 0 && placement.Count == nil {
			return nil, errEmptyPlacement()
		}
		return explicit, nil

	case placement.HostPattern != "":
		matches, err := placement.PatternMatchesHosts(a.getHosts(""))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, newOrchestratorValidationError("Cannot place %s: No matching hosts", a.spec.OneLineString())
		}
		return hostPlacements(matches), nil

	case placement.Label != "":
		labelled := a.getHosts(placement.Label)
		if len(labelled) == 0 {
			return nil, newOrchestratorValidationError("Cannot place %s: No matching hosts for label %s",
				a.spec.OneLineString(), placement.Label)
		}
		return hostPlacements(labelled), nil

	default:
		return hostPlacements(a.getHosts("")), nil
	}
}

// selectByCount trims candidates to count distinct hosts, preferring hosts
// that already run the service.
func (a *HostAssignment) selectByCount(candidates []spec.HostPlacementSpec, count int) []spec.HostPlacementSpec {
	candidates = uniqueByHostname(candidates)
	if a.filterNewHost == nil && count >= len(candidates) {
		return candidates
	}

	occupiedHosts := sets.New[string]()
	for _, d := range a.getDaemons(a.spec.ServiceType) {
		occupiedHosts.Insert(d.Hostname)
	}

	eligible := make([]spec.HostPlacementSpec, 0, len(candidates))
	var occupied, free []spec.HostPlacementSpec
	for _, h := range candidates {
		if occupiedHosts.Has(h.Hostname) {
			occupied = append(occupied, h)
		} else if a.filterNewHost != nil && !a.filterNewHost(h.Hostname) {
			continue
		} else {
			free = append(free, h)
		}
		eligible = append(eligible, h)
	}

	if count >= len(eligible) {
		return eligible
	}

	if len(occupied) >= count {
		return a.strategy.Place(sortedByHostname(occupied), count)
	}
	chosen := make([]spec.HostPlacementSpec, 0, count)
	chosen = append(chosen, sortedByHostname(occupied)...)
	return append(chosen, a.strategy.Place(sortedByHostname(free), count-len(occupied))...)
}

func errEmptyPlacement() error {
	return newOrchestratorValidationError("placement spec is empty: no hosts, no label, no pattern, no count")
}

func hostPlacements(hostnames []string) []spec.HostPlacementSpec {
	sorted := make([]string, len(hostnames))
	copy(sorted, hostnames)
	sort.Strings(sorted)

	out := make([]spec.HostPlacementSpec, 0, len(sorted))
	for _, h := range sorted {
		out = append(out, spec.HostPlacementSpec{Hostname: h})
	}
	return out
}

// uniqueByHostname keeps the first entry of each host name.
func uniqueByHostname(hosts []spec.HostPlacementSpec) []spec.HostPlacementSpec {
	seen := sets.New[string]()
	out := make([]spec.HostPlacementSpec, 0, len(hosts))
	for _, h := range hosts {
		if seen.Has(h.Hostname) {
			continue
		}
		seen.Insert(h.Hostname)
		out = append(out, h)
	}
	return out
}

func sortedByHostname(hosts []spec.HostPlacementSpec) []spec.HostPlacementSpec {
	out := make([]spec.HostPlacementSpec, len(hosts))
	copy(out, hosts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hostname < out[j].Hostname
	})
	return out
}
