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

// Package plan turns a placement into the daemon changes needed to reach it.
package plan

import (
	"io"
	"math/rand"
	"sort"
	"strings"

	"github.com/google/uuid"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/kcp-dev/placer/pkg/placement/scheduler"
	"github.com/kcp-dev/placer/pkg/placement/spec"
)

// hostnameNamedTypes name their daemons after the host they run on.
var hostnameNamedTypes = sets.New("mon", "mgr")

// Namer returns the id of a new daemon of svc on host.
type Namer func(svc *spec.ServiceSpec, host spec.HostPlacementSpec) string

// DefaultNamer uses the explicit daemon name of the host token when there is
// one, the host name for mon and mgr, and the host name plus a random
// six character suffix otherwise.
func DefaultNamer(svc *spec.ServiceSpec, host spec.HostPlacementSpec) string {
	return daemonID(svc, host, uuid.NewString)
}

// NewNamer returns a Namer that names daemons like DefaultNamer but draws
// the suffixes from src, so a fixed seed yields the same ids on every run.
// The returned Namer is not safe for concurrent use.
func NewNamer(src rand.Source) Namer {
	var r io.Reader = rand.New(src)
	return func(svc *spec.ServiceSpec, host spec.HostPlacementSpec) string {
		return daemonID(svc, host, func() string {
			return uuid.Must(uuid.NewRandomFromReader(r)).String()
		})
	}
}

func daemonID(svc *spec.ServiceSpec, host spec.HostPlacementSpec, newUUID func() string) string {
	if host.Name != "" {
		return host.Name
	}
	if hostnameNamedTypes.Has(svc.ServiceType) {
		return host.Hostname
	}
	suffix := strings.ReplaceAll(newUUID(), "-", "")[:6]
	if svc.ServiceID != "" {
		return svc.ServiceID + "." + host.Hostname + "." + suffix
	}
	return host.Hostname + "." + suffix
}

// Action is a daemon to create.
type Action struct {
	Daemon  scheduler.DaemonDescription `json:"daemon"`
	Network string                      `json:"network,omitempty"`
}

// Plan lists the daemon changes that bring a service to its placement.
type Plan struct {
	Service string                        `json:"service"`
	Create  []Action                      `json:"create,omitempty"`
	Remove  []scheduler.DaemonDescription `json:"remove,omitempty"`
	Keep    []scheduler.DaemonDescription `json:"keep,omitempty"`
}

// IsEmpty reports whether the plan changes nothing.
func (p *Plan) IsEmpty() bool {
	return len(p.Create) == 0 && len(p.Remove) == 0
}

// Compute diffs placements against the running daemons of svc. A nil namer
// means DefaultNamer.
func Compute(svc *spec.ServiceSpec, placements []spec.HostPlacementSpec, daemons []scheduler.DaemonDescription, namer Namer) *Plan {
	if namer == nil {
		namer = DefaultNamer
	}

	p := &Plan{Service: svc.ServiceName()}

	wanted := sets.New[string]()
	for _, h := range placements {
		wanted.Insert(h.Hostname)
	}

	running := sets.New[string]()
	for _, d := range daemons {
		if d.ServiceType != svc.ServiceType {
			continue
		}
		running.Insert(d.Hostname)
		if wanted.Has(d.Hostname) {
			p.Keep = append(p.Keep, d)
		} else {
			p.Remove = append(p.Remove, d)
		}
	}

	for _, h := range placements {
		if running.Has(h.Hostname) {
			continue
		}
		// one daemon per host even if the host is listed twice
		running.Insert(h.Hostname)
		p.Create = append(p.Create, Action{
			Daemon: scheduler.DaemonDescription{
				ServiceType: svc.ServiceType,
				DaemonID:    namer(svc, h),
				Hostname:    h.Hostname,
			},
			Network: h.Network,
		})
	}

	sort.SliceStable(p.Create, func(i, j int) bool {
		return p.Create[i].Daemon.Hostname < p.Create[j].Daemon.Hostname
	})
	sortDaemons(p.Remove)
	sortDaemons(p.Keep)
	return p
}

func sortDaemons(daemons []scheduler.DaemonDescription) {
	sort.SliceStable(daemons, func(i, j int) bool {
		if daemons[i].Hostname != daemons[j].Hostname {
			return daemons[i].Hostname < daemons[j].Hostname
		}
		return daemons[i].DaemonID < daemons[j].DaemonID
	})
}
