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

// Package scheduler decides which hosts the daemons of a service run on,
// given a placement spec and a snapshot of the known hosts and daemons.
package scheduler

// DaemonDescription is a running daemon as reported by the daemon registry.
type DaemonDescription struct {
	// ServiceType is the kind of daemon, e.g. "mon".
	ServiceType string `json:"service_type"`

	// DaemonID identifies the daemon within its service type.
	DaemonID string `json:"daemon_id"`

	// Hostname is the host the daemon runs on.
	Hostname string `json:"hostname"`
}

// Name is the daemon name, "<type>.<id>".
func (d DaemonDescription) Name() string {
	return d.ServiceType + "." + d.DaemonID
}

// HostsFunc returns the names of the known hosts. A non-empty label
// restricts the result to hosts carrying that label.
type HostsFunc func(label string) []string

// DaemonsFunc returns the running daemons of a service type.
type DaemonsFunc func(serviceType string) []DaemonDescription
