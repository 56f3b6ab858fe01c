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

// Package spec contains the declarative description of a service and of
// the hosts it should be placed on.
//
// A PlacementSpec selects hosts in exactly one of three ways: an explicit
// host list, a shell-glob host pattern or a host label. A count may be
// combined with any of them, or be given alone to select that many hosts
// out of every known host. Structural problems are reported as
// *ServiceSpecValidationError before any cluster state is consulted.
package spec
