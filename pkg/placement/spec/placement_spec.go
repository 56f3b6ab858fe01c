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

package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// AllHostsPattern is the host pattern matching every known host.
const AllHostsPattern = "*"

// HostList is an explicit, ordered list of hosts.
type HostList []HostPlacementSpec

// NewHostList returns an explicit host list. Called without arguments it
// returns an empty, non-nil list: explicit placement on zero hosts.
func NewHostList(hosts ...HostPlacementSpec) *HostList {
	l := make(HostList, 0, len(hosts))
	l = append(l, hosts...)
	return &l
}

// ParseHostList parses every token with ParseHostPlacementSpec.
func ParseHostList(tokens ...string) *HostList {
	l := make(HostList, 0, len(tokens))
	for _, t := range tokens {
		l = append(l, ParseHostPlacementSpec(t))
	}
	return &l
}

// Hostnames returns the host names in list order.
func (l HostList) Hostnames() []string {
	names := make([]string, 0, len(l))
	for _, h := range l {
		names = append(names, h.Hostname)
	}
	return names
}

// PlacementSpec describes which hosts a service should run on.
type PlacementSpec struct {
	// Hosts is the explicit host list. A nil Hosts means no explicit list
	// was given; a non-nil empty list is an explicit placement on zero
	// hosts. The two are different specs.
	Hosts *HostList `json:"hosts,omitempty"`

	// HostPattern is a shell glob matched against all known host names.
	HostPattern string `json:"host_pattern,omitempty"`

	// Label selects the hosts carrying this label.
	Label string `json:"label,omitempty"`

	// Count is the desired number of daemons. Nil means unset.
	Count *int `json:"count,omitempty"`
}

// HasExplicitHosts reports whether an explicit host list was given, even
// an empty one.
func (p *PlacementSpec) HasExplicitHosts() bool {
	return p.Hosts != nil
}

// ExplicitHosts returns a copy of the explicit host list, nil if none.
func (p *PlacementSpec) ExplicitHosts() []HostPlacementSpec {
	if p.Hosts == nil {
		return nil
	}
	out := make([]HostPlacementSpec, len(*p.Hosts))
	copy(out, *p.Hosts)
	return out
}

// IsEmpty reports whether the spec names no hosts, no pattern, no label and
// no count.
func (p *PlacementSpec) IsEmpty() bool {
	return p.Hosts == nil && p.HostPattern == "" && p.Label == "" && p.Count == nil
}

// Validate checks the spec without consulting cluster state.
func (p *PlacementSpec) Validate() error {
	return newValidationError(p.ValidateWithPath(field.NewPath("placement")))
}

// ValidateWithPath returns every structural problem of the spec.
func (p *PlacementSpec) ValidateWithPath(fldPath *field.Path) field.ErrorList {
	var allErrs field.ErrorList

	if p.Count != nil && *p.Count < 1 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("count"), *p.Count, "num/count must be >= 1"))
	}

	if p.Hosts != nil && p.Label != "" {
		allErrs = append(allErrs, field.Forbidden(fldPath, "Host and label are mutually exclusive"))
	}
	if p.Hosts != nil && p.HostPattern != "" {
		allErrs = append(allErrs, field.Forbidden(fldPath, "cannot combine host patterns and hosts"))
	}
	if p.Label != "" && p.HostPattern != "" {
		allErrs = append(allErrs, field.Forbidden(fldPath, "cannot combine host patterns and labels"))
	}

	if p.HostPattern == AllHostsPattern && p.Count != nil {
		allErrs = append(allErrs, field.Forbidden(fldPath,
			fmt.Sprintf("cannot combine host pattern %q and count; give the count alone", AllHostsPattern)))
	}
	if p.HostPattern != "" {
		if _, err := glob.Compile(p.HostPattern); err != nil {
			allErrs = append(allErrs, field.Invalid(fldPath.Child("host_pattern"), p.HostPattern, err.Error()))
		}
	}

	if p.Hosts != nil {
		hostsPath := fldPath.Child("hosts")
		for i, h := range *p.Hosts {
			allErrs = append(allErrs, h.Validate(hostsPath.Index(i))...)
		}
	}

	return allErrs
}

// PatternMatchesHosts returns the hosts matching HostPattern, in lexical
// order. It returns nil when no pattern is set.
func (p *PlacementSpec) PatternMatchesHosts(hosts []string) ([]string, error) {
	if p.HostPattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(p.HostPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid host pattern %q: %w", p.HostPattern, err)
	}

	var matches []string
	for _, h := range hosts {
		if g.Match(h) {
			matches = append(matches, h)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// String renders the spec in the token form accepted by ParseString. An
// explicit empty host list has no token form and renders like an empty
// spec.
func (p PlacementSpec) String() string {
	var tokens []string
	if p.Count != nil {
		tokens = append(tokens, "count:"+strconv.Itoa(*p.Count))
	}
	if p.Label != "" {
		tokens = append(tokens, labelPrefix+p.Label)
	}
	if p.Hosts != nil {
		for _, h := range *p.Hosts {
			tokens = append(tokens, h.String())
		}
	}
	if p.HostPattern != "" {
		tokens = append(tokens, p.HostPattern)
	}
	return strings.Join(tokens, " ")
}

// UnmarshalJSON accepts either the structured form or a placement string
// in the form accepted by ParseString.
func (p *PlacementSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var arg string
		if err := json.Unmarshal(data, &arg); err != nil {
			return err
		}
		parsed, err := ParseString(arg)
		if err != nil {
			return err
		}
		*p = *parsed
		return nil
	}

	type plain PlacementSpec
	var out plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return err
	}
	*p = PlacementSpec(out)
	return nil
}
