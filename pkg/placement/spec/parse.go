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
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/utils/ptr"
)

const (
	labelPrefix = "label:"
	countPrefix = "count:"
)

// ParseString splits a single placement argument into tokens and parses
// them with FromString. Tokens are separated by spaces, or else by
// semicolons, or else by commas unless the argument contains an address
// vector.
//
//	"3"                 count 3 on any hosts
//	"host1 host2"       explicit hosts
//	"label:mon"         hosts labelled mon
//	"3 label:mon"       3 of the hosts labelled mon
//	"mon*"              hosts matching the pattern
//	"3 data[1-3]"       3 of the hosts matching the pattern
func ParseString(arg string) (*PlacementSpec, error) {
	arg = strings.TrimSpace(arg)

	var tokens []string
	switch {
	case arg == "":
	case strings.Contains(arg, " "):
		tokens = strings.Fields(arg)
	case strings.Contains(arg, ";"):
		tokens = strings.Split(arg, ";")
	case strings.Contains(arg, ",") && !strings.Contains(arg, "["):
		tokens = strings.Split(arg, ",")
	default:
		tokens = []string{arg}
	}
	return FromString(tokens)
}

// FromString parses a flat, CLI-style token list into a validated
// PlacementSpec. A leading integer or a count:N token is the count,
// label:NAME tokens are labels, tokens with glob characters are host
// patterns and every other token is an explicit host. Only one of hosts,
// label and pattern may be used, and explicit hosts take no count.
func FromString(tokens []string) (*PlacementSpec, error) {
	fldPath := field.NewPath("placement")
	var allErrs field.ErrorList

	var (
		count    *int
		hosts    []HostPlacementSpec
		labels   []string
		patterns []string
	)

	for i, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if i == 0 {
			if n, err := strconv.Atoi(token); err == nil {
				count = ptr.To(n)
				continue
			}
		}

		switch {
		case strings.HasPrefix(token, countPrefix):
			n, err := strconv.Atoi(strings.TrimPrefix(token, countPrefix))
			if err != nil {
				allErrs = append(allErrs, field.Invalid(fldPath.Child("count"), token, "count must be an integer"))
				continue
			}
			if count != nil {
				allErrs = append(allErrs, field.Invalid(fldPath.Child("count"), token, "more than one count provided"))
				continue
			}
			count = ptr.To(n)
		case strings.HasPrefix(token, labelPrefix):
			label := strings.TrimPrefix(token, labelPrefix)
			if label == "" {
				allErrs = append(allErrs, field.Required(fldPath.Child("label"), "label must not be empty"))
				continue
			}
			labels = append(labels, label)
		case isHostPattern(token):
			patterns = append(patterns, token)
		default:
			hosts = append(hosts, ParseHostPlacementSpec(token))
		}
	}

	if len(labels) > 1 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("label"), strings.Join(labels, " "),
			"more than one label provided"))
	}
	if len(patterns) > 1 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("host_pattern"), strings.Join(patterns, " "),
			"more than one host pattern provided"))
	}

	selectors := 0
	for _, n := range []int{len(hosts), len(labels), len(patterns)} {
		if n > 0 {
			selectors++
		}
	}
	if selectors > 1 {
		allErrs = append(allErrs, field.Invalid(fldPath, strings.Join(tokens, " "),
			"only one of hosts, label or host pattern may be given"))
	}
	if count != nil && len(hosts) > 0 {
		allErrs = append(allErrs, field.Invalid(fldPath, strings.Join(tokens, " "),
			"a count cannot be combined with explicit hosts"))
	}
	if len(allErrs) > 0 {
		return nil, newValidationError(allErrs)
	}

	ps := &PlacementSpec{Count: count}
	if len(hosts) > 0 {
		ps.Hosts = NewHostList(hosts...)
	}
	if len(labels) == 1 {
		ps.Label = labels[0]
	}
	if len(patterns) == 1 {
		ps.HostPattern = patterns[0]
	}

	if err := ps.Validate(); err != nil {
		return nil, err
	}
	return ps, nil
}

// MustParseString is ParseString for arguments known to be valid, such as
// literals in tests and defaults. It panics on error.
func MustParseString(arg string) *PlacementSpec {
	ps, err := ParseString(arg)
	if err != nil {
		panic(fmt.Sprintf("invalid placement %q: %v", arg, err))
	}
	return ps
}

// isHostPattern reports whether token is a glob rather than a host token.
// Address vectors contain brackets too, but always come after a colon.
func isHostPattern(token string) bool {
	if strings.ContainsAny(token, ":=") {
		return false
	}
	return strings.ContainsAny(token, "*?[]{}")
}
