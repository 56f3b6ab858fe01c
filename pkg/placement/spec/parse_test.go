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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/utils/ptr"
)

func TestParseString(t *testing.T) {
	tests := map[string]struct {
		arg      string
		expected *PlacementSpec
	}{
		"empty": {
			arg:      "",
			expected: &PlacementSpec{},
		},
		"count only": {
			arg:      "3",
			expected: &PlacementSpec{Count: ptr.To(3)},
		},
		"count token": {
			arg:      "count:2",
			expected: &PlacementSpec{Count: ptr.To(2)},
		},
		"hosts": {
			arg:      "host1 host2",
			expected: &PlacementSpec{Hosts: ParseHostList("host1", "host2")},
		},
		"semicolon separated hosts": {
			arg:      "host1;host2",
			expected: &PlacementSpec{Hosts: ParseHostList("host1", "host2")},
		},
		"comma separated hosts": {
			arg:      "host1,host2",
			expected: &PlacementSpec{Hosts: ParseHostList("host1", "host2")},
		},
		"address vector is not split on commas": {
			arg: "smithi060:[v2:172.21.15.60:3301,v1:172.21.15.60:6790]=c",
			expected: &PlacementSpec{
				Hosts: ParseHostList("smithi060:[v2:172.21.15.60:3301,v1:172.21.15.60:6790]=c"),
			},
		},
		"label": {
			arg:      "label:mon",
			expected: &PlacementSpec{Label: "mon"},
		},
		"count and label": {
			arg:      "3 label:mon",
			expected: &PlacementSpec{Count: ptr.To(3), Label: "mon"},
		},
		"all hosts": {
			arg:      "*",
			expected: &PlacementSpec{HostPattern: "*"},
		},
		"pattern": {
			arg:      "mon*",
			expected: &PlacementSpec{HostPattern: "mon*"},
		},
		"count and character class pattern": {
			arg:      "3 data[1-3]",
			expected: &PlacementSpec{Count: ptr.To(3), HostPattern: "data[1-3]"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ps, err := ParseString(tc.arg)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.expected, ps); diff != "" {
				t.Errorf("unexpected placement spec (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromStringRejectsBadPlacements(t *testing.T) {
	tests := map[string]struct {
		placement string
		wantErr   string
	}{
		"count with all hosts": {
			placement: "1 *",
			wantErr:   "cannot combine host pattern",
		},
		"all hosts with label": {
			placement: "* label:foo",
			wantErr:   "only one of hosts, label or host pattern may be given",
		},
		"all hosts with hosts": {
			placement: "* host1 host2",
			wantErr:   "only one of hosts, label or host pattern may be given",
		},
		"host name too long": {
			placement: "hostname12hostname12hostname12hostname12hostname12hostname12hostname12",
			wantErr:   "must not be more than 63 chars",
		},
		"label with hosts": {
			placement: "label:foo host1",
			wantErr:   "only one of hosts, label or host pattern may be given",
		},
		"two labels": {
			placement: "label:foo label:bar",
			wantErr:   "more than one label provided",
		},
		"two patterns": {
			placement: "mon* data*",
			wantErr:   "more than one host pattern provided",
		},
		"count with hosts": {
			placement: "2 host1 host2",
			wantErr:   "a count cannot be combined with explicit hosts",
		},
		"count token with hosts": {
			placement: "count:2 host1",
			wantErr:   "a count cannot be combined with explicit hosts",
		},
		"count with a single host": {
			placement: "1 host1:10.0.0.1=a",
			wantErr:   "a count cannot be combined with explicit hosts",
		},
		"two counts": {
			placement: "2 count:3 host1",
			wantErr:   "more than one count provided",
		},
		"zero count": {
			placement: "0",
			wantErr:   "num/count must be >= 1",
		},
		"negative count": {
			placement: "count:-2",
			wantErr:   "num/count must be >= 1",
		},
		"non numeric count": {
			placement: "count:two",
			wantErr:   "count must be an integer",
		},
		"empty label": {
			placement: "label:",
			wantErr:   "label must not be empty",
		},
		"bad host network": {
			placement: "host1:not-an-ip",
			wantErr:   "invalid address",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ps, err := FromString(strings.Split(tc.placement, " "))
			require.Error(t, err)
			assert.Nil(t, ps)
			assert.True(t, IsServiceSpecValidationError(err), "expected a spec validation error, got %T", err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestPlacementSpecStringRoundTrip(t *testing.T) {
	for _, arg := range []string{
		"count:3",
		"label:mon",
		"count:2 label:mon",
		"host1 host2",
		"host1:10.0.0.1=a host2",
		"mon*",
		"count:3 data[1-3]",
	} {
		t.Run(arg, func(t *testing.T) {
			ps := MustParseString(arg)
			assert.Equal(t, arg, ps.String())

			again, err := ParseString(ps.String())
			require.NoError(t, err)
			assert.Equal(t, ps, again)
		})
	}
}

func TestMustParseStringPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseString("label:a label:b") })
}
