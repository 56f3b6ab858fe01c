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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInventory = `
hosts:
- hostname: host1
  labels: [mon, mgr]
- hostname: host2
  labels: [mon]
- hostname: host3
  labels: [mon]
- hostname: data1
daemons:
- service_type: mon
  daemon_id: host1
  hostname: host1
- service_type: mon
  daemon_id: data1
  hostname: data1
`

const testSpecs = `
service_type: mon
placement:
  count: 3
  label: mon
---
service_type: mgr
placement: "host1"
---
service_type: rgw
service_id: public
unmanaged: true
placement:
  count: 1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestPlaceCommand(t *testing.T) {
	inv := writeFile(t, "inventory.yaml", testInventory)

	tests := map[string]struct {
		args    []string
		want    string
		wantErr string
	}{
		"label": {
			args: []string{"--service=mon", "--placement=label:mon"},
			want: "mon: host1 host2 host3\n",
		},
		"count with lexical tie-break keeps occupied hosts": {
			args: []string{"--service=mon", "--placement=2", "--strategy=lexical"},
			want: "mon: data1 host1\n",
		},
		"count fills from free hosts": {
			args: []string{"--service=rgw", "--service-id=public", "--placement=2 label:mon", "--strategy=lexical"},
			want: "rgw.public: host1 host2\n",
		},
		"explicit host with network": {
			args: []string{"--service=mon", "--placement=host2:10.0.0.0/24=b"},
			want: "mon: host2:10.0.0.0/24=b\n",
		},
		"spec file": {
			args: []string{"--spec=" + writeFile(t, "specs.yaml", testSpecs), "--strategy=lexical"},
			want: "mon: host1 host2 host3\nmgr: host1\n",
		},
		"unknown host": {
			args:    []string{"--service=mon", "--placement=host9"},
			wantErr: "Cannot place <ServiceSpec for service_name=mon> on host9: Unknown hosts",
		},
		"empty placement": {
			args:    []string{"--service=mon"},
			wantErr: "placement spec is empty: no hosts, no label, no pattern, no count",
		},
		"invalid placement": {
			args:    []string{"--service=mon", "--placement=1 *"},
			wantErr: "cannot combine host pattern",
		},
		"missing service": {
			args:    []string{"--placement=3"},
			wantErr: "either --spec or --service is required",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			out, _, err := run(t, append([]string{"place", "--inventory=" + inv}, tc.args...)...)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestPlaceCommandJSON(t *testing.T) {
	inv := writeFile(t, "inventory.yaml", testInventory)

	out, _, err := run(t, "place", "--inventory="+inv, "--service=mon", "--placement=1 host*", "-o", "json", "--seed=3")
	require.NoError(t, err)

	var results []struct {
		Service string   `json:"service"`
		Hosts   []string `json:"hosts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "mon", results[0].Service)
	assert.Equal(t, []string{"host1"}, results[0].Hosts)
}

func TestPlanCommand(t *testing.T) {
	inv := writeFile(t, "inventory.yaml", testInventory)

	out, _, err := run(t, "plan", "--inventory="+inv, "--service=mon", "--placement=host1 host2")
	require.NoError(t, err)
	assert.Contains(t, out, "mon:\n")
	assert.Contains(t, out, "+ mon.host2 on host2")
	assert.Contains(t, out, "- mon.data1 on data1")
	assert.Contains(t, out, "= mon.host1 on host1")

	out, _, err = run(t, "plan", "--inventory="+inv, "--service=mon", "--placement=host1 host2", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "service: mon")
	assert.Contains(t, out, "daemon_id: host2")
}

func TestPlanCommandIsReproducible(t *testing.T) {
	inv := writeFile(t, "inventory.yaml", testInventory)

	for _, strategy := range []string{"--strategy=lexical", "--seed=5"} {
		t.Run(strategy, func(t *testing.T) {
			args := []string{"plan", "--inventory=" + inv, "--service=rgw", "--placement=2 label:mon", strategy}
			first, _, err := run(t, args...)
			require.NoError(t, err)
			again, _, err := run(t, args...)
			require.NoError(t, err)
			assert.Equal(t, first, again)
			assert.Regexp(t, `\+ rgw\.host[1-3]\.[0-9a-f]{6} on host[1-3]`, first)
		})
	}
}

func TestValidateCommand(t *testing.T) {
	tests := map[string]struct {
		args    []string
		want    string
		wantErr string
	}{
		"placement": {
			args: []string{"--placement=3 label:mon"},
			want: "valid placement: count:3 label:mon\n",
		},
		"placement with service": {
			args:    []string{"--service=bogus", "--placement=3"},
			wantErr: "service_type",
		},
		"bad placement": {
			args:    []string{"--placement=* label:foo"},
			wantErr: "only one of hosts, label or host pattern may be given",
		},
		"spec file": {
			args: []string{"--spec=" + writeFile(t, "specs.yaml", testSpecs)},
			want: "valid service mon: count:3 label:mon\nvalid service mgr: host1\nvalid service rgw.public: count:1\n",
		},
		"nothing to validate": {
			wantErr: "either --spec or --placement is required",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			out, _, err := run(t, append([]string{"validate"}, tc.args...)...)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestDumpMetrics(t *testing.T) {
	inv := writeFile(t, "inventory.yaml", testInventory)

	_, errOut, err := run(t, "place", "--inventory="+inv, "--service=mon", "--placement=label:mon", "--dump-metrics")
	require.NoError(t, err)
	assert.Contains(t, errOut, `placer_placements_total{result="success",service_type="mon"} 1`)
	assert.Contains(t, errOut, "placer_placement_duration_seconds")

	_, errOut, err = run(t, "place", "--inventory="+inv, "--service=mon", "--placement=label:osd", "--dump-metrics")
	require.Error(t, err)
	assert.Contains(t, errOut, `placer_placements_total{result="placement_invalid",service_type="mon"} 1`)
}
