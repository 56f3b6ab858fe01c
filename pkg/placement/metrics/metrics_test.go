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

package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/utils/ptr"

	"github.com/kcp-dev/placer/pkg/placement/scheduler"
	"github.com/kcp-dev/placer/pkg/placement/spec"
)

func hosts(names ...string) scheduler.HostsFunc {
	return func(string) []string { return names }
}

func noDaemons(string) []scheduler.DaemonDescription { return nil }

func TestPlaceRecordsResults(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	r := NewRecorder(reg)

	tests := map[string]struct {
		svc        *spec.ServiceSpec
		wantResult string
	}{
		"success": {
			svc:        spec.NewServiceSpec("mon", spec.PlacementSpec{Count: ptr.To(2)}),
			wantResult: ResultSuccess,
		},
		"spec invalid": {
			svc:        spec.NewServiceSpec("mon", spec.PlacementSpec{Count: ptr.To(0)}),
			wantResult: ResultSpecInvalid,
		},
		"placement invalid": {
			svc:        spec.NewServiceSpec("mon", spec.PlacementSpec{Label: "nope"}),
			wantResult: ResultPlacementInvalid,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			labelled := func(label string) []string {
				if label != "" {
					return nil
				}
				return []string{"host1", "host2", "host3"}
			}
			_, err := Place(r, tc.svc, scheduler.NewHostAssignment(tc.svc, labelled, noDaemons))
			assert.Equal(t, tc.wantResult, Result(err))
			assert.Equal(t, 1.0, testutil.ToFloat64(r.(*recorder).placements.WithLabelValues("mon", tc.wantResult)))
		})
	}

	assert.Equal(t, 1, testutil.CollectAndCount(r.(*recorder).duration))
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP placer_placements_total Total number of placement runs by service type and result
# TYPE placer_placements_total counter
placer_placements_total{result="placement_invalid",service_type="mon"} 1
placer_placements_total{result="spec_invalid",service_type="mon"} 1
placer_placements_total{result="success",service_type="mon"} 1
`), "placer_placements_total"))
}

func TestSelectedHostsOnlyCountsSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.RecordPlacement("rgw", 3, nil, time.Millisecond)
	r.RecordPlacement("rgw", 0, errors.New("boom"), time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(r.(*recorder).selectedHosts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.(*recorder).placements.WithLabelValues("rgw", ResultError)))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "placer_selected_hosts" {
			continue
		}
		h := mf.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(1), h.GetSampleCount())
		assert.Equal(t, 3.0, h.GetSampleSum())
	}
}

func TestNoopRecorder(t *testing.T) {
	svc := spec.NewServiceSpec("mgr", spec.PlacementSpec{Count: ptr.To(1)})
	res, err := Place(NewNoopRecorder(), svc, scheduler.NewHostAssignment(svc, hosts("host1"), noDaemons))
	require.NoError(t, err)
	assert.Len(t, res, 1)
}
