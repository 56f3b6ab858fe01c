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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

// KnownServiceTypes are the service types a ServiceSpec may name.
var KnownServiceTypes = sets.New(
	"alertmanager",
	"crash",
	"grafana",
	"mds",
	"mgr",
	"mon",
	"nfs",
	"node-exporter",
	"osd",
	"prometheus",
	"rbd-mirror",
	"rgw",
)

// ServiceSpec identifies a service and where it should run.
type ServiceSpec struct {
	// ServiceType is the kind of daemon, e.g. "mon" or "rgw".
	ServiceType string `json:"service_type"`

	// ServiceID distinguishes several services of the same type.
	ServiceID string `json:"service_id,omitempty"`

	// Placement selects the hosts.
	Placement PlacementSpec `json:"placement"`

	// Unmanaged services are placed by hand and skipped by reconciliation.
	Unmanaged bool `json:"unmanaged,omitempty"`
}

// NewServiceSpec returns a spec for serviceType without a service id.
func NewServiceSpec(serviceType string, placement PlacementSpec) *ServiceSpec {
	return &ServiceSpec{
		ServiceType: serviceType,
		Placement:   placement,
	}
}

// ServiceName is the service type, followed by ".<id>" when a service id
// is set.
func (s *ServiceSpec) ServiceName() string {
	if s.ServiceID == "" {
		return s.ServiceType
	}
	return s.ServiceType + "." + s.ServiceID
}

// OneLineString is the descriptor used in placement error messages.
func (s *ServiceSpec) OneLineString() string {
	return fmt.Sprintf("<ServiceSpec for service_name=%s>", s.ServiceName())
}

func (s *ServiceSpec) String() string {
	return s.OneLineString()
}

// Validate checks the service and its placement without consulting
// cluster state.
func (s *ServiceSpec) Validate() error {
	var allErrs field.ErrorList

	switch {
	case s.ServiceType == "":
		allErrs = append(allErrs, field.Required(field.NewPath("service_type"), "Cannot add Service: type required"))
	case !KnownServiceTypes.Has(s.ServiceType):
		allErrs = append(allErrs, field.NotSupported(field.NewPath("service_type"), s.ServiceType, sets.List(KnownServiceTypes)))
	}
	if strings.ContainsAny(s.ServiceID, " \t.") {
		allErrs = append(allErrs, field.Invalid(field.NewPath("service_id"), s.ServiceID,
			"service id must not contain whitespace or dots"))
	}

	allErrs = append(allErrs, s.Placement.ValidateWithPath(field.NewPath("placement"))...)
	return newValidationError(allErrs)
}

// LoadServiceSpecs decodes a stream of YAML or JSON documents, one service
// spec each, and validates every spec. Empty documents are skipped.
func LoadServiceSpecs(r io.Reader) ([]*ServiceSpec, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(r))

	var specs []*ServiceSpec
	for i := 0; ; i++ {
		doc, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read document %d: %w", i, err)
		}
		data, err := yaml.YAMLToJSON(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode document %d: %w", i, err)
		}
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			continue
		}

		s := &ServiceSpec{}
		if err := yaml.UnmarshalStrict(data, s); err != nil {
			return nil, fmt.Errorf("failed to decode service spec in document %d: %w", i, err)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid service spec %s: %w", s.ServiceName(), err)
		}
		specs = append(specs, s)
	}
	return specs, nil
}
