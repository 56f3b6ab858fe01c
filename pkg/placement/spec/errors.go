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
	"errors"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// ServiceSpecValidationError reports a structurally invalid service or
// placement spec. It can be detected without looking at the cluster.
type ServiceSpecValidationError struct {
	errs field.ErrorList
}

// Error implements error.
func (e *ServiceSpecValidationError) Error() string {
	return e.errs.ToAggregate().Error()
}

// Errors returns the individual field errors.
func (e *ServiceSpecValidationError) Errors() field.ErrorList {
	return e.errs
}

// IsServiceSpecValidationError reports whether err, or any error it wraps,
// is a *ServiceSpecValidationError.
func IsServiceSpecValidationError(err error) bool {
	var target *ServiceSpecValidationError
	return errors.As(err, &target)
}

// newValidationError returns nil for an empty list so callers can return
// its result directly.
func newValidationError(errs field.ErrorList) error {
	if len(errs) == 0 {
		return nil
	}
	return &ServiceSpecValidationError{errs: errs}
}
