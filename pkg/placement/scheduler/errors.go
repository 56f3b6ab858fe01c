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

package scheduler

import (
	"errors"
	"fmt"
)

// OrchestratorValidationError reports a valid spec that cannot be
// satisfied by the current hosts and daemons. The message text is stable;
// callers may match on it.
type OrchestratorValidationError struct {
	msg string
}

func newOrchestratorValidationError(format string, args ...any) *OrchestratorValidationError {
	return &OrchestratorValidationError{msg: fmt.Sprintf(format, args...)}
}

// Error implements error.
func (e *OrchestratorValidationError) Error() string {
	return e.msg
}

// IsOrchestratorValidationError reports whether err, or any error it
// wraps, is an *OrchestratorValidationError.
func IsOrchestratorValidationError(err error) bool {
	var target *OrchestratorValidationError
	return errors.As(err, &target)
}
