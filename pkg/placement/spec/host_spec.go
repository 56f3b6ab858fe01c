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
	"net"
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"
	utilsnet "k8s.io/utils/net"
)

const (
	// MaxHostnameLength is the maximum length of a full host name.
	MaxHostnameLength = 250

	// MaxHostnameComponentLength is the maximum length of a single
	// dot-separated host name component.
	MaxHostnameComponentLength = validation.DNS1123LabelMaxLength
)

var (
	hostnameComponentRegex = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

	// addrVecEntryRegex matches the "v2:" prefix of an address vector entry.
	addrVecEntryRegex = regexp.MustCompile(`^v[0-9]+:`)
)

// HostPlacementSpec is a host a daemon should be placed on. Network and Name
// are optional and only ever set from an explicit host token; the scheduler
// passes them through unchanged.
type HostPlacementSpec struct {
	// Hostname identifies the host.
	Hostname string `json:"hostname"`

	// Network is an IP, a CIDR or an address vector such as
	// "[v2:10.0.0.1:3300,v1:10.0.0.1:6789]".
	Network string `json:"network,omitempty"`

	// Name is the daemon name to use on that host.
	Name string `json:"name,omitempty"`
}

// ParseHostPlacementSpec parses a host token of the form host[:network][=name].
// Only the syntax of the token is interpreted; use Validate to check the
// host name and network.
func ParseHostPlacementSpec(token string) HostPlacementSpec {
	hs := HostPlacementSpec{Hostname: token}
	if i := strings.IndexAny(token, ":="); i >= 0 {
		hs.Hostname = token[:i]
	}
	if i := strings.Index(token, "="); i >= 0 {
		hs.Name = token[i+1:]
	}
	if i := strings.Index(token, ":"); i >= 0 {
		network := token[i+1:]
		if j := strings.Index(network, "="); j >= 0 {
			network = network[:j]
		}
		hs.Network = network
	}
	return hs
}

// String renders the host back into token form.
func (h HostPlacementSpec) String() string {
	var b strings.Builder
	b.WriteString(h.Hostname)
	if h.Network != "" {
		b.WriteString(":")
		b.WriteString(h.Network)
	}
	if h.Name != "" {
		b.WriteString("=")
		b.WriteString(h.Name)
	}
	return b.String()
}

// Validate checks the host name and, if set, the network.
func (h HostPlacementSpec) Validate(fldPath *field.Path) field.ErrorList {
	allErrs := ValidateHostname(h.Hostname, fldPath.Child("hostname"))
	if h.Network != "" {
		if err := validateNetwork(h.Network); err != nil {
			allErrs = append(allErrs, field.Invalid(fldPath.Child("network"), h.Network, err.Error()))
		}
	}
	return allErrs
}

// MarshalJSON encodes the host in token form.
func (h HostPlacementSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON accepts either a host token string or an object with
// hostname, network and name fields.
func (h *HostPlacementSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var token string
		if err := json.Unmarshal(data, &token); err != nil {
			return err
		}
		*h = ParseHostPlacementSpec(token)
		return nil
	}

	type plain HostPlacementSpec
	var p plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*h = HostPlacementSpec(p)
	return nil
}

// ValidateHostname checks that name is a syntactically valid host name:
// at most 250 characters of dot-separated components, each non-empty, at
// most 63 characters long and made of letters, digits and dashes.
func ValidateHostname(name string, fldPath *field.Path) field.ErrorList {
	var allErrs field.ErrorList

	if name == "" {
		return append(allErrs, field.Required(fldPath, "host name is required"))
	}
	if len(name) > MaxHostnameLength {
		allErrs = append(allErrs, field.Invalid(fldPath, name,
			fmt.Sprintf("name is too long (max %d chars)", MaxHostnameLength)))
	}

	for _, part := range strings.Split(name, ".") {
		switch {
		case part == "":
			allErrs = append(allErrs, field.Invalid(fldPath, name, ".-delimited name component must not be empty"))
		case len(part) > MaxHostnameComponentLength:
			allErrs = append(allErrs, field.Invalid(fldPath, name,
				fmt.Sprintf(".-delimited name component must not be more than %d chars", MaxHostnameComponentLength)))
		case !hostnameComponentRegex.MatchString(part):
			allErrs = append(allErrs, field.Invalid(fldPath, name, "name component must include only a-z, 0-9, and -"))
		}
	}

	return allErrs
}

// validateNetwork accepts an IP, a CIDR, or a comma-separated address
// vector whose entries may carry a "vN:" prefix and a port.
func validateNetwork(network string) error {
	for _, entry := range strings.Split(strings.Trim(network, "[]"), ",") {
		addr := strings.Trim(entry, "[]")
		if addrVecEntryRegex.MatchString(addr) {
			addr = addr[strings.Index(addr, ":")+1:]
			if host, _, err := net.SplitHostPort(addr); err == nil {
				addr = host
			}
		}

		if strings.Contains(addr, "/") {
			if _, _, err := utilsnet.ParseCIDRSloppy(addr); err != nil {
				return fmt.Errorf("invalid network %q: %w", addr, err)
			}
			continue
		}
		if utilsnet.ParseIPSloppy(addr) == nil {
			return fmt.Errorf("invalid address %q", addr)
		}
	}
	return nil
}
