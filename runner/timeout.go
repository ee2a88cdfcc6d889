// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"encoding/json"
	"time"
)

// Timeout is the maximum duration a runner should work before it is interrupted.
// A zero Timeout means no limit.
type Timeout time.Duration

// MarshalJSON renders the timeout in the same format Go parses from strings
// into time.Duration, rather than as a count of nanoseconds.
func (t Timeout) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(t).String())
}
