// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package op

import (
	"fmt"
	"time"
)

// Status describes the result of an operation.
type Status string

const (
	// Success means all systems green
	Success Status = "success"
	// Fallback means the primary artifact could not be produced, so a plain-text stand-in was delivered instead.
	//   The operation finished and the redacted content is safe on disk, but not in the requested format.
	Fallback Status = "fallback"
	// Fail means that we detected a known error and can conclusively say that the op did not complete.
	Fail Status = "fail"
	// Skip means that the operation did not need to run, for example during a dry run.
	Skip Status = "skip"
	// Canceled means the op ended early because its context was canceled.
	Canceled Status = "canceled"
	// Timeout means the op ended early because its context deadline passed.
	Timeout Status = "timeout"
	// Unknown means that we detected an error and the result is indeterminate (e.g. some side effect like disk or
	//   network may or may not have completed) or we don't recognize the error. If we don't recognize the error that's
	//   a signal to improve the error handling to account for it.
	Unknown Status = "unknown"
)

// Op represents the result of a runner's work on one document.
type Op struct {
	Identifier string         `json:"-"`
	Result     map[string]any `json:"result"`
	ErrString  string         `json:"error"` // this simplifies json marshaling
	Error      error          `json:"-"`
	Status     Status         `json:"status"`
	Params     map[string]any `json:"params"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
}

// New composes the fields we collect from every run into an Op, formatting the error for serialization when
// one is present.
func New(id string, result map[string]any, status Status, err error, params map[string]any, start time.Time, end time.Time) Op {
	var errString string
	if err != nil {
		errString = err.Error()
	}
	return Op{
		Identifier: id,
		Result:     result,
		ErrString:  errString,
		Error:      err,
		Status:     status,
		Params:     params,
		Start:      start,
		End:        end,
	}
}

// NewCancel returns an Op for a run that ended early because its context was canceled.
func NewCancel(id string, err error, params map[string]any, start time.Time) Op {
	return New(id, nil, Canceled, err, params, start, time.Now())
}

// NewTimeout returns an Op for a run that ended early because its context deadline passed.
func NewTimeout(id string, err error, params map[string]any, start time.Time) Op {
	return New(id, nil, Timeout, err, params, start, time.Now())
}

// StatusCounts takes a slice of ops and returns a map containing sums of each Status
func StatusCounts(ops []Op) (map[Status]int, error) {
	statuses := make(map[Status]int)
	for _, o := range ops {
		if o.Status == "" {
			return nil, fmt.Errorf("unable to build Statuses map, op not run: op=%s", o.Identifier)
		}
		statuses[o.Status]++
	}
	return statuses, nil
}
