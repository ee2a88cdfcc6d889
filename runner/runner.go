// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package runner defines the Runner interface and the document runner that
// carries one file through extract, redact, and write.
package runner

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/ShahanurSharif/radact/op"
)

// Runner performs one unit of redaction work.
type Runner interface {
	ID() string
	Run() op.Op
}

// Exclude takes a slice of matcher strings and a slice of runners. If any of the runner identifiers match an exclude
// according to filepath.Match() then it will not be present in the returned runner slice.
func Exclude(excludes []string, runners []Runner) ([]Runner, error) {
	newRunners := make([]Runner, 0)
	for _, r := range runners {
		// Set our match flag if we get a hit for any of the matchers on this runner
		var match bool
		var err error
		for _, matcher := range excludes {
			match, err = filepath.Match(matcher, r.ID())
			if err != nil {
				return newRunners, fmt.Errorf("filter error: '%s' for '%s'", err, matcher)
			}
			if match {
				break
			}
		}

		// Add the runner back to our set if we have not matched an exclude
		if !match {
			newRunners = append(newRunners, r)
		}
	}
	return newRunners, nil
}

// Select takes a slice of matcher strings and a slice of runners. The only runners returned will be those
// matching the given select strings according to filepath.Match()
func Select(selects []string, runners []Runner) ([]Runner, error) {
	newRunners := make([]Runner, 0)
	for _, r := range runners {
		// Set our match flag if we get a hit for any of the matchers on this runner
		var match bool
		var err error
		for _, matcher := range selects {
			match, err = filepath.Match(matcher, r.ID())
			if err != nil {
				return newRunners, fmt.Errorf("filter error: '%s' for '%s'", err, matcher)
			}
			if match {
				break
			}
		}

		// Only include the runner if we've matched it
		if match {
			newRunners = append(newRunners, r)
		}
	}
	return newRunners, nil
}

// Params takes a Runner and returns a map of its public fields
func Params(r Runner) map[string]any {
	var inInterface map[string]any
	inrec, err := json.Marshal(&r)
	if err != nil {
		hclog.L().Error("runner.Params failed to serialize params", "runner", r, "error", err)
	}
	_ = json.Unmarshal(inrec, &inInterface)
	return inInterface
}
