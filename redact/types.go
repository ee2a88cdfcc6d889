// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redact

import (
	"encoding/json"
)

// RedactedString defers redaction of a string until it is read. Reports embed these so
// that run metadata passes through the same rules as the documents when the report is
// marshaled, and the raw value never reaches the output.
type RedactedString struct {
	inputString string
	redactions  []*Redact

	redactedString string
}

func NewRedactedString(input string, redactions []*Redact) RedactedString {
	return RedactedString{
		inputString: input,
		redactions:  redactions,
	}
}

func NewRedactedStringSlice(inSlice []string, r []*Redact) []RedactedString {
	var outSlice []RedactedString
	for _, in := range inSlice {
		outSlice = append(outSlice, NewRedactedString(in, r))
	}
	return outSlice
}

// String returns the redacted value, computing it on first use.
func (r *RedactedString) String() string {
	if r.redactedString != "" || r.inputString == "" {
		return r.redactedString
	}
	red, err := String(r.inputString, r.redactions)
	if err != nil {
		// ApplyMany cannot fail reading from a strings.Reader, so err on the side
		// of emitting nothing rather than the raw value.
		return ""
	}
	r.redactedString = red
	return red
}

func (r *RedactedString) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
