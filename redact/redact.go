// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package redact

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// DefaultReplace is the replacement text used when a Config does not set one.
const DefaultReplace = "<REDACTED>"

// Redact replaces every span matched by its matcher with replacement text. A Redact is
// immutable once built and safe for concurrent use.
type Redact struct {
	ID      string `json:"ID"`
	matcher *regexp.Regexp
	Replace string `json:"replace"`
}

// Config describes a redaction before compilation. Matcher is required; the other
// fields are optional.
type Config struct {
	// Matcher is the regular expression that identifies spans to replace.
	Matcher string

	// ID identifies the redaction in findings and logs. Defaults to a hash of the matcher.
	ID string

	// Replace is the replacement text, inserted verbatim for every match with no
	// capture-group interpolation. Defaults to DefaultReplace.
	Replace string

	// CaseInsensitive widens the matcher to ignore case.
	CaseInsensitive bool
}

// New takes a Config and returns a compiled and ready-to-use redaction.
func New(cfg Config) (*Redact, error) {
	matcher := cfg.Matcher
	if cfg.CaseInsensitive {
		matcher = "(?i)" + matcher
	}
	r, err := regexp.Compile(matcher)
	if err != nil {
		return nil, err
	}
	id := cfg.ID
	if id == "" {
		genID := md5.Sum([]byte(matcher))
		id = fmt.Sprint(genID)
	}
	replace := cfg.Replace
	if replace == "" {
		replace = DefaultReplace
	}
	return &Redact{id, r, replace}, nil
}

func (x Redact) apply(bts []byte) []byte {
	// Literal so a replacement containing $ is never expanded as a capture reference.
	return x.matcher.ReplaceAllLiteral(bts, []byte(x.Replace))
}

// Apply reads everything from the reader, applies the redaction, and writes the result.
func (x Redact) Apply(w io.Writer, r io.Reader) error {
	bts, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bts) == 0 {
		_, err = w.Write(bts)
		return err
	}
	_, err = w.Write(x.apply(bts))
	return err
}

// ApplyMany takes a slice of redactions and a writer + reader, reading everything in and
// applying redactions in sequential order before writing. Each pass scans the
// already-partially-redacted output of the previous pass, never the original text, so a
// Redact that appears earlier in the list takes precedence over later Redacts: an earlier
// matcher can consume text that a later, more specific matcher would otherwise hit.
func ApplyMany(redactions []*Redact, w io.Writer, r io.Reader) error {
	bts, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bts) == 0 {
		_, err = w.Write(bts)
		return err
	}
	for _, x := range redactions {
		bts = x.apply(bts)
	}
	_, err = w.Write(bts)
	return err
}

// String takes a string and a slice of redactions, and wraps it with a reader and writer
// to apply the redactions, returning a new string back. The input is never modified.
func String(result string, redactions []*Redact) (string, error) {
	r := strings.NewReader(result)
	buf := new(bytes.Buffer)
	err := ApplyMany(redactions, buf, r)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// File reads the source file line by line, applies the redactions to each line, and
// writes the result to dest, creating or truncating it. Line boundaries are preserved.
func File(src, dest string, redactions []*Redact) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()
	destFile, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer destFile.Close()
	scanner := bufio.NewScanner(srcFile)
	for scanner.Scan() {
		res, err := String(scanner.Text(), redactions)
		if err != nil {
			return err
		}
		_, err = destFile.Write([]byte(res + "\n"))
		if err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Tally applies redactions to s in the same sequential order as String and additionally
// reports how many spans each redaction replaced, keyed by redaction ID. Redactions that
// matched nothing do not appear in the tally.
func Tally(s string, redactions []*Redact) (string, map[string]int) {
	tally := make(map[string]int)
	bts := []byte(s)
	for _, x := range redactions {
		n := len(x.matcher.FindAllIndex(bts, -1))
		if n == 0 {
			continue
		}
		tally[x.ID] += n
		bts = x.apply(bts)
	}
	return string(bts), tally
}

// Flatten takes any number of redaction slices and joins them into one, preserving
// argument order. Nil and empty slices are skipped.
func Flatten(redactions ...[]*Redact) []*Redact {
	flattened := make([]*Redact, 0)
	for _, rs := range redactions {
		if len(rs) == 0 {
			continue
		}
		flattened = append(flattened, rs...)
	}
	return flattened
}
