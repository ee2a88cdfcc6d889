// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package document pairs file formats with the codecs that read and write them. A codec
// extracts plain text from a structured document and renders redacted text back into the
// same format, degrading to a plain-text artifact when the structured write fails.
package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ShahanurSharif/radact/redact"
)

// Format names used to group results in manifests and summaries.
const (
	FormatDocx = "docx"
	FormatPDF  = "pdf"
)

// Extractor pulls plain text out of a structured document.
type Extractor interface {
	Extract(path string) (string, error)
}

// Writer renders redacted text into a structured document at outputPath. Implementations
// must leave some artifact holding the text on disk on every non-error return, even when
// the structured format cannot be produced.
type Writer interface {
	Write(originalPath string, outputPath string, text string) (Result, error)
}

// Codec is one document format's Extractor and Writer pair.
type Codec interface {
	Extractor
	Writer
	Name() string
}

// Findings tallies the replacements made during detection, keyed by rule ID.
type Findings map[string]int

// Detector finds and replaces sensitive content in extracted text. The pipeline does not
// care whether matching happens locally or in a remote service.
type Detector interface {
	Redact(ctx context.Context, text string) (string, Findings, error)
}

var _ Detector = RuleDetector{}

// RuleDetector matches with an ordered rule set from the redact package.
type RuleDetector struct {
	Redactions []*redact.Redact
}

func NewRuleDetector(redactions []*redact.Redact) *RuleDetector {
	return &RuleDetector{Redactions: redactions}
}

// Redact applies each rule in order, every pass scanning the output of the pass before it.
// An earlier rule can consume text a later one would otherwise match, so the set must be
// applied exactly as given.
func (d RuleDetector) Redact(_ context.Context, text string) (string, Findings, error) {
	result, tally := redact.Tally(text, d.Redactions)
	return result, Findings(tally), nil
}

// Result describes the artifacts a Write call left on disk.
type Result struct {
	// OutputPath holds the redacted content. When UsedFallback is set this is the
	// plain-text stand-in rather than the structured document.
	OutputPath string `json:"output_path"`
	// FallbackPath is the plain-text artifact, when one was written.
	FallbackPath string `json:"fallback_path,omitempty"`
	Succeeded    bool   `json:"succeeded"`
	UsedFallback bool   `json:"used_fallback"`
	Error        string `json:"error,omitempty"`
}

// Lookup returns the codec registered for the path's extension.
func Lookup(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return NewDocx(), nil
	case ".pdf":
		return NewPDF(), nil
	default:
		return nil, UnsupportedFormatError{path: path}
	}
}

// Supported reports whether a codec is registered for the path's extension.
func Supported(path string) bool {
	_, err := Lookup(path)
	return err == nil
}

// OutputPath returns the destination for a document's redacted copy: the original base name
// under dest with a "redact_" prefix.
func OutputPath(dest string, path string) string {
	return filepath.Join(dest, "redact_"+filepath.Base(path))
}

// writeFallback persists the redacted text after a structured write failure. The text
// artifact becomes the deliverable and the document still counts as a qualified success.
// Only failing to write the text too is fatal.
func writeFallback(outputPath string, fallbackPath string, text string, writeErr error) (Result, error) {
	// Discard any partial structured output so the text artifact is unambiguous.
	_ = os.Remove(outputPath)

	if err := os.WriteFile(fallbackPath, []byte(text), 0644); err != nil {
		return Result{}, WriteFallbackError{path: fallbackPath, err: err, writeErr: writeErr}
	}
	return Result{
		OutputPath:   fallbackPath,
		FallbackPath: fallbackPath,
		Succeeded:    true,
		UsedFallback: true,
		Error:        writeErr.Error(),
	}, nil
}

var _ error = UnsupportedFormatError{}

// UnsupportedFormatError is returned when no codec is registered for a file's extension.
type UnsupportedFormatError struct {
	path string
}

func (e UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format, path=%s, ext=%s", e.path, filepath.Ext(e.path))
}

var _ error = ExtractError{}

// ExtractError wraps a read or parse failure from the underlying format library.
type ExtractError struct {
	path string
	err  error
}

func (e ExtractError) Error() string {
	return fmt.Sprintf("unable to extract document text, path=%s, error=%s", e.path, e.err)
}

func (e ExtractError) Unwrap() error {
	return e.err
}

var _ error = WriteFallbackError{}

// WriteFallbackError means the plain-text artifact could not be written, leaving nothing
// usable on disk for the document.
type WriteFallbackError struct {
	path     string
	err      error
	writeErr error
}

func (e WriteFallbackError) Error() string {
	if e.writeErr == nil {
		return fmt.Sprintf("unable to write text artifact, path=%s, error=%s", e.path, e.err)
	}
	return fmt.Sprintf("unable to write text artifact after a structured write failure, path=%s, error=%s, writeError=%s", e.path, e.err, e.writeErr)
}

func (e WriteFallbackError) Unwrap() error {
	return e.err
}
