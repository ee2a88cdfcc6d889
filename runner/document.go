// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ShahanurSharif/radact/document"

	"github.com/ShahanurSharif/radact/op"
)

type DocumentConfig struct {
	// Path is the document to redact.
	Path string

	// Dest is the directory the redacted copy is written into.
	Dest string

	// Detector locates and replaces sensitive values in extracted text.
	Detector document.Detector

	Timeout time.Duration
}

// Document carries one file through extract, redact, and write.
type Document struct {
	ctx context.Context

	Path    string  `json:"path"`
	Dest    string  `json:"dest"`
	Format  string  `json:"format"`
	Timeout Timeout `json:"timeout"`

	detector document.Detector
	codec    document.Codec
}

var _ Runner = Document{}

// NewDocument provides a runner for a single document.
func NewDocument(cfg DocumentConfig) (*Document, error) {
	return NewDocumentWithContext(context.Background(), cfg)
}

// NewDocumentWithContext provides a runner for a single document. The format handler is
// resolved from the path's extension up front, so an unsupported format fails here rather
// than at run time.
func NewDocumentWithContext(ctx context.Context, cfg DocumentConfig) (*Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	timeout := cfg.Timeout
	if timeout < 0 {
		return nil, fmt.Errorf("timeout must be a nonnegative duration, timeout='%s'", timeout.String())
	}

	codec, err := document.Lookup(cfg.Path)
	if err != nil {
		return nil, err
	}

	if cfg.Detector == nil {
		return nil, fmt.Errorf("detector must not be nil, path=%s", cfg.Path)
	}

	return &Document{
		ctx:      ctx,
		Path:     cfg.Path,
		Dest:     cfg.Dest,
		Format:   codec.Name(),
		Timeout:  Timeout(timeout),
		detector: cfg.Detector,
		codec:    codec,
	}, nil
}

func (d Document) ID() string {
	return d.Path
}

// Run extracts the document's text, redacts it, and writes the redacted copy
func (d Document) Run() op.Op {
	startTime := time.Now()

	if d.ctx == nil {
		d.ctx = context.Background()
	}

	runCtx := d.ctx
	var cancel context.CancelFunc
	if 0 < d.Timeout {
		runCtx, cancel = context.WithTimeout(d.ctx, time.Duration(d.Timeout))
		defer cancel()
	}

	resChan := make(chan op.Op, 1)
	go func(resChan chan<- op.Op, start time.Time) {
		o := d.run(runCtx)
		o.Start = start
		resChan <- o
	}(resChan, startTime)

	select {
	case <-runCtx.Done():
		switch runCtx.Err() {
		case context.Canceled:
			return op.NewCancel(d.ID(), runCtx.Err(), Params(d), startTime)
		case context.DeadlineExceeded:
			return op.NewTimeout(d.ID(), runCtx.Err(), Params(d), startTime)
		default:
			return op.New(d.ID(), nil, op.Unknown, runCtx.Err(), Params(d), startTime, time.Now())
		}
	case result := <-resChan:
		return result
	}
}

func (d Document) run(ctx context.Context) op.Op {
	text, err := d.codec.Extract(d.Path)
	if err != nil {
		return op.New(d.ID(), nil, op.Fail, err, Params(d), time.Time{}, time.Now())
	}

	redacted, findings, err := d.detector.Redact(ctx, text)
	if err != nil {
		return op.New(d.ID(), nil, op.Fail, err, Params(d), time.Time{}, time.Now())
	}
	if findings == nil {
		findings = document.Findings{}
	}

	res, err := d.codec.Write(d.Path, document.OutputPath(d.Dest, d.Path), redacted)
	if err != nil {
		return op.New(d.ID(), nil, op.Fail, err, Params(d), time.Time{}, time.Now())
	}

	result := map[string]any{
		"format":   d.Format,
		"output":   res.OutputPath,
		"chars":    len(text),
		"findings": findings,
	}
	if res.FallbackPath != "" {
		result["fallback"] = res.FallbackPath
	}
	// The structured write can fail after the plain-text artifact has already landed.
	// That op carries the text artifact as its output rather than failing the document.
	if res.UsedFallback {
		return op.New(d.ID(), result, op.Fallback,
			DocumentWriteError{
				path:    d.Path,
				message: res.Error,
			}, Params(d), time.Time{}, time.Now())
	}
	return op.New(d.ID(), result, op.Success, nil, Params(d), time.Time{}, time.Now())
}

type DocumentWriteError struct {
	path    string
	message string
}

func (e DocumentWriteError) Error() string {
	return fmt.Sprintf("structured write failed, kept text fallback, path=%s, error=%s", e.path, e.message)
}
