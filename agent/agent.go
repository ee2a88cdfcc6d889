// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package agent orchestrates a redaction run: it expands the configured inputs
// into document runners, executes them, and writes the results and manifest.
package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/ShahanurSharif/radact/client"
	"github.com/ShahanurSharif/radact/document"
	"github.com/ShahanurSharif/radact/hcl"
	"github.com/ShahanurSharif/radact/op"
	"github.com/ShahanurSharif/radact/redact"
	"github.com/ShahanurSharif/radact/runner"
	"github.com/ShahanurSharif/radact/util"
)

// minDiskFree is the free-space floor below which the destination preflight warns.
const minDiskFree = 64 * 1024 * 1024

// Agent holds the set of document runners to be executed and their results.
type Agent struct {
	l           hclog.Logger
	runners     []*runner.Document
	results     map[string]map[string]op.Op
	resultsLock sync.Mutex
	tmpDir      string
	resultsDest string
	remote      *client.RemoteDetector
	docTimeout  time.Duration

	Start        time.Time               `json:"started_at"`
	End          time.Time               `json:"ended_at"`
	Duration     string                  `json:"duration"`
	NumErrors    int                     `json:"num_errors"`
	NumDocuments int                     `json:"num_documents"`
	ManifestOps  map[string][]ManifestOp `json:"ops"`
	Environment  RedactedEnvironment     `json:"environment"`
	Config       Config                  `json:"configuration"`
}

// NewAgent builds an Agent from the merged configuration. The redaction engine and
// any file-configured rules are resolved up front so that a bad config fails before
// a single document is touched.
func NewAgent(config Config, logger hclog.Logger) (*Agent, error) {
	a := Agent{
		l:           logger,
		results:     make(map[string]map[string]op.Op),
		ManifestOps: make(map[string][]ManifestOp),
		Config:      config,
	}

	if config.HCL.Agent != nil {
		redactions, err := hcl.MapRedacts(config.HCL.Agent.Redactions)
		if err != nil {
			return nil, err
		}
		a.Config.Redactions = append(a.Config.Redactions, redactions...)

		timeout, err := config.HCL.Agent.DocumentTimeout()
		if err != nil {
			return nil, err
		}
		if timeout < 0 {
			return nil, fmt.Errorf("timeout must be a nonnegative duration, timeout='%s'", timeout)
		}
		a.docTimeout = timeout
	}

	defaults, err := redact.Defaults()
	if err != nil {
		return nil, err
	}
	// Custom rules run before the defaults, and the defaults keep their order.
	rules := redact.Flatten(a.Config.Redactions, defaults)

	if err := a.setDetector(rules); err != nil {
		return nil, err
	}

	// The report's own metadata passes through the same rules as the documents.
	a.Environment = RedactedEnvironment{
		Command:  redact.NewRedactedString(config.Environment.Command, rules),
		Hostname: redact.NewRedactedString(config.Environment.Hostname, rules),
		Username: redact.NewRedactedString(config.Environment.Username, rules),
		Inputs:   redact.NewRedactedStringSlice(config.Inputs, rules),
	}

	return &a, nil
}

// setDetector resolves the engine for the run. An explicit Detector wins, then a
// configured remote service, then the local rule set.
func (a *Agent) setDetector(rules []*redact.Redact) error {
	if a.Config.Detector != nil {
		return nil
	}

	if 0 < len(a.Config.HCL.Detectors) {
		if 1 < len(a.Config.HCL.Detectors) {
			return fmt.Errorf("only one detector block is supported, found=%d", len(a.Config.HCL.Detectors))
		}
		cfg, err := a.Config.HCL.Detectors[0].ClientConfig()
		if err != nil {
			return err
		}
		remote, err := client.NewRemoteDetector(cfg)
		if err != nil {
			return err
		}
		a.remote = remote
		a.Config.Detector = remote
		return nil
	}

	a.Config.Detector = document.NewRuleDetector(rules)
	return nil
}

// Run manages the Agent's lifecycle. We check the destination, build document
// runners from the inputs, run them, write the results, and finally clean up after
// ourselves. We collect any errors up and return them to the caller, only returning
// early when the error means nothing further can succeed.
func (a *Agent) Run() []error {
	var errs []error

	a.Start = time.Now()

	if errDest := a.CheckDestination(); errDest != nil {
		errs = append(errs, errDest)
		a.l.Error("Failed destination preflight", "error", errDest)
		// End the run, no output can land anywhere.
		return errs
	}
	if errTemp := a.CreateTemp(); errTemp != nil {
		errs = append(errs, errTemp)
		a.l.Error("Failed to create temp directory", "error", errTemp)
		return errs
	}

	// If the remote detector healthcheck fails, we abort the run. We want to abort
	// here so users don't wait out a batch that cannot complete.
	if errCheck := a.CheckDetector(); errCheck != nil {
		errs = append(errs, errCheck)
		a.l.Error("Failed detector check", "error", errCheck)
		return errs
	}

	a.l.Debug("Building document runners")
	runners, errSetup := a.Setup()
	if errSetup != nil {
		errs = append(errs, errSetup)
		a.l.Error("Failed expanding inputs", "error", errSetup)
		return errs
	}

	// Filter the runners with the config file's patterns
	a.l.Debug("Applying exclude and select filters")
	runners, errFilter := a.Filter(runners)
	if errFilter != nil {
		errs = append(errs, errFilter)
		a.l.Error("Failed filtering document runners", "error", errFilter)
		return errs
	}

	// Store runners and metadata
	a.runners = runners
	a.NumDocuments = len(runners)

	a.l.Info("Redacting documents", "count", a.NumDocuments)
	if errRun := a.RunDocuments(); errRun != nil {
		errs = append(errs, errRun)
		a.l.Error("Failed running documents", "error", errRun)
	}

	// Execution finished, write our results and cleanup
	a.recordEnd()
	a.RecordManifest()

	if errWrite := a.WriteOutput(); errWrite != nil {
		errs = append(errs, errWrite)
		a.l.Error("Failed writing output", "error", errWrite)
	}
	if errCleanup := a.Cleanup(); errCleanup != nil {
		errs = append(errs, errCleanup)
		a.l.Error("Failed to cleanup after the run", "error", errCleanup)
	}
	return errs
}

func (a *Agent) recordEnd() {
	// Record the end timestamps so we can write it out.
	a.End = time.Now()
	a.Duration = fmt.Sprintf("%v seconds", a.End.Sub(a.Start).Seconds())
}

// CheckDestination ensures the output directory exists and has room to write into
// before any documents run.
func (a *Agent) CheckDestination() error {
	if a.Config.Dryrun {
		return nil
	}

	if err := os.MkdirAll(a.Config.Destination, 0755); err != nil {
		return fmt.Errorf("unable to create destination, dest=%s, error=%w", a.Config.Destination, err)
	}

	usage, err := disk.Usage(a.Config.Destination)
	if err != nil {
		// The free-space check is advisory. Not every platform reports usage for
		// every path, so a failure here never blocks the run.
		a.l.Debug("Unable to check destination free space", "dest", a.Config.Destination, "error", err)
		return nil
	}
	if usage.Free < minDiskFree {
		a.l.Warn("Destination is low on disk space", "dest", a.Config.Destination, "free_bytes", usage.Free)
	}
	return nil
}

// CheckDetector verifies that a configured remote detection service is reachable.
func (a *Agent) CheckDetector() error {
	if a.remote == nil || a.Config.Dryrun {
		return nil
	}
	a.l.Info("Checking detector availability")
	return a.remote.Check()
}

// CreateTemp creates a staging directory under the destination so archive runs can
// gather their output in one place before compressing the final artifact.
func (a *Agent) CreateTemp() error {
	if a.Config.Dryrun || !a.Config.Archive {
		return nil
	}

	var err error
	a.tmpDir, err = os.MkdirTemp(a.Config.Destination, "radact")
	if err != nil {
		a.l.Error("Error creating temp directory", "name", hclog.Fmt("%s", a.tmpDir), "message", err)
		return err
	}
	a.l.Debug("Created temp directory", "name", hclog.Fmt("%s", a.tmpDir))

	return nil
}

// Cleanup attempts to delete the staging directory once the bundle is written.
func (a *Agent) Cleanup() (err error) {
	if a.tmpDir == "" {
		return nil
	}

	a.l.Debug("Cleaning up temporary files")

	err = os.RemoveAll(a.tmpDir)
	if err != nil {
		a.l.Warn("Failed to clean up temp dir", "message", err)
	}
	return err
}

// Setup expands the configured inputs into document runners. An explicit file that
// cannot be redacted records a failed op rather than ending the run; unreadable
// directories collect into one returned error.
func (a *Agent) Setup() ([]*runner.Document, error) {
	var walkErrs *multierror.Error

	paths := make([]string, 0)
	for _, input := range a.Config.Inputs {
		input = filepath.Clean(input)

		info, err := os.Stat(input)
		if err != nil {
			a.recordFailure(input, err)
			continue
		}
		if !info.IsDir() {
			paths = append(paths, input)
			continue
		}

		found := make([]string, 0)
		for _, pattern := range []string{"*." + document.FormatDocx, "*." + document.FormatPDF} {
			matches, err := util.FilterWalk(input, pattern, time.Time{}, time.Time{})
			if err != nil {
				walkErrs = multierror.Append(walkErrs, err)
				continue
			}
			found = append(found, matches...)
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}

	runners := make([]*runner.Document, 0, len(paths))
	seen := make(map[string]bool)
	outputs := make(map[string]string)
	for _, path := range paths {
		if seen[path] {
			a.l.Debug("Skipping duplicate input", "path", path)
			continue
		}
		seen[path] = true

		// Output names are flattened into the destination, so two inputs with the
		// same base name would overwrite each other mid-run.
		out := document.OutputPath(a.stagingDir(), path)
		if prev, ok := outputs[out]; ok {
			a.recordFailure(path, fmt.Errorf("output path already taken by another input, output=%s, input=%s", out, prev))
			continue
		}

		d, err := a.newRunner(path)
		if err != nil {
			a.recordFailure(path, err)
			continue
		}
		outputs[out] = path
		runners = append(runners, d)
	}

	return runners, walkErrs.ErrorOrNil()
}

func (a *Agent) newRunner(path string) (*runner.Document, error) {
	return runner.NewDocument(runner.DocumentConfig{
		Path:     path,
		Dest:     a.stagingDir(),
		Detector: a.Config.Detector,
		Timeout:  a.docTimeout,
	})
}

// Filter applies the config file's select and exclude patterns to the runner set.
func (a *Agent) Filter(docs []*runner.Document) ([]*runner.Document, error) {
	agentBlock := a.Config.HCL.Agent
	if agentBlock == nil {
		return docs, nil
	}

	runners := make([]runner.Runner, len(docs))
	for i, d := range docs {
		runners[i] = d
	}

	var err error
	// The presence of Selects takes precedence over Excludes
	if 0 < len(agentBlock.Selects) {
		runners, err = runner.Select(agentBlock.Selects, runners)
	} else if 0 < len(agentBlock.Excludes) {
		runners, err = runner.Exclude(agentBlock.Excludes, runners)
	}
	if err != nil {
		return nil, err
	}

	filtered := make([]*runner.Document, len(runners))
	for i, r := range runners {
		filtered[i] = r.(*runner.Document)
	}
	return filtered, nil
}

// RunDocuments executes every document runner for this run, concurrently unless
// -serial is enabled, and gathers the resulting ops grouped by format.
func (a *Agent) RunDocuments() error {
	wg := sync.WaitGroup{}
	wg.Add(len(a.runners))

	f := func(wg *sync.WaitGroup, d *runner.Document) {
		defer wg.Done()

		if a.Config.Dryrun {
			a.l.Info("Would redact", "document", d.ID())
			return
		}

		a.l.Info("Redacting", "document", d.ID())
		a.record(d.Format, d.Run())
	}

	for _, d := range a.runners {
		// Run synchronously if -serial is enabled
		if a.Config.Serial {
			f(&wg, d)
			continue
		}
		// Run concurrently by default
		go f(&wg, d)
	}

	// Wait until every document is finished
	wg.Wait()

	total := a.numOps()
	if 0 < total && a.numFailed() == total {
		return errors.New("no documents could be redacted")
	}
	return nil
}

// record stores an op under its format group and tracks failures.
func (a *Agent) record(format string, o op.Op) {
	a.resultsLock.Lock()
	defer a.resultsLock.Unlock()

	if a.results[format] == nil {
		a.results[format] = make(map[string]op.Op)
	}
	a.results[format][o.Identifier] = o

	switch o.Status {
	case op.Success:
		a.l.Debug("Redacted", "document", o.Identifier, "findings", o.Result["findings"])
	case op.Fallback:
		a.l.Warn("Fell back to plain text", "document", o.Identifier, "error", o.ErrString)
	default:
		a.NumErrors++
		a.l.Warn("result", "document", o.Identifier, "status", o.Status, "error", o.ErrString)
	}
}

// recordFailure stores a failed op for an input that never became a runner, so it
// still shows up in the results and manifest.
func (a *Agent) recordFailure(path string, err error) {
	now := time.Now()
	a.record(formatKey(path), op.New(path, nil, op.Fail, err, nil, now, now))
}

// formatKey groups results by extension, matching runner.Document.Format for
// supported files.
func formatKey(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

func (a *Agent) numOps() int {
	var n int
	for _, ops := range a.results {
		n += len(ops)
	}
	return n
}

// numFailed counts ops that did not deliver a redacted artifact.
func (a *Agent) numFailed() int {
	var n int
	for _, ops := range a.results {
		for _, o := range ops {
			switch o.Status {
			case op.Success, op.Fallback, op.Skip:
			default:
				n++
			}
		}
	}
	return n
}

// RecordManifest walks the result groups into result-free manifest entries.
func (a *Agent) RecordManifest() {
	for format, ops := range a.results {
		a.ManifestOps[format] = WalkResultsForManifest(ops)
	}
}

// WriteOutput renders the results and manifest of the run and, for archive runs,
// compresses everything into the destination bundle.
func (a *Agent) WriteOutput() (err error) {
	if a.Config.Dryrun {
		return nil
	}

	dir := a.stagingDir()

	// Write out results
	rFile := filepath.Join(dir, "results.json")
	err = util.WriteJSON(a.results, rFile)
	if err != nil {
		a.l.Error("util.WriteJSON", "error", err)
		return err
	}
	a.l.Info("Created results file", "dest", rFile)

	// Write out manifest
	mFile := filepath.Join(dir, "manifest.json")
	err = util.WriteJSON(a, mFile)
	if err != nil {
		a.l.Error("util.WriteJSON", "error", err)
		return err
	}
	a.l.Info("Created manifest file", "dest", mFile)

	if !a.Config.Archive {
		a.resultsDest = a.Config.Destination
		return nil
	}

	// Archive and compress outputs
	bundle := filepath.Join(a.Config.Destination, DestinationFileName())
	baseName := strings.TrimSuffix(filepath.Base(bundle), ".tar.gz")
	err = util.TarGz(a.tmpDir, bundle, baseName)
	if err != nil {
		a.l.Error("util.TarGz", "error", err)
		return err
	}
	a.l.Info("Compressed and archived output file", "dest", bundle)
	a.resultsDest = bundle

	return nil
}

// ResultsDest reports where the run's output landed.
func (a *Agent) ResultsDest() string {
	return a.resultsDest
}

// TempDir returns the path of the staging directory for this run, if one exists.
func (a *Agent) TempDir() string {
	return a.tmpDir
}

// stagingDir is where runners and reports write: the temp dir on archive runs,
// otherwise the destination itself.
func (a *Agent) stagingDir() string {
	if a.tmpDir != "" {
		return a.tmpDir
	}
	return a.Config.Destination
}

// DestinationFileName appends an ISO 8601-formatted timestamp to the bundle name.
func DestinationFileName() string {
	timestamp := time.Now().Format(time.RFC3339)
	return fmt.Sprintf("radact-%s.tar.gz", timestamp)
}
