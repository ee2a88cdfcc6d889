// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/ShahanurSharif/radact/agent"
	"github.com/ShahanurSharif/radact/hcl"
	"github.com/ShahanurSharif/radact/op"
)

var _ cli.Command = &RunCommand{}

type RunCommand struct {
	ui    cli.Ui
	flags *flag.FlagSet

	// setFlags names the flags the user passed, so file-configured values only fill
	// in where the command line stayed silent.
	setFlags map[string]bool

	// inputs are the files and directories to redact
	inputs []string

	// Output write location
	destination string

	// HCL file location
	config string

	serial  bool
	dryrun  bool
	archive bool
}

func (c *RunCommand) init() {
	const (
		inputUsageText       = "Files or directories to redact, comma-separated and repeatable. Directories are searched for supported documents. Bare arguments after the options are treated as additional inputs."
		destinationUsageText = "Path to the directory redacted output should be written in"
		destUsageText        = "Shorthand for -destination"
		configUsageText      = "Path to HCL configuration file"
		serialUsageText      = "Redact documents sequentially rather than concurrently"
		dryrunUsageText      = "Displays all documents that would be redacted during a normal run without actually redacting them."
		archiveUsageText     = "Bundle the run's output into a single tar.gz archive in the destination"
	)

	// flag.ContinueOnError allows flag.Parse to return an error if one comes up, rather than doing an `os.Exit(2)`
	// on its own.
	c.flags = flag.NewFlagSet("run", flag.ContinueOnError)

	c.flags.Var(&CSVFlag{&c.inputs}, "input", inputUsageText)
	c.flags.BoolVar(&c.serial, "serial", false, serialUsageText)
	c.flags.BoolVar(&c.dryrun, "dryrun", false, dryrunUsageText)
	c.flags.BoolVar(&c.archive, "archive", false, archiveUsageText)
	c.flags.StringVar(&c.destination, "destination", ".", destinationUsageText)
	c.flags.StringVar(&c.destination, "dest", ".", destUsageText)
	c.flags.StringVar(&c.config, "config", "", configUsageText)

	// When invalid flags are provided, Go will output a usage message of its own. If we direct our flag set to
	// io.Discard, it will effectively be hidden, allowing us to print our own Help message upon failure.
	c.flags.SetOutput(io.Discard)
}

// NewRunCommand produces a new *command pointer, initialized for use in a CLI application.
func NewRunCommand(ui cli.Ui) *RunCommand {
	c := &RunCommand{ui: ui}
	c.init()
	return c
}

// RunCommandFactory provides a cli.CommandFactory that will produce an appropriately-initiated *command.
func RunCommandFactory(ui cli.Ui) cli.CommandFactory {
	return func() (cli.Command, error) {
		return NewRunCommand(ui), nil
	}
}

// Help provides help text to users who pass in the --help flag or who enter invalid options.
func (c *RunCommand) Help() string {
	helpText := `Usage: radact run [options] [file ...]

Redacts the given documents into the destination directory. Options are available to customize the execution.
`

	return Usage(helpText, c.flags)
}

// Synopsis provides a brief description of the command, for inclusion in the application's primary --help.
func (c *RunCommand) Synopsis() string {
	return "Redact documents into a destination directory"
}

// Run executes the command.
func (c *RunCommand) Run(args []string) int {
	if err := c.parseFlags(args); err != nil {
		// Output the specific error to help the user understand what went wrong.
		c.ui.Warn(err.Error())
		// Since there was an issue in input, let's show our Help to try and assist the user.
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	l := configureLogging("radact")

	// Build agent configuration from flags and HCL
	var config agent.Config
	// Parse and store HCL struct on agent.
	if c.config != "" {
		hclCfg, err := hcl.Parse(c.config)
		if err != nil {
			l.Error("Failed to load configuration", "config", c.config, "error", err)
			return ConfigError
		}
		l.Debug("HCL config is", "hcl", hclCfg)
		config.HCL = hclCfg
	}
	// Assign flag values to our agent.Config
	cfg := c.mergeAgentConfig(config)
	l.Debug("merged cfg", "cfg", fmt.Sprintf("%+v", cfg))

	if len(cfg.Inputs) == 0 {
		c.ui.Warn("No inputs provided")
		c.ui.Warn(c.Help())
		return FlagParseError
	}

	environment := agent.Environment{
		Command: strings.Join(os.Args, " "),
	}

	hostname, err := os.Hostname()
	if err == nil {
		environment.Hostname = hostname
	}

	u, err := user.Current()
	if err == nil {
		environment.Username = u.Username
	}
	cfg.Environment = environment

	// Create agent
	a, err := agent.NewAgent(cfg, l)
	if err != nil {
		l.Error("problem creating agent", "error", err)
		return AgentSetupError
	}

	// Run the agent
	errs := a.Run()
	if 0 < len(errs) {
		return AgentExecutionError
	}

	// Skip any post-processing/reporting on dry runs because there are no results to handle
	if c.dryrun {
		return Success
	}

	if err = writeSummary(os.Stdout, a.ResultsDest(), a.ManifestOps); err != nil {
		l.Warn("failed to generate report summary; please review output files to ensure everything expected is present", "err", err)
		return RunError
	}

	return Success
}

// configureLogging takes a logger name, sets the default configuration, grabs the LOG_LEVEL from our ENV vars, and
// returns a configured and usable logger.
func configureLogging(loggerName string) hclog.Logger {
	// Create logger, set default and log level
	appLogger := hclog.New(&hclog.LoggerOptions{
		Name:  loggerName,
		Color: hclog.AutoColor,
	})
	hclog.SetDefault(appLogger)
	if logStr := os.Getenv("LOG_LEVEL"); logStr != "" {
		if level := hclog.LevelFromString(logStr); level != hclog.NoLevel {
			appLogger.SetLevel(level)
			appLogger.Debug("Logger configuration change", "LOG_LEVEL", hclog.Fmt("%s", logStr))
		}
	}
	return hclog.Default()
}

type CSVFlag struct {
	Values *[]string
}

func (s CSVFlag) String() string {
	if s.Values == nil {
		return ""
	}
	return strings.Join(*s.Values, ",")
}

func (s CSVFlag) Set(v string) error {
	*s.Values = append(*s.Values, strings.Split(v, ",")...)
	return nil
}

func (c *RunCommand) parseFlags(args []string) error {
	if err := c.flags.Parse(args); err != nil {
		return err
	}
	c.setFlags = make(map[string]bool)
	c.flags.Visit(func(f *flag.Flag) {
		c.setFlags[f.Name] = true
	})
	// Bare arguments after the options are additional inputs.
	c.inputs = append(c.inputs, c.flags.Args()...)
	return nil
}

func (c *RunCommand) flagPassed(name string) bool {
	return c.setFlags[name]
}

// mergeAgentConfig merges flags into the agent.Config, prioritizing explicit flags over HCL config.
func (c *RunCommand) mergeAgentConfig(config agent.Config) agent.Config {
	config.Inputs = c.inputs
	config.Dryrun = c.dryrun

	config.Destination = c.destination
	config.Serial = c.serial
	config.Archive = c.archive

	// The config file fills in wherever the command line stayed at its defaults.
	if hclAgent := config.HCL.Agent; hclAgent != nil {
		if hclAgent.Destination != "" && !c.flagPassed("dest") && !c.flagPassed("destination") {
			config.Destination = hclAgent.Destination
		}
		if hclAgent.Serial && !c.flagPassed("serial") {
			config.Serial = true
		}
		if hclAgent.Archive && !c.flagPassed("archive") {
			config.Archive = true
		}
	}

	config.Destination = filepath.Clean(config.Destination)

	return config
}

func writeSummary(writer io.Writer, resultsDest string, manifestOps map[string][]agent.ManifestOp) error {
	if resultsDest == "" {
		resultsDest = "<unknown>"
	}
	helpText := fmt.Sprintf("The redaction run has completed. The output can be found at %s.\n", resultsDest)
	_, err := writer.Write([]byte(helpText))
	if err != nil {
		return err
	}

	t := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	headers := []string{
		"format",
		string(op.Success),
		string(op.Fallback),
		string(op.Fail),
		string(op.Skip),
		string(op.Canceled),
		string(op.Timeout),
		string(op.Unknown),
		"total",
	}

	_, err = fmt.Fprint(t, formatReportLine(headers...))
	if err != nil {
		return err
	}

	// For deterministic output, we sort the formats in alphabetical order. Otherwise, ranging over the map
	// manifestOps directly, we wouldn't know for certain which order the keys - and therefore the rows - would be in.
	var formats []string
	for k := range manifestOps {
		formats = append(formats, k)
	}
	sort.Strings(formats)

	for _, format := range formats {
		var success, fallback, fail, skip, canceled, timeout, unknown int
		ops := manifestOps[format]

		for _, o := range ops {
			switch o.Status {
			case op.Success:
				success++
			case op.Fallback:
				fallback++
			case op.Fail:
				fail++
			case op.Skip:
				skip++
			case op.Canceled:
				canceled++
			case op.Timeout:
				timeout++
			default:
				unknown++
			}
		}

		_, err := fmt.Fprint(t, formatReportLine(
			format,
			strconv.Itoa(success),
			strconv.Itoa(fallback),
			strconv.Itoa(fail),
			strconv.Itoa(skip),
			strconv.Itoa(canceled),
			strconv.Itoa(timeout),
			strconv.Itoa(unknown),
			strconv.Itoa(len(ops))))
		if err != nil {
			return err
		}
	}

	err = t.Flush()
	if err != nil {
		return err
	}
	return nil
}

func formatReportLine(cells ...string) string {
	format := ""

	// The coercion from the argument of type []string to type []interface is required for the later
	// call to fmt.Sprintf, in which variadic arguments must be of type any/interface{}.
	strValues := make([]interface{}, len(cells))
	for i, cell := range cells {
		format += "%s\t"
		strValues[i] = cell
	}

	format += "\n"

	return fmt.Sprintf(format, strValues...)
}
