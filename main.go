// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// radact removes sensitive information from documents, writing redacted copies
// alongside a machine-readable report of what was found.
package main

import (
	"log"
	"os"

	"github.com/mitchellh/cli"

	"github.com/ShahanurSharif/radact/command"
	"github.com/ShahanurSharif/radact/version"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := cli.NewCLI("radact", version.GetVersion().SemanticVersion())
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"run":     command.RunCommandFactory(ui),
		"version": command.VersionCommandFactory(ui),
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	return exitStatus
}
