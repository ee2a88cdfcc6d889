// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package util holds small helpers shared across the agent and client.
package util

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
)

// TarGz accepts a source directory and destination file name to archive and compress files.
// Entries are rooted under baseName so the bundle extracts into a single directory.
func TarGz(sourceDir string, destFileName string, baseName string) error {
	destFile, err := os.Create(destFileName)
	if err != nil {
		hclog.L().Error("TarGz", "error creating tarball", err)
		return err
	}
	defer destFile.Close()

	gzWriter := gzip.NewWriter(destFile)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	err = filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		sourceFile, err := os.Open(path)
		if err != nil {
			hclog.L().Error("TarGz", "error opening source file", err)
			return err
		}
		defer sourceFile.Close()

		stat, err := sourceFile.Stat()
		if err != nil {
			hclog.L().Error("TarGz", "error checking source file", err)
			return err
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}

		header := &tar.Header{
			Name:    filepath.ToSlash(filepath.Join(baseName, rel)),
			Size:    stat.Size(),
			Mode:    int64(stat.Mode()),
			ModTime: stat.ModTime(),
		}

		if err := tarWriter.WriteHeader(header); err != nil {
			hclog.L().Error("TarGz", "error writing header for tar", err)
			return err
		}

		if _, err := io.Copy(tarWriter, sourceFile); err != nil {
			hclog.L().Error("TarGz", "error copying file to tarball", err)
			return err
		}
		return nil
	})
	if err != nil {
		hclog.L().Error("TarGz", "error walking source directory", err)
		return err
	}

	return nil
}

// WriteJSON converts an any to JSON then writes to filePath.
func WriteJSON(iface any, filePath string) error {
	jsonBts, err := InterfaceToJSON(iface)
	if err != nil {
		return err
	}
	err = JSONToFile(jsonBts, filePath)
	if err != nil {
		return err
	}
	return nil
}

// InterfaceToJSON converts an any to JSON.
func InterfaceToJSON(mapVar any) ([]byte, error) {
	InfoJSON, err := json.MarshalIndent(mapVar, "", "    ")
	if err != nil {
		hclog.L().Error("InterfaceToJSON", "message", err)
		return InfoJSON, err
	}

	return InfoJSON, err
}

// JSONToFile accepts JSON and an output file path to create a JSON file.
func JSONToFile(JSON []byte, outFile string) error {
	err := os.WriteFile(outFile, JSON, 0644)
	if err != nil {
		hclog.L().Error("JSONToFile", "error during json to file", err)
	}

	return err
}

func isInRange(path string, from, to time.Time) (bool, error) {
	// Default true if no range provided
	if from.IsZero() {
		return true, nil
	}

	// When we only get a `from` value, the `to` is now
	if to.IsZero() {
		to = time.Now()
	}

	// Grab our file's last modified time
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	mod := info.ModTime()

	if mod.Before(from) || mod.After(to) {
		return false, nil
	}

	return true, nil
}

// FilterWalk accepts a source directory, filter string, and from and to Times to return a list of matching files.
func FilterWalk(srcDir, filter string, from, to time.Time) ([]string, error) {
	var fileMatches []string

	// Filter the files
	err := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		// Check for files that match the filter then check for time matches
		match, err := filepath.Match(filter, filepath.Base(path))
		if match && err == nil {
			inRange, err := isInRange(path, from, to)
			if err != nil {
				return err
			}
			if inRange {
				fileMatches = append(fileMatches, path)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return fileMatches, nil
}

// FindInInterface treats an any like a (nested) map,
// and searches through its contents for a given list of mapKeys.
// For example, given an any containing a map like
// iface ~ any{"top": {"mid": {"bottom": "desired_value"}}}
// one could fetch an any of "desired_value" with
// FindInInterface(iface, "top", "mid", "bottom")
// then afterwards cast it to a string, or whatever type you're expecting.
func FindInInterface(iface any, mapKeys ...string) (any, error) {
	var (
		mapped map[string]any
		ok     bool
		val    any
	)
	mapped, ok = iface.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unable to cast to map[string]any; iface: %#v", iface)
	}
	for _, k := range mapKeys {
		val, ok = mapped[k]
		if !ok {
			return nil, fmt.Errorf("key '%s' not found in mapped iface: %#v", k, mapped)
		}
		mapped, ok = val.(map[string]any)
		if !ok {
			// cannot map-ify any further, so assume this is what they're looking for
			return val, nil
		}
	}
	return mapped, nil
}
