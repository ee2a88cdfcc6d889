// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

package agent

import (
	"sort"

	"github.com/ShahanurSharif/radact/op"
)

// ManifestOp provides a subset of op state, specifically excluding results, so we can safely render metadata
// about a run without exposing document contents in manifest.json
type ManifestOp struct {
	ID     string    `json:"op"`
	Error  string    `json:"error"`
	Status op.Status `json:"status"`
}

// WalkResultsForManifest flattens a result map into manifest entries, descending
// into any ops that grouped runners nest inside their results. Entries are sorted
// by ID at each level so the manifest is stable between runs.
func WalkResultsForManifest(ops map[string]op.Op) []ManifestOp {
	manifestOps := make([]ManifestOp, 0)
	for _, id := range sortedKeys(ops) {
		manifestOps = append(manifestOps, walkOp(id, ops[id])...)
	}
	return manifestOps
}

func walkOp(id string, o op.Op) []ManifestOp {
	entries := []ManifestOp{{
		ID:     id,
		Error:  o.ErrString,
		Status: o.Status,
	}}
	nested := make(map[string]op.Op)
	for childID, res := range o.Result {
		if child, ok := res.(op.Op); ok {
			nested[childID] = child
		}
	}
	for _, childID := range sortedKeys(nested) {
		entries = append(entries, walkOp(childID, nested[childID])...)
	}
	return entries
}

func sortedKeys(ops map[string]op.Op) []string {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
