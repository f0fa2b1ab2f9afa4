// Copyright (c) 2024 The esmcat Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// This package ensures that the files named by a set of query results are
// available locally, staging them into the data cache as needed.
//
// A file's presence in the cache is decided by a plain existence check, so
// concurrent Materialize calls against the same cache directory race; callers
// needing concurrent safety must serialize externally.
package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"
	"github.com/google/uuid"

	"github.com/esmdata/esmcat/config"
	"github.com/esmdata/esmcat/journal"
	"github.com/esmdata/esmcat/queries"
)

// Ensures that the files in the given query results are available locally,
// returning the results with each row's path rewritten to a local one.
//
// Rows naming copies of the same file are deduplicated first (a copy that is
// directly accessible wins). A row that is directly accessible keeps its path
// unchanged; any other row has its path rewritten to the data cache, and the
// file is staged there by the transfer handler registered for the row's
// resource type -- unless it is already cached, in which case no transfer
// occurs. Each handler is invoked once with its full batch of pending files;
// a handler failure aborts the call.
func Materialize(results queries.Results) (queries.Results, error) {
	results = filterQueryResults(results)

	cacheDir, err := config.ExpandUser(config.Storage.DataCacheDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}

	// classify every row, accumulating pending transfers per resource type
	pending := make(map[string][]FileTransfer)
	localPaths := make([]string, len(results))
	for i, row := range results {
		if row.DirectAccess {
			localPaths[i] = row.Path
			continue
		}

		localFile := filepath.Join(cacheDir, row.Basename())
		localPaths[i] = localFile
		if _, err := os.Stat(localFile); err == nil {
			continue // already cached
		}

		if _, found := allHandlers[row.ResourceType]; !found {
			return nil, &UnknownResourceTypeError{ResourceType: row.ResourceType}
		}
		pending[row.ResourceType] = append(pending[row.ResourceType], FileTransfer{
			RemotePath: row.Path,
			LocalPath:  localFile,
		})
	}

	// flush each resource type's batch with a single handler call
	resourceTypes := make([]string, 0, len(pending))
	for resourceType := range pending {
		resourceTypes = append(resourceTypes, resourceType)
	}
	sort.Strings(resourceTypes)
	for _, resourceType := range resourceTypes {
		batch := pending[resourceType]
		slog.Info(fmt.Sprintf("Transferring %d file(s)", len(batch)),
			"resource_type", resourceType)
		startTime := time.Now()
		err := allHandlers[resourceType](batch)
		recordStaging(resourceType, batch, startTime, err)
		if err != nil {
			return nil, err
		}
	}

	// rewrite the paths in the surviving rows
	for i := range results {
		results[i].Path = localPaths[i]
	}
	return results, nil
}

// Filters the results so that rows naming copies of the same file (by
// basename) collapse to the directly accessible copies; a group with no
// directly accessible copy is kept whole.
func filterQueryResults(results queries.Results) queries.Results {
	groups := results.GroupByBasename()

	filtered := make([]queries.Results, 0, len(groups))
	for _, group := range groups {
		g := group.Filter(func(row queries.Row) bool { return row.DirectAccess })
		// file does not exist on a resource with high priority
		if len(g) == 0 {
			filtered = append(filtered, group)
		} else {
			filtered = append(filtered, g)
		}
	}
	return queries.Concat(filtered)
}

// Logs a flushed staging batch to the journal, when the journal is open.
// Journal trouble is reported but never aborts staging.
func recordStaging(resourceType string, batch []FileTransfer, startTime time.Time, batchErr error) {
	if !journal.IsOpen() {
		return
	}

	record := journal.Record{
		Id:           uuid.New(),
		ResourceType: resourceType,
		StartTime:    startTime.UTC(),
		StopTime:     time.Now().UTC(),
		Status:       "succeeded",
		NumFiles:     len(batch),
	}
	if batchErr != nil {
		record.Status = "failed"
	} else {
		for _, transfer := range batch {
			if info, err := os.Stat(transfer.LocalPath); err == nil {
				record.PayloadSize += info.Size()
			}
		}
		record.Manifest = stagingManifest(batch)
	}

	if err := journal.RecordStaging(record); err != nil {
		slog.Error(err.Error())
	}
}

// builds a Frictionless data package describing the staged files
func stagingManifest(batch []FileTransfer) *datapackage.Package {
	resources := make([]any, 0, len(batch))
	for _, transfer := range batch {
		resource := map[string]any{
			"name": resourceName(filepath.Base(transfer.LocalPath)),
			"path": filepath.Base(transfer.LocalPath),
		}
		if info, err := os.Stat(transfer.LocalPath); err == nil {
			resource["bytes"] = info.Size()
		}
		resources = append(resources, resource)
	}
	descriptor := map[string]any{
		"name":      "staging-manifest",
		"resources": resources,
		"created":   time.Now().Format(time.RFC3339),
		"profile":   "data-package",
		"keywords":  []any{"esmcat", "staging"},
	}

	manifest, err := datapackage.New(descriptor, ".", validator.InMemoryLoader())
	if err != nil {
		slog.Error(err.Error())
		return nil
	}
	return manifest
}

// mangles a filename into a valid Frictionless resource name (lowercase
// alphanumerics plus ".", "-", "_")
func resourceName(filename string) string {
	name := strings.ToLower(filename)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
