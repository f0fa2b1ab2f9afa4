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

// This package defines the row-oriented result sets produced by catalog
// queries, with the handful of relational operations the stager needs.
package queries

import (
	"path/filepath"
)

// A single file entry in the results of a catalog query.
type Row struct {
	// path to the file on the resource that holds it
	Path string `json:"path"`
	// true if the file is reachable without staging
	DirectAccess bool `json:"direct_access"`
	// tag selecting the transfer handler that stages the file (unused for
	// direct-access rows)
	ResourceType string `json:"resource_type"`
}

// the basename of the row's file, used to identify copies of the same file
// on different resources
func (r Row) Basename() string {
	return filepath.Base(r.Path)
}

// An ordered set of query result rows.
type Results []Row

// Partitions the results by file basename, returning the groups in the order
// in which their basenames first appear.
func (r Results) GroupByBasename() []Results {
	groups := make([]Results, 0)
	indexOf := make(map[string]int)
	for _, row := range r {
		basename := row.Basename()
		i, found := indexOf[basename]
		if !found {
			i = len(groups)
			indexOf[basename] = i
			groups = append(groups, Results{})
		}
		groups[i] = append(groups[i], row)
	}
	return groups
}

// Returns the rows satisfying the given predicate, in order.
func (r Results) Filter(pred func(Row) bool) Results {
	filtered := make(Results, 0, len(r))
	for _, row := range r {
		if pred(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// Concatenates groups of rows back into a single result set.
func Concat(groups []Results) Results {
	results := make(Results, 0)
	for _, group := range groups {
		results = append(results, group...)
	}
	return results
}
