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

// This package resolves named collection-input definitions from a remote
// repository, caching them locally with checksum verification.
package collections

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/esmdata/esmcat/config"
)

// A parsed collection definition. Its identity is the stem of its definition
// file; the structure of its contents is up to the collection's maintainers.
type Definition map[string]any

// an alias for a supported collection definition, with a human-readable
// description of its data holdings
type CollectionInfo struct {
	Alias       string `json:"alias"`
	Description string `json:"description"`
}

// options accepted by Resolve -- zero-valued fields assume defaults from the
// configuration at call time
type ResolveOptions struct {
	// if true, the locally cached definition file is deleted after parsing
	NoCache bool
	// the directory in which to search for and cache downloaded files
	// (default: config.Storage.DatabaseDir)
	CacheDir string
	// base URL of the repository holding definition files
	// (default: config.Repository.URL)
	RepositoryURL string
	// the git branch to download from (default: config.Repository.Branch)
	Branch string
	// subfolder within the repository where definition files are stored
	// (default: config.Repository.Subpath; "-" requests no subfolder)
	Subpath string
}

// Reports the collection definitions that are supported out of the box, in a
// fixed order. Read-only: nothing is downloaded.
func ListAvailable() []CollectionInfo {
	available := make([]CollectionInfo, 0, len(orderedAliases))
	for _, alias := range orderedAliases {
		available = append(available, CollectionInfo{
			Alias:       alias,
			Description: fileDescriptions[alias],
		})
	}
	return available
}

// Loads the collection definition with the given name (an alias or a
// definition file stem, with or without a .yml extension) from the local
// cache, downloading and checksum-verifying it first if necessary. The remote
// checksum is always fetched live, so a stale local copy is detected even on
// a cache hit; on a mismatch the local copy is purged and a
// ChecksumMismatchError is returned, and the caller may simply retry.
func Resolve(name string, opts ResolveOptions) (Definition, error) {
	if name == "" {
		return nil, &EmptyNameError{}
	}

	// strip any extension and substitute aliased names
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if trueStem, found := fileAliases[stem]; found {
		stem = trueStem
	}

	opts = withDefaults(opts)
	cacheDir, err := config.ExpandUser(opts.CacheDir)
	if err != nil {
		return nil, err
	}
	localFile := filepath.Join(cacheDir, stem+".yml")
	md5File := filepath.Join(cacheDir, stem+".md5")

	fileUrl := remoteUrl(opts, stem+".yml")
	md5Url := remoteUrl(opts, stem+".md5")

	// fetch-if-missing: a stale local file is only caught by the checksum
	// comparison below
	client := secureHttpClient()
	if _, err := os.Stat(localFile); err != nil {
		if err = os.MkdirAll(cacheDir, 0755); err != nil {
			return nil, err
		}
		if err = fetchFile(client, fileUrl, localFile); err != nil {
			return nil, err
		}
		if err = fetchFile(client, md5Url, md5File); err != nil {
			return nil, err
		}
	}

	localMd5, err := os.ReadFile(md5File)
	if err != nil {
		return nil, err
	}
	remoteMd5, err := fetchBytes(client, md5Url)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(localMd5, remoteMd5) {
		os.Remove(localFile)
		os.Remove(md5File)
		return nil, &ChecksumMismatchError{
			Name:   stem,
			Local:  strings.TrimSpace(string(localMd5)),
			Remote: strings.TrimSpace(string(remoteMd5)),
		}
	}

	data, err := os.ReadFile(localFile)
	if err != nil {
		return nil, err
	}
	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, &ParseError{File: localFile, Message: err.Error()}
	}

	if opts.NoCache {
		// NOTE: the checksum sibling is left behind, matching the behavior of
		// NCAR's original loader
		os.Remove(localFile)
	}

	return definition, nil
}

// fills in unset options from the configuration
func withDefaults(opts ResolveOptions) ResolveOptions {
	if opts.CacheDir == "" {
		opts.CacheDir = config.Storage.DatabaseDir
	}
	if opts.RepositoryURL == "" {
		opts.RepositoryURL = config.Repository.URL
	}
	if opts.Branch == "" {
		opts.Branch = config.Repository.Branch
	}
	if opts.Subpath == "" {
		opts.Subpath = config.Repository.Subpath
	} else if opts.Subpath == "-" {
		opts.Subpath = ""
	}
	return opts
}

// constructs the URL for the named file within the repository's raw tree
func remoteUrl(opts ResolveOptions, filename string) string {
	segments := []string{opts.RepositoryURL, "raw", opts.Branch}
	if opts.Subpath != "" {
		segments = append(segments, opts.Subpath)
	}
	segments = append(segments, filename)
	return strings.Join(segments, "/")
}
