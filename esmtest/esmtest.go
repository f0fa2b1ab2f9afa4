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

// This package contains testing utilities for esmcat.
package esmtest

import (
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
)

// Enables DEBUG log messages for esmcat's structured log (slog).
func EnableDebugLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelDebug)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

//-----------------------------
// Fake Collection Repository
//-----------------------------

// This type serves collection definition files the way a git hosting site
// serves a repository's raw tree, and counts the requests made for each file
// so tests can verify which fetches actually occur.
type RepositoryServer struct {
	*httptest.Server

	branch, subpath string

	mutex    sync.Mutex
	files    map[string]string // raw tree path -> content
	requests map[string]int    // raw tree path -> number of GETs
}

// Creates and starts a fake repository server for the given branch and
// subfolder. Call Close on the result when the test is done with it.
func NewRepositoryServer(branch, subpath string) *RepositoryServer {
	server := &RepositoryServer{
		branch:   branch,
		subpath:  subpath,
		files:    make(map[string]string),
		requests: make(map[string]int),
	}
	server.Server = httptest.NewServer(http.HandlerFunc(server.serve))
	return server
}

// Adds a collection definition with the given file stem to the repository,
// alongside an .md5 sibling holding its checksum.
func (s *RepositoryServer) AddCollection(stem, definition string) {
	sum := md5.Sum([]byte(definition))
	s.SetFile(stem+".yml", definition)
	s.SetFile(stem+".md5", hex.EncodeToString(sum[:]))
}

// Adds or replaces a single file in the repository's raw tree.
func (s *RepositoryServer) SetFile(filename, content string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.files[s.rawPath(filename)] = content
}

// Reports the number of GET requests made for the named file.
func (s *RepositoryServer) RequestCount(filename string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.requests[s.rawPath(filename)]
}

// constructs the raw tree path for the named file
func (s *RepositoryServer) rawPath(filename string) string {
	segments := []string{"", "raw", s.branch}
	if s.subpath != "" {
		segments = append(segments, s.subpath)
	}
	segments = append(segments, filename)
	return strings.Join(segments, "/")
}

func (s *RepositoryServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	s.requests[r.URL.Path]++
	content, found := s.files[r.URL.Path]
	s.mutex.Unlock()

	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Write([]byte(content))
}
