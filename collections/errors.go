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

package collections

import (
	"fmt"
)

// indicates that Resolve was called without a collection name (use
// ListAvailable to enumerate the supported collections)
type EmptyNameError struct {
}

func (e EmptyNameError) Error() string {
	return "No collection name was given (ListAvailable reports the supported collections)"
}

// this error type is returned when a file cannot be retrieved from the
// remote repository
type FetchError struct {
	URL, Message string
}

func (e FetchError) Error() string {
	return fmt.Sprintf("Couldn't retrieve '%s': %s", e.URL, e.Message)
}

// this error type is returned when a definition file is not valid YAML
type ParseError struct {
	File, Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("Couldn't parse collection definition '%s': %s", e.File, e.Message)
}

// indicates that the locally cached checksum for a collection definition
// disagrees with the one in the remote repository; the local copy has been
// purged, so the caller can retry with a clean slate
type ChecksumMismatchError struct {
	Name, Local, Remote string
}

func (e ChecksumMismatchError) Error() string {
	return fmt.Sprintf("The local .md5 file for '%s' (%s) conflicts with the one in the "+
		"remote repository (%s). The local copy has been removed to resolve the issue; "+
		"try downloading the file again.", e.Name, e.Local, e.Remote)
}

// this error type is emitted if the repository redirects an HTTPS request to
// an HTTP endpoint
type DowngradedRedirectError struct {
	Endpoint string
}

func (e DowngradedRedirectError) Error() string {
	return fmt.Sprintf("The endpoint %s is attempting to downgrade an HTTPS request to HTTP",
		e.Endpoint)
}
