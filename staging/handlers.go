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

package staging

// a single file to be staged: where it lives on its storage resource, and
// where it lands in the local data cache
type FileTransfer struct {
	RemotePath, LocalPath string
}

// a transfer handler stages a batch of files from a storage resource into the
// local data cache; a handler is invoked at most once per Materialize call,
// with every pending file for its resource type
type TransferFn func(transfers []FileTransfer) error

// we maintain a table of transfer handlers, identified by resource type
var allHandlers map[string]TransferFn = make(map[string]TransferFn)

// registers a transfer handler for the given resource type, or returns an
// error if the resource type already has one
func RegisterHandler(resourceType string, handler TransferFn) error {
	if _, found := allHandlers[resourceType]; found {
		return &AlreadyRegisteredError{ResourceType: resourceType}
	}
	allHandlers[resourceType] = handler
	return nil
}

// the handlers for tape archives and locally visible files come pre-registered
func init() {
	RegisterHandler("hsi", hsiRetrieve)
	RegisterHandler("copy-to-cache", copyToCache)
}
