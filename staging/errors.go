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

import (
	"fmt"
)

// this error type is returned when a query result row references a resource
// type with no registered transfer handler
type UnknownResourceTypeError struct {
	ResourceType string
}

func (e UnknownResourceTypeError) Error() string {
	return fmt.Sprintf("Unknown resource type: '%s'", e.ResourceType)
}

// indicates that a transfer handler is already registered for a resource type
// and an attempt has been made to register another
type AlreadyRegisteredError struct {
	ResourceType string
}

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("Cannot register a handler for resource type '%s': already registered",
		e.ResourceType)
}

// this error type is returned when a transfer handler fails to stage a file
type TransferFailedError struct {
	ResourceType, RemotePath, Message string
}

func (e TransferFailedError) Error() string {
	return fmt.Sprintf("Couldn't stage '%s' (resource type '%s'): %s",
		e.RemotePath, e.ResourceType, e.Message)
}
