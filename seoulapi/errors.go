// Copyright (c) 2024 The Seoul Map Project and its Contributors
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

package seoulapi

import (
	"errors"
	"fmt"
)

// This error type is returned when the portal cannot be reached, times out,
// or answers with a non-2xx status. Fan-out strategies treat it as a
// per-endpoint failure; single-endpoint strategies treat it as fatal.
type TransportError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Couldn't fetch '%s': HTTP %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("Couldn't fetch '%s': %s", e.Endpoint, e.Message)
}

// This error type is returned when the portal answers with a non-success
// result code other than its "no data" code. The upstream code and message
// are carried so they are never silently swallowed.
type ProtocolError struct {
	Endpoint, Code, Message string
}

func (e ProtocolError) Error() string {
	return fmt.Sprintf("The portal rejected the request for '%s' [%s]: %s",
		e.Endpoint, e.Code, e.Message)
}

// this error type is returned when a response body cannot be interpreted in
// either of the portal's dialects
type MalformedResponseError struct {
	Endpoint, Message string
}

func (e MalformedResponseError) Error() string {
	return fmt.Sprintf("Couldn't interpret the response for '%s': %s",
		e.Endpoint, e.Message)
}

// reports whether the given fetch error is worth retrying (transport-level
// failures are, protocol and parse failures are not)
func IsRetryable(err error) bool {
	var transportErr TransportError
	return errors.As(err, &transportErr)
}
