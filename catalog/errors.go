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

package catalog

import "fmt"

// this error type is returned when the catalog data package cannot be read
type LoadError struct {
	Path, Message string
}

func (e LoadError) Error() string {
	return fmt.Sprintf("Couldn't load the indicator catalog from '%s': %s",
		e.Path, e.Message)
}

// this error type is returned when a descriptor's fields cannot be
// interpreted
type InvalidDescriptorError struct {
	Id, Message string
}

func (e InvalidDescriptorError) Error() string {
	return fmt.Sprintf("Invalid indicator descriptor '%s': %s", e.Id, e.Message)
}

// this error type is returned when a requested indicator isn't in the
// catalog
type NotFoundError struct {
	Id string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("The indicator '%s' is not in the catalog", e.Id)
}
