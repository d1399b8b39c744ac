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

package indicators

import "fmt"

// this error type is returned when a descriptor's source pattern matches no
// aggregation strategy
type UnsupportedPatternError struct {
	Pattern string
}

func (e UnsupportedPatternError) Error() string {
	return fmt.Sprintf("No aggregation strategy handles the source pattern '%s'",
		e.Pattern)
}

// This error type is returned when a dataset carries no recognizable field
// for a role a strategy cannot do without (e.g. coordinates for spatial
// binning).
type FieldResolutionError struct {
	Endpoint, Role string
}

func (e FieldResolutionError) Error() string {
	return fmt.Sprintf("Couldn't find a %s field in the '%s' dataset",
		e.Role, e.Endpoint)
}

// this error type is returned when a fan-out descriptor carries no
// area-to-endpoint bindings
type InvalidBindingsError struct {
	Id string
}

func (e InvalidBindingsError) Error() string {
	return fmt.Sprintf("The indicator '%s' binds no endpoints to fan out over",
		e.Id)
}

// this error type is returned when a strategy needs a collaborator the
// aggregator wasn't built with (e.g. district boundaries)
type MissingDependencyError struct {
	Dependency string
}

func (e MissingDependencyError) Error() string {
	return fmt.Sprintf("The aggregator has no %s wired in", e.Dependency)
}
