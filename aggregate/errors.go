package aggregate

import "fmt"

// ConfigShapeError reports a run configuration that cannot be used: a row
// with the wrong number of fields, no active outputs, and the like. Line is 0
// for problems that are not tied to a line of a configuration file.
type ConfigShapeError struct {
	Line   int
	Reason string
}

func (e *ConfigShapeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid configuration at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// HeaderMismatchError is returned when a sample's annotation table has a
// different header than the first sample's, which would make the merged
// table inconsistent.
type HeaderMismatchError struct {
	Path string
	Want string
	Got  string
}

func (e *HeaderMismatchError) Error() string {
	return fmt.Sprintf("%s: annotation header %q does not match the first sample's header %q", e.Path, e.Got, e.Want)
}

// SampleError wraps any failure while processing one sample.
type SampleError struct {
	Index int
	Label string
	Stage string
	Err   error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d (label %q) %s: %v", e.Index+1, e.Label, e.Stage, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }
