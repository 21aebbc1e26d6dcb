package relabel

import "fmt"

// MalformedFastaError points at a FASTA line that could not be interpreted.
// Err, if set, is the underlying *identifier.MalformedError.
type MalformedFastaError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *MalformedFastaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s line %d: sequence data before the first header: %q", e.Path, e.Line, e.Text)
}

func (e *MalformedFastaError) Unwrap() error { return e.Err }

// MalformedRowError points at an annotation row that could not be split into
// its fixed leading columns or whose identifiers do not parse.
type MalformedRowError struct {
	Path   string
	Line   int
	Column string
	Reason string
	Err    error
}

func (e *MalformedRowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s line %d column %s: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s line %d: %s", e.Path, e.Line, e.Reason)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// MissingMetadataError is returned when a kept transcript has no metadata
// values although metadata columns are configured.
type MissingMetadataError struct {
	Path       string
	Line       int
	Transcript string
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("%s line %d: transcript %q is allow-listed but has no metadata values", e.Path, e.Line, e.Transcript)
}
