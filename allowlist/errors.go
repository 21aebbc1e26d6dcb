package allowlist

import "fmt"

// MetadataArityError is returned when an allow-list line carries a different
// number of metadata values than there are configured metadata labels.
type MetadataArityError struct {
	Path       string
	Line       int
	Transcript string
	Want       int
	Got        int
}

func (e *MetadataArityError) Error() string {
	return fmt.Sprintf("%s line %d: transcript %q has %d metadata values, expected %d", e.Path, e.Line, e.Transcript, e.Got, e.Want)
}

// MalformedLineError is returned for allow-list lines that cannot name a
// transcript.
type MalformedLineError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("%s line %d: %s", e.Path, e.Line, e.Reason)
}
