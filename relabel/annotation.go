package relabel

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/vdjaggr"
	"github.com/carbocation/vdjaggr/allowlist"
	"github.com/carbocation/vdjaggr/identifier"
	"github.com/charmbracelet/log"
)

// Column positions of the fixed leading fields of an annotation row. Anything
// after HighConfidence is carried along untouched as the remainder.
const (
	Barcode = iota
	IsCell
	ContigID
	HighConfidence
	Remainder

	annotationFields
)

// AnnotationRow is one data row of a contig annotation table.
type AnnotationRow struct {
	Barcode        string
	IsCell         string
	ContigID       string
	HighConfidence string
	Remainder      string
}

// ParseAnnotationRow splits line into its four leading columns and the
// remainder. ok is false if there are fewer than five fields.
func ParseAnnotationRow(line string) (row AnnotationRow, ok bool) {
	fields := strings.SplitN(line, ",", annotationFields)
	if len(fields) < annotationFields {
		return row, false
	}

	return AnnotationRow{
		Barcode:        fields[Barcode],
		IsCell:         fields[IsCell],
		ContigID:       fields[ContigID],
		HighConfidence: fields[HighConfidence],
		Remainder:      fields[Remainder],
	}, true
}

func (a AnnotationRow) String() string {
	return strings.Join([]string{a.Barcode, a.IsCell, a.ContigID, a.HighConfidence, a.Remainder}, ",")
}

// AnnotationOptions controls how one sample's annotation table is merged.
type AnnotationOptions struct {
	// Label replaces the sample token. Empty keeps each row's own token.
	Label string

	// IsFirstSample causes the header line to be written.
	IsFirstSample bool

	// MetadataLabels, if set, are appended to the header and the matching
	// allow-list values to every kept row.
	MetadataLabels []string
}

// AnnotationResult describes what Annotations saw and wrote.
type AnnotationResult struct {
	Stats

	// Header is the input's header line as read, without metadata labels.
	// It is empty when the input was empty.
	Header string

	// HeaderWritten is set when the (extended) header went to the output.
	HeaderWritten bool
}

// ExtendHeader appends the metadata labels to header.
func ExtendHeader(header string, metadataLabels []string) string {
	if len(metadataLabels) == 0 {
		return header
	}

	return header + "," + strings.Join(metadataLabels, ",")
}

// Annotations copies the rows of the annotation table r whose barcode
// transcript is allow-listed into w. The barcode and contig_id columns get
// their sample token rewritten, and metadata values are appended when
// opts.MetadataLabels is set. name identifies r in errors and logs.
func Annotations(w io.Writer, r io.Reader, name string, list *allowlist.AllowList, opts AnnotationOptions, logger *log.Logger) (AnnotationResult, error) {
	logger = vdjaggr.OrDiscard(logger)
	res := AnnotationResult{}

	bw := bufio.NewWriter(w)
	lr := newLineReader(r, name)

	for {
		text, _, ok, err := lr.next()
		if err != nil {
			return res, err
		} else if !ok {
			break
		}

		if lr.number == 1 {
			res.Header = text
			if opts.IsFirstSample {
				if _, err := bw.WriteString(ExtendHeader(text, opts.MetadataLabels) + "\n"); err != nil {
					return res, pfx.Err(err)
				}
				res.HeaderWritten = true
			}
			continue
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		out, kept, err := relabelRow(text, name, lr.number, list, opts)
		if err != nil {
			return res, err
		}
		if !kept {
			res.Dropped++
			continue
		}
		res.Kept++

		if _, err := bw.WriteString(out + "\n"); err != nil {
			return res, pfx.Err(err)
		}
	}

	if err := bw.Flush(); err != nil {
		return res, pfx.Err(err)
	}

	logger.Debug("relabeled annotations", "file", name, "label", opts.Label, "kept", res.Kept, "dropped", res.Dropped, "header_written", res.HeaderWritten)

	return res, nil
}

func relabelRow(text, name string, lineNumber int, list *allowlist.AllowList, opts AnnotationOptions) (string, bool, error) {
	row, ok := ParseAnnotationRow(text)
	if !ok {
		return "", false, &MalformedRowError{Path: name, Line: lineNumber, Reason: "expected at least 5 comma-separated fields"}
	}

	barcode, err := identifier.Parse(row.Barcode)
	if err != nil {
		return "", false, &MalformedRowError{Path: name, Line: lineNumber, Column: "barcode", Err: err}
	}

	if !list.Keeps(barcode.Transcript) {
		return "", false, nil
	}

	contig, err := identifier.Parse(row.ContigID)
	if err != nil {
		return "", false, &MalformedRowError{Path: name, Line: lineNumber, Column: "contig_id", Err: err}
	}

	if contig.Transcript != barcode.Transcript {
		return "", false, &MalformedRowError{Path: name, Line: lineNumber, Column: "contig_id", Reason: fmt.Sprintf("contig_id transcript %q does not match barcode transcript %q", contig.Transcript, barcode.Transcript)}
	}

	// An empty label leaves each identifier's own token in place
	row.Barcode = barcode.WithSampleToken(opts.Label).String()
	row.ContigID = contig.WithSampleToken(opts.Label).String()

	out := row.String()
	if len(opts.MetadataLabels) > 0 {
		values, exists := list.Values(barcode.Transcript)
		if !exists {
			return "", false, &MissingMetadataError{Path: name, Line: lineNumber, Transcript: barcode.Transcript}
		}
		if len(values) != len(opts.MetadataLabels) {
			return "", false, &allowlist.MetadataArityError{Path: name, Line: lineNumber, Transcript: barcode.Transcript, Want: len(opts.MetadataLabels), Got: len(values)}
		}
		out += "," + strings.Join(values, ",")
	}

	return out, true, nil
}
