// Package relabel filters one sample's FASTA and annotation outputs down to its
// allow-listed transcripts, swapping the sample token embedded in every
// identifier for the sample's label.
package relabel

import (
	"bufio"
	"io"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/vdjaggr"
	"github.com/carbocation/vdjaggr/allowlist"
	"github.com/carbocation/vdjaggr/identifier"
	"github.com/charmbracelet/log"
)

// Stats counts the records a relabeler kept and dropped.
type Stats struct {
	Kept    int
	Dropped int
}

// Fasta copies the records of r whose transcript is allow-listed into w,
// rewriting the sample token of each header to label (or leaving it alone
// when label is empty). Sequence lines are copied unchanged, however many
// there are per record. name identifies r in errors and logs.
func Fasta(w io.Writer, r io.Reader, name string, list *allowlist.AllowList, label string, logger *log.Logger) (Stats, error) {
	logger = vdjaggr.OrDiscard(logger)
	stats := Stats{}

	bw := bufio.NewWriter(w)
	lr := newLineReader(r, name)

	seenHeader := false
	keeping := false
	for {
		text, ending, ok, err := lr.next()
		if err != nil {
			return stats, err
		} else if !ok {
			break
		}

		if !strings.HasPrefix(text, ">") {
			if !seenHeader {
				if strings.TrimSpace(text) == "" {
					continue
				}
				return stats, &MalformedFastaError{Path: name, Line: lr.number, Text: text}
			}
			if keeping {
				if _, err := bw.WriteString(text + terminated(ending)); err != nil {
					return stats, pfx.Err(err)
				}
			}
			continue
		}

		seenHeader = true

		id, err := identifier.Parse(text[1:])
		if err != nil {
			return stats, &MalformedFastaError{Path: name, Line: lr.number, Text: text, Err: err}
		}

		keeping = list.Keeps(id.Transcript)
		if !keeping {
			logger.Debug("dropping fasta record", "file", name, "line", lr.number, "transcript", id.Transcript)
			stats.Dropped++
			continue
		}
		stats.Kept++

		if _, err := bw.WriteString(">" + id.WithSampleToken(label).String() + terminated(ending)); err != nil {
			return stats, pfx.Err(err)
		}
	}

	if err := bw.Flush(); err != nil {
		return stats, pfx.Err(err)
	}

	logger.Debug("relabeled fasta", "file", name, "label", label, "kept", stats.Kept, "dropped", stats.Dropped)

	return stats, nil
}
