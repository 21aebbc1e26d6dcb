package aggregate

import (
	"io"

	"github.com/carbocation/pfx"
	"github.com/carbocation/vdjaggr"
	"github.com/gocarina/gocsv"
)

// SampleStats counts what one sample contributed to the merged outputs.
type SampleStats struct {
	Index             int    `csv:"sample"`
	Label             string `csv:"label"`
	AllowListed       int    `csv:"allow_listed"`
	FastaKept         int    `csv:"fasta_kept"`
	FastaDropped      int    `csv:"fasta_dropped"`
	AnnotationKept    int    `csv:"annotations_kept"`
	AnnotationDropped int    `csv:"annotations_dropped"`
}

// WriteSummary writes one CSV row per sample, with a header.
func WriteSummary(w io.Writer, stats []SampleStats) error {
	if err := gocsv.Marshal(&stats, w); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// WriteSummaryFile writes the summary to path (gzip if it ends in .gz, stdout
// if it is "-").
func WriteSummaryFile(path string, stats []SampleStats) (err error) {
	w, err := vdjaggr.CreateOutput(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = pfx.Err(cerr)
		}
	}()

	return WriteSummary(w, stats)
}
