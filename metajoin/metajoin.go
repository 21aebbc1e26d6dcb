// Package metajoin appends per-transcript metadata columns to an AIRR
// rearrangement table.
package metajoin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/vdjaggr"
	"github.com/carbocation/vdjaggr/allowlist"
	"github.com/carbocation/vdjaggr/identifier"
	"github.com/carbocation/vdjaggr/relabel"
	"github.com/charmbracelet/log"
)

// Stats counts the data rows of one join.
type Stats struct {
	Rows      int
	Annotated int
	Unlisted  int
}

// Join copies the AIRR table in r to w. The header gets list.Labels appended;
// every data row whose contig_id (the first column) belongs to a listed
// transcript gets that transcript's values appended, and every other row gets
// empty cells so that the table stays rectangular. delim separates columns
// both in r and in the output.
func Join(w io.Writer, r io.Reader, name string, delim rune, list *allowlist.AllowList, logger *log.Logger) (Stats, error) {
	logger = vdjaggr.OrDiscard(logger)
	stats := Stats{}
	sep := string(delim)
	padding := strings.Repeat(sep, len(list.Labels))

	br := bufio.NewReaderSize(r, 64*1024)
	bw := bufio.NewWriter(w)

	for lineNumber := 1; ; lineNumber++ {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return stats, pfx.Err(fmt.Errorf("%s line %d: %w", name, lineNumber, err))
		}
		text := strings.TrimRight(line, "\r\n")

		var out string
		switch {
		case text == "" && err == io.EOF:
			// Trailing newline
		case lineNumber == 1:
			out = text + sep + strings.Join(list.Labels, sep)
		case strings.TrimSpace(text) == "":
			// Skip blank lines
		default:
			contigID := text
			if i := strings.IndexRune(text, delim); i >= 0 {
				contigID = text[:i]
			}

			id, perr := identifier.Parse(contigID)
			if perr != nil {
				return stats, &relabel.MalformedRowError{Path: name, Line: lineNumber, Column: "contig_id", Err: perr}
			}

			stats.Rows++
			if values, exists := list.Values(id.Transcript); exists {
				stats.Annotated++
				out = text + sep + strings.Join(values, sep)
			} else {
				stats.Unlisted++
				out = text + padding
			}
		}

		if out != "" {
			if _, werr := bw.WriteString(out + "\n"); werr != nil {
				return stats, pfx.Err(werr)
			}
		}

		if err == io.EOF {
			break
		}
	}

	if err := bw.Flush(); err != nil {
		return stats, pfx.Err(err)
	}

	logger.Debug("joined metadata", "file", name, "rows", stats.Rows, "annotated", stats.Annotated, "unlisted", stats.Unlisted)

	return stats, nil
}

// JoinFiles loads the metadata CSV at metadataPath, whose first line lists the
// metadata labels, and joins it onto the AIRR table at airrPath. The result is
// written to outPath (gzip if it ends in .gz, stdout if it is "-"). Inputs
// may be compressed or gs:// objects.
func JoinFiles(ctx context.Context, airrPath, metadataPath, outPath string, client *storage.Client, logger *log.Logger) (stats Stats, err error) {
	logger = vdjaggr.OrDiscard(logger)

	list, err := allowlist.LoadWithHeader(ctx, metadataPath, client, logger)
	if err != nil {
		return stats, err
	}

	in, delim, err := vdjaggr.OpenDelimitedInput(ctx, airrPath, client, '\t')
	if err != nil {
		return stats, err
	}
	defer in.Close()
	logger.Debug("detected AIRR delimiter", "file", airrPath, "delimiter", vdjaggr.DelimiterName(delim))

	out, err := vdjaggr.CreateOutput(outPath)
	if err != nil {
		return stats, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = pfx.Err(cerr)
		}
	}()

	stats, err = Join(out, in, airrPath, delim, list, logger)
	if err != nil {
		return stats, err
	}

	logger.Info("wrote AIRR table", "file", outPath, "rows", stats.Rows, "annotated", stats.Annotated, "unlisted", stats.Unlisted, "metadata_columns", len(list.Labels))

	return stats, nil
}
