package vdjaggr

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/csimplestring/go-csv/detector"
)

// Ordered by preference when more than one is consistent across the sampled
// lines.
const commonDelimiters = "\t,;|"

// DetermineDelimiter returns the most likely rune that would delimit the values
// in the reader, assuming a CSV-like file. Only common delimiters are
// considered, since identifier characters like '_' and '-' are often just as
// regular as the real delimiter. If nothing can be detected, fallback is
// returned.
func DetermineDelimiter(r io.Reader, fallback rune) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	for _, want := range commonDelimiters {
		for _, candidate := range delimiters {
			if candidate == string(want) {
				return want
			}
		}
	}

	return fallback
}

// OpenDelimitedInput opens path like OpenInput and also reports its detected
// delimiter.
func OpenDelimitedInput(ctx context.Context, path string, client *storage.Client, fallback rune) (io.ReadCloser, rune, error) {
	f, _, err := MaybeOpenSeekerFromGoogleStorage(ctx, path, client)
	if err != nil {
		return nil, fallback, err
	}

	r, err := MaybeDecompressReadCloser(f)
	if err != nil {
		f.Close()
		return nil, fallback, pfx.Err(err)
	}

	delim := DetermineDelimiter(r, fallback)
	if r != io.ReadCloser(f) {
		r.Close()
	}

	// The decompressed reader cannot seek, so rewind the underlying stream and
	// decompress again.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fallback, pfx.Err(err)
	}
	r, err = MaybeDecompressReadCloser(f)
	if err != nil {
		f.Close()
		return nil, fallback, pfx.Err(err)
	}

	return stack(r, f), delim, nil
}

// DelimiterName renders a delimiter for logs.
func DelimiterName(delim rune) string {
	switch delim {
	case '\t':
		return "tab"
	case ',':
		return "comma"
	}

	return string(delim)
}
