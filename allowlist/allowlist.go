// Package allowlist loads the per-sample lists of transcripts to retain,
// optionally carrying per-transcript metadata values.
//
// An allow-list file has no header. Each non-empty line is comma separated:
// the first field is the transcript and any remaining fields are metadata
// values, aligned positionally with the configured metadata labels.
package allowlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/vdjaggr"
	"github.com/charmbracelet/log"
)

// AllowList is the set of transcripts to keep for one sample. Metadata is
// only populated when Labels is non-empty, and then every entry has exactly
// len(Labels) values.
type AllowList struct {
	Labels   []string
	Metadata map[string][]string

	kept  map[string]struct{}
	order []string
}

func newAllowList(labels []string) *AllowList {
	a := &AllowList{
		Labels: labels,
		kept:   make(map[string]struct{}),
	}
	if len(labels) > 0 {
		a.Metadata = make(map[string][]string)
	}

	return a
}

// Keeps reports whether transcript is allow-listed.
func (a *AllowList) Keeps(transcript string) bool {
	_, exists := a.kept[transcript]
	return exists
}

// Values returns the metadata values recorded for transcript.
func (a *AllowList) Values(transcript string) ([]string, bool) {
	v, exists := a.Metadata[transcript]
	return v, exists
}

// HasMetadata reports whether metadata labels were configured.
func (a *AllowList) HasMetadata() bool {
	return len(a.Labels) > 0
}

// Len is the number of distinct transcripts.
func (a *AllowList) Len() int {
	return len(a.kept)
}

// Transcripts returns the distinct transcripts in first-seen order.
func (a *AllowList) Transcripts() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Load reads the allow-list at path, which may be local, compressed, or a
// gs:// object. labels are the configured metadata column labels (may be
// empty).
func Load(ctx context.Context, path string, labels []string, client *storage.Client, logger *log.Logger) (*AllowList, error) {
	r, err := vdjaggr.OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return Read(r, path, labels, logger)
}

// LoadWithHeader is like Load, but takes the metadata labels from the first
// non-empty line of the file.
func LoadWithHeader(ctx context.Context, path string, client *storage.Client, logger *log.Logger) (*AllowList, error) {
	r, err := vdjaggr.OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return ReadWithHeader(r, path, logger)
}

// Read parses an allow-list from r. name identifies the source in errors.
func Read(r io.Reader, name string, labels []string, logger *log.Logger) (*AllowList, error) {
	p := parser{
		name:   name,
		logger: vdjaggr.OrDiscard(logger),
		list:   newAllowList(labels),
	}

	if err := p.parse(bufio.NewReader(r), false); err != nil {
		return nil, err
	}

	return p.list, nil
}

// ReadWithHeader parses an allow-list whose first non-empty line lists the
// metadata labels.
func ReadWithHeader(r io.Reader, name string, logger *log.Logger) (*AllowList, error) {
	p := parser{
		name:   name,
		logger: vdjaggr.OrDiscard(logger),
	}

	if err := p.parse(bufio.NewReader(r), true); err != nil {
		return nil, err
	}
	if p.list == nil {
		return nil, &MalformedLineError{Path: name, Line: 0, Reason: "no header line with metadata labels"}
	}

	return p.list, nil
}

type parser struct {
	name   string
	logger *log.Logger
	list   *AllowList
}

func (p *parser) parse(r *bufio.Reader, header bool) error {
	for lineNumber := 1; ; lineNumber++ {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return pfx.Err(fmt.Errorf("%s line %d: %w", p.name, lineNumber, err))
		}

		if text := strings.TrimRight(line, "\r\n"); strings.TrimSpace(text) != "" {
			if header && p.list == nil {
				labels := strings.Split(text, ",")
				p.list = newAllowList(labels)
				p.logger.Debug("read metadata labels", "file", p.name, "labels", labels)
			} else if perr := p.add(text, lineNumber); perr != nil {
				return perr
			}
		}

		if err == io.EOF {
			break
		}
	}

	if p.list != nil {
		p.logger.Debug("loaded allow-list", "file", p.name, "transcripts", p.list.Len(), "metadata_columns", len(p.list.Labels))
	}

	return nil
}

func (p *parser) add(text string, lineNumber int) error {
	fields := strings.Split(text, ",")
	transcript, values := fields[0], fields[1:]

	if transcript == "" {
		return &MalformedLineError{Path: p.name, Line: lineNumber, Reason: "empty transcript field"}
	}

	if len(values) != len(p.list.Labels) {
		return &MetadataArityError{
			Path:       p.name,
			Line:       lineNumber,
			Transcript: transcript,
			Want:       len(p.list.Labels),
			Got:        len(values),
		}
	}

	if _, exists := p.list.kept[transcript]; exists {
		// Last one wins
		p.logger.Debug("duplicate transcript in allow-list", "file", p.name, "line", lineNumber, "transcript", transcript)
	} else {
		p.list.kept[transcript] = struct{}{}
		p.list.order = append(p.list.order, transcript)
	}

	if p.list.HasMetadata() {
		p.list.Metadata[transcript] = values
	}

	return nil
}
