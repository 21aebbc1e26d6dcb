// Package aggregate merges the relabeled FASTA and annotation outputs of many
// samples into one FASTA and one annotation table, in configuration order.
package aggregate

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/vdjaggr"
	"github.com/carbocation/vdjaggr/identifier"
)

// Sample is one row of the run configuration.
type Sample struct {
	// Label replaces the sample token in identifiers. Empty keeps the token
	// found in the input.
	Label          string
	AllowListPath  string
	FastaPath      string
	AnnotationPath string
}

// AggregationConfig describes one aggregation run.
type AggregationConfig struct {
	AggregateAnnotations bool
	AggregateFasta       bool
	MetadataLabels       []string
	Samples              []Sample
}

// Validate checks the invariants the aggregator relies on.
func (c AggregationConfig) Validate() error {
	if !c.AggregateAnnotations && !c.AggregateFasta {
		return &ConfigShapeError{Reason: "neither annotation nor FASTA aggregation is enabled"}
	}
	if len(c.Samples) == 0 {
		return &ConfigShapeError{Reason: "no samples"}
	}

	for i, label := range c.MetadataLabels {
		if label == "" {
			return &ConfigShapeError{Reason: fmt.Sprintf("metadata label %d is empty", i+1)}
		}
	}

	for i, s := range c.Samples {
		if !identifier.ValidLabel(s.Label) {
			return &ConfigShapeError{Reason: fmt.Sprintf("sample %d: label %q may not contain '-', '_' or whitespace", i+1, s.Label)}
		}
		if s.AllowListPath == "" {
			return &ConfigShapeError{Reason: fmt.Sprintf("sample %d: missing allow-list path", i+1)}
		}
		if c.AggregateFasta && s.FastaPath == "" {
			return &ConfigShapeError{Reason: fmt.Sprintf("sample %d: FASTA aggregation is enabled but no FASTA path was given", i+1)}
		}
		if c.AggregateAnnotations && s.AnnotationPath == "" {
			return &ConfigShapeError{Reason: fmt.Sprintf("sample %d: annotation aggregation is enabled but no annotation path was given", i+1)}
		}
	}

	return nil
}

// Inputs lists every input path the run will read, in processing order.
func (c AggregationConfig) Inputs() []string {
	out := make([]string, 0, 3*len(c.Samples))
	for _, s := range c.Samples {
		out = append(out, s.AllowListPath)
		if c.AggregateFasta {
			out = append(out, s.FastaPath)
		}
		if c.AggregateAnnotations {
			out = append(out, s.AnnotationPath)
		}
	}

	return out
}

// CheckInputs confirms that every input of the run exists before any output
// is created.
func (c AggregationConfig) CheckInputs(ctx context.Context, client *storage.Client) error {
	for _, path := range c.Inputs() {
		if err := vdjaggr.Exists(ctx, path, client); err != nil {
			return err
		}
	}

	return nil
}

// LoadConfig reads a run configuration from path (local or gs://). Relative
// sample paths are resolved against the configuration file's directory.
func LoadConfig(ctx context.Context, path string, client *storage.Client) (AggregationConfig, error) {
	r, err := vdjaggr.OpenInput(ctx, path, client)
	if err != nil {
		return AggregationConfig{}, err
	}
	defer r.Close()

	baseDir := ""
	if !vdjaggr.IsGoogleStoragePath(path) {
		baseDir = filepath.Dir(path)
	}

	return ParseConfig(r, baseDir)
}

// ParseConfig reads a run configuration:
//
//	<aggregateAnnotations>,<aggregateFasta>[,<metadataLabel>...]
//	<label>,<allowListPath>,<fastaPath>,<annotationPath>
//	...
//
// Sample rows carry a FASTA path only when FASTA aggregation is enabled and
// an annotation path only when annotation aggregation is enabled, so they
// have 3 or 4 fields. Blank lines and lines starting with # are skipped.
func ParseConfig(r io.Reader, baseDir string) (AggregationConfig, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var c AggregationConfig
	sawFlags := false
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			if perr, ok := err.(*csv.ParseError); ok {
				return c, &ConfigShapeError{Line: perr.Line, Reason: perr.Err.Error()}
			}
			return c, pfx.Err(err)
		}
		line, _ := cr.FieldPos(0)

		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}

		if !sawFlags {
			if err := c.parseFlags(row, line); err != nil {
				return c, err
			}
			sawFlags = true
			continue
		}

		sample, err := c.parseSample(row, line, baseDir)
		if err != nil {
			return c, err
		}
		c.Samples = append(c.Samples, sample)
	}

	if !sawFlags {
		return c, &ConfigShapeError{Reason: "empty configuration"}
	}

	return c, c.Validate()
}

func (c *AggregationConfig) parseFlags(row []string, line int) error {
	if len(row) < 2 {
		return &ConfigShapeError{Line: line, Reason: fmt.Sprintf("expected at least 2 fields (aggregate annotations, aggregate FASTA), got %d", len(row))}
	}

	var err error
	if c.AggregateAnnotations, err = strconv.ParseBool(row[0]); err != nil {
		return &ConfigShapeError{Line: line, Reason: fmt.Sprintf("aggregate annotations flag %q is not a boolean", row[0])}
	}
	if c.AggregateFasta, err = strconv.ParseBool(row[1]); err != nil {
		return &ConfigShapeError{Line: line, Reason: fmt.Sprintf("aggregate FASTA flag %q is not a boolean", row[1])}
	}
	if !c.AggregateAnnotations && !c.AggregateFasta {
		return &ConfigShapeError{Line: line, Reason: "neither annotation nor FASTA aggregation is enabled"}
	}

	if len(row) > 2 {
		c.MetadataLabels = append([]string(nil), row[2:]...)
	}

	return nil
}

func (c *AggregationConfig) parseSample(row []string, line int, baseDir string) (Sample, error) {
	want := 2
	expected := "label, allow-list"
	if c.AggregateFasta {
		want++
		expected += ", FASTA"
	}
	if c.AggregateAnnotations {
		want++
		expected += ", annotations"
	}
	if len(row) != want {
		return Sample{}, &ConfigShapeError{Line: line, Reason: fmt.Sprintf("expected %d fields (%s), got %d", want, expected, len(row))}
	}

	paths := make([]string, 0, want-1)
	for _, p := range row[1:] {
		if p == "" {
			return Sample{}, &ConfigShapeError{Line: line, Reason: "empty path"}
		}
		resolved, err := vdjaggr.ResolvePath(baseDir, p)
		if err != nil {
			return Sample{}, err
		}
		paths = append(paths, resolved)
	}

	s := Sample{Label: row[0], AllowListPath: paths[0]}
	next := 1
	if c.AggregateFasta {
		s.FastaPath = paths[next]
		next++
	}
	if c.AggregateAnnotations {
		s.AnnotationPath = paths[next]
	}

	return s, nil
}
