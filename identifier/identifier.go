// Package identifier parses and rewrites the compound identifiers that 10x VDJ
// outputs embed in FASTA headers, barcodes and contig ids:
//
//	identifier  := transcript "-" sampleToken suffix
//	transcript  := one or more characters other than "-"
//	sampleToken := one or more characters other than "-", "_" or whitespace
//	suffix      := anything, possibly empty (e.g. "_contig_3")
//
// For example "AAACCTGAGAACTGTA-1_contig_2" has transcript
// "AAACCTGAGAACTGTA", sample token "1" and suffix "_contig_2".
package identifier

import (
	"fmt"
	"strings"
	"unicode"
)

// Compound is a parsed identifier. Transcript + "-" + SampleToken + Suffix
// reproduces the original text exactly.
type Compound struct {
	Transcript  string
	SampleToken string
	Suffix      string
}

// MalformedError is returned when text does not follow the compound
// identifier grammar.
type MalformedError struct {
	Text   string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed identifier %q: %s", e.Text, e.Reason)
}

// Parse splits s at its first "-" into transcript, sample token and suffix.
func Parse(s string) (Compound, error) {
	dash := strings.IndexByte(s, '-')
	if dash < 0 {
		return Compound{}, &MalformedError{Text: s, Reason: "no '-' separating transcript from sample token"}
	}
	if dash == 0 {
		return Compound{}, &MalformedError{Text: s, Reason: "empty transcript"}
	}

	rest := s[dash+1:]
	end := strings.IndexFunc(rest, isTokenBoundary)
	if end < 0 {
		end = len(rest)
	}
	if end == 0 {
		return Compound{}, &MalformedError{Text: s, Reason: "empty sample token"}
	}

	return Compound{
		Transcript:  s[:dash],
		SampleToken: rest[:end],
		Suffix:      rest[end:],
	}, nil
}

func isTokenBoundary(r rune) bool {
	return r == '-' || r == '_' || unicode.IsSpace(r)
}

func (c Compound) String() string {
	return c.Transcript + "-" + c.SampleToken + c.Suffix
}

// WithSampleToken returns a copy of c carrying token. An empty token keeps
// the original one.
func (c Compound) WithSampleToken(token string) Compound {
	if token != "" {
		c.SampleToken = token
	}

	return c
}

// Rewrite parses s and replaces its sample token with label. An empty label
// leaves s unchanged (after validating it).
func Rewrite(s, label string) (string, error) {
	c, err := Parse(s)
	if err != nil {
		return "", err
	}

	return c.WithSampleToken(label).String(), nil
}

// ValidLabel reports whether label can stand in for a sample token without
// changing how the rewritten identifier parses.
func ValidLabel(label string) bool {
	return strings.IndexFunc(label, isTokenBoundary) < 0
}
