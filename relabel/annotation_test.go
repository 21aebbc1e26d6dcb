package relabel

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/carbocation/vdjaggr/allowlist"
)

const annotationHeader = "barcode,is_cell,contig_id,high_confidence,length,chain"

func TestAnnotationsScenarios(t *testing.T) {
	labels := []string{"colA", "colB"}
	// The second row's contig token differs from its barcode token
	input := annotationHeader + "\nTCR1-5,true,TCR1-5_contig_1,true,extra\nTCR1-5,true,TCR1-7_contig_2,true,more\n"

	tests := []struct {
		name  string
		list  string
		label string
		want  string
	}{
		{"round trip", "TCR1,valA,valB\n", "X", "TCR1-X,true,TCR1-X_contig_1,true,extra,valA,valB\nTCR1-X,true,TCR1-X_contig_2,true,more,valA,valB\n"},
		{"empty label", "TCR1,valA,valB\n", "", "TCR1-5,true,TCR1-5_contig_1,true,extra,valA,valB\nTCR1-5,true,TCR1-7_contig_2,true,more,valA,valB\n"},
		{"drop", "TCR2,valA,valB\n", "X", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := mustAllowList(t, tt.list, labels)

			var out bytes.Buffer
			res, err := Annotations(&out, strings.NewReader(input), "annotations.csv", list, AnnotationOptions{
				Label:          tt.label,
				MetadataLabels: labels,
			}, nil)
			if err != nil {
				t.Fatal(err)
			}

			if out.String() != tt.want {
				t.Errorf("Got %q, want %q", out.String(), tt.want)
			}
			if res.HeaderWritten {
				t.Error("Header must only be written for the first sample")
			}
			if res.Header != annotationHeader {
				t.Errorf("Header = %q", res.Header)
			}
		})
	}
}

func TestAnnotationsHeader(t *testing.T) {
	input := annotationHeader + "\r\nTCR1-1,true,TCR1-1_contig_1,true,100,TRA\r\n"

	t.Run("without metadata", func(t *testing.T) {
		var out bytes.Buffer
		res, err := Annotations(&out, strings.NewReader(input), "a.csv", mustAllowList(t, "TCR1\n", nil), AnnotationOptions{IsFirstSample: true}, nil)
		if err != nil {
			t.Fatal(err)
		}

		want := annotationHeader + "\nTCR1-1,true,TCR1-1_contig_1,true,100,TRA\n"
		if out.String() != want || !res.HeaderWritten {
			t.Errorf("Got %q (header written: %v), want %q", out.String(), res.HeaderWritten, want)
		}
	})

	t.Run("with metadata", func(t *testing.T) {
		labels := []string{"colA", "colB"}
		var out bytes.Buffer
		_, err := Annotations(&out, strings.NewReader(input), "a.csv", mustAllowList(t, "TCR1,a,b\n", labels), AnnotationOptions{
			Label:          "P1",
			IsFirstSample:  true,
			MetadataLabels: labels,
		}, nil)
		if err != nil {
			t.Fatal(err)
		}

		want := annotationHeader + ",colA,colB\nTCR1-P1,true,TCR1-P1_contig_1,true,100,TRA,a,b\n"
		if out.String() != want {
			t.Errorf("Got %q, want %q", out.String(), want)
		}
	})
}

func TestAnnotationsPreservesOrderAndRemainder(t *testing.T) {
	input := strings.Join([]string{
		annotationHeader,
		"TCR3-1,true,TCR3-1_contig_1,true,\"a,b\",TRB",
		"TCR1-1,false,TCR1-1_contig_1,false,,",
		"TCR2-1,true,TCR2-1_contig_1,true,1,TRA",
		"",
		"TCR3-1,true,TCR3-1_contig_2,true,2,TRA",
	}, "\n")

	var out bytes.Buffer
	res, err := Annotations(&out, strings.NewReader(input), "a.csv", mustAllowList(t, "TCR3\nTCR1\n", nil), AnnotationOptions{Label: "B"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"TCR3-B,true,TCR3-B_contig_1,true,\"a,b\",TRB",
		"TCR1-B,false,TCR1-B_contig_1,false,,",
		"TCR3-B,true,TCR3-B_contig_2,true,2,TRA",
	}, "\n") + "\n"
	if out.String() != want {
		t.Errorf("Got:\n%s\nWant:\n%s", out.String(), want)
	}
	if res.Kept != 3 || res.Dropped != 1 {
		t.Errorf("Unexpected stats %+v", res.Stats)
	}
}

func TestAnnotationsMissingMetadata(t *testing.T) {
	input := annotationHeader + "\nTCR1-1,true,TCR1-1_contig_1,true,x\n"

	// Metadata columns requested, but the allow-list carries none
	list := mustAllowList(t, "TCR1\n", nil)
	_, err := Annotations(&bytes.Buffer{}, strings.NewReader(input), "a.csv", list, AnnotationOptions{MetadataLabels: []string{"colA"}}, nil)

	var missing *MissingMetadataError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected *MissingMetadataError, got %v", err)
	}
	if missing.Transcript != "TCR1" || missing.Line != 2 {
		t.Errorf("Unexpected error contents: %+v", missing)
	}
}

func TestAnnotationsMetadataArity(t *testing.T) {
	input := annotationHeader + "\nTCR1-1,true,TCR1-1_contig_1,true,x\n"
	list := mustAllowList(t, "TCR1,a\n", []string{"colA"})

	_, err := Annotations(&bytes.Buffer{}, strings.NewReader(input), "a.csv", list, AnnotationOptions{MetadataLabels: []string{"colA", "colB"}}, nil)

	var arity *allowlist.MetadataArityError
	if !errors.As(err, &arity) {
		t.Fatalf("Expected *allowlist.MetadataArityError, got %v", err)
	}
}

func TestAnnotationsMalformed(t *testing.T) {
	list := mustAllowList(t, "TCR1\n", nil)

	tests := []struct {
		name   string
		row    string
		column string
	}{
		{"too few fields", "TCR1-1,true,TCR1-1_contig_1,true", ""},
		{"bad barcode", "TCR1,true,TCR1-1_contig_1,true,x", "barcode"},
		{"bad contig id", "TCR1-1,true,TCR1_contig_1,true,x", "contig_id"},
		{"contig of another transcript", "TCR1-1,true,TCR2-1_contig_1,true,x", "contig_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Annotations(&bytes.Buffer{}, strings.NewReader(annotationHeader+"\n"+tt.row+"\n"), "a.csv", list, AnnotationOptions{}, nil)

			var malformed *MalformedRowError
			if !errors.As(err, &malformed) {
				t.Fatalf("Expected *MalformedRowError, got %v", err)
			}
			if malformed.Column != tt.column || malformed.Line != 2 {
				t.Errorf("Unexpected error contents: %+v", malformed)
			}
		})
	}
}

func TestAnnotationsEmptyInput(t *testing.T) {
	var out bytes.Buffer
	res, err := Annotations(&out, strings.NewReader(""), "empty.csv", mustAllowList(t, "TCR1\n", nil), AnnotationOptions{IsFirstSample: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 || res.HeaderWritten || res.Header != "" {
		t.Errorf("Expected nothing for an empty input, got %q (%+v)", out.String(), res)
	}
}
