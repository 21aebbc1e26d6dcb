package relabel

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/carbocation/vdjaggr/allowlist"
	"github.com/carbocation/vdjaggr/identifier"
)

func mustAllowList(t *testing.T, contents string, labels []string) *allowlist.AllowList {
	t.Helper()
	list, err := allowlist.Read(strings.NewReader(contents), "kept.csv", labels, nil)
	if err != nil {
		t.Fatal(err)
	}
	return list
}

const fastaInput = `>TCR1-1_contig_1
ACGTACGT
>TCR2-1_contig_1
GGGGCCCC
>TCR1-1_contig_2
TTTTAAAA
`

func TestFastaFilterAndRelabel(t *testing.T) {
	list := mustAllowList(t, "TCR1\n", nil)

	var out bytes.Buffer
	stats, err := Fasta(&out, strings.NewReader(fastaInput), "sample1.fasta", list, "X", nil)
	if err != nil {
		t.Fatal(err)
	}

	want := ">TCR1-X_contig_1\nACGTACGT\n>TCR1-X_contig_2\nTTTTAAAA\n"
	if out.String() != want {
		t.Errorf("Got:\n%s\nWant:\n%s", out.String(), want)
	}
	if stats.Kept != 2 || stats.Dropped != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestFastaEmptyLabelKeepsToken(t *testing.T) {
	list := mustAllowList(t, "TCR2\n", nil)

	var out bytes.Buffer
	if _, err := Fasta(&out, strings.NewReader(fastaInput), "sample1.fasta", list, "", nil); err != nil {
		t.Fatal(err)
	}

	if want := ">TCR2-1_contig_1\nGGGGCCCC\n"; out.String() != want {
		t.Errorf("Got %q, want %q", out.String(), want)
	}
}

func TestFastaMultilineRecords(t *testing.T) {
	input := ">TCR1-3_contig_1 length=12\nACGT\nACGT\r\nACGT\n>TCR9-3_contig_1\nAAAA\nCCCC\n>TCR1-3_contig_2\nGG"
	list := mustAllowList(t, "TCR1\n", nil)

	var out bytes.Buffer
	stats, err := Fasta(&out, strings.NewReader(input), "wrapped.fasta", list, "S2", nil)
	if err != nil {
		t.Fatal(err)
	}

	want := ">TCR1-S2_contig_1 length=12\nACGT\nACGT\r\nACGT\n>TCR1-S2_contig_2\nGG\n"
	if out.String() != want {
		t.Errorf("Got %q, want %q", out.String(), want)
	}
	if stats.Kept != 2 || stats.Dropped != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestFastaNothingKept(t *testing.T) {
	list := mustAllowList(t, "", nil)

	var out bytes.Buffer
	stats, err := Fasta(&out, strings.NewReader(fastaInput), "sample1.fasta", list, "X", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 || stats.Dropped != 3 {
		t.Errorf("Expected everything dropped, got %q (%+v)", out.String(), stats)
	}
}

func TestFastaMalformed(t *testing.T) {
	list := mustAllowList(t, "TCR1\n", nil)

	t.Run("header without sample token", func(t *testing.T) {
		_, err := Fasta(&bytes.Buffer{}, strings.NewReader(">TCR1\nACGT\n"), "bad.fasta", list, "X", nil)

		var malformed *MalformedFastaError
		if !errors.As(err, &malformed) {
			t.Fatalf("Expected *MalformedFastaError, got %v", err)
		}
		if malformed.Line != 1 || malformed.Path != "bad.fasta" {
			t.Errorf("Unexpected error contents: %+v", malformed)
		}

		var idErr *identifier.MalformedError
		if !errors.As(err, &idErr) {
			t.Errorf("Expected the identifier error to be wrapped, got %v", err)
		}
	})

	t.Run("sequence before first header", func(t *testing.T) {
		_, err := Fasta(&bytes.Buffer{}, strings.NewReader("\nACGT\n>TCR1-1\nACGT\n"), "bad.fasta", list, "X", nil)

		var malformed *MalformedFastaError
		if !errors.As(err, &malformed) {
			t.Fatalf("Expected *MalformedFastaError, got %v", err)
		}
		if malformed.Line != 2 {
			t.Errorf("Expected line 2, got %d", malformed.Line)
		}
	})
}
