package aggregate

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseConfig(t *testing.T) {
	input := `# aggregate annotations, aggregate fasta, metadata labels
true,true,timepoint,tissue

S1,s1/kept.csv,s1/contigs.fasta,s1/annotations.csv
,/abs/kept.csv,/abs/contigs.fasta,gs://bucket/annotations.csv
`
	c, err := ParseConfig(strings.NewReader(input), "/data")
	if err != nil {
		t.Fatal(err)
	}

	want := AggregationConfig{
		AggregateAnnotations: true,
		AggregateFasta:       true,
		MetadataLabels:       []string{"timepoint", "tissue"},
		Samples: []Sample{
			{
				Label:          "S1",
				AllowListPath:  filepath.Join("/data", "s1/kept.csv"),
				FastaPath:      filepath.Join("/data", "s1/contigs.fasta"),
				AnnotationPath: filepath.Join("/data", "s1/annotations.csv"),
			},
			{
				Label:          "",
				AllowListPath:  "/abs/kept.csv",
				FastaPath:      "/abs/contigs.fasta",
				AnnotationPath: "gs://bucket/annotations.csv",
			},
		},
	}

	if !reflect.DeepEqual(c, want) {
		t.Errorf("Got %+v\nwant %+v", c, want)
	}
}

func TestParseConfigSingleOutput(t *testing.T) {
	c, err := ParseConfig(strings.NewReader("false,true\nS1,kept.csv,contigs.fasta\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	if c.AggregateAnnotations || !c.AggregateFasta || len(c.MetadataLabels) != 0 {
		t.Errorf("Unexpected flags %+v", c)
	}
	if s := c.Samples[0]; s.FastaPath != "contigs.fasta" || s.AnnotationPath != "" {
		t.Errorf("Unexpected sample %+v", s)
	}

	c, err = ParseConfig(strings.NewReader("true,false\nS1,kept.csv,annotations.csv\n"), "")
	if err != nil {
		t.Fatal(err)
	}
	if s := c.Samples[0]; s.AnnotationPath != "annotations.csv" || s.FastaPath != "" {
		t.Errorf("Unexpected sample %+v", s)
	}
}

func TestParseConfigShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"empty", "", 0},
		{"no samples", "true,true\n", 0},
		{"both flags off", "false,false\nS1,kept.csv,a.fa,a.csv\n", 1},
		{"not a boolean", "yes,true\n", 1},
		{"one flag", "true\n", 1},
		{"too few fields", "true,true\nS1,kept.csv,a.fa\n", 2},
		{"too many fields", "false,true\nS1,kept.csv,a.fa,a.csv\n", 2},
		{"empty path", "true,true\nS1,kept.csv,,a.csv\n", 2},
		{"empty metadata label", "true,true,colA,\nS1,kept.csv,a.fa,a.csv\n", 0},
		{"label with separator", "true,true\nS_1,kept.csv,a.fa,a.csv\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(strings.NewReader(tt.input), "")

			var shape *ConfigShapeError
			if !errors.As(err, &shape) {
				t.Fatalf("Expected *ConfigShapeError, got %v", err)
			}
			if shape.Line != tt.line {
				t.Errorf("Expected line %d, got %d (%v)", tt.line, shape.Line, shape)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	c := AggregationConfig{
		AggregateFasta: true,
		Samples:        []Sample{{Label: "A", AllowListPath: "kept.csv"}},
	}

	var shape *ConfigShapeError
	if err := c.Validate(); !errors.As(err, &shape) {
		t.Errorf("Expected a missing FASTA path to be rejected, got %v", err)
	}

	c.Samples[0].FastaPath = "contigs.fasta"
	if err := c.Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if got := c.Inputs(); !reflect.DeepEqual(got, []string{"kept.csv", "contigs.fasta"}) {
		t.Errorf("Inputs() = %v", got)
	}
}
