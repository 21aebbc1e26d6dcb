package aggregate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/vdjaggr"
	"github.com/carbocation/vdjaggr/allowlist"
	"github.com/carbocation/vdjaggr/relabel"
	"github.com/charmbracelet/log"
)

// Aggregator merges the samples of Config into shared outputs.
type Aggregator struct {
	Config AggregationConfig

	// Client reads gs:// inputs. It may be nil if there are none.
	Client *storage.Client

	Logger *log.Logger

	// Workers > 1 processes that many samples at once. Output is identical
	// to a sequential run because every sample is buffered and written in
	// configuration order.
	Workers int
}

// sampleResult is what processing one sample produced.
type sampleResult struct {
	stats         SampleStats
	header        string
	headerWritten bool

	// Only set when the sample was processed into memory
	fasta       *bytes.Buffer
	annotations *bytes.Buffer
}

// Run processes every sample in configuration order. fastaOut and
// annotationOut may be nil when the corresponding aggregation is disabled.
// Any error aborts the run; output already written is left as is.
func (a *Aggregator) Run(ctx context.Context, fastaOut, annotationOut io.Writer) ([]SampleStats, error) {
	if err := a.Config.Validate(); err != nil {
		return nil, err
	}
	if a.Config.AggregateFasta && fastaOut == nil {
		return nil, errors.New("FASTA aggregation is enabled but no FASTA output was given")
	}
	if a.Config.AggregateAnnotations && annotationOut == nil {
		return nil, errors.New("annotation aggregation is enabled but no annotation output was given")
	}

	logger := vdjaggr.OrDiscard(a.Logger)
	logger.Info("aggregating samples", "samples", len(a.Config.Samples), "fasta", a.Config.AggregateFasta, "annotations", a.Config.AggregateAnnotations, "metadata_columns", len(a.Config.MetadataLabels))

	m := merger{Aggregator: a, logger: logger, fastaOut: fastaOut, annotationOut: annotationOut}

	if a.Workers > 1 && len(a.Config.Samples) > 1 {
		return m.runConcurrently(ctx)
	}

	return m.runSequentially(ctx)
}

// merger holds the state shared across the samples of one run.
type merger struct {
	*Aggregator
	logger        *log.Logger
	fastaOut      io.Writer
	annotationOut io.Writer

	header        string
	headerSeen    bool
	headerWritten bool
}

func (m *merger) runSequentially(ctx context.Context) ([]SampleStats, error) {
	stats := make([]SampleStats, 0, len(m.Config.Samples))

	for i, sample := range m.Config.Samples {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		res, err := m.processSample(ctx, i, sample, m.fastaOut, m.annotationOut, !m.headerWritten)
		if err != nil {
			return stats, err
		}

		if err := m.commit(i, sample, res); err != nil {
			return stats, err
		}
		stats = append(stats, res.stats)
	}

	m.logger.Info("aggregation complete", "samples", len(stats))

	return stats, nil
}

func (m *merger) runConcurrently(ctx context.Context) ([]SampleStats, error) {
	samples := m.Config.Samples
	results := make([]sampleResult, len(samples))
	errs := make([]error, len(samples))

	m.logger.Debug("limiting concurrent samples", "workers", m.Workers)
	concurrencyLimit := make(chan struct{}, m.Workers)
	pool := sync.WaitGroup{}

	for i, sample := range samples {
		pool.Add(1)
		concurrencyLimit <- struct{}{}

		go func(i int, sample Sample) {
			defer pool.Done()
			defer func() { <-concurrencyLimit }()

			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}

			var fasta, annotations *bytes.Buffer
			if m.Config.AggregateFasta {
				fasta = &bytes.Buffer{}
			}
			if m.Config.AggregateAnnotations {
				annotations = &bytes.Buffer{}
			}
			res, err := m.processSample(ctx, i, sample, fasta, annotations, i == 0)
			res.fasta, res.annotations = fasta, annotations
			results[i], errs[i] = res, err
		}(i, sample)
	}

	pool.Wait()

	stats := make([]SampleStats, 0, len(samples))
	for i, sample := range samples {
		if errs[i] != nil {
			return stats, errs[i]
		}

		if err := m.commit(i, sample, results[i]); err != nil {
			return stats, err
		}
		stats = append(stats, results[i].stats)

		// Release the buffers as we go
		results[i] = sampleResult{}
	}

	m.logger.Info("aggregation complete", "samples", len(stats))

	return stats, nil
}

// processSample loads the sample's allow-list and relabels its inputs into
// fastaW and annotationW.
func (m *merger) processSample(ctx context.Context, i int, sample Sample, fastaW, annotationW io.Writer, isFirstSample bool) (sampleResult, error) {
	res := sampleResult{stats: SampleStats{Index: i + 1, Label: sample.Label}}
	logger := m.logger.With("sample", i+1, "label", sample.Label)

	// The allow-list is loaded in full before anything is written, so a bad
	// allow-list never produces partial output for its sample.
	list, err := allowlist.Load(ctx, sample.AllowListPath, m.Config.MetadataLabels, m.Client, logger)
	if err != nil {
		return res, &SampleError{Index: i, Label: sample.Label, Stage: "allow-list", Err: err}
	}
	res.stats.AllowListed = list.Len()

	if m.Config.AggregateFasta {
		in, err := vdjaggr.OpenInput(ctx, sample.FastaPath, m.Client)
		if err != nil {
			return res, &SampleError{Index: i, Label: sample.Label, Stage: "fasta", Err: err}
		}
		fs, err := relabel.Fasta(fastaW, in, sample.FastaPath, list, sample.Label, logger)
		in.Close()
		if err != nil {
			return res, &SampleError{Index: i, Label: sample.Label, Stage: "fasta", Err: err}
		}
		res.stats.FastaKept, res.stats.FastaDropped = fs.Kept, fs.Dropped
	}

	if m.Config.AggregateAnnotations {
		in, err := vdjaggr.OpenInput(ctx, sample.AnnotationPath, m.Client)
		if err != nil {
			return res, &SampleError{Index: i, Label: sample.Label, Stage: "annotations", Err: err}
		}
		ar, err := relabel.Annotations(annotationW, in, sample.AnnotationPath, list, relabel.AnnotationOptions{
			Label:          sample.Label,
			IsFirstSample:  isFirstSample,
			MetadataLabels: m.Config.MetadataLabels,
		}, logger)
		in.Close()
		if err != nil {
			return res, &SampleError{Index: i, Label: sample.Label, Stage: "annotations", Err: err}
		}
		res.header, res.headerWritten = ar.Header, ar.HeaderWritten
		res.stats.AnnotationKept, res.stats.AnnotationDropped = ar.Kept, ar.Dropped
	}

	logger.Info("processed sample",
		"allow_listed", res.stats.AllowListed,
		"fasta_kept", res.stats.FastaKept,
		"annotations_kept", res.stats.AnnotationKept)

	return res, nil
}

// commit enforces that every sample shares one annotation header, which is
// written exactly once, and then flushes any buffered output of the sample.
func (m *merger) commit(i int, sample Sample, res sampleResult) error {
	if res.header != "" {
		if !m.headerSeen {
			m.header, m.headerSeen = res.header, true
		} else if res.header != m.header {
			return &SampleError{Index: i, Label: sample.Label, Stage: "annotations", Err: &HeaderMismatchError{
				Path: sample.AnnotationPath,
				Want: m.header,
				Got:  res.header,
			}}
		}

		if !m.headerWritten && !res.headerWritten {
			header := relabel.ExtendHeader(res.header, m.Config.MetadataLabels)
			if _, err := io.WriteString(m.annotationOut, header+"\n"); err != nil {
				return pfx.Err(err)
			}
			res.headerWritten = true
		}
		m.headerWritten = m.headerWritten || res.headerWritten
	}

	if res.fasta != nil {
		if _, err := res.fasta.WriteTo(m.fastaOut); err != nil {
			return pfx.Err(err)
		}
	}
	if res.annotations != nil {
		if _, err := res.annotations.WriteTo(m.annotationOut); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}
