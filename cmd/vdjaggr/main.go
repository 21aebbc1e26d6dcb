// vdjaggr merges the per-sample VDJ contig FASTA and annotation files listed in
// a run configuration into one FASTA and one annotation table, keeping only
// allow-listed transcripts and relabeling each sample's identifiers.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/vdjaggr"
	"github.com/carbocation/vdjaggr/aggregate"
	_ "github.com/carbocation/vdjaggr/compileinfoprint"
	charmlog "github.com/charmbracelet/log"
)

func main() {
	var configPath, fastaPath, annotationPath, summaryPath string
	var workers int
	var verbose bool
	flag.StringVar(&configPath, "config", "", "Path to the run configuration CSV. The first line is <aggregate annotations>,<aggregate fasta>[,<metadata label>...]; each following line is <label>,<allow-list>,<fasta>,<annotations>, omitting the path of a disabled output. Optionally, may be a google storage URL (gs://)")
	flag.StringVar(&fastaPath, "fasta", "contigs.fasta", "Path to the merged FASTA output. Ending in .gz writes gzip; - writes to stdout.")
	flag.StringVar(&annotationPath, "annotations", "contigs_annotation.csv", "Path to the merged annotation CSV output. Ending in .gz writes gzip; - writes to stdout.")
	flag.StringVar(&summaryPath, "summary", "", "(Optional) Path to write a CSV with per-sample counts of kept and dropped records.")
	flag.IntVar(&workers, "workers", 1, "Number of samples to process at once. Output is identical regardless.")
	flag.BoolVar(&verbose, "verbose", false, "Log per-file details and every duplicate allow-list entry")
	flag.Parse()

	if configPath == "" {
		flag.Usage()
		log.Fatalln("Must specify a --config file")
	}

	if workers < 1 {
		flag.Usage()
		log.Fatalln("--workers must be at least 1")
	}

	logger := vdjaggr.NewLogger(os.Stderr, verbose)

	if err := run(context.Background(), configPath, fastaPath, annotationPath, summaryPath, workers, logger); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, configPath, fastaPath, annotationPath, summaryPath string, workers int, logger *charmlog.Logger) error {
	var err error
	for _, p := range []*string{&configPath, &fastaPath, &annotationPath, &summaryPath} {
		if *p, err = vdjaggr.ExpandHome(*p); err != nil {
			return err
		}
	}

	var client *storage.Client
	defer func() {
		if client != nil {
			client.Close()
		}
	}()

	if vdjaggr.IsGoogleStoragePath(configPath) {
		if client, err = storage.NewClient(ctx); err != nil {
			return err
		}
	}

	config, err := aggregate.LoadConfig(ctx, configPath, client)
	if err != nil {
		return err
	}

	if client == nil && anyGoogleStoragePath(config.Inputs()) {
		if client, err = storage.NewClient(ctx); err != nil {
			return err
		}
	}

	// Fail before creating any output if an input is missing
	if err := config.CheckInputs(ctx, client); err != nil {
		return err
	}

	agg := aggregate.Aggregator{
		Config:  config,
		Client:  client,
		Logger:  logger,
		Workers: workers,
	}

	stats, err := agg.RunFiles(ctx, fastaPath, annotationPath)
	if err != nil {
		return err
	}

	if config.AggregateFasta {
		logger.Info("wrote merged FASTA", "file", fastaPath)
	}
	if config.AggregateAnnotations {
		logger.Info("wrote merged annotations", "file", annotationPath)
	}

	if summaryPath != "" {
		if err := aggregate.WriteSummaryFile(summaryPath, stats); err != nil {
			return err
		}
		logger.Info("wrote summary", "file", summaryPath)
	}

	return nil
}

func anyGoogleStoragePath(paths []string) bool {
	for _, path := range paths {
		if vdjaggr.IsGoogleStoragePath(path) {
			return true
		}
	}

	return false
}
