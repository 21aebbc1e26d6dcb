// airrmetajoin appends per-transcript metadata columns to an AIRR
// rearrangement TSV. Rows whose transcript is not in the metadata CSV are kept
// with empty metadata cells.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/vdjaggr"
	_ "github.com/carbocation/vdjaggr/compileinfoprint"
	"github.com/carbocation/vdjaggr/metajoin"
)

func main() {
	var airrPath, metadataPath, outputPath string
	var verbose bool
	flag.StringVar(&airrPath, "airr", "", "Path to the input AIRR rearrangement TSV. Optionally, may be a google storage URL (gs://)")
	flag.StringVar(&metadataPath, "metadata", "", "Path to a CSV whose first line lists the metadata labels and whose other lines are <transcript>,<value>... Optionally, may be a google storage URL (gs://)")
	flag.StringVar(&outputPath, "output", "AIRR_output.tsv", "Path to write the AIRR TSV with metadata columns appended. Ending in .gz writes gzip; - writes to stdout.")
	flag.BoolVar(&verbose, "verbose", false, "Log per-file details")
	flag.Parse()

	if airrPath == "" {
		flag.Usage()
		log.Fatalln("Must specify an --airr file")
	}

	if metadataPath == "" {
		flag.Usage()
		log.Fatalln("Must specify a --metadata file")
	}

	logger := vdjaggr.NewLogger(os.Stderr, verbose)
	ctx := context.Background()

	var err error
	for _, p := range []*string{&airrPath, &metadataPath, &outputPath} {
		if *p, err = vdjaggr.ExpandHome(*p); err != nil {
			log.Fatalln(err)
		}
	}

	var client *storage.Client
	if vdjaggr.IsGoogleStoragePath(airrPath) || vdjaggr.IsGoogleStoragePath(metadataPath) {
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer client.Close()
	}

	for _, path := range []string{airrPath, metadataPath} {
		if err := vdjaggr.Exists(ctx, path, client); err != nil {
			log.Fatalln(err)
		}
	}

	if _, err := metajoin.JoinFiles(ctx, airrPath, metadataPath, outputPath, client, logger); err != nil {
		log.Fatalln(err)
	}
}
