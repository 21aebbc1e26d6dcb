package aggregate

import (
	"context"
	"io"

	"github.com/carbocation/pfx"
	"github.com/carbocation/vdjaggr"
)

// RunFiles opens the merged outputs once, truncating them, runs the
// aggregator and closes the outputs. Only the outputs of enabled aggregations
// are created.
func (a *Aggregator) RunFiles(ctx context.Context, fastaPath, annotationPath string) (stats []SampleStats, err error) {
	if err := a.Config.Validate(); err != nil {
		return nil, err
	}

	var fastaOut, annotationOut io.Writer

	if a.Config.AggregateFasta {
		w, werr := vdjaggr.CreateOutput(fastaPath)
		if werr != nil {
			return nil, werr
		}
		defer func() {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = pfx.Err(cerr)
			}
		}()
		fastaOut = w
	}

	if a.Config.AggregateAnnotations {
		w, werr := vdjaggr.CreateOutput(annotationPath)
		if werr != nil {
			return nil, werr
		}
		defer func() {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = pfx.Err(cerr)
			}
		}()
		annotationOut = w
	}

	return a.Run(ctx, fastaOut, annotationOut)
}
