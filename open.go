package vdjaggr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/shenwei356/xopen"
)

func openLocal(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return f, nil
}

// OpenInput opens a local or gs:// path and transparently decompresses it.
// client may be nil when no gs:// paths are in use.
func OpenInput(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	f, _, err := MaybeOpenSeekerFromGoogleStorage(ctx, path, client)
	if err != nil {
		return nil, err
	}

	r, err := MaybeDecompressReadCloser(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return stack(r, f), nil
}

// stack returns a reader that closes both r and the stream f beneath it.
func stack(r io.ReadCloser, f io.ReadCloser) io.ReadCloser {
	if r == f {
		return f
	}

	return &stackedReadCloser{Reader: r, closers: []io.Closer{r, f}}
}

// stackedReadCloser closes a decompressor and then the stream underneath it.
type stackedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReadCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// Exists returns nil if path can be found locally or, for gs:// paths, in
// Google Storage.
func Exists(ctx context.Context, path string, client *storage.Client) error {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return fmt.Errorf("%s: a google storage client is required to read gs:// paths", path)
		}
		bucketName, objectName, err := splitGoogleStoragePath(path)
		if err != nil {
			return err
		}
		if _, err := client.Bucket(bucketName).Object(objectName).Attrs(ctx); err != nil {
			if errors.Is(err, storage.ErrObjectNotExist) {
				return fmt.Errorf("%s does not exist", path)
			}
			return pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		return nil
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist", path)
	} else if err != nil {
		return pfx.Err(err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	return nil
}

// CreateOutput truncates (or creates) path for writing. Paths ending in .gz
// are gzip compressed and "-" writes to stdout. The caller must Close the
// writer to flush it.
func CreateOutput(path string) (*xopen.Writer, error) {
	w, err := xopen.Wopen(path)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return w, nil
}
