package vdjaggr

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"io"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

// ErrUnsupportedCompression is returned for Unix compress (.Z, LZW) inputs,
// which are recognized but cannot be decoded.
var ErrUnsupportedCompression = errors.New("unix compress (.Z) inputs are not supported; decompress the file first")

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip: {0x1f, 0x8b, 0x08},
	DataTypeZip:  {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:   {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:    {0x1f, 0x9d},
}

// A bzip2 stream is "BZh", a block size digit, then either the first block's
// magic or, for an empty stream, the end-of-stream magic.
var (
	bzip2Prefix     = []byte("BZh")
	bzip2BlockMagic = []byte{0x31, 0x41, 0x59, 0x26, 0x53, 0x59}
	bzip2EndMagic   = []byte{0x17, 0x72, 0x45, 0x38, 0x50, 0x90}
)

// DetectDataType attempts to detect the data type of a stream by checking
// against a set of known data types. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
//
// Streams shorter than a signature (including empty allow-lists and tiny FASTA
// files) are treated as uncompressed. Plain text that happens to begin with
// "PK\x03\x04" is still taken for a zip archive; bzip2 is checked through its
// block magic, so text starting with "BZh" stays plain.
func DetectDataType(r io.Reader) (DataType, error) {
	buff := make([]byte, 10)
	n, err := io.ReadFull(r, buff)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return DataTypeInvalid, err
	}
	buff = buff[:n]

	if isBZip2(buff) {
		return DataTypeBZip2, nil
	}

	// Match known signatures
Outer:
	for dt, sig := range byteCodeSigs {
		if len(buff) < len(sig) {
			continue
		}
		for position := range sig {
			if buff[position] != sig[position] {
				continue Outer
			}
		}
		return dt, nil
	}

	return DataTypeNoCompression, nil
}

func isBZip2(buff []byte) bool {
	if len(buff) < 10 || !bytes.HasPrefix(buff, bzip2Prefix) || buff[3] < '1' || buff[3] > '9' {
		return false
	}

	return bytes.Equal(buff[4:10], bzip2BlockMagic) || bytes.Equal(buff[4:10], bzip2EndMagic)
}

// MaybeDecompressReadCloser sniffs the first bytes of f and, if they match a
// known compression format, wraps f in the matching decompressor. f is rewound
// before the wrapped reader is returned. Closing the returned reader does not
// close f unless no decompression was needed, in which case f itself is
// returned.
func MaybeDecompressReadCloser(f io.ReadSeekCloser) (io.ReadCloser, error) {
	dt, err := DetectDataType(f)
	if err != nil {
		return nil, pfx.Err(err)
	}

	// Reset your original reader
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, pfx.Err(err)
	}

	switch dt {
	case DataTypeGzip:
		return gzip.NewReader(f)
	case DataTypeZip:
		// Only the first member of an archive is read.
		zr := zipstream.NewReader(f)
		if _, err := zr.Next(); err != nil {
			return nil, pfx.Err(err)
		}
		return &readCloserFaker{zr}, nil
	case DataTypeBZip2:
		return &readCloserFaker{bzip2.NewReader(f)}, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(f, 0)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return &readCloserFaker{reader}, nil
	case DataTypeZ:
		return nil, ErrUnsupportedCompression
	}

	// No data type detected. For now, we assume this is uncompressed.
	return f, nil
}

// readCloserFaker "upgrades" readers that don't need to be closed
type readCloserFaker struct {
	io.Reader
}

func (c *readCloserFaker) Close() error {
	return nil
}
