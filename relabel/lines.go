package relabel

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/pfx"
)

// lineReader yields lines one at a time along with their original line
// ending, so copied lines can be reproduced byte for byte.
type lineReader struct {
	r      *bufio.Reader
	name   string
	number int
	done   bool
}

func newLineReader(r io.Reader, name string) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024), name: name}
}

// next returns the line without its ending, and the ending itself ("\n",
// "\r\n", or "" for a final unterminated line). ok is false at end of input.
func (lr *lineReader) next() (text, ending string, ok bool, err error) {
	if lr.done {
		return "", "", false, nil
	}

	line, err := lr.r.ReadString('\n')
	if err == io.EOF {
		lr.done = true
		if line == "" {
			return "", "", false, nil
		}
	} else if err != nil {
		return "", "", false, pfx.Err(fmt.Errorf("%s line %d: %w", lr.name, lr.number+1, err))
	}
	lr.number++

	text = strings.TrimRight(line, "\r\n")

	return text, line[len(text):], true, nil
}

// terminated makes sure that concatenating outputs never glues the last line
// of one sample onto the first line of the next.
func terminated(ending string) string {
	if ending == "" {
		return "\n"
	}
	return ending
}
