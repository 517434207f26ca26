package chatbot

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// MaxLineBytes is the longest input line sent as a turn
const MaxLineBytes = 1 << 20

var errLineTooLong = errors.New("input line too long")

// lineReader reads newline-terminated input. Lines over max bytes are
// drained and reported instead of ending the session.
type lineReader struct {
	r   *bufio.Reader
	max int
}

func newLineReader(in io.Reader, max int) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(in, 64*1024), max: max}
}

// next returns the following line without its line ending. It returns
// io.EOF once input is exhausted.
func (l *lineReader) next() (string, error) {
	var (
		line    []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := l.r.ReadLine()
		if err != nil {
			return "", err
		}
		if !tooLong && len(line)+len(chunk) <= l.max {
			line = append(line, chunk...)
		} else {
			tooLong = true
			line = nil
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return "", fmt.Errorf("%w (limit %d bytes), line skipped", errLineTooLong, l.max)
	}
	return string(line), nil
}
