package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// FileExtension is the suffix REAPER expects for automation items.
const FileExtension = ".ReaperAutoItem"

const lfoHeader = "LFO 0 0 0 0 0 0 0"

var ErrGridOrder = errors.New("automation points must not go back in time")

// AutoItemWriter serializes one automation item:
//
//	SRCLEN <total>
//	LFO 0 0 0 0 0 0 0
//	PPT <grid> <value> 0
type AutoItemWriter struct {
	w        *bufio.Writer
	header   bool
	points   int
	lastGrid int
}

func NewAutoItemWriter(w io.Writer) *AutoItemWriter {
	return &AutoItemWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the source length and the constant LFO line. It must be
// called exactly once, before any point.
func (a *AutoItemWriter) WriteHeader(totalSteps int) error {
	if a.header {
		return errors.New("automation header already written")
	}
	a.header = true
	_, err := fmt.Fprintf(a.w, "SRCLEN %d\n%s\n", totalSteps, lfoHeader)
	return err
}

// WritePoint appends one PPT line.
func (a *AutoItemWriter) WritePoint(grid int, value float64) error {
	if !a.header {
		return errors.New("automation header not written")
	}
	if a.points > 0 && grid < a.lastGrid {
		return fmt.Errorf("%w: %d after %d", ErrGridOrder, grid, a.lastGrid)
	}
	if _, err := fmt.Fprintf(a.w, "PPT %d %s 0\n", grid, FormatValue(value)); err != nil {
		return err
	}
	a.points++
	a.lastGrid = grid
	return nil
}

// Points is the number of PPT lines written so far.
func (a *AutoItemWriter) Points() int {
	return a.points
}

func (a *AutoItemWriter) Flush() error {
	return a.w.Flush()
}

// FormatValue renders v with a period decimal separator and no exponent,
// dropping trailing zeros. Whole numbers have no decimal point.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
