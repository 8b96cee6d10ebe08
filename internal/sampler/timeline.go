// Package sampler resamples an animated transform from a scene's frame rate
// onto a destination grid measured in steps per minute, and normalizes each
// sample against a boundary object into the 0-1 range automation expects.
package sampler

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidFrameRate = errors.New("source frame rate must be positive")
	ErrInvalidRange     = errors.New("frame start is after frame end")
	ErrInvalidTempo     = errors.New("tempo must be positive")
	ErrDegenerateStep   = errors.New("tempo too high for source frame rate: frame step rounds to zero")
)

// Timeline holds the source timeline and destination grid for one export.
type Timeline struct {
	FPS        float64
	FrameStart int
	FrameEnd   int
	Tempo      int // grid steps per minute
}

func (t Timeline) Validate() error {
	if t.FPS <= 0 || math.IsNaN(t.FPS) || math.IsInf(t.FPS, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidFrameRate, t.FPS)
	}
	if t.FrameStart > t.FrameEnd {
		return fmt.Errorf("%w: %d > %d", ErrInvalidRange, t.FrameStart, t.FrameEnd)
	}
	if t.Tempo <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTempo, t.Tempo)
	}
	if t.Step() < 1 {
		return fmt.Errorf("%w (fps %v, tempo %d)", ErrDegenerateStep, t.FPS, t.Tempo)
	}
	return nil
}

// GridRate is the destination grid in steps per second.
func (t Timeline) GridRate() float64 {
	return float64(t.Tempo) / 60
}

// FrameCount is the inclusive number of source frames.
func (t Timeline) FrameCount() int {
	return t.FrameEnd - t.FrameStart + 1
}

// TotalSteps is the length of the whole range on the destination grid.
func (t Timeline) TotalSteps() int {
	return int(math.Floor(t.GridRate() * float64(t.FrameCount()) / t.FPS))
}

// Step is the sampling interval in source frames. Halves round to even.
func (t Timeline) Step() int {
	return int(math.RoundToEven(t.FPS / t.GridRate()))
}

// GridIndex maps a source frame to the destination grid. The start frame
// counts as 1 so that it lands on grid index 0 regardless of FrameStart.
func (t Timeline) GridIndex(frame int) int {
	relative := frame - t.FrameStart + 1
	return int(math.Floor(t.GridRate() * (float64(relative) / t.FPS)))
}

// maxTicks bounds the number of ticks a sampler over t yields.
func (t Timeline) maxTicks() int {
	return (t.FrameEnd-t.FrameStart)/t.Step() + 2
}
