package sampler

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
)

// Channel selects one of the four sampled values.
type Channel int

const (
	LocX Channel = iota
	LocY
	LocZ
	RotZ
)

// Channels lists every channel in output order.
var Channels = [...]Channel{LocX, LocY, LocZ, RotZ}

func (c Channel) String() string {
	switch c {
	case LocX:
		return "loc_x"
	case LocY:
		return "loc_y"
	case LocZ:
		return "loc_z"
	case RotZ:
		return "rot_z"
	default:
		return "unknown"
	}
}

// Tick is one sampled instant.
type Tick struct {
	Frame  int
	Grid   int
	Values [len(Channels)]float64
}

// Transformer evaluates a world matrix at a source frame without touching
// any shared state.
type Transformer interface {
	WorldMatrix(frame int) mgl64.Mat4
}

// Boundary is a transformer with a bounding extent.
type Boundary interface {
	Transformer
	Extent() mgl64.Vec3
}

// Cursor is the host's playback position. Seek moves it, Release restores
// the position it had when it was acquired.
type Cursor interface {
	Seek(frame int)
	Release()
}

type Config struct {
	Timeline Timeline
	Moving   Transformer
	Boundary Boundary
	// Cursor is optional. When set, it follows every tick and is released
	// when the sampler finishes or is closed.
	Cursor Cursor
}

// Sampler yields ticks lazily in increasing frame order. It is single-use:
// once Next returns false it stays exhausted.
type Sampler struct {
	cfg  Config
	step int

	frame   int
	started bool
	done    bool
	closed  bool
	tick    Tick
	err     error
}

// New validates cfg. The cursor, if any, is not moved until the first Next.
func New(cfg Config) (*Sampler, error) {
	if err := cfg.Timeline.Validate(); err != nil {
		return nil, err
	}
	if err := validateExtent(cfg.Boundary.Extent()); err != nil {
		return nil, err
	}
	return &Sampler{cfg: cfg, step: cfg.Timeline.Step()}, nil
}

// Next advances to the next tick. It returns false when the range is
// exhausted or ctx is done; Err tells the two apart.
func (s *Sampler) Next(ctx context.Context) bool {
	if s.done {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.err = err
		s.finish()
		return false
	}

	tl := s.cfg.Timeline
	switch {
	case !s.started:
		s.started = true
		s.frame = tl.FrameStart
	case s.frame >= tl.FrameEnd:
		s.finish()
		return false
	default:
		s.frame += s.step
		if s.frame > tl.FrameEnd {
			s.frame = tl.FrameEnd
		}
	}

	s.tick = s.sample(s.frame)
	return true
}

func (s *Sampler) sample(frame int) Tick {
	if s.cfg.Cursor != nil {
		s.cfg.Cursor.Seek(frame)
	}

	moving := s.cfg.Moving.WorldMatrix(frame)
	ref := ReferenceFrame{
		Translation: s.cfg.Boundary.WorldMatrix(frame).Col(3).Vec3(),
		Extent:      s.cfg.Boundary.Extent(),
	}
	pos := ref.NormalizePosition(moving.Col(3).Vec3())

	return Tick{
		Frame:  frame,
		Grid:   s.cfg.Timeline.GridIndex(frame),
		Values: [len(Channels)]float64{pos[0], pos[1], pos[2], NormalizeRotation(EulerZ(moving))},
	}
}

// Tick returns the tick produced by the last successful Next.
func (s *Sampler) Tick() Tick {
	return s.tick
}

func (s *Sampler) Err() error {
	return s.err
}

// Close releases the cursor. It is safe to call more than once and after
// the sampler is exhausted.
func (s *Sampler) Close() {
	s.finish()
}

func (s *Sampler) finish() {
	s.done = true
	if s.closed {
		return
	}
	s.closed = true
	if s.cfg.Cursor != nil {
		s.cfg.Cursor.Release()
	}
}
