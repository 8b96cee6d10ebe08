package sampler

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// Precision is the number of fractional digits every sample is rounded to.
const Precision = 4

var ErrDegenerateExtent = errors.New("boundary extent must be positive on every axis")

// ReferenceFrame maps world units into the boundary's normalized space:
// the boundary translation is 0, translation+extent is 1.
type ReferenceFrame struct {
	Translation mgl64.Vec3
	Extent      mgl64.Vec3
}

func validateExtent(extent mgl64.Vec3) error {
	for axis, v := range extent {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: axis %d is %v", ErrDegenerateExtent, axis, v)
		}
	}
	return nil
}

// NormalizePosition is unclamped: points outside the boundary volume map
// outside 0-1.
func (r ReferenceFrame) NormalizePosition(p mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for a := range out {
		out[a] = Round((p[a] - r.Translation[a]) / r.Extent[a])
	}
	return out
}

// WrapAngle brings a radian angle into [-pi, pi]. Angles already in that
// interval are returned unchanged, so both -pi and pi survive; anything else
// is reduced with a non-negative modulo.
func WrapAngle(theta float64) float64 {
	if theta >= -math.Pi && theta <= math.Pi {
		return theta
	}
	m := math.Mod(theta+math.Pi, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	return m - math.Pi
}

// NormalizeRotation maps an angle to [0, 1] with 0.5 at zero radians.
func NormalizeRotation(theta float64) float64 {
	v := 0.5 + WrapAngle(theta)/(2*math.Pi)
	return Round(math.Min(1, math.Max(0, v)))
}

// gimbalEpsilon is the cos(Y) below which an XYZ decomposition is treated
// as gimbal locked: 16 single-precision epsilons.
const gimbalEpsilon = 16 * 1.1920928955078125e-07

// EulerZ extracts the Z angle of an XYZ Euler decomposition of m's
// rotation part, with scale removed. Of the two equivalent decompositions
// the one with the smaller sum of absolute angles wins; under gimbal lock
// the rotation is attributed to X and Z is 0. The result lies in [-pi, pi].
func EulerZ(m mgl64.Mat4) float64 {
	r := m.Mat3()
	for c := 0; c < 3; c++ {
		col := r.Col(c)
		if l := col.Len(); l > 0 {
			r.SetCol(c, col.Mul(1/l))
		}
	}

	cy := math.Hypot(r.At(0, 0), r.At(1, 0))
	if cy <= gimbalEpsilon {
		return 0
	}

	x1 := math.Atan2(r.At(2, 1), r.At(2, 2))
	y1 := math.Atan2(-r.At(2, 0), cy)
	z1 := math.Atan2(r.At(1, 0), r.At(0, 0))

	x2 := math.Atan2(-r.At(2, 1), -r.At(2, 2))
	y2 := math.Atan2(-r.At(2, 0), -cy)
	z2 := math.Atan2(-r.At(1, 0), -r.At(0, 0))

	if math.Abs(x1)+math.Abs(y1)+math.Abs(z1) > math.Abs(x2)+math.Abs(y2)+math.Abs(z2) {
		return z2
	}
	return z1
}

// Round rounds v to Precision fractional digits, correctly rounded from its
// exact binary value with ties to even. Negative zero collapses to zero.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', Precision, 64), 64)
	if err != nil || r == 0 {
		return 0
	}
	return r
}
