package sampler

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeRotation_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		theta float64
		want  float64
	}{
		{name: "zero", theta: 0, want: 0.5},
		{name: "pi", theta: math.Pi, want: 1},
		{name: "minus pi", theta: -math.Pi, want: 0},
		{name: "half pi", theta: math.Pi / 2, want: 0.75},
		{name: "minus half pi", theta: -math.Pi / 2, want: 0.25},
		{name: "wraps past pi", theta: 3 * math.Pi / 2, want: 0.25},
		{name: "wraps below minus pi", theta: -3 * math.Pi / 2, want: 0.75},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeRotation(tc.theta))
		})
	}
}

func TestWrapAngle_KeepsPi(t *testing.T) {
	assert.Equal(t, math.Pi, WrapAngle(math.Pi))
	assert.Equal(t, -math.Pi, WrapAngle(-math.Pi))
}

func TestNormalizeRotation_Periodic(t *testing.T) {
	for theta := -3.0; theta < 3.0; theta += 0.137 {
		want := NormalizeRotation(theta)
		assert.Equal(t, want, NormalizeRotation(theta+2*math.Pi), "theta=%v", theta)
		assert.Equal(t, want, NormalizeRotation(theta-2*math.Pi), "theta=%v", theta)
	}
}

func TestNormalizeRotation_InUnitRange(t *testing.T) {
	for theta := -50.0; theta <= 50.0; theta += 0.0731 {
		v := NormalizeRotation(theta)
		assert.GreaterOrEqual(t, v, 0.0, "theta=%v", theta)
		assert.LessOrEqual(t, v, 1.0, "theta=%v", theta)
	}
	for _, theta := range []float64{1e9, -1e9, math.MaxFloat32, -math.MaxFloat32} {
		v := NormalizeRotation(theta)
		assert.GreaterOrEqual(t, v, 0.0, "theta=%v", theta)
		assert.LessOrEqual(t, v, 1.0, "theta=%v", theta)
	}
}

func TestNormalizePosition_OriginIsZero(t *testing.T) {
	ref := ReferenceFrame{Translation: mgl64.Vec3{3, -2, 7.5}, Extent: mgl64.Vec3{0.5, 10, 3}}
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, ref.NormalizePosition(ref.Translation))
}

func TestNormalizePosition_Affine(t *testing.T) {
	ref := ReferenceFrame{Translation: mgl64.Vec3{1, 1, 1}, Extent: mgl64.Vec3{2, 4, 8}}

	assert.Equal(t, mgl64.Vec3{0.5, 0.25, 0.125}, ref.NormalizePosition(mgl64.Vec3{2, 2, 2}))
	assert.Equal(t, mgl64.Vec3{1, 0.5, 0.25}, ref.NormalizePosition(mgl64.Vec3{3, 3, 3}))
	assert.Equal(t, mgl64.Vec3{-0.5, -0.25, -0.125}, ref.NormalizePosition(mgl64.Vec3{0, 0, 0}))
}

func TestNormalizePosition_NotClamped(t *testing.T) {
	ref := ReferenceFrame{Extent: mgl64.Vec3{1, 1, 1}}
	assert.Equal(t, mgl64.Vec3{2.5, -3, 0}, ref.NormalizePosition(mgl64.Vec3{2.5, -3, 0}))
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0.12344, want: 0.1234},
		{in: 0.12346, want: 0.1235},
		{in: -0.00001, want: 0},
		{in: 1.0, want: 1},
		{in: 2.999999, want: 3},
		{in: 0.30005, want: 0.3},
		{in: 2.67505, want: 2.6751},
		{in: 1.00015, want: 1.0002},
		{in: 0.03125, want: 0.0312},
		{in: -0.00015, want: -0.0001},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Round(tc.in), "Round(%v)", tc.in)
	}
	assert.False(t, math.Signbit(Round(-0.00001)), "negative zero must collapse")
}

func TestEulerZ(t *testing.T) {
	for _, z := range []float64{0, 0.3, -1.2, 3, -3} {
		m := mgl64.HomogRotate3DZ(z).
			Mul4(mgl64.HomogRotate3DY(0.4)).
			Mul4(mgl64.HomogRotate3DX(-0.7))
		assert.InDelta(t, z, EulerZ(m), 1e-12, "z=%v", z)
	}
}

func TestEulerZ_PicksSmallerDecomposition(t *testing.T) {
	m := mgl64.HomogRotate3DZ(3).Mul4(mgl64.HomogRotate3DX(3))
	assert.InDelta(t, 3-math.Pi, EulerZ(m), 1e-9)
	assert.Equal(t, 0.4775, NormalizeRotation(EulerZ(m)))
}

func TestEulerZ_GimbalLock(t *testing.T) {
	for _, y := range []float64{math.Pi / 2, -math.Pi / 2} {
		m := mgl64.HomogRotate3DZ(1).
			Mul4(mgl64.HomogRotate3DY(y))
		assert.Equal(t, 0.0, EulerZ(m), "y=%v", y)
		assert.Equal(t, 0.5, NormalizeRotation(EulerZ(m)), "y=%v", y)
	}
}

func TestEulerZ_IgnoresScale(t *testing.T) {
	m := mgl64.Translate3D(1, 2, 3).
		Mul4(mgl64.HomogRotate3DZ(-1.2)).
		Mul4(mgl64.Scale3D(2, 0.5, 3))
	assert.InDelta(t, -1.2, EulerZ(m), 1e-12)
}
