package scene

import "math"

// Vec3 is a 3-component vector used for translations and scales.
type Vec3 [3]float64

// Add returns the component-wise sum v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Mul returns the component-wise product v * w.
func (v Vec3) Mul(w Vec3) Vec3 {
	return Vec3{v[0] * w[0], v[1] * w[1], v[2] * w[2]}
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool { return v == Vec3{} }

// IsOne reports whether all components are exactly one.
func (v Vec3) IsOne() bool { return v == Vec3{1, 1, 1} }

// Finite reports whether all components are finite (no NaN or Inf).
func (v Vec3) Finite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Quat is a rotation quaternion (x, y, z, w).
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat { return Quat{W: 1} }

// IsIdentity reports whether the quaternion is exactly the identity rotation.
func (q Quat) IsIdentity() bool {
	return q == Quat{W: 1}
}

// Mul returns the Hamilton product q * r, i.e. the rotation r followed by q.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Finite reports whether all components are finite (no NaN or Inf).
func (q Quat) Finite() bool {
	for _, c := range [4]float64{q.X, q.Y, q.Z, q.W} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Euler returns the intrinsic XYZ Euler angles (radians) equivalent to q,
// matching the target framework's default rotation order. Near the gimbal
// singularity (|sin(y)| ≈ 1) the Z angle collapses to zero.
func (q Quat) Euler() Vec3 {
	// Rotation matrix elements needed for XYZ extraction.
	m11 := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	m12 := 2 * (q.X*q.Y - q.W*q.Z)
	m13 := 2 * (q.X*q.Z + q.W*q.Y)
	m22 := 1 - 2*(q.X*q.X+q.Z*q.Z)
	m23 := 2 * (q.Y*q.Z - q.W*q.X)
	m32 := 2 * (q.Y*q.Z + q.W*q.X)
	m33 := 1 - 2*(q.X*q.X+q.Y*q.Y)

	y := math.Asin(clamp(m13, -1, 1))
	var x, z float64
	if math.Abs(m13) < 0.9999999 {
		x = math.Atan2(-m23, m33)
		z = math.Atan2(-m12, m11)
	} else {
		x = math.Atan2(m32, m22)
		z = 0
	}
	return Vec3{x, y, z}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Transform is a node's local TRS transform.
type Transform struct {
	Translation Vec3
	Rotation    Quat
	Scale       Vec3
}

// Identity returns the identity transform (zero translation, identity
// rotation, unit scale).
func Identity() Transform {
	return Transform{Rotation: QuatIdentity(), Scale: Vec3{1, 1, 1}}
}

// IsIdentity reports whether the transform is exactly identity.
func (t Transform) IsIdentity() bool {
	return t.Translation.IsZero() && t.Rotation.IsIdentity() && t.Scale.IsOne()
}

// Finite reports whether every numeric component is finite.
func (t Transform) Finite() bool {
	return t.Translation.Finite() && t.Rotation.Finite() && t.Scale.Finite()
}

// Compose folds a pruned parent transform into its surviving child:
// translations add, rotations compose (parent first), scales multiply
// component-wise. The composition is exact floating-point arithmetic, no
// re-normalization, since downstream rendering depends on it.
func Compose(parent, child Transform) Transform {
	return Transform{
		Translation: parent.Translation.Add(child.Translation),
		Rotation:    parent.Rotation.Mul(child.Rotation),
		Scale:       parent.Scale.Mul(child.Scale),
	}
}
