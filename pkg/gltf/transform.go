package gltf

import (
	"math"

	qgltf "github.com/qmuntal/gltf"

	"github.com/sceneforge/sceneforge/pkg/scene"
)

var identityMatrix = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// nodeTransform extracts a node's local transform. Nodes carry either a TRS
// triple or a column-major matrix; matrices are widened to float64 once and
// decomposed so the rest of the pipeline deals with TRS only.
func nodeTransform(n *qgltf.Node) scene.Transform {
	if m := n.MatrixOrDefault(); m != identityMatrix {
		var m64 [16]float64
		for i, v := range m {
			m64[i] = float64(v)
		}
		return decompose(m64)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return scene.Transform{
		Translation: scene.Vec3{float64(t[0]), float64(t[1]), float64(t[2])},
		Rotation:    scene.Quat{X: float64(r[0]), Y: float64(r[1]), Z: float64(r[2]), W: float64(r[3])},
		Scale:       scene.Vec3{float64(s[0]), float64(s[1]), float64(s[2])},
	}
}

// decompose splits a column-major affine matrix into translation, rotation
// and scale. A negative determinant flips the x scale, matching the
// convention of the target framework's own matrix decomposition.
func decompose(m [16]float64) scene.Transform {
	sx := math.Hypot(math.Hypot(m[0], m[1]), m[2])
	sy := math.Hypot(math.Hypot(m[4], m[5]), m[6])
	sz := math.Hypot(math.Hypot(m[8], m[9]), m[10])

	det := m[0]*(m[5]*m[10]-m[6]*m[9]) -
		m[4]*(m[1]*m[10]-m[2]*m[9]) +
		m[8]*(m[1]*m[6]-m[2]*m[5])
	if det < 0 {
		sx = -sx
	}

	t := scene.Transform{
		Translation: scene.Vec3{m[12], m[13], m[14]},
		Rotation:    scene.QuatIdentity(),
		Scale:       scene.Vec3{sx, sy, sz},
	}
	if sx == 0 || sy == 0 || sz == 0 {
		return t
	}

	// Normalized rotation matrix in row-major m(row)(col) form.
	m11, m12, m13 := m[0]/sx, m[4]/sy, m[8]/sz
	m21, m22, m23 := m[1]/sx, m[5]/sy, m[9]/sz
	m31, m32, m33 := m[2]/sx, m[6]/sy, m[10]/sz

	t.Rotation = quatFromMatrix(m11, m12, m13, m21, m22, m23, m31, m32, m33)
	return t
}

// quatFromMatrix converts a pure rotation matrix to a quaternion using the
// trace method with the usual stability branches.
func quatFromMatrix(m11, m12, m13, m21, m22, m23, m31, m32, m33 float64) scene.Quat {
	trace := m11 + m22 + m33
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		return scene.Quat{
			X: (m32 - m23) * s,
			Y: (m13 - m31) * s,
			Z: (m21 - m12) * s,
			W: 0.25 / s,
		}
	case m11 > m22 && m11 > m33:
		s := 2 * math.Sqrt(1+m11-m22-m33)
		return scene.Quat{
			X: 0.25 * s,
			Y: (m12 + m21) / s,
			Z: (m13 + m31) / s,
			W: (m32 - m23) / s,
		}
	case m22 > m33:
		s := 2 * math.Sqrt(1+m22-m11-m33)
		return scene.Quat{
			X: (m12 + m21) / s,
			Y: 0.25 * s,
			Z: (m23 + m32) / s,
			W: (m13 - m31) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m33-m11-m22)
		return scene.Quat{
			X: (m13 + m31) / s,
			Y: (m23 + m32) / s,
			Z: 0.25 * s,
			W: (m21 - m12) / s,
		}
	}
}
