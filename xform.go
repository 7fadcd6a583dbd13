// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package alembic

import "math"

// XformOp is one operator in a transform property's op stack. The low
// nibble of each byte in ".ops" is the op code; the high nibble is a
// writer hint and is ignored.
type XformOp uint8

const (
	XformScale XformOp = iota
	XformTranslate
	XformRotate
	XformMatrix
	XformRotateX
	XformRotateY
	XformRotateZ
)

func (op XformOp) String() string {
	switch op {
	case XformScale:
		return "Scale"
	case XformTranslate:
		return "Translate"
	case XformRotate:
		return "Rotate"
	case XformMatrix:
		return "Matrix"
	case XformRotateX:
		return "RotateX"
	case XformRotateY:
		return "RotateY"
	case XformRotateZ:
		return "RotateZ"
	default:
		return "Unknown"
	}
}

// opValueCount is the number of ".vals" floats an op consumes: Scale and
// Translate take an xyz triple, Rotate takes an axis xyz plus an angle,
// Matrix takes a full row-major 4x4, and the single-axis rotations take
// just an angle.
func opValueCount(op XformOp) (int, error) {
	switch op {
	case XformScale, XformTranslate:
		return 3, nil
	case XformRotate:
		return 4, nil
	case XformMatrix:
		return 16, nil
	case XformRotateX, XformRotateY, XformRotateZ:
		return 1, nil
	default:
		return 0, newFormatErrorf(KindUnsupported, "transform op %d is out of range", uint8(op))
	}
}

// BuildMatrix composes a transform sample into a single 4x4 matrix by
// walking the ".ops" byte stream and consuming the matching run of
// ".vals" floats for each op, left-to-right. ops and vals may be either
// Scalar or Array properties; real archives store both as Array, so
// this reads through the kind-agnostic flat element accessors.
func BuildMatrix(ops, vals *Property, logical uint32) (Matrix4, error) {
	opCount, err := ops.flatLen(logical)
	if err != nil {
		return Matrix4{}, err
	}

	result := Identity4()
	valCursor := uint64(0)
	for i := uint64(0); i < opCount; i++ {
		raw, err := ops.flatElement(logical, i)
		if err != nil {
			return Matrix4{}, err
		}
		op := XformOp(uint8(raw) & 0x0f)

		n, err := opValueCount(op)
		if err != nil {
			return Matrix4{}, err
		}
		values := make([]float64, n)
		for j := 0; j < n; j++ {
			v, err := vals.flatElement(logical, valCursor+uint64(j))
			if err != nil {
				return Matrix4{}, err
			}
			values[j] = v
		}
		valCursor += uint64(n)

		opMatrix, err := opMatrixOf(op, values)
		if err != nil {
			return Matrix4{}, err
		}
		result = result.Mul(opMatrix)
	}

	return result, nil
}

// ObjectTransform resolves and builds the transform matrix for an
// object's ".xform" compound property, looking up its ".ops" and
// ".vals" children by their conventional names.
func ObjectTransform(o *Object, logical uint32) (Matrix4, error) {
	ops, ok := o.FindProperty(".xform/.ops")
	if !ok {
		return Matrix4{}, newFormatErrorf(KindStructureMismatch, "object %q has no .xform/.ops property", o.Name)
	}
	vals, ok := o.FindProperty(".xform/.vals")
	if !ok {
		return Matrix4{}, newFormatErrorf(KindStructureMismatch, "object %q has no .xform/.vals property", o.Name)
	}
	return BuildMatrix(ops, vals, logical)
}

func opMatrixOf(op XformOp, v []float64) (Matrix4, error) {
	switch op {
	case XformScale:
		m := Identity4()
		m[0][0], m[1][1], m[2][2] = v[0], v[1], v[2]
		return m, nil
	case XformTranslate:
		m := Identity4()
		m[0][3], m[1][3], m[2][3] = v[0], v[1], v[2]
		return m, nil
	case XformRotate:
		return rotateAxisAngle(Vec3{X: v[0], Y: v[1], Z: v[2]}, degToRad(v[3])), nil
	case XformMatrix:
		var m Matrix4
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				m[r][c] = v[r*4+c]
			}
		}
		return m, nil
	case XformRotateX:
		return rotateAxisAngle(Vec3{X: 1}, degToRad(v[0])), nil
	case XformRotateY:
		return rotateAxisAngle(Vec3{Y: 1}, degToRad(v[0])), nil
	case XformRotateZ:
		return rotateAxisAngle(Vec3{Z: 1}, degToRad(v[0])), nil
	default:
		return Matrix4{}, newFormatErrorf(KindUnsupported, "transform op %d is out of range", uint8(op))
	}
}

// degToRad converts the angle channel, stored in degrees per Alembic's
// XformOp convention, to radians for the trig below.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// rotateAxisAngle builds a 4x4 rotation matrix from a (not necessarily
// normalized) axis and an angle in radians, via Rodrigues' formula.
func rotateAxisAngle(axis Vec3, angleRad float64) Matrix4 {
	length := math.Sqrt(axis.X*axis.X + axis.Y*axis.Y + axis.Z*axis.Z)
	if length == 0 {
		return Identity4()
	}
	x, y, z := axis.X/length, axis.Y/length, axis.Z/length

	sin, cos := math.Sin(angleRad), math.Cos(angleRad)
	t := 1 - cos

	m := Identity4()
	m[0][0] = t*x*x + cos
	m[0][1] = t*x*y - z*sin
	m[0][2] = t*x*z + y*sin
	m[1][0] = t*x*y + z*sin
	m[1][1] = t*y*y + cos
	m[1][2] = t*y*z - x*sin
	m[2][0] = t*x*z - y*sin
	m[2][1] = t*y*z + x*sin
	m[2][2] = t*z*z + cos
	return m
}
