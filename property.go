// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package alembic

import (
	"encoding/binary"
	"math"
)

// PropertyKind discriminates the three property variants. The on-disk
// header distinguishes a fourth, "scalar-like" array kind; it decodes
// and behaves identically to PropertyArray.
type PropertyKind uint8

const (
	PropertyCompound PropertyKind = iota
	PropertyScalar
	PropertyArray
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyCompound:
		return "Compound"
	case PropertyScalar:
		return "Scalar"
	case PropertyArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// SampleCounts carries the three numbers that drive sample
// de-duplication: the total number of logical samples, and the run of
// logical indices over which distinct stored samples actually exist.
type SampleCounts struct {
	Next         uint32
	FirstChanged uint32
	LastChanged  uint32
}

// trueIndex maps a logical sample index to the index of the actual data
// blob holding it. Samples outside the changed run collapse onto the
// first or last stored blob.
func (c SampleCounts) trueIndex(logical uint32) (uint32, error) {
	if logical >= c.Next {
		return 0, newFormatErrorf(KindBadIndex, "sample index %d is not less than sample count %d", logical, c.Next)
	}
	if logical < c.FirstChanged || (c.FirstChanged == 0 && c.LastChanged == 0) {
		return 0, nil
	}
	if logical >= c.LastChanged {
		return c.LastChanged - c.FirstChanged + 1, nil
	}
	return logical - c.FirstChanged + 1, nil
}

// Property is a tagged variant over Compound/Scalar/Array: one struct
// with a Kind discriminant and fields that are only meaningful for the
// matching kind.
type Property struct {
	Name     string
	Metadata Metadata

	// Homogeneous is decoded from the header but not consulted by this
	// reader.
	Homogeneous bool

	// TimeSamplingIndex is the raw time-sampling index from the header.
	// This reader does not interpret time samplings; the index is kept
	// for callers that do.
	TimeSamplingIndex uint32

	kind     PropertyKind
	children []*Property // Compound only, in header-stream order

	podType PODType // Scalar/Array only
	extent  uint8   // Scalar/Array only
	counts  SampleCounts

	// node owns the sample data/dims children for Scalar/Array
	// properties: a Data child per stored sample for Scalar, or
	// (data, dims) pairs for Array.
	node *ogawaNode
}

func (p *Property) Kind() PropertyKind   { return p.kind }
func (p *Property) IsCompound() bool     { return p.kind == PropertyCompound }
func (p *Property) IsScalar() bool       { return p.kind == PropertyScalar }
func (p *Property) IsArray() bool        { return p.kind == PropertyArray }
func (p *Property) PODType() PODType     { return p.podType }
func (p *Property) Extent() uint8        { return p.extent }
func (p *Property) NumSamples() uint32   { return p.counts.Next }
func (p *Property) SampleCounts() SampleCounts { return p.counts }

// Children returns a compound property's direct children, in the order
// the header stream declared them.
func (p *Property) Children() []*Property {
	return p.children
}

// ChildNames returns the names of a compound property's children.
func (p *Property) ChildNames() []string {
	names := make([]string, len(p.children))
	for i, c := range p.children {
		names[i] = c.Name
	}
	return names
}

// Child looks up a direct child of a compound property by name.
func (p *Property) Child(name string) (*Property, bool) {
	for _, c := range p.children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func (p *Property) podSize() (uint64, error) {
	sz, ok := p.podType.size()
	if !ok {
		return 0, newFormatErrorf(KindUnsupported, "pod type %s has no fixed decode size", p.podType)
	}
	return sz, nil
}

// podNumeric is the set of Go numeric types a POD value can widen into.
type podNumeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// readPOD reads one POD scalar according to podType and widens it to T.
func readPOD[T podNumeric](podType PODType, raw []byte) (T, error) {
	switch podType {
	case PODBool, PODU8:
		return T(raw[0]), nil
	case PODI8:
		return T(int8(raw[0])), nil
	case PODU16:
		return T(binary.LittleEndian.Uint16(raw)), nil
	case PODI16:
		return T(int16(binary.LittleEndian.Uint16(raw))), nil
	case PODU32:
		return T(binary.LittleEndian.Uint32(raw)), nil
	case PODI32:
		return T(int32(binary.LittleEndian.Uint32(raw))), nil
	case PODU64:
		return T(binary.LittleEndian.Uint64(raw)), nil
	case PODI64:
		return T(int64(binary.LittleEndian.Uint64(raw))), nil
	case PODF16:
		return T(float16ToFloat32(binary.LittleEndian.Uint16(raw))), nil
	case PODF32:
		return T(math.Float32frombits(binary.LittleEndian.Uint32(raw))), nil
	case PODF64:
		return T(math.Float64frombits(binary.LittleEndian.Uint64(raw))), nil
	default:
		var zero T
		return zero, newFormatErrorf(KindUnsupported, "pod type %s cannot be decoded as a numeric value", podType)
	}
}

// sampleHeaderSize is the leading per-sample hash every scalar/array data
// blob carries before its payload.
const sampleHeaderSize = 16

// ScalarGet reads one POD value at extentIndex from the Scalar sample
// at the given logical sample index.
func (p *Property) ScalarGet(logical uint32, extentIndex uint8) (float64, error) {
	if p.kind != PropertyScalar {
		return 0, newFormatErrorf(KindStructureMismatch, "property %q is not a scalar property", p.Name)
	}
	if extentIndex >= p.extent {
		return 0, newFormatErrorf(KindBadIndex, "extent index %d is not less than extent %d", extentIndex, p.extent)
	}
	trueIdx, err := p.counts.trueIndex(logical)
	if err != nil {
		return 0, err
	}
	data, ok := p.node.childData(int(trueIdx))
	if !ok {
		return 0, newFormatErrorf(KindBadIndex, "no sample data at true index %d", trueIdx)
	}
	sz, err := p.podSize()
	if err != nil {
		return 0, err
	}
	raw, err := newBuffer(data).view(sampleHeaderSize+sz*uint64(extentIndex), sz)
	if err != nil {
		return 0, err
	}
	return readPOD[float64](p.podType, raw)
}

// ScalarGetN reads the first n POD values of the Scalar sample,
// requiring n <= extent.
func (p *Property) ScalarGetN(logical uint32, n int) ([]float64, error) {
	if n > int(p.extent) {
		return nil, newFormatErrorf(KindBadIndex, "requested %d values exceeds extent %d", n, p.extent)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := p.ScalarGet(logical, uint8(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// GetMatrix decodes a Scalar property's sample as a 4x4 matrix: extent
// 16 is row-major 4x4; extent 9 is row-major 3x3 embedded into the
// upper-left of an identity 4x4.
func (p *Property) GetMatrix(logical uint32) (Matrix4, error) {
	if p.kind != PropertyScalar {
		return Matrix4{}, newFormatErrorf(KindStructureMismatch, "property %q is not a scalar property", p.Name)
	}

	var rows, cols int
	switch p.extent {
	case 16:
		rows, cols = 4, 4
	case 9:
		rows, cols = 3, 3
	default:
		return Matrix4{}, newFormatErrorf(KindUnsupported, "extent %d cannot be decoded as a matrix", p.extent)
	}

	trueIdx, err := p.counts.trueIndex(logical)
	if err != nil {
		return Matrix4{}, err
	}
	data, ok := p.node.childData(int(trueIdx))
	if !ok {
		return Matrix4{}, newFormatErrorf(KindBadIndex, "no sample data at true index %d", trueIdx)
	}
	sz, err := p.podSize()
	if err != nil {
		return Matrix4{}, err
	}

	m := Identity4()
	buf := newBuffer(data)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			raw, err := buf.view(sampleHeaderSize+uint64(r*cols+c)*sz, sz)
			if err != nil {
				return Matrix4{}, err
			}
			v, err := readPOD[float64](p.podType, raw)
			if err != nil {
				return Matrix4{}, err
			}
			m[r][c] = v
		}
	}
	return m, nil
}

// ArrayDims returns the per-sample shape of an Array property. An
// empty dims blob means a rank-1 shape inferred from the payload size.
func (p *Property) ArrayDims(logical uint32) ([]uint64, error) {
	if p.kind != PropertyArray {
		return nil, newFormatErrorf(KindStructureMismatch, "property %q is not an array property", p.Name)
	}
	trueIdx, err := p.counts.trueIndex(logical)
	if err != nil {
		return nil, err
	}
	sz, err := p.podSize()
	if err != nil {
		return nil, err
	}

	dimsIndex := int(trueIdx)*2 + 1
	dimsData, ok := p.node.childData(dimsIndex)
	if !ok {
		return nil, newFormatErrorf(KindBadIndex, "no dims data at true index %d", trueIdx)
	}

	if len(dimsData) == 0 {
		if p.extent == 0 {
			return nil, newFormatErrorf(KindBadIndex, "extent 0 leaves the element count of an empty dims blob undefined")
		}
		sampleData, ok := p.node.childData(dimsIndex - 1)
		if !ok {
			return nil, newFormatErrorf(KindBadIndex, "no sample data at true index %d", trueIdx)
		}
		if uint64(len(sampleData)) < sampleHeaderSize {
			return []uint64{0}, nil
		}
		n := (uint64(len(sampleData)) - sampleHeaderSize) / (sz * uint64(p.extent))
		return []uint64{n}, nil
	}

	buf := newBuffer(dimsData)
	var dims []uint64
	for offset := uint64(0); offset < buf.len(); offset += 8 {
		d, err := buf.u64(offset)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, nil
}

// ArrayNum returns the total element count of an Array sample: the
// scalar product of its dims.
func (p *Property) ArrayNum(logical uint32) (uint64, error) {
	dims, err := p.ArrayDims(logical)
	if err != nil {
		return 0, err
	}
	total := uint64(1)
	for _, d := range dims {
		total *= d
	}
	return total, nil
}

func (p *Property) arraySampleData(logical uint32) ([]byte, uint32, error) {
	trueIdx, err := p.counts.trueIndex(logical)
	if err != nil {
		return nil, 0, err
	}
	data, ok := p.node.childData(int(trueIdx) * 2)
	if !ok {
		return nil, 0, newFormatErrorf(KindBadIndex, "no sample data at true index %d", trueIdx)
	}
	return data, trueIdx, nil
}

// ArrayGet reads one POD value at (arrayIndex, extentIndex) from an
// Array sample.
func (p *Property) ArrayGet(logical uint32, arrayIndex uint64, extentIndex uint8) (float64, error) {
	if p.kind != PropertyArray {
		return 0, newFormatErrorf(KindStructureMismatch, "property %q is not an array property", p.Name)
	}
	if extentIndex >= p.extent {
		return 0, newFormatErrorf(KindBadIndex, "extent index %d is not less than extent %d", extentIndex, p.extent)
	}
	data, _, err := p.arraySampleData(logical)
	if err != nil {
		return 0, err
	}
	sz, err := p.podSize()
	if err != nil {
		return 0, err
	}
	off := sampleHeaderSize + (arrayIndex*uint64(p.extent)+uint64(extentIndex))*sz
	raw, err := newBuffer(data).view(off, sz)
	if err != nil {
		return 0, err
	}
	return readPOD[float64](p.podType, raw)
}

// ArrayGetN reads the first n POD values of one array element, requiring
// n <= extent.
func (p *Property) ArrayGetN(logical uint32, arrayIndex uint64, n int) ([]float64, error) {
	if n > int(p.extent) {
		return nil, newFormatErrorf(KindBadIndex, "requested %d values exceeds extent %d", n, p.extent)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := p.ArrayGet(logical, arrayIndex, uint8(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ArrayGetVec3 reads a 3-tuple at arrayIndex, up-converting from
// whichever POD type the property stores.
func (p *Property) ArrayGetVec3(logical uint32, arrayIndex uint64) (Vec3, error) {
	v, err := p.ArrayGetN(logical, arrayIndex, 3)
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

// ArrayGetAllVec3 decodes every element of an Array sample as a
// 3-tuple, requiring extent >= 3.
func (p *Property) ArrayGetAllVec3(logical uint32) ([]Vec3, error) {
	if p.kind != PropertyArray {
		return nil, newFormatErrorf(KindStructureMismatch, "property %q is not an array property", p.Name)
	}
	if p.extent < 3 {
		return nil, newFormatErrorf(KindBadIndex, "extent %d is below the minimum of 3 for a vector property", p.extent)
	}

	num, err := p.ArrayNum(logical)
	if err != nil {
		return nil, err
	}
	data, _, err := p.arraySampleData(logical)
	if err != nil {
		return nil, err
	}
	sz, err := p.podSize()
	if err != nil {
		return nil, err
	}

	// The declared dims must fit in the stored payload; checking before
	// allocating keeps a lying dims blob from forcing a huge allocation.
	if uint64(len(data)) < sampleHeaderSize || num > (uint64(len(data))-sampleHeaderSize)/(sz*uint64(p.extent)) {
		return nil, newFormatErrorf(KindOutOfBounds, "sample declares %d elements but holds %d bytes", num, len(data))
	}

	buf := newBuffer(data)
	out := make([]Vec3, num)
	for i := uint64(0); i < num; i++ {
		base := sampleHeaderSize + i*uint64(p.extent)*sz
		x, err := readComponent(buf, base, sz, p.podType)
		if err != nil {
			return nil, err
		}
		y, err := readComponent(buf, base+sz, sz, p.podType)
		if err != nil {
			return nil, err
		}
		z, err := readComponent(buf, base+2*sz, sz, p.podType)
		if err != nil {
			return nil, err
		}
		out[i] = Vec3{X: x, Y: y, Z: z}
	}
	return out, nil
}

func readComponent(buf buffer, offset, size uint64, podType PODType) (float64, error) {
	raw, err := buf.view(offset, size)
	if err != nil {
		return 0, err
	}
	return readPOD[float64](podType, raw)
}

// flatLen returns the number of POD scalars in one sample, flattening a
// Scalar property's extent or an Array property's (num_elements *
// extent), for consumers that walk a property as a flat value stream
// regardless of kind (e.g. the transform operator builder).
func (p *Property) flatLen(logical uint32) (uint64, error) {
	switch p.kind {
	case PropertyScalar:
		return uint64(p.extent), nil
	case PropertyArray:
		num, err := p.ArrayNum(logical)
		if err != nil {
			return 0, err
		}
		return num * uint64(p.extent), nil
	default:
		return 0, newFormatErrorf(KindStructureMismatch, "property %q is not a scalar or array property", p.Name)
	}
}

// flatElement reads the flatIndex-th POD scalar of one sample, per the
// same flattening flatLen describes.
func (p *Property) flatElement(logical uint32, flatIndex uint64) (float64, error) {
	switch p.kind {
	case PropertyScalar:
		if flatIndex >= uint64(p.extent) {
			return 0, newFormatErrorf(KindBadIndex, "flat index %d is not less than extent %d", flatIndex, p.extent)
		}
		return p.ScalarGet(logical, uint8(flatIndex))
	case PropertyArray:
		total, err := p.flatLen(logical)
		if err != nil {
			return 0, err
		}
		if flatIndex >= total {
			return 0, newFormatErrorf(KindBadIndex, "flat index %d is not less than element count %d", flatIndex, total)
		}
		arrayIndex := flatIndex / uint64(p.extent)
		extentIndex := uint8(flatIndex % uint64(p.extent))
		return p.ArrayGet(logical, arrayIndex, extentIndex)
	default:
		return 0, newFormatErrorf(KindStructureMismatch, "property %q is not a scalar or array property", p.Name)
	}
}

// readSizeHint reads one variable-width field from the property header
// stream, at the width the header's size hint selects: 0/1/2 mean
// u8/u16/u32, 3 is invalid.
func readSizeHint(buf buffer, cursor *uint64, sizeHint uint8) (uint32, error) {
	switch sizeHint {
	case 0:
		v, err := buf.u8(*cursor)
		if err != nil {
			return 0, err
		}
		*cursor++
		return uint32(v), nil
	case 1:
		v, err := buf.u16(*cursor)
		if err != nil {
			return 0, err
		}
		*cursor += 2
		return uint32(v), nil
	case 2:
		v, err := buf.u32(*cursor)
		if err != nil {
			return 0, err
		}
		*cursor += 4
		return v, nil
	default:
		return 0, newFormatErrorf(KindBadEnum, "size hint %d is invalid", sizeHint)
	}
}

// decodePropertiesGroup builds a synthetic, unnamed Compound Property
// from a properties Group's children: the last child is the header
// stream, the preceding children are the per-property sample/dims data
// nodes in declaration order. An object's own properties and a nested
// compound property's children both resolve through this same loop.
func decodePropertiesGroup(group []*ogawaNode, table indexedMetadataTable) (*Property, error) {
	root := &Property{kind: PropertyCompound}
	if len(group) == 0 {
		return root, nil
	}

	headersNode := group[len(group)-1]
	headers, ok := headersNode.bytes()
	if !ok {
		return nil, newFormatErrorf(KindStructureMismatch, "properties group header stream is not a data node")
	}

	buf := newBuffer(headers)
	cursor := uint64(0)
	propIndex := 0
	for cursor < buf.len() {
		if propIndex >= len(group)-1 {
			return nil, newFormatErrorf(KindStructureMismatch, "property header stream declares more properties than the group has children")
		}
		prop, err := decodeProperty(buf, &cursor, group[propIndex], table)
		if err != nil {
			return nil, err
		}
		propIndex++
		root.children = append(root.children, prop)
	}

	return root, nil
}

// decodeProperty decodes one property header starting at *cursor: the
// packed 32-bit info word, then the size-hint-driven variable-width
// fields that follow it. node is the property's own child in the parent
// group: a group of nested properties for Compound, or the
// sample-holding group for Scalar/Array.
func decodeProperty(buf buffer, cursor *uint64, node *ogawaNode, table indexedMetadataTable) (*Property, error) {
	info, err := buf.u32(*cursor)
	if err != nil {
		return nil, err
	}
	*cursor += 4

	kindBits := uint8(info & 0x3)
	sizeHint := uint8((info >> 2) & 0x3)
	if sizeHint == 3 {
		return nil, newFormatErrorf(KindBadEnum, "size hint 3 is invalid")
	}

	var (
		podType           = PODUnknown
		extent            uint8
		homogeneous       bool
		timeSamplingIndex uint32
		metadataToken     uint8
		counts            SampleCounts
	)

	if kindBits != 0 {
		podType = PODType((info >> 4) & 0xF)
		if !podType.valid() {
			return nil, newFormatErrorf(KindBadEnum, "pod type %d is out of range", uint8(podType))
		}
		hasTimeSampling := (info>>8)&1 != 0
		hasFirstLast := (info>>9)&1 != 0
		homogeneous = (info>>10)&1 != 0
		zeroFirstLast := (info>>11)&1 != 0
		extent = uint8((info >> 12) & 0xFF)
		metadataToken = uint8((info >> 20) & 0xFF)

		next, err := readSizeHint(buf, cursor, sizeHint)
		if err != nil {
			return nil, err
		}
		counts.Next = next

		switch {
		case hasFirstLast:
			first, err := readSizeHint(buf, cursor, sizeHint)
			if err != nil {
				return nil, err
			}
			last, err := readSizeHint(buf, cursor, sizeHint)
			if err != nil {
				return nil, err
			}
			counts.FirstChanged, counts.LastChanged = first, last
		case zeroFirstLast:
			counts.FirstChanged, counts.LastChanged = 0, 0
		default:
			counts.FirstChanged = 1
			if next > 0 {
				counts.LastChanged = next - 1
			}
		}

		if hasTimeSampling {
			ts, err := readSizeHint(buf, cursor, sizeHint)
			if err != nil {
				return nil, err
			}
			timeSamplingIndex = ts
		}
	}
	// For kind 0 (Compound), bits 4 and up are not meaningful: podType
	// stays Unknown, extent/metadataToken stay zero, and metadataToken
	// == 0 later resolves to the table's reserved-empty entry rather
	// than the inline-metadata sentinel.

	nameLen, err := readSizeHint(buf, cursor, sizeHint)
	if err != nil {
		return nil, err
	}
	name, err := buf.utf8(*cursor, uint64(nameLen))
	if err != nil {
		return nil, err
	}
	*cursor += uint64(nameLen)

	var md Metadata
	if metadataToken == inlineMetadataSentinel {
		mdLen, err := readSizeHint(buf, cursor, sizeHint)
		if err != nil {
			return nil, err
		}
		mdBytes, err := buf.view(*cursor, uint64(mdLen))
		if err != nil {
			return nil, err
		}
		*cursor += uint64(mdLen)
		md = decodeMetadata(mdBytes)
	} else {
		md, err = table.resolve(metadataToken)
		if err != nil {
			return nil, err
		}
	}

	switch kindBits {
	case 0:
		children, ok := node.group()
		if !ok {
			return nil, newFormatErrorf(KindStructureMismatch, "compound property %q child is not a group", name)
		}
		prop, err := decodePropertiesGroup(children, table)
		if err != nil {
			return nil, err
		}
		prop.Name = name
		prop.Metadata = md
		return prop, nil
	case 1, 2, 3:
		k := PropertyScalar
		if kindBits != 1 {
			k = PropertyArray
		}
		return &Property{
			Name:              name,
			Metadata:          md,
			Homogeneous:       homogeneous,
			TimeSamplingIndex: timeSamplingIndex,
			kind:              k,
			podType:           podType,
			extent:            extent,
			counts:            counts,
			node:              node,
		}, nil
	default:
		return nil, newFormatErrorf(KindBadEnum, "property kind %d is out of range", kindBits)
	}
}
