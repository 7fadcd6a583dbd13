// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package alembic_test

import (
	"encoding/binary"
	"math"

	"github.com/abcio/alembic"
)

// The tests build their archives byte-by-byte instead of shipping a
// binary fixture: ogawaWriter lays out the container exactly as the
// format defines it (length-prefixed data blobs, count-prefixed groups,
// bit-63-tagged child offsets), and the helpers below layer the
// archive/object/property encoding on top.

const dataTag = uint64(1) << 63

type ogawaWriter struct {
	b []byte
}

func newOgawaWriter() *ogawaWriter {
	w := &ogawaWriter{}
	w.b = append(w.b, "Ogawa"...)
	// Frozen flag and version bytes; not validated by the reader.
	w.b = append(w.b, 0xff, 0x00, 0x00)
	w.b = append(w.b, make([]byte, 8)...) // root offset, patched by finish
	return w
}

// data appends a length-prefixed blob and returns its tagged reference.
func (w *ogawaWriter) data(payload []byte) uint64 {
	offset := uint64(len(w.b))
	w.b = binary.LittleEndian.AppendUint64(w.b, uint64(len(payload)))
	w.b = append(w.b, payload...)
	return offset | dataTag
}

// group appends a count-prefixed child list and returns its reference.
// Children must already have been written; their tagged offsets are
// stored verbatim.
func (w *ogawaWriter) group(children ...uint64) uint64 {
	offset := uint64(len(w.b))
	w.b = binary.LittleEndian.AppendUint64(w.b, uint64(len(children)))
	for _, c := range children {
		w.b = binary.LittleEndian.AppendUint64(w.b, c)
	}
	return offset
}

// Offset 0 encodes an empty node of either kind.
func (w *ogawaWriter) emptyGroup() uint64 { return 0 }
func (w *ogawaWriter) emptyData() uint64  { return dataTag }

func (w *ogawaWriter) finish(root uint64) []byte {
	binary.LittleEndian.PutUint64(w.b[8:16], root)
	return w.b
}

// propHeader encodes one entry of a properties-header stream. All
// fixtures use size hint 0, so every variable-width field is a single
// byte.
type propHeader struct {
	kind   uint8 // 0 compound, 1 scalar, 2/3 array
	pod    alembic.PODType
	extent uint8
	name   string

	next            uint8
	first, last     uint8
	hasFirstLast    bool
	zeroFirstLast   bool
	timeSampling    uint8
	hasTimeSampling bool
	homogeneous     bool

	mdToken  uint8
	inlineMD string // consumed when mdToken is 0xFF
}

func (h propHeader) encode() []byte {
	info := uint32(h.kind) & 0x3
	if h.kind != 0 {
		info |= uint32(h.pod) << 4
		if h.hasTimeSampling {
			info |= 1 << 8
		}
		if h.hasFirstLast {
			info |= 1 << 9
		}
		if h.homogeneous {
			info |= 1 << 10
		}
		if h.zeroFirstLast {
			info |= 1 << 11
		}
		info |= uint32(h.extent) << 12
		info |= uint32(h.mdToken) << 20
	}

	b := binary.LittleEndian.AppendUint32(nil, info)
	if h.kind != 0 {
		b = append(b, h.next)
		if h.hasFirstLast {
			b = append(b, h.first, h.last)
		}
		if h.hasTimeSampling {
			b = append(b, h.timeSampling)
		}
	}
	b = append(b, uint8(len(h.name)))
	b = append(b, h.name...)
	if h.kind != 0 && h.mdToken == 0xFF {
		b = append(b, uint8(len(h.inlineMD)))
		b = append(b, h.inlineMD...)
	}
	return b
}

func propHeaders(headers ...propHeader) []byte {
	var b []byte
	for _, h := range headers {
		b = append(b, h.encode()...)
	}
	return b
}

// objRecord is one child entry of an object-header stream.
type objRecord struct {
	name     string
	token    uint8
	inlineMD string // consumed when token is 0xFF
}

// objectHeader encodes child records followed by the trailing 32-byte
// hash the reader skips.
func objectHeader(records ...objRecord) []byte {
	var b []byte
	for _, r := range records {
		b = binary.LittleEndian.AppendUint32(b, uint32(len(r.name)))
		b = append(b, r.name...)
		b = append(b, r.token)
		if r.token == 0xFF {
			b = binary.LittleEndian.AppendUint32(b, uint32(len(r.inlineMD)))
			b = append(b, r.inlineMD...)
		}
	}
	return append(b, make([]byte, 32)...)
}

func indexedTable(entries ...string) []byte {
	var b []byte
	for _, e := range entries {
		b = append(b, uint8(len(e)))
		b = append(b, e...)
	}
	return b
}

// sampleBlob prefixes a payload with the 16-byte per-sample hash.
func sampleBlob(payload []byte) []byte {
	return append(make([]byte, 16), payload...)
}

func f32Bytes(vs ...float32) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

func f64Bytes(vs ...float64) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b
}

// cubeVertices is the unit cube with shared corners, 8 vertices.
var cubeVertices = []float32{
	-1, -1, -1,
	1, -1, -1,
	1, 1, -1,
	-1, 1, -1,
	-1, -1, 1,
	1, -1, 1,
	1, 1, 1,
	-1, 1, 1,
}

const (
	xformSchemaToken = 1
	meshSchemaToken  = 2
)

var fixtureFileMetadata = map[string]string{
	"_ai_AlembicVersion": "Alembic 1.8.5 (libAbc 1.8.5)",
	"_ai_Application":    "Blender",
	"_ai_DateWritten":    "Tue Jul 29 10:00:00 2026",
	"_ai_Description":    "unspecified",
	"blender_version":    "v4.5.1 LTS",
	"FramesPerTimeUnit":  "24",
}

func encodeFileMetadata() []byte {
	// Stable order keeps the fixture bytes deterministic.
	keys := []string{
		"_ai_AlembicVersion", "_ai_Application", "_ai_DateWritten",
		"_ai_Description", "blender_version", "FramesPerTimeUnit",
	}
	var b []byte
	for _, k := range keys {
		b = append(b, k...)
		b = append(b, '=')
		b = append(b, fixtureFileMetadata[k]...)
		b = append(b, ';')
	}
	return b
}

// buildCubeArchive lays out a small scene shaped like Blender's default
// export: a Cube transform holding a Cube mesh, plus empty Camera and
// Light siblings.
//
//	/                 (ABC, file metadata)
//	/Cube             (.xform with .ops/.vals, schema AbcGeom_Xform_v3)
//	/Cube/Cube        (.geom with P and .selfBnds, schema AbcGeom_PolyMesh_v1)
//	/Camera           (no properties)
//	/Light            (no properties, inline metadata)
func buildCubeArchive() []byte {
	w := newOgawaWriter()

	// /Cube/Cube geometry: P as an 8-vertex F32 vec3 array with an empty
	// dims blob (count inferred from the payload), .selfBnds as an
	// F64[6] scalar.
	pData := w.data(sampleBlob(f32Bytes(cubeVertices...)))
	pDims := w.emptyData()
	pNode := w.group(pData, pDims)

	selfBnds := w.data(sampleBlob(f64Bytes(-1, -1, -1, 1, 1, 1)))
	selfBndsNode := w.group(selfBnds)

	geomHeaders := w.data(propHeaders(
		propHeader{kind: 2, pod: alembic.PODF32, extent: 3, name: "P", next: 1, zeroFirstLast: true},
		propHeader{kind: 1, pod: alembic.PODF64, extent: 6, name: ".selfBnds", next: 1, zeroFirstLast: true},
	))
	geomNode := w.group(pNode, selfBndsNode, geomHeaders)

	meshPropHeaders := w.data(propHeaders(
		propHeader{kind: 0, name: ".geom"},
	))
	meshProps := w.group(geomNode, meshPropHeaders)
	meshObject := w.group(meshProps)

	// /Cube transform: .ops is a one-byte op stream (translate), .vals
	// its three F64 channels. Zero translation keeps the composed matrix
	// at identity.
	opsData := w.data(sampleBlob([]byte{0x01}))
	opsNode := w.group(opsData, w.emptyData())
	valsData := w.data(sampleBlob(f64Bytes(0, 0, 0)))
	valsNode := w.group(valsData, w.emptyData())

	xformHeaders := w.data(propHeaders(
		propHeader{kind: 2, pod: alembic.PODU8, extent: 1, name: ".ops", next: 1, zeroFirstLast: true},
		propHeader{kind: 2, pod: alembic.PODF64, extent: 1, name: ".vals", next: 1, zeroFirstLast: true},
	))
	xformNode := w.group(opsNode, valsNode, xformHeaders)

	cubePropHeaders := w.data(propHeaders(
		propHeader{kind: 0, name: ".xform"},
	))
	cubeProps := w.group(xformNode, cubePropHeaders)

	cubeHeader := w.data(objectHeader(
		objRecord{name: "Cube", token: meshSchemaToken},
	))
	cubeObject := w.group(cubeProps, meshObject, cubeHeader)

	// Camera and Light carry no properties; Light's metadata is inline.
	cameraObject := w.group(w.emptyGroup())
	lightObject := w.group(w.emptyGroup())

	topHeader := w.data(objectHeader(
		objRecord{name: "Cube", token: xformSchemaToken},
		objRecord{name: "Camera", token: 0},
		objRecord{name: "Light", token: 0xFF, inlineMD: "color=warm;type=sun"},
	))
	topObject := w.group(w.emptyGroup(), cubeObject, cameraObject, lightObject, topHeader)

	fileMetadata := w.data(encodeFileMetadata())
	table := w.data(indexedTable(
		"schema=AbcGeom_Xform_v3;schemaObjTitle=AbcGeom_Xform_v3:.xform",
		"schema=AbcGeom_PolyMesh_v1;schemaObjTitle=AbcGeom_PolyMesh_v1:.geom",
	))

	root := w.group(
		w.emptyData(), // 0: instance hints, unread
		w.emptyData(), // 1: time samplings, unread
		topObject,     // 2: top object
		fileMetadata,  // 3: archive metadata
		w.emptyData(), // 4: sample counts, unread
		table,         // 5: indexed metadata
	)

	return w.finish(root)
}
