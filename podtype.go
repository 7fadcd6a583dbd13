// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package alembic

import "fmt"

// PODType enumerates the plain-old-data scalar types a Scalar or Array
// property can hold. The numeric codes 0..11 match the on-disk encoding
// in the property header's pod_type field.
type PODType uint8

const (
	PODBool PODType = iota
	PODU8
	PODI8
	PODU16
	PODI16
	PODU32
	PODI32
	PODU64
	PODI64
	PODF16
	PODF32
	PODF64
	PODString
	PODWString

	podNumTypes
)

// PODUnknown marks a PODType that failed validation; it is never produced
// by a successfully parsed property.
const PODUnknown PODType = 0xFF

func (p PODType) String() string {
	switch p {
	case PODBool:
		return "Bool"
	case PODU8:
		return "U8"
	case PODI8:
		return "I8"
	case PODU16:
		return "U16"
	case PODI16:
		return "I16"
	case PODU32:
		return "U32"
	case PODI32:
		return "I32"
	case PODU64:
		return "U64"
	case PODI64:
		return "I64"
	case PODF16:
		return "F16"
	case PODF32:
		return "F32"
	case PODF64:
		return "F64"
	case PODString:
		return "String"
	case PODWString:
		return "WString"
	default:
		return fmt.Sprintf("PODType(%d)", uint8(p))
	}
}

// valid reports whether p is one of the enumerated on-disk codes.
func (p PODType) valid() bool {
	return p < podNumTypes
}

// numeric reports whether the sample accessors can decode this type;
// String/WString are recognized in headers but not decodable as values.
func (p PODType) numeric() bool {
	return p <= PODF64
}

// size returns the byte width of one POD scalar of this type. It is only
// meaningful for numeric (non-string) types.
func (p PODType) size() (uint64, bool) {
	switch p {
	case PODBool, PODU8, PODI8:
		return 1, true
	case PODU16, PODI16, PODF16:
		return 2, true
	case PODU32, PODI32, PODF32:
		return 4, true
	case PODU64, PODI64, PODF64:
		return 8, true
	default:
		return 0, false
	}
}
