// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package alembic

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// buffer is a bounds-checked, read-only view over the caller's byte
// slice. view borrows sub-ranges directly without copying; utf8 returns
// a newly allocated string. Every primitive fails rather than read past the
// end of the slice, per the buffer-view contract.
type buffer struct {
	b []byte
}

func newBuffer(b []byte) buffer {
	return buffer{b: b}
}

func (buf buffer) len() uint64 {
	return uint64(len(buf.b))
}

func (buf buffer) checkRange(offset, length uint64) error {
	if offset > buf.len() {
		return newFormatErrorf(KindOutOfBounds, "offset %d exceeds buffer length %d", offset, buf.len())
	}
	// offset+length could overflow on pathological input; compare via subtraction.
	if length > buf.len()-offset {
		return newFormatErrorf(KindOutOfBounds, "range [%d, %d) exceeds buffer length %d", offset, offset+length, buf.len())
	}
	return nil
}

// view borrows the length bytes starting at offset.
func (buf buffer) view(offset, length uint64) ([]byte, error) {
	if err := buf.checkRange(offset, length); err != nil {
		return nil, err
	}
	return buf.b[offset : offset+length], nil
}

func (buf buffer) u8(offset uint64) (uint8, error) {
	v, err := buf.view(offset, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (buf buffer) u16(offset uint64) (uint16, error) {
	v, err := buf.view(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v), nil
}

func (buf buffer) u32(offset uint64) (uint32, error) {
	v, err := buf.view(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v), nil
}

func (buf buffer) u64(offset uint64) (uint64, error) {
	v, err := buf.view(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v), nil
}

// utf8 decodes the length bytes starting at offset as UTF-8, repairing
// invalid sequences with U+FFFD consistently rather than rejecting them
// outright. Object and property names come from an untrusted buffer even
// though the format documents them as UTF-8; a fresh decoder is used per
// call since parsing may run concurrently across independent archives.
func (buf buffer) utf8(offset, length uint64) (string, error) {
	v, err := buf.view(offset, length)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), v)
	if err != nil {
		return "", newFormatErrorf(KindStructureMismatch, "invalid utf-8: %w", err)
	}
	return string(out), nil
}
