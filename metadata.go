// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package alembic

import "strings"

// Metadata is a string-to-string mapping decoded from a ';'/'='
// byte stream. Duplicate keys follow last-wins.
type Metadata map[string]string

// decodeMetadata splits data on ';' into items, then each item on the
// first '=' into a key/value pair. Items without an '=' (or an empty
// trailing item) are skipped. Later keys overwrite earlier ones.
func decodeMetadata(data []byte) Metadata {
	md := make(Metadata)
	s := string(data)

	for len(s) > 0 {
		var item string
		if i := strings.IndexByte(s, ';'); i >= 0 {
			item, s = s[:i], s[i+1:]
		} else {
			item, s = s, ""
		}
		if item == "" {
			continue
		}
		eq := strings.IndexByte(item, '=')
		if eq < 0 {
			continue
		}
		md[item[:eq]] = item[eq+1:]
	}

	return md
}

// indexedMetadataTable is the archive-wide shared table of metadata byte
// ranges referenced by a 1-byte index. Index 0 is always the reserved
// empty entry.
type indexedMetadataTable [][]byte

// parseIndexedMetadataTable decodes the (length:u8, bytes:length) record
// stream at the archive root's index-5 data node.
func parseIndexedMetadataTable(data []byte) (indexedMetadataTable, error) {
	table := indexedMetadataTable{nil} // index 0 is always empty

	buf := newBuffer(data)
	offset := uint64(0)
	for offset < buf.len() {
		size, err := buf.u8(offset)
		if err != nil {
			return nil, err
		}
		offset++
		entry, err := buf.view(offset, uint64(size))
		if err != nil {
			return nil, err
		}
		offset += uint64(size)
		table = append(table, entry)
	}

	return table, nil
}

// resolve decodes the metadata identified by a 1-byte token: 0xFF means
// inline metadata (decoded separately by the caller before resolve is
// even consulted), any other value indexes into the table.
func (t indexedMetadataTable) resolve(index uint8) (Metadata, error) {
	if int(index) >= len(t) {
		return nil, newFormatErrorf(KindBadIndex, "metadata index %d is out of range for table of length %d", index, len(t))
	}
	return decodeMetadata(t[index]), nil
}

const inlineMetadataSentinel = 0xFF
