// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package alembic

// The archive layout is positional: fixed children of the Ogawa root
// group carry the top "ABC" object, the archive's file metadata, and
// the shared indexed-metadata table. The remaining indices are
// archive-level streams this reader does not interpret.
const (
	topObjectIndex       = 2
	archiveInfoIndex     = 3
	indexedMetadataIndex = 5
)

// Options configures Open. The zero value is valid; Logf defaults to a
// no-op.
type Options struct {
	// Logf, if set, is called once with a single line describing why the
	// whole parse failed. It is never called for access-time errors
	// returned from Property/Object methods after a successful Open.
	Logf func(format string, args ...any)
}

func (o *Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Open parses buf as a complete Alembic interchange file and returns its
// navigable object tree. buf is borrowed for the entire lifetime of the
// returned Archive; Open never copies or mutates it.
//
// A non-nil error here means the whole parse failed: the Ogawa container
// was malformed, or the archive/object/property structure did not match
// what the format requires. Once Open succeeds, errors from the
// returned Archive's methods are local to the call that produced them.
func Open(buf []byte, opts Options) (*Archive, error) {
	root, err := parseOgawaRoot(newBuffer(buf))
	if err != nil {
		opts.logf("alembic: failed to parse ogawa container: %s", err)
		return nil, err
	}

	fileMetadata := Metadata{}
	if data, ok := root.childData(archiveInfoIndex); ok {
		fileMetadata = decodeMetadata(data)
	}

	// Index 0 of the table is always the reserved empty entry, present
	// even when the archive carries no table stream at all.
	table := indexedMetadataTable{nil}
	if data, ok := root.childData(indexedMetadataIndex); ok {
		table, err = parseIndexedMetadataTable(data)
		if err != nil {
			opts.logf("alembic: failed to parse indexed metadata table: %s", err)
			return nil, err
		}
	}

	topNode := root.child(topObjectIndex)
	if _, ok := topNode.group(); !ok {
		err := newFormatErrorf(KindStructureMismatch, "ogawa root group has no top object group at index %d", topObjectIndex)
		opts.logf("alembic: %s", err)
		return nil, err
	}

	topObject, err := decodeObject(topNode, "ABC", fileMetadata, nil, table)
	if err != nil {
		opts.logf("alembic: failed to decode top object: %s", err)
		return nil, err
	}

	return &Archive{Object: topObject}, nil
}
