// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package alembic

import "strings"

// objectHeaderHashSize is the trailing hash every object header carries
// after its child records. The child-record stream starts at offset 0;
// the final 32 bytes are skipped.
const objectHeaderHashSize = 32

// Object is one node of the archive's object hierarchy: a name, its
// metadata, a Properties compound, and child objects. An Object's
// metadata comes from its parent's header record (the archive's file
// metadata for the synthetic root); its own header only describes its
// children.
type Object struct {
	Name       string
	Path       string
	Metadata   Metadata
	Properties *Property
	Children   []*Object

	parent *Object
}

// Parent returns the object's parent, or nil for the synthetic root. The
// back-reference is non-owning: it never extends the parent's lifetime
// beyond the archive's.
func (o *Object) Parent() *Object {
	return o.parent
}

// ChildNames returns the object's direct children's names, in header
// declaration order.
func (o *Object) ChildNames() []string {
	names := make([]string, len(o.Children))
	for i, c := range o.Children {
		names[i] = c.Name
	}
	return names
}

// Child looks up a direct child object by name.
func (o *Object) Child(name string) (*Object, bool) {
	for _, c := range o.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Find resolves a '/'-separated path. An absolute path (leading '/')
// is resolved from the archive root by walking up the parent chain
// first; a relative path is resolved from this object directly. A
// missing segment yields false.
func (o *Object) Find(path string) (*Object, bool) {
	start := o
	if strings.HasPrefix(path, "/") {
		for start.parent != nil {
			start = start.parent
		}
		path = strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return start, true
	}

	cur := start
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		next, ok := cur.Child(segment)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Property looks up a top-level property of this object by name.
func (o *Object) Property(name string) (*Property, bool) {
	if o.Properties == nil {
		return nil, false
	}
	return o.Properties.Child(name)
}

// ScalarProperty looks up a top-level property by name, requiring it to
// be a Scalar. A name match of a different kind yields false.
func (o *Object) ScalarProperty(name string) (*Property, bool) {
	p, ok := o.Property(name)
	if !ok || !p.IsScalar() {
		return nil, false
	}
	return p, true
}

// ArrayProperty looks up a top-level property by name, requiring it to
// be an Array.
func (o *Object) ArrayProperty(name string) (*Property, bool) {
	p, ok := o.Property(name)
	if !ok || !p.IsArray() {
		return nil, false
	}
	return p, true
}

// CompoundProperty looks up a top-level property by name, requiring it
// to be a Compound.
func (o *Object) CompoundProperty(name string) (*Property, bool) {
	p, ok := o.Property(name)
	if !ok || !p.IsCompound() {
		return nil, false
	}
	return p, true
}

// FindProperty resolves a '/'-separated property path relative to this
// object, descending through nested Compound properties for every
// segment but the last.
func (o *Object) FindProperty(path string) (*Property, bool) {
	if o.Properties == nil {
		return nil, false
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return nil, false
	}

	cur := o.Properties
	for _, segment := range segments {
		next, ok := cur.Child(segment)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// FindScalarProperty resolves a property path, requiring the result to
// be a Scalar.
func (o *Object) FindScalarProperty(path string) (*Property, bool) {
	p, ok := o.FindProperty(path)
	if !ok || !p.IsScalar() {
		return nil, false
	}
	return p, true
}

// FindArrayProperty resolves a property path, requiring the result to
// be an Array.
func (o *Object) FindArrayProperty(path string) (*Property, bool) {
	p, ok := o.FindProperty(path)
	if !ok || !p.IsArray() {
		return nil, false
	}
	return p, true
}

// FindCompoundProperty resolves a property path, requiring the result
// to be a Compound.
func (o *Object) FindCompoundProperty(path string) (*Property, bool) {
	p, ok := o.FindProperty(path)
	if !ok || !p.IsCompound() {
		return nil, false
	}
	return p, true
}

// Schema reports the object's Alembic schema tag, e.g.
// "AbcGeom_PolyMesh_v1": the "schema" key of the object's own metadata,
// falling back to the first top-level property that carries one. The
// engine layer uses this to decide how to interpret an object's
// properties before touching them.
func (o *Object) Schema() (string, bool) {
	if schema, ok := o.Metadata["schema"]; ok {
		return schema, true
	}
	if o.Properties == nil {
		return "", false
	}
	for _, p := range o.Properties.Children() {
		if schema, ok := p.Metadata["schema"]; ok {
			return schema, true
		}
	}
	return "", false
}

// Archive is the root of a parsed Alembic interchange file. It embeds
// the synthesized root Object (named "ABC", path "/") so archive.Find
// and archive.Properties work the same as on any other Object; the
// root's Metadata is the archive's file metadata.
type Archive struct {
	*Object
}

// FileMetadata returns the archive-wide metadata decoded from the root
// group's metadata stream, e.g. the writing application's name and
// version.
func (a *Archive) FileMetadata() Metadata {
	return a.Metadata
}

// decodeObject builds one Object (and its subtree) from its Ogawa Group
// node: child 0 is the properties group; if there are more children,
// the last one is the object-header Data and the ones in between are
// the child objects' own Groups, paired in order with the header's
// child records.
func decodeObject(node *ogawaNode, name string, md Metadata, parent *Object, table indexedMetadataTable) (*Object, error) {
	children, ok := node.group()
	if !ok {
		return nil, newFormatErrorf(KindStructureMismatch, "object %q is not backed by a group node", name)
	}
	if len(children) < 1 {
		return nil, newFormatErrorf(KindStructureMismatch, "object %q has no properties child", name)
	}

	propsGroup, ok := children[0].group()
	if !ok {
		return nil, newFormatErrorf(KindStructureMismatch, "object %q child 0 is not a properties group", name)
	}
	props, err := decodePropertiesGroup(propsGroup, table)
	if err != nil {
		return nil, err
	}

	obj := &Object{Name: name, Metadata: md, Properties: props, parent: parent}
	switch {
	case parent == nil:
		obj.Path = "/"
	case parent.Path == "/":
		obj.Path = "/" + name
	default:
		obj.Path = parent.Path + "/" + name
	}

	// An object with only a properties group has no children and no
	// header blob.
	if len(children) < 2 {
		return obj, nil
	}

	headerData, ok := children[len(children)-1].bytes()
	if !ok {
		return nil, newFormatErrorf(KindStructureMismatch, "object %q header child is not a data node", name)
	}
	if uint64(len(headerData)) < objectHeaderHashSize {
		return nil, newFormatErrorf(KindTooShort, "object %q header is shorter than the %d-byte hash", name, objectHeaderHashSize)
	}

	buf := newBuffer(headerData)
	recordsEnd := buf.len() - objectHeaderHashSize

	cursor := uint64(0)
	childIndex := 0
	for cursor < recordsEnd {
		childName, childMD, err := decodeObjectHeaderRecord(buf, &cursor, table)
		if err != nil {
			return nil, err
		}
		// The last group child is the header blob just being consumed,
		// so child records may only cover positions 1..len-2.
		if childIndex+2 >= len(children) {
			return nil, newFormatErrorf(KindStructureMismatch, "object %q header declares more children than its group holds", name)
		}
		child, err := decodeObject(children[1+childIndex], childName, childMD, obj, table)
		if err != nil {
			return nil, err
		}
		obj.Children = append(obj.Children, child)
		childIndex++
	}

	return obj, nil
}

// decodeObjectHeaderRecord decodes one child record of an object
// header: (name_length:u32, name, metadata_token:u8), where token 0xFF
// announces (inline_length:u32, inline metadata bytes) and any other
// token indexes the archive's shared metadata table.
func decodeObjectHeaderRecord(buf buffer, cursor *uint64, table indexedMetadataTable) (string, Metadata, error) {
	nameLen, err := buf.u32(*cursor)
	if err != nil {
		return "", nil, err
	}
	*cursor += 4

	name, err := buf.utf8(*cursor, uint64(nameLen))
	if err != nil {
		return "", nil, err
	}
	*cursor += uint64(nameLen)

	token, err := buf.u8(*cursor)
	if err != nil {
		return "", nil, err
	}
	*cursor++

	var md Metadata
	if token == inlineMetadataSentinel {
		mdLen, err := buf.u32(*cursor)
		if err != nil {
			return "", nil, err
		}
		*cursor += 4
		mdBytes, err := buf.view(*cursor, uint64(mdLen))
		if err != nil {
			return "", nil, err
		}
		*cursor += uint64(mdLen)
		md = decodeMetadata(mdBytes)
	} else {
		md, err = table.resolve(token)
		if err != nil {
			return "", nil, err
		}
	}

	return name, md, nil
}
