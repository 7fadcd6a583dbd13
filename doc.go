// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package alembic reads the Ogawa container format used by Alembic
// interchange files and the object/property schema layered on top of it.
//
// Given a complete Alembic file already loaded into memory, Open parses
// the Ogawa group/data graph and the archive's object hierarchy into a
// navigable, read-only tree. Property samples are decoded lazily: the
// archive only holds the parsed structure, and typed values are read out
// on demand through the Property accessors.
//
// The package never mutates or copies the input buffer; every returned
// string or sample value is materialized at the point it is returned, but
// the Archive itself borrows the caller's buffer for its entire lifetime.
package alembic
