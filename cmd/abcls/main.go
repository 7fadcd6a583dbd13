// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// abcls is a read-only inspector for Alembic (.abc) archives: it dumps
// the object tree, the archive metadata, and individual property
// samples. All parsing lives in the alembic package; this binary is
// presentation only.
package main

func main() {
	Execute()
}
