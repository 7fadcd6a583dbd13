// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package alembic_test

import (
	"testing"

	"github.com/abcio/alembic"
)

// FuzzOpen feeds arbitrary (and truncated-valid) buffers through the
// whole pipeline: parse, walk every object and property, and decode
// every reachable sample. The parser must return a typed error or a
// usable archive, never panic, read out of bounds, or spin.
func FuzzOpen(f *testing.F) {
	valid := buildCubeArchive()
	f.Add(valid)
	for _, n := range []int{0, 5, 16, 64, len(valid) / 2, len(valid) - 1} {
		if n <= len(valid) {
			f.Add(valid[:n])
		}
	}
	f.Add([]byte("Ogawa"))
	f.Add([]byte("NotOgawa"))

	f.Fuzz(func(t *testing.T, buf []byte) {
		a, err := alembic.Open(buf, alembic.Options{})
		if err != nil {
			if !alembic.IsInvalidFormat(err) {
				t.Fatalf("untyped error: %v", err)
			}
			return
		}
		walkObject(a.Object)
	})
}

func walkObject(o *alembic.Object) {
	_, _ = o.Schema()
	if o.Properties != nil {
		walkProperty(o.Properties)
	}
	for _, child := range o.Children {
		walkObject(child)
	}
}

// walkProperty exercises the typed accessors on every property. Sample
// reads may fail on fuzzed inputs; their errors are discarded and the
// walk goes on, so only a panic inside an accessor fails the fuzz run.
func walkProperty(p *alembic.Property) {
	switch p.Kind() {
	case alembic.PropertyCompound:
		for _, child := range p.Children() {
			walkProperty(child)
		}
	case alembic.PropertyScalar:
		for logical := uint32(0); logical < p.NumSamples() && logical < 4; logical++ {
			_, _ = p.ScalarGet(logical, 0)
			_, _ = p.ScalarGetN(logical, int(p.Extent()))
			_, _ = p.GetMatrix(logical)
		}
	case alembic.PropertyArray:
		for logical := uint32(0); logical < p.NumSamples() && logical < 4; logical++ {
			n, err := p.ArrayNum(logical)
			if err != nil || n == 0 {
				continue
			}
			_, _ = p.ArrayGet(logical, 0, 0)
			_, _ = p.ArrayGetVec3(logical, 0)
			if n <= 1<<16 {
				_, _ = p.ArrayGetAllVec3(logical)
			}
		}
	}
}
