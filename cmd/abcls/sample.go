// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"

	"github.com/abcio/alembic"
	"github.com/spf13/cobra"
)

// How many array elements the sample command prints before eliding.
const maxPrintedElements = 8

var sampleCmd = &cobra.Command{
	Use:   "sample [abc-file] [object-path] [property-path] [index]",
	Short: "Decode one logical sample of a property",
	Long: `sample looks up an object by path, then a property by its compound
trail, and prints the decoded value at the given logical sample index.
A compound holding .ops/.vals (an .xform) is printed as its composed
4x4 matrix.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(args[0])
		if err != nil {
			return err
		}

		o, ok := a.Find(args[1])
		if !ok {
			return fmt.Errorf("no object at path %s", args[1])
		}
		p, ok := o.FindProperty(args[2])
		if !ok {
			return fmt.Errorf("object %s has no property %s", o.Path, args[2])
		}
		index, err := strconv.ParseUint(args[3], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid sample index %q", args[3])
		}

		return printSample(o, p, uint32(index))
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}

func printSample(o *alembic.Object, p *alembic.Property, index uint32) error {
	switch p.Kind() {
	case alembic.PropertyCompound:
		// A transform stack is the one compound with a printable value.
		if _, ok := p.Child(".ops"); ok {
			m, err := alembic.ObjectTransform(o, index)
			if err != nil {
				return err
			}
			printMatrix(m)
			return nil
		}
		return fmt.Errorf("property %s is a compound; pick one of its children: %v", p.Name, p.ChildNames())

	case alembic.PropertyScalar:
		vs, err := p.ScalarGetN(index, int(p.Extent()))
		if err != nil {
			return err
		}
		fmt.Printf("%s %s[%d] = %v\n", scalarStyle.Render(p.Name), p.PODType(), p.Extent(), vs)
		return nil

	case alembic.PropertyArray:
		num, err := p.ArrayNum(index)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s[%d] x %d element(s)\n", arrayStyle.Render(p.Name), p.PODType(), p.Extent(), num)
		for i := uint64(0); i < num && i < maxPrintedElements; i++ {
			vs, err := p.ArrayGetN(index, i, int(p.Extent()))
			if err != nil {
				return err
			}
			fmt.Printf("  [%d] %v\n", i, vs)
		}
		if num > maxPrintedElements {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("  ... %d more", num-maxPrintedElements)))
		}
		return nil
	}
	return fmt.Errorf("property %s has an unknown kind", p.Name)
}

func printMatrix(m alembic.Matrix4) {
	for r := 0; r < 4; r++ {
		fmt.Printf("  [%8.4f %8.4f %8.4f %8.4f]\n", m[r][0], m[r][1], m[r][2], m[r][3])
	}
}
