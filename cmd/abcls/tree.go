// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/abcio/alembic"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree [abc-file]",
	Short: "Print the archive's object hierarchy with its properties",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(args[0])
		if err != nil {
			return err
		}
		printObject(a.Object, 0)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

func printObject(o *alembic.Object, depth int) {
	indent := strings.Repeat("  ", depth)

	line := objectStyle.Render(o.Name) + " " + mutedStyle.Render(o.Path)
	if schema, ok := o.Schema(); ok {
		line += " " + mutedStyle.Render("["+schema+"]")
	}
	fmt.Println(indent + line)

	if o.Properties != nil {
		for _, p := range o.Properties.Children() {
			printProperty(p, depth+1)
		}
	}
	for _, child := range o.Children {
		printObject(child, depth+1)
	}
}

func printProperty(p *alembic.Property, depth int) {
	indent := strings.Repeat("  ", depth)

	detail := p.Kind().String()
	if !p.IsCompound() {
		detail = fmt.Sprintf("%s %s[%d], %d sample(s)", detail, p.PODType(), p.Extent(), p.NumSamples())
	}
	fmt.Println(indent + propertyStyle(p).Render(p.Name) + " " + mutedStyle.Render(detail))

	for _, child := range p.Children() {
		printProperty(child, depth+1)
	}
}
