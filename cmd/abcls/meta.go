// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var metaCmd = &cobra.Command{
	Use:   "meta [abc-file]",
	Short: "Print the archive's file metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(args[0])
		if err != nil {
			return err
		}

		md := a.FileMetadata()
		keys := make([]string, 0, len(md))
		for k := range md {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Printf("%s %s\n", scalarStyle.Render(k), md[k])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metaCmd)
}
