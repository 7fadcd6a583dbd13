// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/abcio/alembic"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "abcls",
	Short: "Inspect Alembic (.abc) archives",
	Long: `abcls reads an Alembic interchange file (Ogawa container) and dumps
its object hierarchy, archive metadata, or individual property samples.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openArchive(filename string) (*alembic.Archive, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filename)
	}

	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	logf := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	a, err := alembic.Open(buf, alembic.Options{Logf: logf})
	if err != nil {
		return nil, fmt.Errorf("not a readable Alembic archive: %s", filename)
	}
	return a, nil
}
