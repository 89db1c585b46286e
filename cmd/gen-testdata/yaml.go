// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bpowers/mm2"
	"github.com/bpowers/mm2/internal/fixture"
)

var fixtureFlags struct {
	version int32
	output  string
}

var fixtureCmd = &cobra.Command{
	Use:   "fixture [map.yaml]",
	Short: "Write the map described by a YAML file",
	Long: `Write the map described by a YAML file.  The version in the file is used
unless --version is given.

  Example: gen-testdata fixture testdata/vigs_shop.yaml -o vigs_shop.mm2`,
	Args: cobra.ExactArgs(1),
	RunE: runFixture,
}

var dumpCmd = &cobra.Command{
	Use:   "dump [map.mm2]",
	Short: "Print a map file as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	f := fixtureCmd.Flags()
	f.Int32Var(&fixtureFlags.version, "version", 0, "schema version to write (default from the YAML file)")
	f.StringVarP(&fixtureFlags.output, "output", "o", "fixture.mm2", "output path")
}

func runFixture(cmd *cobra.Command, args []string) error {
	m, err := fixture.ReadFile(args[0])
	if err != nil {
		return err
	}
	db, err := m.Database()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	v := m.FileVersion()
	if fixtureFlags.version != 0 {
		v = mm2.Version(fixtureFlags.version)
	}
	if err := db.SaveFile(fixtureFlags.output, v); err != nil {
		return fmt.Errorf("SaveFile: %w", err)
	}
	logger.Info("wrote map",
		zap.String("path", fixtureFlags.output),
		zap.Int32("version", int32(v)),
		zap.Int("rooms", db.Len()),
		zap.Int("marks", len(db.InfoMarks)))
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	db, err := mm2.LoadFile(args[0], mm2.WithLogger(logger))
	if err != nil {
		return err
	}
	return fixture.FromDatabase(db).Write(os.Stdout)
}
