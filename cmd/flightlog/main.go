// Command flightlog inspects flight recordings: list indexes a recordings directory and
// show prints one recording as JSON.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"driftpursuit/vehicles/internal/replay"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "flightlog:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: flightlog <list|show> [flags]")
	}
	switch args[0] {
	case "list":
		return list(args[1:], stdout, stderr)
	case "show":
		return show(args[1:], stdout, stderr)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func list(args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	root := flags.String("dir", "recordings", "directory holding flight recordings")
	asJSON := flags.Bool("json", false, "emit JSON instead of human-readable output")
	if err := flags.Parse(args); err != nil {
		return err
	}
	entries, err := replay.List(*root)
	if err != nil {
		return err
	}
	if *asJSON {
		return encode(stdout, entries)
	}
	for _, entry := range entries {
		fmt.Fprintf(stdout, "%s (schema %d)\n", filepath.Dir(entry.ManifestPath), entry.Header.SchemaVersion)
		fmt.Fprintf(stdout, "  run: %s aero: %s vehicles: %v\n", entry.Header.RunID, entry.Header.AeroMode, entry.Header.Vehicles)
	}
	return nil
}

func show(args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	path := flags.String("path", "", "recording directory or its manifest.json")
	framesOnly := flags.Bool("frames", false, "print the frame timeline only")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("path flag is required")
	}
	dir := *path
	if filepath.Base(dir) == "manifest.json" {
		dir = filepath.Dir(dir)
	}
	rec, err := replay.Load(dir)
	if err != nil {
		return err
	}
	if *framesOnly {
		return encode(stdout, rec.Frames)
	}
	//1.- Render the whole bundle so callers can pipe it elsewhere.
	return encode(stdout, rec)
}

func encode(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
