package main

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"driftpursuit/vehicles/internal/catalog"
	"driftpursuit/vehicles/internal/replay"
)

func TestRunWritesRecording(t *testing.T) {
	dir := t.TempDir()
	args := []string{"--ticks", "30", "--record", "--replay-dir", dir, "--log-level", "error"}
	if err := run(context.Background(), args, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	//1.- The closed recording is indexed through its header.
	entries, err := replay.List(dir)
	if err != nil {
		t.Fatalf("list recordings: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one recording, got %d", len(entries))
	}
	header := entries[0].Header
	if header.AeroMode != "midpoint" || len(header.Vehicles) != 1 || header.Vehicles[0] != vehicleID {
		t.Fatalf("unexpected header %+v", header)
	}
	if header.Parameters["ticks"] != 30 {
		t.Fatalf("unexpected parameters %+v", header.Parameters)
	}
	//2.- Every tick produced a frame and the launch sequence lit the engine.
	rec, err := replay.Load(filepath.Dir(entries[0].ManifestPath))
	if err != nil {
		t.Fatalf("load recording: %v", err)
	}
	if len(rec.Frames) != 30 {
		t.Fatalf("expected 30 frames, got %d", len(rec.Frames))
	}
	ignited := false
	for _, event := range rec.Events {
		if event.Type == "ignite" && event.Tick == 1 {
			ignited = true
		}
	}
	if !ignited {
		t.Fatalf("expected an ignite event on the first tick, got %+v", rec.Events)
	}
}

func TestRunRejectsUnknownAssembly(t *testing.T) {
	err := run(context.Background(), []string{"--ticks", "1", "--assembly", "zeppelin", "--log-level", "error"}, io.Discard)
	if !errors.Is(err, catalog.ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout, got %v", err)
	}
}

func TestRunHelp(t *testing.T) {
	if err := run(context.Background(), []string{"--help"}, io.Discard); !errors.Is(err, pflag.ErrHelp) {
		t.Fatalf("expected pflag.ErrHelp, got %v", err)
	}
}

func TestDefaultScriptCoversLaunch(t *testing.T) {
	flags, _ := newFlagSet(io.Discard)
	if err := flags.Parse(nil); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := loadConfig(flags, "")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	script, err := loadScript(cfg)
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	script.Advance(0)
	if !script.Pressed(cfg.Control.Keys.Ignite) || !script.Held(cfg.Control.Keys.ThrottleUp) {
		t.Fatalf("launch sequence should ignite and open the throttle at t=0")
	}
	if script.Duration() != 8 {
		t.Fatalf("unexpected script duration %v", script.Duration())
	}
}
