package input

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScriptPressProducesSingleEdge(t *testing.T) {
	script, err := NewScript(
		Step{At: 0.5, Key: "Space", Action: ActionPress},
		Step{At: 1.5, Key: "space", Action: ActionRelease},
	)
	if err != nil {
		t.Fatalf("new script: %v", err)
	}
	//1.- Nothing happens before the first step is due.
	script.Advance(0.25)
	if script.Held("space") || script.Pressed("space") {
		t.Fatalf("key active before its step")
	}
	//2.- The press shows up as an edge exactly once.
	script.Advance(0.5)
	if !script.Held("space") || !script.Pressed("space") {
		t.Fatalf("expected press edge at 0.5")
	}
	script.Advance(1.0)
	if !script.Held("space") || script.Pressed("space") {
		t.Fatalf("edge should expire while the key stays held")
	}
	//3.- Release clears the held state.
	script.Advance(2.0)
	if script.Held("space") {
		t.Fatalf("key still held after release")
	}
	if !script.Done() {
		t.Fatalf("script should be done")
	}
}

func TestScriptTapLastsOneTick(t *testing.T) {
	script, err := NewScript(Step{At: 0, Key: "t", Action: ActionTap})
	if err != nil {
		t.Fatalf("new script: %v", err)
	}
	script.Advance(0)
	if !script.Pressed("t") || !script.Held("t") {
		t.Fatalf("tap should press and hold for its tick")
	}
	script.Advance(0.02)
	if script.Pressed("t") || script.Held("t") {
		t.Fatalf("tap should release on the following tick")
	}
}

func TestScriptRejectsUnknownAction(t *testing.T) {
	_, err := NewScript(Step{At: 0, Key: "x", Action: "hover"})
	if !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep, got %v", err)
	}
}

func TestLoadScriptYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "launch.yaml")
	if err := os.WriteFile(yamlPath, []byte("- at: 0\n  key: space\n  action: tap\n- at: 1\n  key: up\n  action: press\n"), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	jsonPath := filepath.Join(dir, "launch.json")
	if err := os.WriteFile(jsonPath, []byte(`[{"at":0,"key":"space","action":"tap"},{"at":1,"key":"up","action":"press"}]`), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}
	for _, path := range []string{yamlPath, jsonPath} {
		script, err := LoadScript(path)
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		if script.Duration() != 1 {
			t.Fatalf("%s duration = %v, want 1", path, script.Duration())
		}
		script.Advance(1)
		if !script.Held("up") {
			t.Fatalf("%s: expected up held", path)
		}
	}
}

func TestStaticSource(t *testing.T) {
	src := NewStatic("W").Press("space")
	if !src.Held("w") || !src.Held("space") || !src.Pressed("SPACE") {
		t.Fatalf("static source lost keys: %+v", src)
	}
	if None.Held("w") || None.Pressed("w") {
		t.Fatalf("None must report every key released")
	}
}
