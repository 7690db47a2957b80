package project

import (
	"os"
	"path/filepath"
	"testing"
)

const miniSchematic = `(kicad_sch (version 20230121)
  (label "VCC" (at 10 10 0))
  (wire (pts (xy 10 10) (xy 20 10)))
)`

const miniBoard = `(kicad_pcb (version 20221018)
  (net 0 "")
  (net 1 "VCC")
)`

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "demo.kicad_sch"), miniSchematic)
	writeFile(t, filepath.Join(dir, "demo.kicad_pcb"), miniBoard)
	writeFile(t, filepath.Join(dir, "demo.kicad_pro"), `{"meta": {"filename": "demo.kicad_pro"}}`)

	proj, err := LoadFromPath(dir)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if proj.Name != filepath.Base(dir) {
		t.Fatalf("Expected project name %q, got %q", filepath.Base(dir), proj.Name)
	}
	if proj.Schematic == nil || proj.Schematic.Version != "20230121" {
		t.Fatalf("Expected parsed schematic, got %+v", proj.Schematic)
	}
	if proj.Board == nil || proj.Board.Nets[1] != "VCC" {
		t.Fatalf("Expected parsed board, got %+v", proj.Board)
	}
	if proj.Settings == nil {
		t.Fatalf("Expected project settings")
	}
	if proj.RawSchematic == "" || proj.RawBoard == "" {
		t.Fatalf("Expected raw contents to be kept")
	}
}

func TestLoadFromFilePath(t *testing.T) {
	dir := t.TempDir()
	schPath := filepath.Join(dir, "demo.kicad_sch")
	writeFile(t, schPath, miniSchematic)

	proj, err := LoadFromPath(schPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if proj.Schematic == nil {
		t.Fatalf("Expected schematic from sibling scan")
	}
	if proj.Board != nil {
		t.Fatalf("Expected no board")
	}
}

func TestLoadFromPathErrors(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/xyz")
	if err == nil || !IsInvalidInput(err) {
		t.Fatalf("Expected invalid input error, got %v", err)
	}

	empty := t.TempDir()
	_, err = LoadFromPath(empty)
	if err == nil || !IsInvalidInput(err) {
		t.Fatalf("Expected invalid input error for empty dir, got %v", err)
	}
}

func TestLoadFromContent(t *testing.T) {
	proj := LoadFromContent(miniSchematic, "", `{"board": {}}`, "")
	if proj.Name != "pasted_project" {
		t.Fatalf("Expected fallback name, got %q", proj.Name)
	}
	if proj.Schematic == nil {
		t.Fatalf("Expected schematic")
	}
	if proj.Board != nil {
		t.Fatalf("Expected nil board for empty content")
	}
	if proj.Settings == nil {
		t.Fatalf("Expected settings")
	}
}

func TestInvalidSettingsJSON(t *testing.T) {
	proj := LoadFromContent("", miniBoard, "{not json", "broken")
	if proj.Settings == nil || len(proj.Settings) != 0 {
		t.Fatalf("Expected empty settings for invalid JSON, got %v", proj.Settings)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
