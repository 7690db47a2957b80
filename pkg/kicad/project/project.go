// Package project loads complete KiCad projects, pairing schematic and
// board files with the optional JSON project settings.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/pcb"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/schematic"
)

// InvalidInputError marks failures caused by what the caller supplied
// rather than by an internal fault, so callers can report them as
// usage errors instead of crashes.
type InvalidInputError struct {
	msg string
}

func (e *InvalidInputError) Error() string { return e.msg }

func invalidInputf(format string, args ...any) error {
	return &InvalidInputError{msg: fmt.Sprintf(format, args...)}
}

// IsInvalidInput reports whether err originated from bad caller input.
func IsInvalidInput(err error) bool {
	var e *InvalidInputError
	return errors.As(err, &e)
}

// Project is a loaded KiCad project. Schematic and Board are nil when
// the corresponding file is absent; Settings is nil when there is no
// .kicad_pro file or it contains invalid JSON.
type Project struct {
	Name         string               `json:"project_name"`
	Schematic    *schematic.Schematic `json:"schematic,omitempty"`
	Board        *pcb.Board           `json:"pcb,omitempty"`
	Settings     map[string]any       `json:"project_settings,omitempty"`
	RawSchematic string               `json:"-"`
	RawBoard     string               `json:"-"`
	SourcePath   string               `json:"source_path,omitempty"`
}

// LoadFromPath loads a project from a directory, or from any file
// inside it. The first .kicad_sch, .kicad_pcb, and .kicad_pro file in
// the directory is used. A path with neither schematic nor board is an
// input error.
func LoadFromPath(path string) (*Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, invalidInputf("path does not exist: %s", path)
	}
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}

	schFiles, _ := filepath.Glob(filepath.Join(dir, "*.kicad_sch"))
	pcbFiles, _ := filepath.Glob(filepath.Join(dir, "*.kicad_pcb"))
	proFiles, _ := filepath.Glob(filepath.Join(dir, "*.kicad_pro"))

	if len(schFiles) == 0 && len(pcbFiles) == 0 {
		return nil, invalidInputf("no .kicad_sch or .kicad_pcb files found in: %s", dir)
	}

	proj := &Project{
		Name:       filepath.Base(dir),
		SourcePath: dir,
	}

	if len(schFiles) > 0 {
		data, err := os.ReadFile(schFiles[0])
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", schFiles[0], err)
		}
		proj.RawSchematic = string(data)
		proj.Schematic = schematic.Parse(proj.RawSchematic)
	}

	if len(pcbFiles) > 0 {
		data, err := os.ReadFile(pcbFiles[0])
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", pcbFiles[0], err)
		}
		proj.RawBoard = string(data)
		proj.Board = pcb.Parse(proj.RawBoard)
	}

	if len(proFiles) > 0 {
		data, err := os.ReadFile(proFiles[0])
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", proFiles[0], err)
		}
		proj.Settings = parseSettings(string(data))
	}

	return proj, nil
}

// LoadFromContent builds a project from in-memory file contents, as
// received from a paste or upload. Empty strings leave the matching
// part nil. Name falls back to "pasted_project".
func LoadFromContent(schematicContent, boardContent, settingsContent, name string) *Project {
	if strings.TrimSpace(name) == "" {
		name = "pasted_project"
	}
	proj := &Project{Name: name}
	if schematicContent != "" {
		proj.RawSchematic = schematicContent
		proj.Schematic = schematic.Parse(schematicContent)
	}
	if boardContent != "" {
		proj.RawBoard = boardContent
		proj.Board = pcb.Parse(boardContent)
	}
	if settingsContent != "" {
		proj.Settings = parseSettings(settingsContent)
	}
	return proj
}

// parseSettings decodes .kicad_pro JSON, tolerating invalid content
// the same way the s-expression parsers tolerate malformed input.
func parseSettings(content string) map[string]any {
	var settings map[string]any
	if err := json.Unmarshal([]byte(content), &settings); err != nil {
		return map[string]any{}
	}
	return settings
}
