// Package schematic parses KiCad schematic files (.kicad_sch) into a flat
// data model and resolves electrical net connectivity from wire, pin,
// label, and junction geometry.
package schematic

import (
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/sexp"
)

// Position is re-exported from the shared sexp package.
type Position = sexp.Position

// LibPin is one pin definition inside a library symbol, in symbol-local
// coordinates.
type LibPin struct {
	ElectricalType string   `json:"electrical_type"` // input, output, passive, power_in, ...
	Shape          string   `json:"shape"`           // line, inverted, clock, ...
	Position       Position `json:"position"`
	Rotation       float64  `json:"rotation"`
	Length         float64  `json:"length"`
	Name           string   `json:"name"`
	Number         string   `json:"number"`
	Unit           int      `json:"unit"` // 0 = shared by every unit
}

// LibSymbol is a reusable symbol definition keyed by library id.
type LibSymbol struct {
	LibID   string   `json:"lib_id"`
	Pins    []LibPin `json:"pins"`
	IsPower bool     `json:"is_power"`
}

// Pin is a pin on a placed symbol with its absolute schematic position.
// Positions are derived from placement plus library geometry and are
// recomputed on every parse; they are never stored independently.
type Pin struct {
	Name           string   `json:"name"`
	Number         string   `json:"number"`
	ElectricalType string   `json:"electrical_type"`
	Position       Position `json:"position"`
}

// Symbol is a placed component instance.
type Symbol struct {
	LibID      string            `json:"lib_id"`
	Reference  string            `json:"reference"`
	Value      string            `json:"value"`
	Footprint  string            `json:"footprint"`
	Unit       int               `json:"unit"`
	UUID       string            `json:"uuid"`
	Position   Position          `json:"position"`
	Rotation   float64           `json:"rotation"`
	MirrorX    bool              `json:"mirror_x"`
	MirrorY    bool              `json:"mirror_y"`
	Properties map[string]string `json:"properties"`
	Pins       []Pin             `json:"pins"`
	IsPower    bool              `json:"is_power"`
}

// Wire is an undirected two-point segment. It carries no net identity;
// identity is derived transitively during net resolution.
type Wire struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Label is a named anchor point. Type is "local", "global", or
// "hierarchical"; all three propagate a net name equally here.
type Label struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
}

// Schematic is the parsed model handed to rule checks and prompt
// builders. JSON field names are the contract consumed downstream.
type Schematic struct {
	Version      string               `json:"version"`
	Symbols      []Symbol             `json:"symbols"`
	Wires        []Wire               `json:"wires"`
	Labels       []Label              `json:"labels"`
	Junctions    []Position           `json:"junctions"`
	NoConnects   []Position           `json:"no_connects"`
	PowerSymbols []Symbol             `json:"power_symbols"`
	LibSymbols   map[string]LibSymbol `json:"lib_symbols"`
	Nets         map[string][]string  `json:"nets"`

	netByPoint map[pointKey]string
}

// GetSymbol returns the symbol with the given reference designator,
// or nil if absent.
func (s *Schematic) GetSymbol(ref string) *Symbol {
	for i := range s.Symbols {
		if s.Symbols[i].Reference == ref {
			return &s.Symbols[i]
		}
	}
	return nil
}

// References returns every non-empty reference designator in placement order.
func (s *Schematic) References() []string {
	var refs []string
	for _, sym := range s.Symbols {
		if sym.Reference != "" {
			refs = append(refs, sym.Reference)
		}
	}
	return refs
}

// NetAt returns the name of the net whose connectivity group covers
// the given point, or "" when no net touches it. Points quantize to
// the same hundredth-of-a-millimeter grid the net resolver uses.
func (s *Schematic) NetAt(pos Position) string {
	return s.netByPoint[keyOf(pos)]
}

// NetOf returns the name of the net containing the given pin reference
// string, or "" when the pin is unconnected.
func (s *Schematic) NetOf(pinRef string) string {
	for name, pins := range s.Nets {
		for _, p := range pins {
			if p == pinRef {
				return name
			}
		}
	}
	return ""
}
