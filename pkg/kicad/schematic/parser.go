package schematic

import (
	"fmt"
	"os"

	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/sexp"
)

// Parse builds a Schematic from .kicad_sch text. Parsing is tolerant:
// malformed or truncated input yields a partial model rather than an
// error, and missing fields fall back to zero values. Net connectivity
// is resolved as the final step.
func Parse(content string) *Schematic {
	root := sexp.Tokenize(content)

	sch := &Schematic{
		LibSymbols: make(map[string]LibSymbol),
		Nets:       make(map[string][]string),
	}
	sch.Version = root.Value("version", "")

	if libs, ok := root.Find("lib_symbols"); ok {
		for _, def := range libs.FindAll("symbol") {
			lib := parseLibSymbol(def)
			sch.LibSymbols[lib.LibID] = lib
		}
	}

	for _, node := range root.FindAll("symbol") {
		sym := parseSymbolInstance(node)
		lib, ok := sch.LibSymbols[sym.LibID]
		if ok {
			sym.IsPower = lib.IsPower
			sym.Pins = resolvePins(&sym, lib)
		}
		if sym.IsPower {
			sch.PowerSymbols = append(sch.PowerSymbols, sym)
		} else {
			sch.Symbols = append(sch.Symbols, sym)
		}
	}

	for _, node := range root.FindAll("wire") {
		if w, ok := parseWire(node); ok {
			sch.Wires = append(sch.Wires, w)
		}
	}

	for _, kind := range []string{"label", "global_label", "hierarchical_label"} {
		for _, node := range root.FindAll(kind) {
			lbl := Label{Name: node.StringAt(1), Type: labelType(kind)}
			if at, ok := node.Find("at"); ok {
				lbl.Position = sexp.XY(at)
			}
			sch.Labels = append(sch.Labels, lbl)
		}
	}

	for _, node := range root.FindAll("junction") {
		if at, ok := node.Find("at"); ok {
			sch.Junctions = append(sch.Junctions, sexp.XY(at))
		}
	}
	for _, node := range root.FindAll("no_connect") {
		if at, ok := node.Find("at"); ok {
			sch.NoConnects = append(sch.NoConnects, sexp.XY(at))
		}
	}

	sch.Nets = resolveNets(sch)
	return sch
}

// ParseFile reads and parses a schematic from disk.
func ParseFile(path string) (*Schematic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schematic %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// parseSymbolInstance reads one placed symbol. Properties named
// Reference, Value, and Footprint are lifted into dedicated fields and
// also kept in the Properties map alongside any custom properties.
func parseSymbolInstance(node sexp.Node) Symbol {
	sym := Symbol{
		Unit:       1,
		Properties: make(map[string]string),
	}
	if lid, ok := node.Find("lib_id"); ok {
		sym.LibID = lid.StringAt(1)
	}
	if at, ok := node.Find("at"); ok {
		sym.Position, sym.Rotation = sexp.XYRotation(at)
	}
	if u, ok := node.Find("unit"); ok {
		sym.Unit = u.IntAt(1, 1)
	}
	if id, ok := node.Find("uuid"); ok {
		sym.UUID = id.StringAt(1)
	}
	if m, ok := node.Find("mirror"); ok {
		sym.MirrorX = m.HasAtom("x")
		sym.MirrorY = m.HasAtom("y")
	}
	for _, prop := range node.FindAll("property") {
		name := prop.StringAt(1)
		value := prop.StringAt(2)
		sym.Properties[name] = value
		switch name {
		case "Reference":
			sym.Reference = value
		case "Value":
			sym.Value = value
		case "Footprint":
			sym.Footprint = value
		}
	}
	return sym
}

// parseWire extracts the two endpoints of a wire's pts list. Wires
// with fewer than two points carry no connectivity and are skipped.
func parseWire(node sexp.Node) (Wire, bool) {
	pts, ok := node.Find("pts")
	if !ok {
		return Wire{}, false
	}
	xys := pts.FindAll("xy")
	if len(xys) < 2 {
		return Wire{}, false
	}
	return Wire{Start: sexp.XY(xys[0]), End: sexp.XY(xys[1])}, true
}

func labelType(tag string) string {
	switch tag {
	case "global_label":
		return "global"
	case "hierarchical_label":
		return "hierarchical"
	default:
		return "local"
	}
}
