package schematic

import (
	"strconv"
	"strings"

	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/sexp"
)

// parseLibSymbol extracts the pin inventory of one library symbol
// definition, including pins declared in unit sub-symbols.
func parseLibSymbol(node sexp.Node) LibSymbol {
	lib := LibSymbol{LibID: node.StringAt(1)}
	if _, ok := node.Find("power"); ok {
		lib.IsPower = true
	}
	lib.Pins = append(lib.Pins, collectPins(node, 0)...)
	for _, sub := range node.FindAll("symbol") {
		lib.Pins = append(lib.Pins, collectPins(sub, subSymbolUnit(sub.StringAt(1)))...)
	}
	return lib
}

// collectPins reads the direct pin children of a symbol node and tags
// them with the given unit number.
func collectPins(node sexp.Node, unit int) []LibPin {
	var pins []LibPin
	for _, p := range node.FindAll("pin") {
		pin := LibPin{
			ElectricalType: p.StringAt(1),
			Shape:          p.StringAt(2),
			Length:         2.54,
			Unit:           unit,
		}
		if at, ok := p.Find("at"); ok {
			pin.Position, pin.Rotation = sexp.XYRotation(at)
		}
		if l, ok := p.Find("length"); ok {
			pin.Length = l.FloatAt(1, 2.54)
		}
		if n, ok := p.Find("name"); ok {
			pin.Name = n.StringAt(1)
		}
		if n, ok := p.Find("number"); ok {
			pin.Number = n.StringAt(1)
		}
		pins = append(pins, pin)
	}
	return pins
}

// subSymbolUnit parses the unit number out of a sub-symbol name such as
// "R_0_1", where the second-to-last underscore segment is the unit.
// Names without at least three segments, or with a non-numeric unit
// segment, map to unit 0 (shared).
func subSymbolUnit(name string) int {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return 0
	}
	unit, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0
	}
	return unit
}

// pinConnectionPoint computes the electrical endpoint of a pin in
// symbol-local coordinates. The stored position is the pin anchor; the
// wire attaches at the far end of the pin, length away along the pin
// direction. KiCad pin rotation is counterclockwise while the local
// frame here is screen-oriented, so the rotation is negated.
func pinConnectionPoint(pin LibPin) Position {
	dx, dy := sexp.RotatePoint(pin.Length, 0, -pin.Rotation)
	return Position{X: pin.Position.X + dx, Y: pin.Position.Y + dy}
}

// absolutePinPosition maps a symbol-local point onto the sheet for a
// placed instance. Mirror is applied first, then the instance rotation
// (negated, same frame convention as pins), then translation.
func absolutePinPosition(sym *Symbol, local Position) Position {
	x, y := local.X, local.Y
	if sym.MirrorX {
		x = -x
	}
	if sym.MirrorY {
		y = -y
	}
	x, y = sexp.RotatePoint(x, y, -sym.Rotation)
	return Position{X: sym.Position.X + x, Y: sym.Position.Y + y}
}

// resolvePins instantiates the library pins of a placed symbol at
// absolute sheet positions, keeping only pins belonging to the
// instance's unit or shared across units.
func resolvePins(sym *Symbol, lib LibSymbol) []Pin {
	var pins []Pin
	for _, lp := range lib.Pins {
		if lp.Unit != 0 && lp.Unit != sym.Unit {
			continue
		}
		pins = append(pins, Pin{
			Name:           lp.Name,
			Number:         lp.Number,
			ElectricalType: lp.ElectricalType,
			Position:       absolutePinPosition(sym, pinConnectionPoint(lp)),
		})
	}
	return pins
}
