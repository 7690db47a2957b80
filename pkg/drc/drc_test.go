package drc

import (
	"strings"
	"testing"

	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/pcb"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/schematic"
	"github.com/OpenCircuitLab/CircuitLint/pkg/report"
)

func pos(x, y float64) pcb.Position {
	return pcb.Position{X: x, Y: y}
}

func TestCheckUnroutedNets(t *testing.T) {
	board := &pcb.Board{
		Nets: map[int]string{0: "", 1: "VCC", 2: "GND", 3: "SIG"},
		Footprints: []pcb.Footprint{
			{Reference: "R1", Pads: []pcb.Pad{{Number: "1", Net: 1}, {Number: "2", Net: 2}}},
			{Reference: "C1", Pads: []pcb.Pad{{Number: "1", Net: 1}, {Number: "2", Net: 3}}},
		},
		Segments: []pcb.Segment{{Start: pos(0, 0), End: pos(1, 0), Width: 0.25, Net: 1}},
	}
	faults := CheckUnroutedNets(board)

	// Net 2 has one pad, net 3 has one pad: both too small to flag.
	if len(faults) != 0 {
		t.Fatalf("Expected no faults for single-pad nets, got %v", faults)
	}

	board.Footprints = append(board.Footprints, pcb.Footprint{
		Reference: "U1", Pads: []pcb.Pad{{Number: "1", Net: 2}},
	})
	faults = CheckUnroutedNets(board)
	if len(faults) != 1 {
		t.Fatalf("Expected 1 unrouted net, got %v", faults)
	}
	if !strings.Contains(faults[0].Title, "GND (2 pads") {
		t.Fatalf("Unexpected title %q", faults[0].Title)
	}
	if faults[0].Severity != report.SeverityError {
		t.Fatalf("Expected error severity")
	}
}

func TestCheckTraceWidth(t *testing.T) {
	board := &pcb.Board{
		Segments: []pcb.Segment{
			{Width: 0.1},
			{Width: 0.12},
			{Width: 0.25},
			{Width: 0},
		},
	}
	faults := CheckTraceWidth(board)
	if len(faults) != 1 {
		t.Fatalf("Expected aggregate fault, got %v", faults)
	}
	if !strings.Contains(faults[0].Title, "2 trace segments below minimum width") {
		t.Fatalf("Unexpected title %q", faults[0].Title)
	}

	if faults := CheckTraceWidth(&pcb.Board{}); len(faults) != 0 {
		t.Fatalf("Expected no faults on empty board, got %v", faults)
	}
}

func TestCheckViaDrillSize(t *testing.T) {
	board := &pcb.Board{
		Vias: []pcb.Via{
			{Size: 0.8, Drill: 0.2},
			{Size: 0.45, Drill: 0.3},
			{Size: 0.8, Drill: 0.4},
		},
	}
	faults := CheckViaDrillSize(board)
	if len(faults) != 2 {
		t.Fatalf("Expected drill and annular faults, got %v", faults)
	}
	if !strings.Contains(faults[0].Title, "1 vias with drill size below") {
		t.Fatalf("Unexpected drill title %q", faults[0].Title)
	}
	if !strings.Contains(faults[1].Title, "annular ring") {
		t.Fatalf("Unexpected annular title %q", faults[1].Title)
	}
}

func TestCheckClearance(t *testing.T) {
	board := &pcb.Board{
		Segments: []pcb.Segment{
			{Start: pos(10, 10), End: pos(10.2, 10), Width: 0.2, Layer: "F.Cu", Net: 1},
			{Start: pos(10, 10.1), End: pos(10.2, 10.1), Width: 0.2, Layer: "F.Cu", Net: 2},
			{Start: pos(50, 50), End: pos(60, 50), Width: 0.2, Layer: "F.Cu", Net: 3},
		},
	}
	faults := CheckClearance(board)
	if len(faults) != 1 {
		t.Fatalf("Expected clearance warning, got %v", faults)
	}
	if !strings.Contains(faults[0].Title, "~1 locations") {
		t.Fatalf("Unexpected title %q", faults[0].Title)
	}

	sameNet := &pcb.Board{
		Segments: []pcb.Segment{
			{Start: pos(10, 10), End: pos(10.2, 10), Width: 0.2, Layer: "F.Cu", Net: 1},
			{Start: pos(10, 10.1), End: pos(10.2, 10.1), Width: 0.2, Layer: "F.Cu", Net: 1},
		},
	}
	if faults := CheckClearance(sameNet); len(faults) != 0 {
		t.Fatalf("Same-net traces must not violate clearance, got %v", faults)
	}
}

func TestCheckPowerTraces(t *testing.T) {
	board := &pcb.Board{
		Nets: map[int]string{1: "+5V", 2: "SIG_A"},
		Segments: []pcb.Segment{
			{Width: 0.25, Net: 1},
			{Width: 0.6, Net: 1},
			{Width: 0.15, Net: 2},
		},
	}
	faults := CheckPowerTraces(board)
	if len(faults) != 1 {
		t.Fatalf("Expected 1 fault, got %v", faults)
	}
	if !strings.Contains(faults[0].Title, "1 power trace segments narrower than 0.5mm") {
		t.Fatalf("Unexpected title %q", faults[0].Title)
	}
}

func TestCheckSchematicSync(t *testing.T) {
	sch := &schematic.Schematic{
		Symbols: []schematic.Symbol{
			{Reference: "R1"},
			{Reference: "C1"},
			{Reference: "#PWR01"},
		},
	}
	board := &pcb.Board{
		Footprints: []pcb.Footprint{
			{Reference: "R1"},
			{Reference: "J1"},
		},
	}
	faults := CheckSchematicSync(board, sch)
	if len(faults) != 2 {
		t.Fatalf("Expected 2 sync faults, got %v", faults)
	}
	if !strings.Contains(faults[0].Explanation, "C1") {
		t.Fatalf("Expected C1 missing in PCB, got %q", faults[0].Explanation)
	}
	if faults[0].Severity != report.SeverityError || faults[1].Severity != report.SeverityWarning {
		t.Fatalf("Unexpected severities %v", faults)
	}
	if !strings.Contains(faults[1].Explanation, "J1") {
		t.Fatalf("Expected J1 extra in PCB, got %q", faults[1].Explanation)
	}
}

func TestCheckAllSkipsSyncWithoutSchematic(t *testing.T) {
	board := &pcb.Board{
		Nets:     map[int]string{1: "VCC"},
		Segments: []pcb.Segment{{Width: 0.1, Net: 1}},
	}
	faults := CheckAll(board, nil)
	for _, f := range faults {
		if f.Category == "cross_reference" {
			t.Fatalf("Sync check must be skipped without schematic, got %v", f)
		}
	}
}
