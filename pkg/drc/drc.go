// Package drc runs rule-based design checks on parsed boards:
// routing completeness, manufacturing minimums, and consistency with
// the schematic when one is available.
package drc

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/pcb"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/schematic"
	"github.com/OpenCircuitLab/CircuitLint/pkg/knowledge"
	"github.com/OpenCircuitLab/CircuitLint/pkg/report"
)

// CheckAll runs every board check. sch may be nil; the sync check is
// skipped without it.
func CheckAll(board *pcb.Board, sch *schematic.Schematic) []report.Fault {
	var faults []report.Fault
	faults = append(faults, CheckUnroutedNets(board)...)
	faults = append(faults, CheckTraceWidth(board)...)
	faults = append(faults, CheckViaDrillSize(board)...)
	faults = append(faults, CheckClearance(board)...)
	faults = append(faults, CheckPowerTraces(board)...)
	if sch != nil {
		faults = append(faults, CheckSchematicSync(board, sch)...)
	}
	return faults
}

// CheckUnroutedNets finds nets with two or more pads but no tracks,
// vias, or zones.
func CheckUnroutedNets(board *pcb.Board) []report.Fault {
	routed := make(map[int]bool)
	for _, seg := range board.Segments {
		routed[seg.Net] = true
	}
	for _, via := range board.Vias {
		routed[via.Net] = true
	}
	for _, zone := range board.Zones {
		routed[zone.Net] = true
	}

	padCount := make(map[int]int)
	for _, fp := range board.Footprints {
		for _, pad := range fp.Pads {
			padCount[pad.Net]++
		}
	}

	var nums []int
	for num := range board.Nets {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	var faults []report.Fault
	for _, num := range nums {
		name := board.Nets[num]
		if num == 0 || name == "" || routed[num] {
			continue
		}
		pads := padCount[num]
		if pads < 2 {
			continue
		}
		faults = append(faults, report.Fault{
			Category:  "drc",
			Severity:  report.SeverityError,
			Component: "net " + name,
			Title:     fmt.Sprintf("Unrouted net: %s (%d pads, no tracks)", name, pads),
			Explanation: fmt.Sprintf(
				"Net '%s' connects %d pads but has no tracks, vias, or copper zones "+
					"providing a connection. This is an open circuit.", name, pads),
			Fix: report.Fix{
				Type: "pcb",
				Description: fmt.Sprintf(
					"Route net '%s' by adding tracks between its pads. Use the "+
						"interactive router in KiCad PCB editor.", name),
			},
		})
	}
	return faults
}

// CheckTraceWidth counts segments thinner than the manufacturing
// minimum and reports them as one aggregate fault.
func CheckTraceWidth(board *pcb.Board) []report.Fault {
	minWidth := knowledge.MfgConstraint("min_trace_width_mm")

	thin := 0
	for _, seg := range board.Segments {
		if seg.Width > 0 && seg.Width < minWidth {
			thin++
		}
	}
	if thin == 0 {
		return nil
	}
	return []report.Fault{{
		Category:  "manufacturing",
		Severity:  report.SeverityWarning,
		Component: fmt.Sprintf("%d segments", thin),
		Title:     fmt.Sprintf("%d trace segments below minimum width (%gmm)", thin, minWidth),
		Explanation: fmt.Sprintf(
			"Found %d trace segments with width below the recommended manufacturing "+
				"minimum of %gmm. Thin traces may cause manufacturing defects "+
				"(open circuits, over-etching).", thin, minWidth),
		Fix: report.Fix{
			Type: "pcb",
			Description: fmt.Sprintf(
				"Increase trace widths to at least %gmm. Use Design Rules in KiCad "+
					"to set minimum trace width.", minWidth),
		},
	}}
}

// CheckViaDrillSize validates via drills and annular rings against the
// manufacturing minimums.
func CheckViaDrillSize(board *pcb.Board) []report.Fault {
	minDrill := knowledge.MfgConstraint("min_via_drill_mm")
	minAnnular := knowledge.MfgConstraint("min_via_annular_ring_mm")

	smallDrill := 0
	smallAnnular := 0
	for _, via := range board.Vias {
		if via.Drill > 0 && via.Drill < minDrill {
			smallDrill++
		}
		if via.Drill > 0 && via.Size > 0 {
			if (via.Size-via.Drill)/2 < minAnnular {
				smallAnnular++
			}
		}
	}

	var faults []report.Fault
	if smallDrill > 0 {
		faults = append(faults, report.Fault{
			Category:  "manufacturing",
			Severity:  report.SeverityWarning,
			Component: fmt.Sprintf("%d vias", smallDrill),
			Title:     fmt.Sprintf("%d vias with drill size below %gmm minimum", smallDrill, minDrill),
			Explanation: fmt.Sprintf(
				"Found %d vias with drill diameter below %gmm. Very small drills "+
					"increase manufacturing cost and risk of breakage.", smallDrill, minDrill),
			Fix: report.Fix{
				Type:        "pcb",
				Description: fmt.Sprintf("Increase via drill size to at least %gmm.", minDrill),
			},
		})
	}
	if smallAnnular > 0 {
		faults = append(faults, report.Fault{
			Category:  "manufacturing",
			Severity:  report.SeverityWarning,
			Component: fmt.Sprintf("%d vias", smallAnnular),
			Title:     fmt.Sprintf("%d vias with small annular ring (< %gmm)", smallAnnular, minAnnular),
			Explanation: fmt.Sprintf(
				"Found %d vias where the annular ring (copper around the drill hole) "+
					"is less than %gmm. This can cause unreliable connections or "+
					"manufacturing rejects.", smallAnnular, minAnnular),
			Fix: report.Fix{
				Type:        "pcb",
				Description: fmt.Sprintf("Increase via pad size to ensure annular ring >= %gmm.", minAnnular),
			},
		})
	}
	return faults
}

// CheckClearance samples segment pairs on the same layer but
// different nets and estimates clearance from their midpoints. It is a
// heuristic screen, not a geometric DRC; the fault text points at
// KiCad's own DRC for exact results.
func CheckClearance(board *pcb.Board) []report.Fault {
	minClearance := knowledge.MfgConstraint("min_clearance_mm")
	segments := board.Segments

	violations := 0
	checked := 0
	const maxChecks = 5000

	for i := range segments {
		if checked >= maxChecks {
			break
		}
		a := segments[i]
		limit := i + 50
		if limit > len(segments) {
			limit = len(segments)
		}
		for j := i + 1; j < limit; j++ {
			b := segments[j]
			if a.Net == b.Net || a.Layer != b.Layer {
				continue
			}
			ax := (a.Start.X + a.End.X) / 2
			ay := (a.Start.Y + a.End.Y) / 2
			bx := (b.Start.X + b.End.X) / 2
			by := (b.Start.Y + b.End.Y) / 2

			dist := math.Hypot(ax-bx, ay-by)
			halfWidths := (a.Width + b.Width) / 2
			if dist-halfWidths < minClearance {
				violations++
			}
			checked++
		}
	}

	if violations == 0 {
		return nil
	}
	return []report.Fault{{
		Category:  "drc",
		Severity:  report.SeverityWarning,
		Component: fmt.Sprintf("~%d locations", violations),
		Title:     fmt.Sprintf("Potential clearance violations detected (~%d locations)", violations),
		Explanation: fmt.Sprintf(
			"Approximately %d locations where trace clearance may be below %gmm. "+
				"Run KiCad's built-in DRC for precise results.", violations, minClearance),
		Fix: report.Fix{
			Type: "pcb",
			Description: "Run DRC in KiCad (Inspect -> Design Rules Check) for exact " +
				"violations. Increase spacing between traces on different nets.",
		},
	}}
}

// CheckPowerTraces flags power net segments below the recommended
// width for supply rails.
func CheckPowerTraces(board *pcb.Board) []report.Fault {
	const minPowerWidth = 0.5

	powerNets := make(map[int]bool)
	for num, name := range board.Nets {
		if knowledge.IsPowerNet(name) {
			powerNets[num] = true
		}
	}

	thin := 0
	for _, seg := range board.Segments {
		if powerNets[seg.Net] && seg.Width < minPowerWidth {
			thin++
		}
	}
	if thin == 0 {
		return nil
	}
	return []report.Fault{{
		Category:  "signal",
		Severity:  report.SeverityWarning,
		Component: fmt.Sprintf("%d segments", thin),
		Title:     fmt.Sprintf("%d power trace segments narrower than %gmm", thin, minPowerWidth),
		Explanation: fmt.Sprintf(
			"Found %d power trace segments with width below %gmm. Power traces "+
				"carry higher current and should be wider than signal traces to "+
				"reduce voltage drop and heating.", thin, minPowerWidth),
		Fix: report.Fix{
			Type: "pcb",
			Description: fmt.Sprintf(
				"Increase power trace widths to at least %gmm. For traces carrying "+
					">1A, use even wider traces (1mm+).", minPowerWidth),
		},
	}}
}

// CheckSchematicSync compares the component lists of schematic and
// board in both directions.
func CheckSchematicSync(board *pcb.Board, sch *schematic.Schematic) []report.Fault {
	schRefs := make(map[string]bool)
	for _, sym := range sch.Symbols {
		if sym.Reference != "" && !strings.HasPrefix(sym.Reference, "#") {
			schRefs[sym.Reference] = true
		}
	}
	pcbRefs := make(map[string]bool)
	for _, fp := range board.Footprints {
		if fp.Reference != "" && !strings.HasPrefix(fp.Reference, "#") {
			pcbRefs[fp.Reference] = true
		}
	}

	var missingInPCB, extraInPCB []string
	for ref := range schRefs {
		if !pcbRefs[ref] {
			missingInPCB = append(missingInPCB, ref)
		}
	}
	for ref := range pcbRefs {
		if !schRefs[ref] {
			extraInPCB = append(extraInPCB, ref)
		}
	}
	sort.Strings(missingInPCB)
	sort.Strings(extraInPCB)

	var faults []report.Fault
	if len(missingInPCB) > 0 {
		faults = append(faults, report.Fault{
			Category:  "cross_reference",
			Severity:  report.SeverityError,
			Component: strings.Join(truncate(missingInPCB, 5), ", "),
			Title:     fmt.Sprintf("%d components in schematic but not in PCB", len(missingInPCB)),
			Explanation: fmt.Sprintf(
				"Components present in schematic but missing from PCB: %s%s. "+
					"These need to be imported into the PCB layout.",
				strings.Join(truncate(missingInPCB, 10), ", "), ellipsis(missingInPCB, 10)),
			Fix: report.Fix{
				Type:        "pcb",
				Description: "Run 'Update PCB from Schematic' (Tools menu) in KiCad PCB editor.",
			},
		})
	}
	if len(extraInPCB) > 0 {
		faults = append(faults, report.Fault{
			Category:  "cross_reference",
			Severity:  report.SeverityWarning,
			Component: strings.Join(truncate(extraInPCB, 5), ", "),
			Title:     fmt.Sprintf("%d components in PCB but not in schematic", len(extraInPCB)),
			Explanation: fmt.Sprintf(
				"Components present in PCB but missing from schematic: %s%s.",
				strings.Join(truncate(extraInPCB, 10), ", "), ellipsis(extraInPCB, 10)),
			Fix: report.Fix{
				Type:        "schematic",
				Description: "Add missing components to schematic or remove extra footprints from PCB.",
			},
		})
	}
	return faults
}

func truncate(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func ellipsis(s []string, n int) string {
	if len(s) > n {
		return " ..."
	}
	return ""
}
