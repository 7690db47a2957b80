// Package erc runs rule-based electrical checks on parsed schematics:
// connectivity, reference hygiene, power integrity, and component
// usage rules backed by the knowledge base.
package erc

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/schematic"
	"github.com/OpenCircuitLab/CircuitLint/pkg/knowledge"
	"github.com/OpenCircuitLab/CircuitLint/pkg/report"
)

// CheckAll runs every schematic check in a fixed order.
func CheckAll(sch *schematic.Schematic) []report.Fault {
	var faults []report.Fault
	faults = append(faults, CheckUnconnectedPins(sch)...)
	faults = append(faults, CheckDuplicateReferences(sch)...)
	faults = append(faults, CheckMissingValues(sch)...)
	faults = append(faults, CheckPowerFlags(sch)...)
	faults = append(faults, CheckSinglePinNets(sch)...)
	faults = append(faults, CheckVoltageMismatch(sch)...)
	faults = append(faults, CheckDecouplingCapacitors(sch)...)
	faults = append(faults, CheckLEDResistors(sch)...)
	return faults
}

type gridKey struct {
	x, y int
}

func keyOf(p schematic.Position) gridKey {
	return gridKey{x: int(math.Round(p.X * 100)), y: int(math.Round(p.Y * 100))}
}

// CheckUnconnectedPins finds symbol pins that touch no wire, label, or
// power pin and carry no no-connect marker.
func CheckUnconnectedPins(sch *schematic.Schematic) []report.Fault {
	var faults []report.Fault

	noConnects := make(map[gridKey]bool)
	for _, nc := range sch.NoConnects {
		noConnects[keyOf(nc)] = true
	}

	for _, sym := range sch.Symbols {
		ref := sym.Reference
		if ref == "" {
			ref = "?"
		}
		for _, pin := range sym.Pins {
			if noConnects[keyOf(pin.Position)] {
				continue
			}
			if pointConnected(pin.Position, sch) {
				continue
			}
			pinDesc := "pin " + pin.Number
			if pin.Name != "" {
				pinDesc += fmt.Sprintf(" (%s)", pin.Name)
			}
			severity := report.SeverityWarning
			if pin.ElectricalType == "power_in" || pin.ElectricalType == "input" {
				severity = report.SeverityError
			}
			faults = append(faults, report.Fault{
				Category:  "erc",
				Severity:  severity,
				Component: ref,
				Title:     fmt.Sprintf("Unconnected %s on %s", pinDesc, ref),
				Explanation: fmt.Sprintf(
					"Pin %s of %s (%s) is not connected to any wire, label, or other "+
						"component, and has no no-connect marker. Pin type: %s.",
					pinDesc, ref, sym.LibID, pin.ElectricalType),
				Fix: report.Fix{
					Type: "schematic",
					Description: fmt.Sprintf(
						"Connect %s of %s to the appropriate net, or add a no-connect "+
							"flag if intentionally unused.", pinDesc, ref),
				},
			})
		}
	}
	return faults
}

// pointConnected checks a pin position against wire endpoints, labels,
// and power pins within the coordinate tolerance.
func pointConnected(pos schematic.Position, sch *schematic.Schematic) bool {
	k := keyOf(pos)
	const tolerance = 2 // hundredths of a mm

	near := func(p schematic.Position) bool {
		o := keyOf(p)
		return abs(o.x-k.x) <= tolerance && abs(o.y-k.y) <= tolerance
	}

	for _, w := range sch.Wires {
		if near(w.Start) || near(w.End) {
			return true
		}
	}
	for _, l := range sch.Labels {
		if near(l.Position) {
			return true
		}
	}
	for _, ps := range sch.PowerSymbols {
		for _, pin := range ps.Pins {
			if near(pin.Position) {
				return true
			}
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CheckDuplicateReferences flags reference designators used by more
// than one component. Power references (#PWR...) are exempt.
func CheckDuplicateReferences(sch *schematic.Schematic) []report.Fault {
	counts := make(map[string]int)
	var order []string
	for _, sym := range sch.Symbols {
		ref := sym.Reference
		if ref == "" || strings.HasPrefix(ref, "#") {
			continue
		}
		if counts[ref] == 0 {
			order = append(order, ref)
		}
		counts[ref]++
	}

	var faults []report.Fault
	for _, ref := range order {
		count := counts[ref]
		if count < 2 {
			continue
		}
		faults = append(faults, report.Fault{
			Category:  "erc",
			Severity:  report.SeverityError,
			Component: ref,
			Title:     fmt.Sprintf("Duplicate reference designator: %s (appears %d times)", ref, count),
			Explanation: fmt.Sprintf(
				"Reference designator '%s' is used by %d different components. "+
					"Each component must have a unique reference.", ref, count),
			Fix: report.Fix{
				Type: "schematic",
				Description: fmt.Sprintf(
					"Run 'Annotate Schematic' in KiCad to assign unique references, "+
						"or manually rename the duplicate %s components.", ref),
			},
		})
	}
	return faults
}

// CheckMissingValues flags components whose value is empty or a
// placeholder, when the knowledge base says the part needs one.
func CheckMissingValues(sch *schematic.Schematic) []report.Fault {
	var faults []report.Fault
	for _, sym := range sch.Symbols {
		ref := sym.Reference
		if ref == "" || strings.HasPrefix(ref, "#") {
			continue
		}
		if strings.Contains(sym.LibID, "Connector") ||
			strings.Contains(sym.LibID, "TestPoint") ||
			strings.Contains(sym.LibID, "MountingHole") {
			continue
		}
		if !isPlaceholderValue(sym.Value, sym.LibID) {
			continue
		}
		info := knowledge.MatchComponent(sym.LibID)
		if info == nil || !info.HasCheck("value_not_empty") {
			continue
		}
		faults = append(faults, report.Fault{
			Category:  "component",
			Severity:  report.SeverityWarning,
			Component: ref,
			Title:     fmt.Sprintf("Missing value for %s (%s)", ref, sym.LibID),
			Explanation: fmt.Sprintf(
				"%s has no value specified (current value: '%s'). Components like "+
					"resistors and capacitors need specific values for the circuit "+
					"to function correctly.", ref, sym.Value),
			Fix: report.Fix{
				Type: "schematic",
				Description: fmt.Sprintf(
					"Set the value of %s to the correct component value "+
						"(e.g., '10k' for a resistor, '100nF' for a capacitor).", ref),
			},
		})
	}
	return faults
}

func isPlaceholderValue(value, libID string) bool {
	if value == "" || value == "~" || value == "?" || value == "Value" {
		return true
	}
	if idx := strings.LastIndex(libID, ":"); idx >= 0 && value == libID[idx+1:] {
		return true
	}
	return false
}

// CheckPowerFlags warns about common power rails with no PWR_FLAG.
func CheckPowerFlags(sch *schematic.Schematic) []report.Fault {
	flagged := make(map[string]bool)
	for _, sym := range sch.PowerSymbols {
		if !strings.Contains(sym.Value, "PWR_FLAG") {
			continue
		}
		for _, pin := range sym.Pins {
			if name := sch.NetAt(pin.Position); name != "" {
				flagged[name] = true
			}
		}
	}

	var names []string
	for name := range sch.Nets {
		names = append(names, name)
	}
	sort.Strings(names)

	var faults []report.Fault
	for _, name := range names {
		if flagged[name] {
			continue
		}
		switch name {
		case "VCC", "VDD", "+5V", "+3V3", "+3.3V", "+12V":
		default:
			continue
		}
		faults = append(faults, report.Fault{
			Category:  "erc",
			Severity:  report.SeverityWarning,
			Component: "net " + name,
			Title:     fmt.Sprintf("Power net '%s' may need PWR_FLAG", name),
			Explanation: fmt.Sprintf(
				"The power net '%s' may need a PWR_FLAG symbol to avoid KiCad ERC "+
					"warnings. PWR_FLAG tells the ERC that this net is intentionally "+
					"driven by an off-sheet power source.", name),
			Fix: report.Fix{
				Type:        "schematic",
				Description: fmt.Sprintf("Add a PWR_FLAG symbol connected to the '%s' net.", name),
			},
		})
	}
	return faults
}

// CheckSinglePinNets flags named nets with exactly one pin, the usual
// signature of a misspelled label.
func CheckSinglePinNets(sch *schematic.Schematic) []report.Fault {
	var names []string
	for name := range sch.Nets {
		names = append(names, name)
	}
	sort.Strings(names)

	var faults []report.Fault
	for _, name := range names {
		if strings.HasPrefix(name, "_unnamed_") {
			continue
		}
		pins := sch.Nets[name]
		if len(pins) != 1 {
			continue
		}
		faults = append(faults, report.Fault{
			Category:  "connectivity",
			Severity:  report.SeverityWarning,
			Component: "net " + name,
			Title:     fmt.Sprintf("Single-pin net '%s': possible label typo", name),
			Explanation: fmt.Sprintf(
				"Net '%s' has only one connected pin: %s. This usually indicates a "+
					"misspelled label that was meant to connect to another label with "+
					"the correct spelling.", name, pins[0]),
			Fix: report.Fix{
				Type: "schematic",
				Description: fmt.Sprintf(
					"Check if the label '%s' is spelled correctly. Look for similar "+
						"net names that this should connect to.", name),
			},
		})
	}
	return faults
}

// CheckVoltageMismatch flags components whose maximum operating
// voltage is below the rail they are connected to.
func CheckVoltageMismatch(sch *schematic.Schematic) []report.Fault {
	var names []string
	for name := range sch.Nets {
		names = append(names, name)
	}
	sort.Strings(names)

	var faults []report.Fault
	for _, netName := range names {
		voltage, ok := knowledge.PowerVoltage(netName)
		if !ok || voltage == 0 {
			continue
		}
		for _, pinRef := range sch.Nets[netName] {
			ref, _, found := strings.Cut(pinRef, ":")
			if !found || ref == "" {
				continue
			}
			sym := sch.GetSymbol(ref)
			if sym == nil {
				continue
			}
			info := knowledge.MatchComponent(sym.LibID)
			if info == nil || info.MaxVoltage() == 0 {
				continue
			}
			maxV := info.MaxVoltage()
			if voltage <= maxV {
				continue
			}
			faults = append(faults, report.Fault{
				Category:  "power",
				Severity:  report.SeverityError,
				Component: ref,
				Title: fmt.Sprintf("Voltage mismatch: %s on %s (%gV > %gV max)",
					ref, netName, voltage, maxV),
				Explanation: fmt.Sprintf(
					"%s (%s) has a maximum operating voltage of %gV but is connected "+
						"to the %s rail (%gV). This will likely damage the component.",
					ref, sym.LibID, maxV, netName, voltage),
				Fix: report.Fix{
					Type: "schematic",
					Description: fmt.Sprintf(
						"Use a level shifter or voltage regulator to supply %s with an "+
							"appropriate voltage (<= %gV), or replace it with a component "+
							"rated for %gV.", ref, maxV, voltage),
				},
			})
		}
	}
	return faults
}

// CheckDecouplingCapacitors verifies that ICs requesting decoupling
// have at least one capacitor on each of their power nets.
func CheckDecouplingCapacitors(sch *schematic.Schematic) []report.Fault {
	capRefs := make(map[string]bool)
	for _, sym := range sch.Symbols {
		if strings.Contains(sym.LibID, "Device:C") {
			capRefs[sym.Reference] = true
		}
	}

	netsWithCaps := make(map[string]bool)
	for netName, pinRefs := range sch.Nets {
		for _, pinRef := range pinRefs {
			ref, _, _ := strings.Cut(pinRef, ":")
			if capRefs[ref] {
				netsWithCaps[netName] = true
				break
			}
		}
	}

	var faults []report.Fault
	for _, sym := range sch.Symbols {
		info := knowledge.MatchComponent(sym.LibID)
		if info == nil || !info.HasCheck("decoupling_caps") {
			continue
		}
		ref := sym.Reference

		var powerNets []string
		for netName := range sch.Nets {
			v, ok := knowledge.PowerVoltage(netName)
			if !ok || v <= 0 {
				continue
			}
			for _, pinRef := range sch.Nets[netName] {
				if strings.HasPrefix(pinRef, ref+":") {
					powerNets = append(powerNets, netName)
					break
				}
			}
		}
		sort.Strings(powerNets)

		for _, powerNet := range powerNets {
			if netsWithCaps[powerNet] {
				continue
			}
			faults = append(faults, report.Fault{
				Category:  "power",
				Severity:  report.SeverityWarning,
				Component: ref,
				Title:     fmt.Sprintf("Missing decoupling capacitor for %s on %s", ref, powerNet),
				Explanation: fmt.Sprintf(
					"%s (%s) is connected to power net '%s' but no decoupling "+
						"capacitor was found on this net. Decoupling caps (100nF "+
						"ceramic, placed close to the IC) are essential for stable "+
						"operation.", ref, sym.LibID, powerNet),
				Fix: report.Fix{
					Type: "schematic",
					Description: fmt.Sprintf(
						"Add a 100nF ceramic capacitor between %s and GND, placed "+
							"close to %s's power pin in the schematic and PCB.",
						powerNet, ref),
				},
			})
		}
	}
	return faults
}

// CheckLEDResistors verifies every LED shares a net with a resistor.
func CheckLEDResistors(sch *schematic.Schematic) []report.Fault {
	resistorRefs := make(map[string]bool)
	for _, sym := range sch.Symbols {
		if strings.Contains(sym.LibID, "Device:R") {
			resistorRefs[sym.Reference] = true
		}
	}

	var faults []report.Fault
	for _, sym := range sch.Symbols {
		if sym.LibID != "Device:LED" {
			continue
		}
		ref := sym.Reference

		hasResistor := false
		for _, pinRefs := range sch.Nets {
			ledOnNet := false
			resistorOnNet := false
			for _, pr := range pinRefs {
				if strings.HasPrefix(pr, ref+":") {
					ledOnNet = true
				}
				r, _, _ := strings.Cut(pr, ":")
				if resistorRefs[r] {
					resistorOnNet = true
				}
			}
			if ledOnNet && resistorOnNet {
				hasResistor = true
				break
			}
		}
		if hasResistor {
			continue
		}
		faults = append(faults, report.Fault{
			Category:  "component",
			Severity:  report.SeverityError,
			Component: ref,
			Title:     fmt.Sprintf("LED %s may be missing a current-limiting resistor", ref),
			Explanation: fmt.Sprintf(
				"LED %s does not appear to have a series current-limiting resistor. "+
					"Without a resistor, the LED will draw excessive current and may "+
					"be destroyed, or it may damage the driving component.", ref),
			Fix: report.Fix{
				Type: "schematic",
				Description: fmt.Sprintf(
					"Add a resistor in series with %s. Typical values: 220-1k ohm "+
						"for 5V systems, 100-470 ohm for 3.3V systems.", ref),
			},
		})
	}
	return faults
}
