package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/pcb"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/schematic"
	"github.com/OpenCircuitLab/CircuitLint/pkg/report"
)

const schematicAnalysisSystem = `You are an expert electronics engineer and PCB designer. Your job is to analyze KiCad schematics for design errors, following professional ERC (Electrical Rules Check) standards.

You will receive:
1. Parsed component and net information from a .kicad_sch file
2. Component reference data with known requirements and common mistakes
3. Pre-analysis findings from automated rule-based checks

Analyze for these fault categories:

### 1. Electrical Rule Violations (ERC)
- Unconnected pins without no-connect markers
- Output-to-output driver conflicts on the same net
- Power pins not connected to power nets
- Missing PWR_FLAG symbols on power nets
- Single-pin nets (orphaned labels likely from typos)

### 2. Power Design Issues
- Missing decoupling capacitors on IC power pins
- Incorrect voltage regulator input/output capacitors
- Voltage rail mismatches (3.3V IC connected to 5V rail without level shifting)
- Missing bulk capacitors on power input
- AVCC/VREF pins left floating on MCUs

### 3. Signal Integrity
- Missing pull-up resistors on I2C bus (SDA/SCL)
- Missing pull-up on reset pins
- Missing termination resistors on high-speed signals
- Crystal load capacitor value mismatch
- Analog signals routed near noisy digital signals

### 4. Component Issues
- Resistors/capacitors with missing or invalid values
- Polarized component polarity errors
- Wrong component for the application
- Missing protection components (ESD diodes, TVS, fuses)

### 5. Connectivity Issues
- Nets that should be connected but have different names
- Bus naming inconsistencies
- Hierarchical sheet port mismatches

For each fault, return a JSON object with these exact fields:
{
  "category": "erc" | "power" | "signal" | "component" | "connectivity" | "intent_mismatch",
  "severity": "error" | "warning" | "info",
  "component": "reference designator or net name",
  "title": "short one-line description",
  "explanation": "detailed technical explanation of the issue and its consequences",
  "fix": {"type": "schematic", "description": "specific steps to fix the issue"}
}

Return ONLY a JSON array of fault objects. Do NOT duplicate findings already reported in the pre-analysis. Focus on issues the automated checks may have missed.`

const pcbAnalysisSystem = `You are an expert PCB layout engineer. Analyze a KiCad PCB layout for manufacturing, signal integrity, and reliability issues following professional DRC (Design Rule Check) standards.

You will receive:
1. Parsed footprint, track, via, and zone data from a .kicad_pcb file
2. Net information and design rule settings
3. Pre-analysis findings from automated rule-based checks

Analyze for these fault categories:

### 1. Design Rule Violations (DRC)
- Trace-to-trace clearance violations
- Pad-to-pad clearance violations
- Via drill size below manufacturing minimum
- Trace width below minimum
- Unrouted nets (ratsnest)
- Copper too close to board edge

### 2. Manufacturing Issues
- Silkscreen overlapping pads
- Component courtyard overlaps (physical collision)
- Via-in-pad without proper fill/cap specification
- Small annular rings on vias
- Drill holes too close together

### 3. Signal Integrity
- Power traces too narrow for expected current
- Long parallel high-speed traces (crosstalk risk)
- Missing ground return path for signal traces
- Impedance discontinuities on controlled impedance traces
- Missing stitching vias between ground planes

### 4. Thermal Issues
- Insufficient copper pour for heat dissipation
- Missing thermal relief on power plane connections (solderability)
- Heat-generating components too close together
- Missing thermal vias under thermal pads

### 5. EMC Issues
- Split ground planes under high-speed signals
- Long traces without ground plane reference
- Missing bypass capacitors close to IC power pins (placement)
- Clock traces not properly routed

For each fault, return a JSON object with these exact fields:
{
  "category": "drc" | "manufacturing" | "signal" | "thermal" | "emc" | "intent_mismatch",
  "severity": "error" | "warning" | "info",
  "component": "reference designator, net name, or location",
  "title": "short one-line description",
  "explanation": "detailed technical explanation",
  "fix": {"type": "pcb", "description": "specific steps to fix"}
}

Return ONLY a JSON array of fault objects. Do NOT duplicate pre-analysis findings.`

const fixSuggestionSystem = `You are an expert PCB designer. Given a fault report from a KiCad project analysis, suggest specific, actionable fixes.

Rules:
- Be specific: reference exact component designators, net names, pin numbers
- For schematic fixes: describe exactly what to add, change, reconnect, or remove
- For PCB fixes: describe trace changes, component placement moves, via additions
- Clearly distinguish between schematic changes and PCB changes
- Prioritize errors over warnings
- If a fix requires adding new components, specify the component type and value

Return a JSON object:
{
  "schematic_changes": [
    {"description": "what to change", "component": "affected ref designator", "action": "add|modify|remove|reconnect"}
  ],
  "pcb_changes": [
    {"description": "what to change", "location": "component or area", "action": "reroute|move|add_via|widen_trace|add_copper"}
  ],
  "new_components": [
    {"type": "component type", "value": "value if applicable", "purpose": "why it's needed", "connection": "where to connect it"}
  ],
  "summary": "brief overall summary of all changes needed"
}

Return ONLY valid JSON.`

func buildSchematicPrompt(sch *schematic.Schematic, componentKnowledge string, findings []report.Fault, description string) string {
	if description == "" {
		description = "No description provided."
	}
	return fmt.Sprintf(`## Design Description (User's Intended Behavior)
%s

## KiCad Schematic Analysis

### Components (%d total)
%s

### Power Symbols
%s

### Net Connectivity
%s

### Component Reference Data
%s

### Pre-Analysis Findings (%d issues found by automated checks)
%s

Analyze this schematic for additional issues beyond the pre-analysis findings. If a design description is provided above, compare the actual wiring and pin assignments against the user's stated intent. Flag any mismatches as "intent_mismatch" category faults even if the wiring is electrically valid. Return a JSON array of fault objects.`,
		description,
		len(sch.Symbols), formatSymbols(sch.Symbols),
		formatPowerSymbols(sch.PowerSymbols),
		formatNets(sch.Nets),
		componentKnowledge,
		len(findings), formatRuleFindings(findings))
}

func buildPCBPrompt(board *pcb.Board, sch *schematic.Schematic, findings []report.Fault, description string) string {
	if description == "" {
		description = "No description provided."
	}
	schSection := ""
	if sch != nil {
		schSection = "\n### Schematic Nets (for cross-reference)\n" + formatNets(sch.Nets)
	}
	return fmt.Sprintf(`## Design Description (User's Intended Behavior)
%s

## KiCad PCB Layout Analysis

### Footprints (%d components)
%s

### Nets (%d total)
%s

### Tracks Summary
%s

### Vias Summary
%s

### Copper Zones
%s
%s

### Pre-Analysis Findings (%d issues)
%s

Analyze this PCB layout for additional issues. If a design description is provided above, compare the actual layout against the user's stated intent and flag mismatches as "intent_mismatch" category faults. Return a JSON array of fault objects.`,
		description,
		len(board.Footprints), formatFootprints(board.Footprints),
		len(board.Nets), formatPCBNets(board.Nets),
		formatSegmentsSummary(board.Segments),
		formatViasSummary(board.Vias),
		formatZones(board.Zones),
		schSection,
		len(findings), formatRuleFindings(findings))
}

func buildFixSuggestionPrompt(faultReport, rawSch, rawPCB string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Fault Report\n%s\n", faultReport)
	if rawSch != "" {
		fmt.Fprintf(&b, "\n## Schematic Content (preview)\n```\n%s\n```\n", preview(rawSch))
	}
	if rawPCB != "" {
		fmt.Fprintf(&b, "\n## PCB Content (preview)\n```\n%s\n```\n", preview(rawPCB))
	}
	b.WriteString("\nGenerate specific fix suggestions. Return JSON.")
	return b.String()
}

// preview truncates raw file content to stay within token limits.
func preview(content string) string {
	const limit = 8000
	if len(content) > limit {
		return content[:limit] + "..."
	}
	return content
}

func formatSymbols(symbols []schematic.Symbol) string {
	if len(symbols) == 0 {
		return "No components found."
	}
	var lines []string
	for _, s := range symbols {
		ref := s.Reference
		if ref == "" {
			ref = "?"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (%s) - %d pins", ref, s.Value, s.LibID, len(s.Pins)))
	}
	return strings.Join(lines, "\n")
}

func formatPowerSymbols(symbols []schematic.Symbol) string {
	if len(symbols) == 0 {
		return "No power symbols found."
	}
	var lines []string
	for _, s := range symbols {
		value := s.Value
		if value == "" {
			value = "?"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", value, s.Reference))
	}
	return strings.Join(lines, "\n")
}

func formatNets(nets map[string][]string) string {
	if len(nets) == 0 {
		return "No nets found."
	}
	var names []string
	for name := range nets {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		pins := nets[name]
		shown := pins
		extra := ""
		if len(pins) > 10 {
			shown = pins[:10]
			extra = fmt.Sprintf(" ... and %d more", len(pins)-10)
		}
		lines = append(lines, fmt.Sprintf("- **%s**: %s%s", name, strings.Join(shown, ", "), extra))
	}
	return strings.Join(lines, "\n")
}

func formatPCBNets(nets map[int]string) string {
	if len(nets) == 0 {
		return "No nets found."
	}
	var nums []int
	for num := range nets {
		nums = append(nums, num)
	}
	sort.Ints(nums)

	var lines []string
	for _, num := range nums {
		if nets[num] == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- Net %d: %s", num, nets[num]))
		if len(lines) >= 50 {
			break
		}
	}
	return strings.Join(lines, "\n")
}

func formatFootprints(footprints []pcb.Footprint) string {
	if len(footprints) == 0 {
		return "No footprints found."
	}
	var lines []string
	for _, fp := range footprints {
		ref := fp.Reference
		if ref == "" {
			ref = "?"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s (%s) on %s - %d pads",
			ref, fp.Value, fp.Library, fp.Layer, len(fp.Pads)))
	}
	return strings.Join(lines, "\n")
}

func formatSegmentsSummary(segments []pcb.Segment) string {
	if len(segments) == 0 {
		return "No tracks routed."
	}
	widths := make(map[float64]int)
	layers := make(map[string]int)
	for _, seg := range segments {
		widths[seg.Width]++
		layers[seg.Layer]++
	}

	lines := []string{fmt.Sprintf("Total segments: %d", len(segments))}
	lines = append(lines, "Width distribution:")
	var ws []float64
	for w := range widths {
		ws = append(ws, w)
	}
	sort.Float64s(ws)
	for _, w := range ws {
		lines = append(lines, fmt.Sprintf("  %.3fmm: %d segments", w, widths[w]))
	}
	lines = append(lines, "Layer distribution:")
	var ls []string
	for l := range layers {
		ls = append(ls, l)
	}
	sort.Strings(ls)
	for _, l := range ls {
		lines = append(lines, fmt.Sprintf("  %s: %d segments", l, layers[l]))
	}
	return strings.Join(lines, "\n")
}

func formatViasSummary(vias []pcb.Via) string {
	if len(vias) == 0 {
		return "No vias."
	}
	drills := make(map[float64]int)
	for _, v := range vias {
		drills[v.Drill]++
	}
	lines := []string{fmt.Sprintf("Total vias: %d", len(vias))}
	var ds []float64
	for d := range drills {
		ds = append(ds, d)
	}
	sort.Float64s(ds)
	for _, d := range ds {
		lines = append(lines, fmt.Sprintf("  Drill %.2fmm: %d vias", d, drills[d]))
	}
	return strings.Join(lines, "\n")
}

func formatZones(zones []pcb.Zone) string {
	if len(zones) == 0 {
		return "No copper zones."
	}
	var lines []string
	for _, z := range zones {
		name := z.NetName
		if name == "" {
			name = "unnamed"
		}
		lines = append(lines, fmt.Sprintf("- Net '%s' on %s", name, strings.Join(z.Layers, ", ")))
	}
	return strings.Join(lines, "\n")
}

func formatRuleFindings(findings []report.Fault) string {
	if len(findings) == 0 {
		return "No issues found by automated checks."
	}
	var lines []string
	for _, f := range findings {
		severity := f.Severity
		if severity == "" {
			severity = report.SeverityInfo
		}
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s",
			strings.ToUpper(severity), f.Component, f.Title))
	}
	return strings.Join(lines, "\n")
}
