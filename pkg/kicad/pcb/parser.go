package pcb

import (
	"fmt"
	"os"
	"strconv"

	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/sexp"
)

// Parse builds a Board from .kicad_pcb text. Like the schematic side
// it is tolerant: malformed input yields a partial model, never an
// error.
func Parse(content string) *Board {
	root := sexp.Tokenize(content)

	board := &Board{
		Nets: make(map[int]string),
	}
	board.Version = root.Value("version", "")

	if layers, ok := root.Find("layers"); ok && layers.Len() > 1 {
		for _, item := range layers.Items()[1:] {
			if !item.IsList() || item.Len() < 3 {
				continue
			}
			ordinal, err := strconv.Atoi(item.StringAt(0))
			if err != nil {
				ordinal = 0
			}
			board.Layers = append(board.Layers, Layer{
				Ordinal: ordinal,
				Name:    item.StringAt(1),
				Type:    item.StringAt(2),
			})
		}
	}

	for _, net := range root.FindAll("net") {
		if net.Len() < 3 {
			continue
		}
		num, err := strconv.Atoi(net.StringAt(1))
		if err != nil {
			continue
		}
		board.Nets[num] = net.StringAt(2)
	}

	if setup, ok := root.Find("setup"); ok {
		if v, ok := setup.Find("pad_to_mask_clearance"); ok {
			f := v.FloatAt(1, 0)
			board.Setup.PadToMaskClearance = &f
		}
		if v, ok := setup.Find("pad_to_paste_clearance"); ok {
			f := v.FloatAt(1, 0)
			board.Setup.PadToPasteClearance = &f
		}
	}

	for _, node := range root.FindAll("footprint") {
		if node.Len() < 2 {
			continue
		}
		board.Footprints = append(board.Footprints, parseFootprint(node))
	}

	for _, node := range root.FindAll("segment") {
		start, sok := node.Find("start")
		end, eok := node.Find("end")
		if !sok || !eok {
			continue
		}
		board.Segments = append(board.Segments, Segment{
			Start: sexp.XY(start),
			End:   sexp.XY(end),
			Width: floatValue(node, "width"),
			Layer: node.Value("layer", ""),
			Net:   intValue(node, "net"),
		})
	}

	for _, node := range root.FindAll("via") {
		at, ok := node.Find("at")
		if !ok {
			continue
		}
		board.Vias = append(board.Vias, Via{
			Position: sexp.XY(at),
			Size:     floatValue(node, "size"),
			Drill:    floatValue(node, "drill"),
			Net:      intValue(node, "net"),
			Layers:   atomList(node, "layers"),
		})
	}

	for _, node := range root.FindAll("zone") {
		zone := Zone{
			NetName: node.Value("net_name", ""),
			Layers:  atomList(node, "layers"),
		}
		if net, ok := node.Find("net"); ok {
			zone.Net = net.IntAt(1, 0)
		}
		if len(zone.Layers) == 0 {
			if layer := node.Value("layer", ""); layer != "" {
				zone.Layers = []string{layer}
			}
		}
		board.Zones = append(board.Zones, zone)
	}

	return board
}

// ParseFile reads and parses a board from disk.
func ParseFile(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading board %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// parseFootprint reads one footprint with its pads. Reference and
// Value come from properties in current files; older boards carry
// them as fp_text elements, used as a fallback only.
func parseFootprint(node sexp.Node) Footprint {
	fp := Footprint{
		Library:    node.StringAt(1),
		Layer:      node.Value("layer", "F.Cu"),
		Properties: make(map[string]string),
	}
	if at, ok := node.Find("at"); ok {
		fp.Position, fp.Rotation = sexp.XYRotation(at)
	}
	for _, prop := range node.FindAll("property") {
		if prop.Len() >= 3 {
			fp.Properties[prop.StringAt(1)] = prop.StringAt(2)
		}
	}
	fp.Reference = fp.Properties["Reference"]
	fp.Value = fp.Properties["Value"]
	for _, txt := range node.FindAll("fp_text") {
		if txt.Len() < 3 {
			continue
		}
		switch txt.StringAt(1) {
		case "reference":
			if fp.Reference == "" {
				fp.Reference = txt.StringAt(2)
			}
		case "value":
			if fp.Value == "" {
				fp.Value = txt.StringAt(2)
			}
		}
	}

	for _, pad := range node.FindAll("pad") {
		if pad.Len() < 3 {
			continue
		}
		p := Pad{
			Number: pad.StringAt(1),
			Type:   pad.StringAt(2),
			Shape:  pad.StringAt(3),
			Layers: atomList(pad, "layers"),
		}
		if at, ok := pad.Find("at"); ok {
			p.Position, p.Rotation = sexp.XYRotation(at)
		}
		if size, ok := pad.Find("size"); ok {
			p.Size = sexp.XY(size)
		}
		if drill, ok := pad.Find("drill"); ok {
			p.Drill = drill.FloatAt(1, 0)
		}
		if net, ok := pad.Find("net"); ok {
			p.Net = net.IntAt(1, 0)
			p.NetName = net.StringAt(2)
		}
		fp.Pads = append(fp.Pads, p)
	}
	return fp
}

func floatValue(node sexp.Node, key string) float64 {
	if child, ok := node.Find(key); ok {
		return child.FloatAt(1, 0)
	}
	return 0
}

func intValue(node sexp.Node, key string) int {
	if child, ok := node.Find(key); ok {
		return child.IntAt(1, 0)
	}
	return 0
}

// atomList returns the atom children of a keyed list, e.g. the layer
// names of a (layers "F.Cu" "B.Cu") node.
func atomList(node sexp.Node, key string) []string {
	child, ok := node.Find(key)
	if !ok || child.Len() < 2 {
		return nil
	}
	var out []string
	for _, item := range child.Items()[1:] {
		if item.IsAtom() {
			out = append(out, item.Atom())
		}
	}
	return out
}
