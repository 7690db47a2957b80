// Package pcb parses KiCad board files (.kicad_pcb) into a flat model.
// Unlike the schematic side, boards carry explicit net numbers on every
// copper element, so no connectivity inference happens here.
package pcb

import (
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/sexp"
)

// Position is re-exported from the shared sexp package.
type Position = sexp.Position

// Layer is one entry of the board stackup declaration.
type Layer struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
	Type    string `json:"type"` // signal, power, user, ...
}

// Setup holds board-level design rules. Fields are nil when the board
// file does not declare them, so checks can distinguish "unset" from
// an explicit zero.
type Setup struct {
	PadToMaskClearance  *float64 `json:"pad_to_mask_clearance,omitempty"`
	PadToPasteClearance *float64 `json:"pad_to_paste_clearance,omitempty"`
}

// Pad is one pad of a footprint, in footprint-local coordinates.
type Pad struct {
	Number   string   `json:"number"`
	Type     string   `json:"type"` // smd, thru_hole, np_thru_hole, connect
	Shape    string   `json:"shape"`
	Position Position `json:"position"`
	Rotation float64  `json:"rotation"`
	Size     Position `json:"size"`
	Drill    float64  `json:"drill"`
	Net      int      `json:"net"`
	NetName  string   `json:"net_name"`
	Layers   []string `json:"layers"`
}

// Footprint is a placed footprint instance.
type Footprint struct {
	Reference  string            `json:"reference"`
	Value      string            `json:"value"`
	Library    string            `json:"library"`
	Layer      string            `json:"layer"`
	Position   Position          `json:"position"`
	Rotation   float64           `json:"rotation"`
	Properties map[string]string `json:"properties"`
	Pads       []Pad             `json:"pads"`
}

// Segment is one straight track piece.
type Segment struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
	Width float64  `json:"width"`
	Layer string   `json:"layer"`
	Net   int      `json:"net"`
}

// Via is a plated through connection between copper layers.
type Via struct {
	Position Position `json:"position"`
	Size     float64  `json:"size"`
	Drill    float64  `json:"drill"`
	Net      int      `json:"net"`
	Layers   []string `json:"layers"`
}

// Zone is a copper fill area. Only net identity and layer coverage are
// kept; the fill polygons themselves are not needed for rule checks.
type Zone struct {
	Net     int      `json:"net"`
	NetName string   `json:"net_name"`
	Layers  []string `json:"layers"`
}

// Board is the parsed model of one .kicad_pcb file.
type Board struct {
	Version    string         `json:"version"`
	Layers     []Layer        `json:"layers"`
	Nets       map[int]string `json:"nets"`
	Footprints []Footprint    `json:"footprints"`
	Segments   []Segment      `json:"segments"`
	Vias       []Via          `json:"vias"`
	Zones      []Zone         `json:"zones"`
	Setup      Setup          `json:"setup"`
}

// GetFootprint returns the footprint with the given reference, or nil.
func (b *Board) GetFootprint(ref string) *Footprint {
	for i := range b.Footprints {
		if b.Footprints[i].Reference == ref {
			return &b.Footprints[i]
		}
	}
	return nil
}

// NetNumber returns the number assigned to a net name, or -1 when the
// board does not declare it.
func (b *Board) NetNumber(name string) int {
	for num, n := range b.Nets {
		if n == name {
			return num
		}
	}
	return -1
}
