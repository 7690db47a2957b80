package schematic

import (
	"fmt"
	"math"
)

// pointKey is a wire-grid coordinate quantized to hundredths of a
// millimeter. Points that round to the same key are electrically
// connected regardless of float noise from rotation math.
type pointKey struct {
	X, Y int
}

func keyOf(p Position) pointKey {
	return pointKey{
		X: int(math.Round(p.X * 100)),
		Y: int(math.Round(p.Y * 100)),
	}
}

const (
	connPin   = "pin"
	connPower = "power"
	connLabel = "label"
)

// connection is one item attached to a grid point: a component pin, a
// power anchor, or a label. Wire endpoints and junctions attach bare
// points with no item.
type connection struct {
	kind      string
	netName   string // power and label items
	ref       string // pin items
	pinName   string
	pinNumber string
}

// netResolver is a union-find over grid points with path compression
// and union by rank. Points and their attached items are recorded in
// insertion order so the resulting net groups, and therefore unnamed
// net numbering, are deterministic for a given schematic.
type netResolver struct {
	parent map[pointKey]pointKey
	rank   map[pointKey]int
	items  map[pointKey][]connection
	order  []pointKey
}

func newNetResolver() *netResolver {
	return &netResolver{
		parent: make(map[pointKey]pointKey),
		rank:   make(map[pointKey]int),
		items:  make(map[pointKey][]connection),
	}
}

// touch registers a grid point, preserving first-seen order.
func (r *netResolver) touch(k pointKey) {
	if _, ok := r.parent[k]; ok {
		return
	}
	r.parent[k] = k
	r.order = append(r.order, k)
}

func (r *netResolver) attach(p Position, c connection) {
	k := keyOf(p)
	r.touch(k)
	r.items[k] = append(r.items[k], c)
}

func (r *netResolver) anchor(p Position) {
	r.touch(keyOf(p))
}

func (r *netResolver) find(k pointKey) pointKey {
	r.touch(k)
	for r.parent[k] != k {
		r.parent[k] = r.parent[r.parent[k]]
		k = r.parent[k]
	}
	return k
}

func (r *netResolver) union(a, b pointKey) {
	ra, rb := r.find(a), r.find(b)
	if ra == rb {
		return
	}
	if r.rank[ra] < r.rank[rb] {
		ra, rb = rb, ra
	}
	r.parent[rb] = ra
	if r.rank[ra] == r.rank[rb] {
		r.rank[ra]++
	}
}

// resolveNets derives the net map from parsed geometry. Wires merge
// their endpoint groups; every other element only joins the group its
// own point already belongs to. Each resulting group becomes a net if
// it contains component pins or a power anchor; groups held together
// only by labels or bare wire ends produce no net.
func resolveNets(sch *Schematic) map[string][]string {
	r := newNetResolver()

	for _, w := range sch.Wires {
		r.anchor(w.Start)
		r.anchor(w.End)
		r.union(keyOf(w.Start), keyOf(w.End))
	}

	for _, sym := range sch.Symbols {
		for _, pin := range sym.Pins {
			r.attach(pin.Position, connection{
				kind:      connPin,
				ref:       sym.Reference,
				pinName:   pin.Name,
				pinNumber: pin.Number,
			})
		}
	}

	for _, sym := range sch.PowerSymbols {
		for _, pin := range sym.Pins {
			r.attach(pin.Position, connection{kind: connPower, netName: sym.Value})
		}
	}

	for _, lbl := range sch.Labels {
		r.attach(lbl.Position, connection{kind: connLabel, netName: lbl.Name})
	}

	for _, j := range sch.Junctions {
		r.anchor(j)
	}

	groups := make(map[pointKey][]connection)
	var groupOrder []pointKey
	for _, k := range r.order {
		root := r.find(k)
		if _, seen := groups[root]; !seen {
			groupOrder = append(groupOrder, root)
		}
		groups[root] = append(groups[root], r.items[k]...)
	}

	nets := make(map[string][]string)
	rootName := make(map[pointKey]string)
	unnamed := 0
	for _, root := range groupOrder {
		items := groups[root]

		name := ""
		hasPower := false
		for _, c := range items {
			if c.kind == connPower {
				hasPower = true
			}
			if name == "" && (c.kind == connLabel || c.kind == connPower) {
				name = c.netName
			}
		}

		var pinRefs []string
		for _, c := range items {
			if c.kind != connPin {
				continue
			}
			if c.pinName != "" {
				pinRefs = append(pinRefs, fmt.Sprintf("%s:%s(%s)", c.ref, c.pinNumber, c.pinName))
			} else {
				pinRefs = append(pinRefs, fmt.Sprintf("%s:%s", c.ref, c.pinNumber))
			}
		}

		if len(pinRefs) == 0 && !hasPower {
			continue
		}
		if name == "" {
			unnamed++
			name = fmt.Sprintf("_unnamed_net_%d", unnamed)
		}
		if _, ok := nets[name]; !ok {
			nets[name] = []string{}
		}
		nets[name] = append(nets[name], pinRefs...)
		rootName[root] = name
	}

	sch.netByPoint = make(map[pointKey]string)
	for _, k := range r.order {
		if name, ok := rootName[r.find(k)]; ok {
			sch.netByPoint[k] = name
		}
	}
	return nets
}
