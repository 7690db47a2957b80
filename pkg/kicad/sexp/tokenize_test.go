package sexp

import (
	"math"
	"testing"
)

func TestTokenizeSimple(t *testing.T) {
	n := Tokenize(`(kicad_sch (version 20231120) (symbol "R1"))`)

	if n.Tag() != "kicad_sch" {
		t.Fatalf("Expected tag 'kicad_sch', got %q", n.Tag())
	}
	if n.Len() != 3 {
		t.Fatalf("Expected 3 children, got %d", n.Len())
	}

	ver, ok := n.Find("version")
	if !ok {
		t.Fatal("Expected to find 'version' node")
	}
	if ver.StringAt(1) != "20231120" {
		t.Errorf("Expected version '20231120', got %q", ver.StringAt(1))
	}

	sym, ok := n.Find("symbol")
	if !ok {
		t.Fatal("Expected to find 'symbol' node")
	}
	if sym.StringAt(1) != "R1" {
		t.Errorf("Expected symbol name 'R1', got %q", sym.StringAt(1))
	}
}

func TestTokenizeQuotedStrings(t *testing.T) {
	n := Tokenize(`(property "Reference" "R1 with spaces")`)

	if n.StringAt(1) != "Reference" {
		t.Errorf("Expected 'Reference', got %q", n.StringAt(1))
	}
	if n.StringAt(2) != "R1 with spaces" {
		t.Errorf("Expected 'R1 with spaces', got %q", n.StringAt(2))
	}
}

func TestTokenizeEscapedQuote(t *testing.T) {
	n := Tokenize(`(value "10k \"precision\"")`)

	// Backslash sequences are kept verbatim; only the delimiting quotes
	// are stripped.
	if got := n.StringAt(1); got != `10k \"precision\"` {
		t.Errorf("Unexpected atom content: %q", got)
	}
}

func TestTokenizeNoNumericCoercion(t *testing.T) {
	n := Tokenize(`(at 12.7 -25.4 90)`)

	if n.StringAt(1) != "12.7" || n.StringAt(2) != "-25.4" || n.StringAt(3) != "90" {
		t.Errorf("Atoms should stay raw strings, got %q %q %q",
			n.StringAt(1), n.StringAt(2), n.StringAt(3))
	}
}

func TestTokenizeUnbalancedInput(t *testing.T) {
	// Extra closing paren: ignored.
	n := Tokenize(`(a (b 1)))`)
	if n.Tag() != "a" {
		t.Errorf("Expected tag 'a', got %q", n.Tag())
	}

	// Truncated input: open lists are closed silently.
	n = Tokenize(`(kicad_sch (wire (pts (xy 1 2`)
	if n.Tag() != "kicad_sch" {
		t.Fatalf("Expected tag 'kicad_sch', got %q", n.Tag())
	}
	wire, ok := n.Find("wire")
	if !ok {
		t.Fatal("Expected partial 'wire' node to survive truncation")
	}
	pts, ok := wire.Find("pts")
	if !ok {
		t.Fatal("Expected partial 'pts' node")
	}
	xy, ok := pts.Find("xy")
	if !ok {
		t.Fatal("Expected partial 'xy' node")
	}
	if p := XY(xy); p.X != 1 || p.Y != 2 {
		t.Errorf("Expected (1, 2), got (%v, %v)", p.X, p.Y)
	}
}

func TestTokenizeUnterminatedQuote(t *testing.T) {
	n := Tokenize(`(label "CLK`)
	if n.StringAt(1) != "CLK" {
		t.Errorf("Expected 'CLK' from unterminated quote, got %q", n.StringAt(1))
	}
}

func TestTokenizeMultipleTopLevel(t *testing.T) {
	n := Tokenize(`(a 1) (b 2)`)
	if n.Len() != 2 {
		t.Fatalf("Expected 2 top-level nodes, got %d", n.Len())
	}
	if n.At(0).Tag() != "a" || n.At(1).Tag() != "b" {
		t.Errorf("Unexpected top-level tags %q, %q", n.At(0).Tag(), n.At(1).Tag())
	}
}

func TestTokenizeEmptyInput(t *testing.T) {
	n := Tokenize("")
	if !n.IsList() || n.Len() != 0 {
		t.Errorf("Expected empty list for empty input")
	}
	n = Tokenize("   \n\t  ")
	if n.Len() != 0 {
		t.Errorf("Expected empty list for whitespace input, got %d children", n.Len())
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		`(kicad_sch (version 20231120) (symbol "Device:R" (pin passive line (at -2.54 0 0))))`,
		`(a "quoted atom" bare 1.5 (nested (deeper "x")))`,
		`(value "esc \"q\" end")`,
		`(empty "")`,
	}
	for _, input := range inputs {
		first := Tokenize(input)
		second := Tokenize(first.String())
		if first.String() != second.String() {
			t.Errorf("Round trip mismatch for %q:\n  first:  %s\n  second: %s",
				input, first, second)
		}
	}
}

func TestNodeAccessorDefaults(t *testing.T) {
	n := Tokenize(`(pin (length))`)

	if n.At(99).Atom() != "" {
		t.Error("Out-of-range At should yield zero node")
	}
	length, _ := n.Find("length")
	if got := length.FloatAt(1, 2.54); got != 2.54 {
		t.Errorf("Expected default 2.54, got %v", got)
	}
	if got := n.IntAt(5, 7); got != 7 {
		t.Errorf("Expected default 7, got %v", got)
	}
	if got := n.Value("missing", "fallback"); got != "fallback" {
		t.Errorf("Expected 'fallback', got %q", got)
	}
}

func TestFindAll(t *testing.T) {
	n := Tokenize(`(root (pin 1) (pin 2) (wire) (pin 3))`)
	pins := n.FindAll("pin")
	if len(pins) != 3 {
		t.Fatalf("Expected 3 pins, got %d", len(pins))
	}
	if pins[2].StringAt(1) != "3" {
		t.Errorf("Expected last pin '3', got %q", pins[2].StringAt(1))
	}
}

func TestRotatePoint(t *testing.T) {
	x, y := RotatePoint(1, 0, 90)
	if math.Abs(x) > 1e-9 || math.Abs(y-1) > 1e-9 {
		t.Errorf("Expected (0, 1), got (%v, %v)", x, y)
	}

	// Identity short-circuit.
	x, y = RotatePoint(3.3, -1.1, 0)
	if x != 3.3 || y != -1.1 {
		t.Errorf("Rotation by 0 must be exact identity, got (%v, %v)", x, y)
	}

	// 360 degrees lands back within tolerance of 0 degrees.
	x0, y0 := RotatePoint(2.54, 1.27, 0)
	x360, y360 := RotatePoint(2.54, 1.27, 360)
	if !PointsMatch(Position{x0, y0}, Position{x360, y360}) {
		t.Errorf("Expected 0 and 360 degree rotations to match: (%v,%v) vs (%v,%v)",
			x0, y0, x360, y360)
	}
}

func TestPointsMatch(t *testing.T) {
	a := Position{X: 1.27, Y: 2.54}
	if !PointsMatch(a, Position{X: 1.271, Y: 2.539}) {
		t.Error("Points within tolerance should match")
	}
	if PointsMatch(a, Position{X: 1.27 + 0.02, Y: 2.54}) {
		t.Error("Delta equal to tolerance must not match (strict less-than)")
	}
	if PointsMatch(a, Position{X: 2.54, Y: 2.54}) {
		t.Error("Distinct grid points must not match")
	}
}

func TestXYDefaults(t *testing.T) {
	p := XY(Tokenize(`(at)`))
	if p.X != 0 || p.Y != 0 {
		t.Errorf("Expected origin default, got (%v, %v)", p.X, p.Y)
	}

	pos, rot := XYRotation(Tokenize(`(at 5 10)`))
	if pos.X != 5 || pos.Y != 10 || rot != 0 {
		t.Errorf("Expected (5, 10, 0), got (%v, %v, %v)", pos.X, pos.Y, rot)
	}

	pos, rot = XYRotation(Tokenize(`(at 5 10 180)`))
	if rot != 180 {
		t.Errorf("Expected rotation 180, got %v", rot)
	}
}
