// Package knowledge holds the built-in component database: pin
// expectations, operating limits, common design mistakes, and default
// manufacturing constraints for standard KiCad library parts.
package knowledge

import (
	_ "embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/components.yaml
var rawDB []byte

// OperatingVoltage bounds the supply range of a part. Zero fields mean
// the bound is not specified.
type OperatingVoltage struct {
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	Typical  float64 `yaml:"typical"`
	InputMin float64 `yaml:"input_min"`
	InputMax float64 `yaml:"input_max"`
	Output   float64 `yaml:"output"`
}

// Component is one knowledge base entry. LibID may contain a *
// wildcard to cover a part family.
type Component struct {
	LibID            string            `yaml:"lib_id"`
	Category         string            `yaml:"category"`
	Description      string            `yaml:"description"`
	Pins             map[string]string `yaml:"pins"`
	Checks           []string          `yaml:"checks"`
	Notes            string            `yaml:"notes"`
	CommonMistakes   []string          `yaml:"common_mistakes"`
	OperatingVoltage *OperatingVoltage `yaml:"operating_voltage"`
}

// HasCheck reports whether the entry requests a named rule check.
func (c *Component) HasCheck(name string) bool {
	for _, chk := range c.Checks {
		if chk == name {
			return true
		}
	}
	return false
}

// MaxVoltage returns the maximum supply voltage, or 0 when unknown.
func (c *Component) MaxVoltage() float64 {
	if c.OperatingVoltage == nil {
		return 0
	}
	return c.OperatingVoltage.Max
}

// TraceWidthEntry maps a current level to the minimum recommended
// trace width for 1 oz copper.
type TraceWidthEntry struct {
	Amps    float64 `yaml:"amps"`
	WidthMM float64 `yaml:"width_mm"`
}

type database struct {
	Components        []Component        `yaml:"components"`
	PowerSymbols      map[string]float64 `yaml:"power_symbols"`
	TraceWidthCurrent []TraceWidthEntry  `yaml:"trace_width_current"`
	MfgConstraints    map[string]float64 `yaml:"mfg_constraints"`
}

var (
	dbOnce sync.Once
	db     database
	dbErr  error

	overrideMu   sync.RWMutex
	mfgOverrides map[string]float64
)

func load() database {
	dbOnce.Do(func() {
		if err := yaml.Unmarshal(rawDB, &db); err != nil {
			dbErr = fmt.Errorf("decoding component database: %w", err)
		}
	})
	if dbErr != nil {
		panic(dbErr)
	}
	return db
}

// MatchComponent looks up a library id in the knowledge base. Exact
// matches win; otherwise wildcard patterns are tried in declaration
// order and the first match is returned. Returns nil when unknown.
func MatchComponent(libID string) *Component {
	d := load()
	for i := range d.Components {
		if d.Components[i].LibID == libID {
			return &d.Components[i]
		}
	}
	for i := range d.Components {
		pattern := d.Components[i].LibID
		if !strings.Contains(pattern, "*") {
			continue
		}
		if ok, err := path.Match(pattern, libID); err == nil && ok {
			return &d.Components[i]
		}
	}
	return nil
}

// PowerVoltage returns the expected rail voltage for a power symbol or
// net name. The second result is false for unknown names.
func PowerVoltage(name string) (float64, bool) {
	v, ok := load().PowerSymbols[name]
	return v, ok
}

// IsPowerNet reports whether a net name looks like a power rail.
func IsPowerNet(name string) bool {
	if _, ok := load().PowerSymbols[name]; ok {
		return true
	}
	if strings.HasPrefix(name, "+") {
		return true
	}
	switch name {
	case "VCC", "VDD", "VBUS":
		return true
	}
	return false
}

// PowerSymbolNames returns the set of known power symbol names.
func PowerSymbolNames() map[string]float64 {
	return load().PowerSymbols
}

// SetMfgOverrides installs per-fab manufacturing constraint values
// that take precedence over the built-in defaults. Call before
// running checks.
func SetMfgOverrides(values map[string]float64) {
	overrideMu.Lock()
	defer overrideMu.Unlock()
	if len(values) == 0 {
		mfgOverrides = nil
		return
	}
	mfgOverrides = make(map[string]float64, len(values))
	for k, v := range values {
		mfgOverrides[k] = v
	}
}

// MfgConstraint returns a named manufacturing constraint in mm, such
// as "min_trace_width_mm". Unknown names return 0.
func MfgConstraint(name string) float64 {
	overrideMu.RLock()
	v, ok := mfgOverrides[name]
	overrideMu.RUnlock()
	if ok {
		return v
	}
	return load().MfgConstraints[name]
}

// MinTraceWidthFor returns the recommended minimum trace width for a
// current level, picking the smallest table entry that covers it. The
// largest table width is returned for currents beyond the table.
func MinTraceWidthFor(amps float64) float64 {
	entries := load().TraceWidthCurrent
	if len(entries) == 0 {
		return 0
	}
	for _, e := range entries {
		if amps <= e.Amps {
			return e.WidthMM
		}
	}
	return entries[len(entries)-1].WidthMM
}

// SymbolRef identifies one placed symbol for prompt building.
type SymbolRef struct {
	Reference string
	LibID     string
}

// KnowledgeText builds a component reference passage for analysis
// prompts from the lib ids present in a design. Each id contributes at
// most once. Symbols without a knowledge entry are skipped.
func KnowledgeText(refs []SymbolRef) string {
	seen := make(map[string]bool)
	var b strings.Builder
	for _, s := range refs {
		if s.LibID == "" || seen[s.LibID] {
			continue
		}
		seen[s.LibID] = true
		info := MatchComponent(s.LibID)
		if info == nil {
			continue
		}
		ref := s.Reference
		if ref == "" {
			ref = "?"
		}
		fmt.Fprintf(&b, "- **%s** (%s: %s):\n", ref, info.Description, s.LibID)
		if info.Notes != "" {
			fmt.Fprintf(&b, "  Notes: %s\n", info.Notes)
		}
		for _, m := range info.CommonMistakes {
			fmt.Fprintf(&b, "  Common mistake: %s\n", m)
		}
	}
	if b.Len() == 0 {
		return "No specific component knowledge available."
	}
	return strings.TrimRight(b.String(), "\n")
}
