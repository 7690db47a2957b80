// Package report defines the fault contract shared by rule checks and
// AI analysis, and assembles deduplicated fault reports.
package report

import (
	"time"

	"github.com/google/uuid"
)

// Severity levels, ordered from most to least severe.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Fix describes how to resolve a fault. Type names the design file
// the change belongs to, "schematic" or "pcb".
type Fix struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Fault is one detected design issue.
type Fault struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Component   string `json:"component"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Fix         Fix    `json:"fix"`
}

// Summary tallies faults by severity and category.
type Summary struct {
	Total      int            `json:"total"`
	Errors     int            `json:"errors"`
	Warnings   int            `json:"warnings"`
	Infos      int            `json:"infos"`
	ByCategory map[string]int `json:"by_category"`
}

// SchematicInfo carries size counts of the analyzed schematic.
type SchematicInfo struct {
	SymbolsCount      int `json:"symbols_count"`
	NetsCount         int `json:"nets_count"`
	PowerSymbolsCount int `json:"power_symbols_count"`
}

// BoardInfo carries size counts of the analyzed board.
type BoardInfo struct {
	FootprintsCount int `json:"footprints_count"`
	SegmentsCount   int `json:"segments_count"`
	ViasCount       int `json:"vias_count"`
	ZonesCount      int `json:"zones_count"`
}

// Report is a finished analysis result.
type Report struct {
	ID            string         `json:"id"`
	ProjectType   string         `json:"project_type"`
	ProjectName   string         `json:"project_name,omitempty"`
	AnalysisType  string         `json:"analysis_type,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Faults        []Fault        `json:"faults"`
	Summary       Summary        `json:"summary"`
	SchematicInfo *SchematicInfo `json:"schematic_info,omitempty"`
	BoardInfo     *BoardInfo     `json:"pcb_info,omitempty"`
}

// Builder accumulates faults from multiple check passes, dropping
// faults whose title exactly repeats one already collected.
type Builder struct {
	faults []Fault
	titles map[string]bool
}

func NewBuilder() *Builder {
	return &Builder{titles: make(map[string]bool)}
}

// Add appends faults, skipping exact-title duplicates.
func (b *Builder) Add(faults ...Fault) {
	for _, f := range faults {
		if b.titles[f.Title] {
			continue
		}
		b.titles[f.Title] = true
		b.faults = append(b.faults, f)
	}
}

// Faults returns the collected faults in insertion order.
func (b *Builder) Faults() []Fault {
	return b.faults
}

// Build finalizes the report, assigning a fresh id and computing the
// summary.
func (b *Builder) Build(projectType, projectName, analysisType string) *Report {
	faults := b.faults
	if faults == nil {
		faults = []Fault{}
	}
	return &Report{
		ID:           uuid.NewString(),
		ProjectType:  projectType,
		ProjectName:  projectName,
		AnalysisType: analysisType,
		CreatedAt:    time.Now().UTC(),
		Faults:       faults,
		Summary:      Summarize(faults),
	}
}

// Summarize tallies a fault list.
func Summarize(faults []Fault) Summary {
	s := Summary{
		Total:      len(faults),
		ByCategory: make(map[string]int),
	}
	for _, f := range faults {
		switch f.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		default:
			s.Infos++
		}
		cat := f.Category
		if cat == "" {
			cat = "other"
		}
		s.ByCategory[cat]++
	}
	return s
}
