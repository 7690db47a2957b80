// Package analysis orchestrates design-fault detection: rule-based
// ERC/DRC checks first, then optional model-backed analysis layered on
// top, merged into a single deduplicated report.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OpenCircuitLab/CircuitLint/pkg/drc"
	"github.com/OpenCircuitLab/CircuitLint/pkg/erc"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/pcb"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/project"
	"github.com/OpenCircuitLab/CircuitLint/pkg/kicad/schematic"
	"github.com/OpenCircuitLab/CircuitLint/pkg/knowledge"
	"github.com/OpenCircuitLab/CircuitLint/pkg/report"
)

// Options controls an analysis run. A nil Completer runs rule checks
// only. Description is the user's statement of intended behavior,
// forwarded to the model when present.
type Options struct {
	Completer   Completer
	Description string
}

// AnalyzeSchematic runs schematic checks and optional model analysis.
func AnalyzeSchematic(ctx context.Context, sch *schematic.Schematic, opts Options) (*report.Report, error) {
	b := report.NewBuilder()
	ruleFaults := erc.CheckAll(sch)
	b.Add(ruleFaults...)

	if opts.Completer != nil {
		aiFaults, err := aiAnalyzeSchematic(ctx, opts.Completer, sch, ruleFaults, opts.Description)
		if err != nil {
			return nil, err
		}
		b.Add(aiFaults...)
	}

	rep := b.Build("kicad", "", "schematic")
	rep.SchematicInfo = schematicInfo(sch)
	return rep, nil
}

// AnalyzePCB runs board checks and optional model analysis. sch may be
// nil; cross-reference checks are skipped without it.
func AnalyzePCB(ctx context.Context, board *pcb.Board, sch *schematic.Schematic, opts Options) (*report.Report, error) {
	b := report.NewBuilder()
	ruleFaults := drc.CheckAll(board, sch)
	b.Add(ruleFaults...)

	if opts.Completer != nil {
		aiFaults, err := aiAnalyzePCB(ctx, opts.Completer, board, sch, ruleFaults, opts.Description)
		if err != nil {
			return nil, err
		}
		b.Add(aiFaults...)
	}

	rep := b.Build("kicad", "", "pcb")
	rep.BoardInfo = boardInfo(board)
	return rep, nil
}

// AnalyzeProject analyzes whatever the project contains: schematic,
// board, or both, in one combined report.
func AnalyzeProject(ctx context.Context, proj *project.Project, opts Options) (*report.Report, error) {
	b := report.NewBuilder()

	if proj.Schematic != nil {
		ruleFaults := erc.CheckAll(proj.Schematic)
		b.Add(ruleFaults...)
		if opts.Completer != nil {
			aiFaults, err := aiAnalyzeSchematic(ctx, opts.Completer, proj.Schematic, ruleFaults, opts.Description)
			if err != nil {
				return nil, err
			}
			b.Add(aiFaults...)
		}
	}

	if proj.Board != nil {
		ruleFaults := drc.CheckAll(proj.Board, proj.Schematic)
		b.Add(ruleFaults...)
		if opts.Completer != nil {
			aiFaults, err := aiAnalyzePCB(ctx, opts.Completer, proj.Board, proj.Schematic, ruleFaults, opts.Description)
			if err != nil {
				return nil, err
			}
			b.Add(aiFaults...)
		}
	}

	rep := b.Build("kicad", proj.Name, "project")
	if proj.Schematic != nil {
		rep.SchematicInfo = schematicInfo(proj.Schematic)
	}
	if proj.Board != nil {
		rep.BoardInfo = boardInfo(proj.Board)
	}
	return rep, nil
}

// FixSuggestions is the structured answer of the fix-suggestion
// prompt.
type FixSuggestions struct {
	SchematicChanges []FixChange    `json:"schematic_changes"`
	PCBChanges       []FixChange    `json:"pcb_changes"`
	NewComponents    []NewComponent `json:"new_components"`
	Summary          string         `json:"summary"`
}

type FixChange struct {
	Description string `json:"description"`
	Component   string `json:"component,omitempty"`
	Location    string `json:"location,omitempty"`
	Action      string `json:"action"`
}

type NewComponent struct {
	Type       string `json:"type"`
	Value      string `json:"value,omitempty"`
	Purpose    string `json:"purpose"`
	Connection string `json:"connection"`
}

// SuggestFixes asks the model for concrete fixes to a fault report.
func SuggestFixes(ctx context.Context, c Completer, rep *report.Report, rawSch, rawPCB string) (*FixSuggestions, error) {
	if c == nil {
		return nil, fmt.Errorf("fix suggestions require a completer")
	}
	faultJSON, err := json.MarshalIndent(rep.Faults, "", "  ")
	if err != nil {
		return nil, err
	}
	raw, err := c.Complete(ctx, fixSuggestionSystem, buildFixSuggestionPrompt(string(faultJSON), rawSch, rawPCB))
	if err != nil {
		return nil, err
	}
	return parseFixSuggestions(raw), nil
}

func parseFixSuggestions(text string) *FixSuggestions {
	var out FixSuggestions
	cleaned := stripMarkdownFences(text)
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return &FixSuggestions{Summary: "Unable to generate fix suggestions."}
	}
	return &out
}

func aiAnalyzeSchematic(ctx context.Context, c Completer, sch *schematic.Schematic, findings []report.Fault, description string) ([]report.Fault, error) {
	refs := make([]knowledge.SymbolRef, 0, len(sch.Symbols))
	for _, s := range sch.Symbols {
		refs = append(refs, knowledge.SymbolRef{Reference: s.Reference, LibID: s.LibID})
	}
	prompt := buildSchematicPrompt(sch, knowledge.KnowledgeText(refs), findings, description)
	raw, err := c.Complete(ctx, schematicAnalysisSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("schematic analysis: %w", err)
	}
	return ParseFaultsJSON(raw), nil
}

func aiAnalyzePCB(ctx context.Context, c Completer, board *pcb.Board, sch *schematic.Schematic, findings []report.Fault, description string) ([]report.Fault, error) {
	prompt := buildPCBPrompt(board, sch, findings, description)
	raw, err := c.Complete(ctx, pcbAnalysisSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("pcb analysis: %w", err)
	}
	return ParseFaultsJSON(raw), nil
}

func schematicInfo(sch *schematic.Schematic) *report.SchematicInfo {
	return &report.SchematicInfo{
		SymbolsCount:      len(sch.Symbols),
		NetsCount:         len(sch.Nets),
		PowerSymbolsCount: len(sch.PowerSymbols),
	}
}

func boardInfo(board *pcb.Board) *report.BoardInfo {
	return &report.BoardInfo{
		FootprintsCount: len(board.Footprints),
		SegmentsCount:   len(board.Segments),
		ViasCount:       len(board.Vias),
		ZonesCount:      len(board.Zones),
	}
}
