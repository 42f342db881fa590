package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"symptom-checker/internal/models"
	"symptom-checker/internal/session"
	"symptom-checker/internal/session/analysis"
)

// console serializes writes from the prompt loop and the snapshot renderer.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) Printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *console) Render(fn func(w io.Writer)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.w)
}

func renderSymptoms(w io.Writer, snap session.Snapshot) {
	if len(snap.Symptoms) == 0 {
		fmt.Fprintln(w, "Selected symptoms: none")
	} else {
		fmt.Fprintf(w, "Selected symptoms (%d):\n", len(snap.Symptoms))
		for i, s := range snap.Symptoms {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
	if snap.InputError != "" {
		fmt.Fprintf(w, "! %s\n", snap.InputError)
	}
}

func renderSuggestions(w io.Writer, suggestions []string) {
	fmt.Fprintln(w, "Suggestions:")
	for i, s := range suggestions {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, s)
	}
}

func renderQuickSelect(w io.Writer, items []session.QuickSelectItem) {
	fmt.Fprintln(w, "Common symptoms:")
	for i, item := range items {
		mark := " "
		if item.Selected {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %2d %s\n", mark, i+1, item.Label)
	}
}

func renderResult(w io.Writer, res *analysis.Result) {
	if res == nil {
		return
	}
	if res.EmergencyWarning != nil {
		fmt.Fprintf(w, "\n*** %s ***\n", *res.EmergencyWarning)
	}

	if res.NoMatches() {
		fmt.Fprintln(w, "\nNo matches found")
		fmt.Fprintln(w, "The system could not find diseases matching your symptoms.")
		fmt.Fprintln(w, "Try adding more symptoms or consult a healthcare professional.")
	}

	for i, p := range res.Predictions {
		fmt.Fprintf(w, "\n%d. %s  %.1f%%  [%s]", i+1, p.Disease, p.Confidence, p.Tier)
		if p.Emergency {
			fmt.Fprint(w, "  EMERGENCY")
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "   matching %d of %d symptoms", len(p.MatchingSymptoms), p.TotalSymptoms)
		if len(p.MatchingSymptoms) > 0 {
			fmt.Fprintf(w, ": %s", strings.Join(p.MatchingSymptoms, ", "))
		}
		fmt.Fprintln(w)
		if p.LowConfidence {
			fmt.Fprintf(w, "   %s\n", p.Advisory)
		}
	}

	if g := res.Graph; g != nil && !g.Empty() {
		fmt.Fprintf(w, "\nKnowledge graph: %d nodes, %d links", len(g.Nodes), len(g.Links))
		if g.DroppedLinks > 0 {
			fmt.Fprintf(w, " (%d dangling links dropped)", g.DroppedLinks)
		}
		fmt.Fprintln(w)
	}

	if res.Disclaimer != "" {
		fmt.Fprintf(w, "\n%s\n", res.Disclaimer)
	}
}

func renderDoctors(w io.Writer, resp *models.DoctorResponse) {
	if len(resp.RecommendedDoctors) == 0 {
		fmt.Fprintln(w, "No specific doctors found for this disease.")
	}
	for _, d := range resp.RecommendedDoctors {
		fmt.Fprintf(w, "%s (%s)  rating %.1f\n", d.Name, d.Specialization, d.Rating)
		if d.Hospital != "" {
			fmt.Fprintf(w, "  %s, %s\n", d.Hospital, d.Address)
		}
		if d.Phone != nil {
			fmt.Fprintf(w, "  phone: %s\n", *d.Phone)
		}
		if d.Email != nil {
			fmt.Fprintf(w, "  email: %s\n", *d.Email)
		}
		if d.Availability != "" {
			fmt.Fprintf(w, "  %s, fees %s\n", d.Availability, d.Fees)
		}
	}
	if resp.Disclaimer != "" {
		fmt.Fprintf(w, "\n%s\n", resp.Disclaimer)
	}
}

func phaseLabel(p analysis.Phase) string {
	switch p {
	case analysis.PhaseLoading:
		return "Analyzing..."
	case analysis.PhaseFailure:
		return "Analysis failed"
	case analysis.PhaseSuccess:
		return "Analysis complete"
	default:
		return ""
	}
}
