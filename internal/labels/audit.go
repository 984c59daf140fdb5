package labels

import (
	"sort"

	"github.com/mathsym/mathsym/internal/symbols"
)

// SuspiciousCount is the number of indices sharing one LaTeX value above which the
// audit flags the value; a correct HASYv2 table never repeats a symbol that often.
const SuspiciousCount = 50

// LaTeXCount is the number of compact indices resolving to one LaTeX value.
type LaTeXCount struct {
	LaTeX string `json:"latex"`
	Count int    `json:"count"`
}

// AuditReport summarizes the consistency of a Table.
type AuditReport struct {
	Indices         int          `json:"indices"`
	Labels          int          `json:"labels"`
	Identity        bool         `json:"identity_mapping"`
	Resolved        int          `json:"resolved"`
	UnresolvedIndex []int        `json:"unresolved_indices,omitempty"`
	UnusedLabels    []int        `json:"unused_labels,omitempty"`
	NoGlyph         []string     `json:"no_glyph,omitempty"`
	Frequency       []LaTeXCount `json:"frequency"`
	Suspicious      []LaTeXCount `json:"suspicious,omitempty"`
}

// OK reports whether every compact index resolved and no value repeats suspiciously.
func (r AuditReport) OK() bool {
	return len(r.UnresolvedIndex) == 0 && len(r.Suspicious) == 0
}

// Audit walks every compact index and reports mismatches between the remapping and
// the label file. top bounds the frequency list; zero keeps all values.
func (t *Table) Audit(top int) AuditReport {
	report := AuditReport{
		Indices:  t.Len(),
		Labels:   len(t.entries),
		Identity: t.identity,
	}

	used := make(map[int]bool, len(t.entries))
	counts := make(map[string]int)
	noGlyph := make(map[string]bool)

	for _, index := range t.Indices() {
		res, ok := t.Resolve(index)
		if res.LabelID >= 0 {
			used[res.LabelID] = true
		}
		if !ok {
			report.UnresolvedIndex = append(report.UnresolvedIndex, index)
			continue
		}
		report.Resolved++
		counts[res.LaTeX]++
		if _, ok := symbols.Lookup(res.LaTeX); !ok && res.Unicode == "" {
			noGlyph[res.LaTeX] = true
		}
	}

	for _, id := range t.LabelIDs() {
		if !used[id] {
			report.UnusedLabels = append(report.UnusedLabels, id)
		}
	}

	for latex := range noGlyph {
		report.NoGlyph = append(report.NoGlyph, latex)
	}
	sort.Strings(report.NoGlyph)

	for latex, n := range counts {
		report.Frequency = append(report.Frequency, LaTeXCount{LaTeX: latex, Count: n})
	}
	sort.Slice(report.Frequency, func(i, j int) bool {
		a, b := report.Frequency[i], report.Frequency[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.LaTeX < b.LaTeX
	})
	for _, c := range report.Frequency {
		if c.Count > SuspiciousCount {
			report.Suspicious = append(report.Suspicious, c)
		}
	}
	if top > 0 && len(report.Frequency) > top {
		report.Frequency = report.Frequency[:top]
	}

	return report
}
