// Package assembler formats retrieval results into grounding context.
package assembler

import (
	"regexp"
	"strings"

	"aura/internal/domain"
)

const notAvailable = "N/A"

// NoContextMarker replaces the context block when retrieval found nothing.
const NoContextMarker = "No relevant context was found in the corpus."

// Assembler renders results as fixed-field records. MaxChars > 0 truncates
// each chunk body to that many characters followed by "...".
type Assembler struct {
	MaxChars int
}

func New(maxChars int) *Assembler {
	return &Assembler{MaxChars: maxChars}
}

// Assemble renders one record per result in rank order, separated by a
// blank line. Results sharing a paper and heading are not merged.
func (a *Assembler) Assemble(results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return ""
	}
	records := make([]string, len(results))
	for i, r := range results {
		var b strings.Builder
		b.WriteString("Paper Title: " + orNA(r.PaperTitle) + "\n")
		b.WriteString("Heading: " + orNA(r.Heading) + "\n")
		b.WriteString("Authors: " + strings.Join(r.Authors, ", ") + "\n")
		b.WriteString("Organization: " + orNA(r.Organization) + "\n")
		b.WriteString("Year: " + orNA(r.Year) + "\n")
		b.WriteString("Text: " + a.body(r.Text))
		records[i] = b.String()
	}
	return strings.Join(records, "\n\n")
}

// ContextOrMarker is Assemble with NoContextMarker for an empty result set.
func (a *Assembler) ContextOrMarker(results []domain.RetrievalResult) string {
	if ctx := a.Assemble(results); ctx != "" {
		return ctx
	}
	return NoContextMarker
}

func (a *Assembler) body(text string) string {
	if a.MaxChars <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= a.MaxChars {
		return text
	}
	return string(r[:a.MaxChars]) + "..."
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

// Sources lists each (paper title, heading) pair once, in the order of its
// best rank.
func Sources(results []domain.RetrievalResult) []domain.Source {
	type key struct{ title, heading string }
	seen := make(map[key]struct{}, len(results))
	out := make([]domain.Source, 0, len(results))
	for _, r := range results {
		k := key{r.PaperTitle, r.Heading}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, domain.Source{PaperTitle: r.PaperTitle, Authors: r.Authors, Heading: r.Heading})
	}
	return out
}

// FormatSources renders sources as a bullet list for prompts and terminals.
func FormatSources(sources []domain.Source) string {
	if len(sources) == 0 {
		return "None"
	}
	lines := make([]string, len(sources))
	for i, s := range sources {
		line := "- " + orNA(s.PaperTitle)
		if len(s.Authors) > 0 {
			line += " (" + strings.Join(s.Authors, ", ") + ")"
		}
		if s.Heading != "" {
			line += ": " + s.Heading
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

var fencedBlock = regexp.MustCompile("(?s)```\n(.*?)\n```")

// ExtractEquations returns the distinct fenced blocks found in the result
// texts, in order of first appearance.
func ExtractEquations(results []domain.RetrievalResult) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, r := range results {
		for _, m := range fencedBlock.FindAllStringSubmatch(r.Text, -1) {
			eq := strings.TrimSpace(m[1])
			if eq == "" {
				continue
			}
			if _, ok := seen[eq]; ok {
				continue
			}
			seen[eq] = struct{}{}
			out = append(out, eq)
		}
	}
	return out
}
