package assembler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/domain"
)

func result(title, heading, text string, rank int) domain.RetrievalResult {
	return domain.RetrievalResult{
		Chunk:   domain.Chunk{PaperTitle: title, Text: text, Authors: []string{"Vaswani", "Shazeer"}, Organization: "Google", Year: "2017"},
		Heading: heading,
		Rank:    rank,
	}
}

func TestAssembleRecordLayout(t *testing.T) {
	got := New(0).Assemble([]domain.RetrievalResult{
		result("Attention", "Model > Encoder", "stack of layers", 1),
	})
	want := "Paper Title: Attention\n" +
		"Heading: Model > Encoder\n" +
		"Authors: Vaswani, Shazeer\n" +
		"Organization: Google\n" +
		"Year: 2017\n" +
		"Text: stack of layers"
	assert.Equal(t, want, got)
}

func TestAssembleMissingFieldsAndNoMerge(t *testing.T) {
	r := domain.RetrievalResult{Chunk: domain.Chunk{Text: "orphan"}}
	got := New(0).Assemble([]domain.RetrievalResult{r, r})

	assert.Contains(t, got, "Paper Title: N/A\nHeading: N/A\nAuthors: \nOrganization: N/A\nYear: N/A\nText: orphan")
	assert.Equal(t, 2, strings.Count(got, "Text: orphan"))
	assert.Contains(t, got, "orphan\n\nPaper Title")
}

func TestAssembleTruncates(t *testing.T) {
	got := New(5).Assemble([]domain.RetrievalResult{result("T", "", "abcdefghij", 1)})
	assert.Contains(t, got, "Text: abcde...")

	got = New(20).Assemble([]domain.RetrievalResult{result("T", "", "short", 1)})
	assert.Contains(t, got, "Text: short")
	assert.NotContains(t, got, "...")
}

func TestContextOrMarker(t *testing.T) {
	a := New(0)
	assert.Equal(t, "", a.Assemble(nil))
	assert.Equal(t, NoContextMarker, a.ContextOrMarker(nil))
}

func TestSourcesDeduplicates(t *testing.T) {
	sources := Sources([]domain.RetrievalResult{
		result("A", "Intro", "x", 1),
		result("B", "Method", "y", 2),
		result("A", "Intro", "z", 3),
		result("A", "Results", "w", 4),
	})
	require.Len(t, sources, 3)
	assert.Equal(t, "A", sources[0].PaperTitle)
	assert.Equal(t, "Intro", sources[0].Heading)
	assert.Equal(t, "B", sources[1].PaperTitle)
	assert.Equal(t, "Results", sources[2].Heading)
}

func TestFormatSources(t *testing.T) {
	assert.Equal(t, "None", FormatSources(nil))
	got := FormatSources([]domain.Source{{PaperTitle: "A", Authors: []string{"X"}, Heading: "Intro"}, {PaperTitle: "B"}})
	assert.Equal(t, "- A (X): Intro\n- B", got)
}

func TestExtractEquations(t *testing.T) {
	eqs := ExtractEquations([]domain.RetrievalResult{
		result("A", "", "see\n```\nQK^T / sqrt(d)\n```\nand\n```\nsoftmax(x)\n```", 1),
		result("A", "", "again\n```\nQK^T / sqrt(d)\n```", 2),
		result("A", "", "inline ```x``` is ignored", 3),
	})
	assert.Equal(t, []string{"QK^T / sqrt(d)", "softmax(x)"}, eqs)
	assert.Empty(t, ExtractEquations(nil))
}

