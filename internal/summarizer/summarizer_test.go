package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sample = "Attention mechanisms relate positions of a sequence. " +
	"The weather was pleasant. " +
	"Self attention computes attention weights over every position of the sequence. " +
	"Lunch was served at noon."

func TestSummarizePrefersFrequentTerms(t *testing.T) {
	got := NewFrequency().Summarize(sample, 2)
	assert.Equal(t, "Attention mechanisms relate positions of a sequence. Self attention computes attention weights over every position of the sequence.", got)
}

func TestSummarizeWithoutSentences(t *testing.T) {
	assert.Equal(t, "no terminal punctuation", NewFrequency().Summarize("  no terminal punctuation ", 3))
}

func TestSummarizeSkipsFencedBlocks(t *testing.T) {
	got := NewFrequency().Summarize("Scaled dot product.\n```\nsoftmax(QK^T). attention.\n```\n", 5)
	assert.Equal(t, "Scaled dot product.", got)
}

func TestKeywords(t *testing.T) {
	kw := NewFrequency().Keywords([]string{sample, "attention sequence"}, 2)
	assert.Equal(t, []string{"attention", "sequence"}, kw)
}

func TestBuild(t *testing.T) {
	s := Build([]string{"Attention Is All You Need"}, []string{sample}, 1, 3)
	assert.Equal(t, 1, s.Chunks)
	assert.Equal(t, []string{"Attention Is All You Need"}, s.Papers)
	assert.Len(t, s.Keywords, 3)
	assert.NotEmpty(t, s.Summary)
}
