package summarizer

import "strings"

// Synopsis is the corpus overview shown before the first question.
type Synopsis struct {
	Papers   []string
	Chunks   int
	Keywords []string
	Summary  string
}

// Build summarises the chunk texts of a corpus.
func Build(papers []string, texts []string, maxSentences, maxKeywords int) Synopsis {
	f := NewFrequency()
	return Synopsis{
		Papers:   papers,
		Chunks:   len(texts),
		Keywords: f.Keywords(texts, maxKeywords),
		Summary:  f.Summarize(strings.Join(texts, "\n"), maxSentences),
	}
}
