package domain

import "strings"

// HeadingSeparator joins the section hierarchy of a chunk.
const HeadingSeparator = " > "

// Chunk is a bounded span of paper text with its bibliographic metadata.
type Chunk struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	PaperTitle    string   `json:"paper_title"`
	Authors       []string `json:"authors"`
	Organization  string   `json:"organization"`
	Year          string   `json:"year"`
	Section       string   `json:"section"`
	Subsection    string   `json:"subsection"`
	Subsubsection string   `json:"subsubsection"`
}

// Heading joins the non-empty section levels in hierarchical order.
func (c Chunk) Heading() string {
	return BuildHeading(c.Section, c.Subsection, c.Subsubsection)
}

// BuildHeading joins the non-empty parts with HeadingSeparator.
func BuildHeading(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, HeadingSeparator)
}

// Entry keeps a chunk and its embedding together so the pair can never drift apart.
type Entry struct {
	Position int
	Chunk    Chunk
	Vector   []float32
}

// Hit is a single nearest-neighbour match. Distance is squared Euclidean.
type Hit struct {
	Entry    Entry
	Distance float64
}

// RetrievalResult is a chunk ranked for a specific query.
type RetrievalResult struct {
	Chunk
	Heading  string  `json:"heading"`
	Rank     int     `json:"rank"`
	Distance float64 `json:"distance"`
}

// Source identifies a cited paper section.
type Source struct {
	PaperTitle string   `json:"paper_title"`
	Authors    []string `json:"authors"`
	Heading    string   `json:"heading"`
}
