package common

// Document is one unit of disambiguation work: the entity mentions found in
// a single source text. Mentions are grouping keys; a mention listed twice
// is treated as one.
type Document struct {
	ID       string   `json:"id"`
	Mentions []string `json:"mentions"`
}

// MentionCandidates pairs a mention with the knowledge-base titles proposed
// for it, in provider order. Duplicated titles are kept as-is.
type MentionCandidates struct {
	Mention    string   `json:"mention"`
	Candidates []string `json:"candidates"`
}

// Disambiguations maps a mention to the single article title chosen for it.
// Mentions without any candidate never appear.
type Disambiguations map[string]string

// DocumentResult is the outcome of disambiguating one Document. Err is set
// when the run for this document failed; other documents of the same batch
// are unaffected.
type DocumentResult struct {
	DocumentID      string          `json:"document_id"`
	Disambiguations Disambiguations `json:"disambiguations"`
	Err             error           `json:"-"`
	Error           string          `json:"error,omitempty"`
}

// Dedupe returns mentions without repeats, keeping first-seen order.
func Dedupe(mentions []string) []string {
	seen := make(map[string]struct{}, len(mentions))
	out := make([]string, 0, len(mentions))
	for _, m := range mentions {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
