package suggest

import "context"

// Candidate is one raw suggestion returned by a Source: the suggested
// phrase and its relevance score (0 when the upstream omits scores).
type Candidate struct {
	Keyword   string
	Relevance int
}

// Source abstracts an autocomplete provider. Implementations must be
// best-effort: a transport or parse failure is returned as an error and
// never panics, and callers are expected to treat it as "zero candidates
// for this query". Implementations own their rate limiting so that every
// physical request is followed by the configured delay regardless of
// outcome.
type Source interface {
	Suggest(ctx context.Context, query string) ([]Candidate, error)
}

// Modifier vocabularies combined with frontier keywords to form
// expansion queries.
var (
	Alphabet      = splitChars("abcdefghijklmnopqrstuvwxyz")
	Numbers       = splitChars("0123456789")
	QuestionWords = []string{"how", "what", "why", "when", "where", "who", "which", "are", "is", "can", "will"}
	Prepositions  = []string{"for", "with", "without", "near", "in", "at", "to", "from", "vs", "versus"}
)

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
