// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/refresolve/internal/scorer"
	"github.com/pdiddy/refresolve/pkg/types"
)

// DefaultMaxQueries bounds the queries planned for one reference.
const DefaultMaxQueries = 8

// JSONCompleter sends a prompt to a language model and decodes the JSON
// object in its reply. *llm.Client implements it.
type JSONCompleter interface {
	CompleteJSON(ctx context.Context, prompt string, v any) error
}

// Planner produces the search queries for a reference.
type Planner interface {
	Queries(ctx context.Context, ref *types.Reference) []string
}

// HeuristicPlanner builds queries from the reference fields alone.
type HeuristicPlanner struct {
	Max int
}

// Queries implements Planner.
func (p HeuristicPlanner) Queries(_ context.Context, ref *types.Reference) []string {
	return HeuristicQueries(ref, p.Max)
}

// HeuristicQueries returns up to max distinct queries for ref, most
// specific first.
func HeuristicQueries(ref *types.Reference, max int) []string {
	if max <= 0 {
		max = DefaultMaxQueries
	}
	title := strings.TrimSpace(strings.ReplaceAll(ref.Title, `"`, ""))
	surname := scorer.FirstSurname(ref.Authors)

	var qs []string
	if title != "" {
		quoted := `"` + title + `"`
		qs = append(qs,
			join(quoted, surname),
			join(quoted, surname, "pdf"),
			join(quoted, "review"),
			join(quoted, "site:doi.org"),
			join(quoted, "site:archive.org"),
			join(quoted, "site:worldcat.org"),
		)
	}
	if ref.Publication != "" {
		qs = append(qs, join(ref.Publication, ref.Year, surname))
	}
	if frag := relevanceFragment(ref.RelevanceText); title != "" && frag != "" {
		qs = append(qs, join(title, frag))
	}
	if title == "" {
		qs = append(qs, join(ref.Authors, ref.Year))
	}
	return dedupeQueries(qs, max)
}

func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// relevanceFragment returns the first few words of the first sentence of
// the relevance text.
func relevanceFragment(rel string) string {
	rel = strings.TrimSpace(rel)
	if i := strings.IndexAny(rel, ".;"); i > 0 {
		rel = rel[:i]
	}
	words := strings.Fields(rel)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}

// dedupeQueries drops empty and repeated queries (case-insensitive) and
// keeps at most max.
func dedupeQueries(qs []string, max int) []string {
	seen := make(map[string]bool, len(qs))
	out := make([]string, 0, max)
	for _, q := range qs {
		q = strings.Join(strings.Fields(q), " ")
		k := strings.ToLower(q)
		if q == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, q)
		if len(out) == max {
			break
		}
	}
	return out
}

var queryPromptTmpl = template.Must(template.New("queries").Parse(`You are helping locate online sources for a bibliographic reference.

Write up to {{.Max}} web search queries that would find:
- the full text of the work itself (publisher page, open-access copy, archive.org, PDF);
- reviews or scholarly commentary about the work.

Reference:
{{.Citation}}
{{- if .Relevance}}

Why it is cited: {{.Relevance}}
{{- end}}

Respond with a JSON object with a "queries" array of strings and nothing else.

Example response:
{"queries": ["\"Thinking, Fast and Slow\" Kahneman pdf", "\"Thinking, Fast and Slow\" review"]}
`))

// LLMPlanner asks a language model for queries. When the model fails or
// returns nothing usable the heuristic queries are used instead.
type LLMPlanner struct {
	Client JSONCompleter
	Max    int
	Log    io.Writer
}

// Queries implements Planner.
func (p LLMPlanner) Queries(ctx context.Context, ref *types.Reference) []string {
	qs, err := LLMQueries(ctx, p.Client, ref, p.Max)
	if err != nil {
		if p.Log != nil {
			fmt.Fprintf(p.Log, "warning: %s: query generation failed, using heuristic queries: %v\n", ref.ID, err)
		}
		return HeuristicQueries(ref, p.Max)
	}
	return qs
}

// LLMQueries asks client for up to max queries for ref.
func LLMQueries(ctx context.Context, client JSONCompleter, ref *types.Reference, max int) ([]string, error) {
	if max <= 0 {
		max = DefaultMaxQueries
	}
	var buf bytes.Buffer
	err := queryPromptTmpl.Execute(&buf, struct {
		Max       int
		Citation  string
		Relevance string
	}{max, ref.Citation(), ref.RelevanceText})
	if err != nil {
		return nil, fmt.Errorf("rendering query prompt: %w", err)
	}

	var reply struct {
		Queries []string `json:"queries"`
	}
	if err := client.CompleteJSON(ctx, buf.String(), &reply); err != nil {
		return nil, err
	}
	qs := dedupeQueries(reply.Queries, max)
	if len(qs) == 0 {
		return nil, fmt.Errorf("model returned no queries")
	}
	return qs, nil
}
