// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Ranking is a semantic ranking of one candidate, addressed by its index in
// the list that was ranked.
type Ranking struct {
	Index     int      `json:"index"`
	Primary   int      `json:"primary_score"`
	Secondary int      `json:"secondary_score"`
	Reasons   []string `json:"reasons,omitempty"`
}

// Ranker scores candidates against a reference.
type Ranker interface {
	Rank(ctx context.Context, ref *types.Reference, cands []types.Candidate) ([]Ranking, error)
}

var rankPromptTmpl = template.Must(template.New("rank").Parse(`You are ranking web pages found for a bibliographic reference.

Reference:
{{.Citation}}

Score every candidate twice, each from 0 to 100:
- primary_score: how likely the page IS the work itself (full text, publisher or archive copy).
- secondary_score: how likely the page DISCUSSES the work (review, commentary, analysis).
A page that is the work should not also score high as commentary about it.

Candidates:
{{range $i, $c := .Candidates}}[{{$i}}] {{$c.URL}}
    title: {{$c.Title}}
    snippet: {{$c.Snippet}}
{{end}}
Respond with a JSON object with a "rankings" array and nothing else. Each element has
"index", "primary_score", "secondary_score" and "reasons" (a list of short strings).

Example response:
{"rankings": [{"index": 0, "primary_score": 90, "secondary_score": 10, "reasons": ["publisher page"]}]}
`))

// LLMRanker ranks candidates with a language model.
type LLMRanker struct {
	Client JSONCompleter
}

// Rank implements Ranker. Rankings with an index outside cands are dropped,
// later rankings of the same index replace earlier ones, and scores are
// clamped to [0,100].
func (r LLMRanker) Rank(ctx context.Context, ref *types.Reference, cands []types.Candidate) ([]Ranking, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	err := rankPromptTmpl.Execute(&buf, struct {
		Citation   string
		Candidates []types.Candidate
	}{ref.Citation(), cands})
	if err != nil {
		return nil, fmt.Errorf("rendering rank prompt: %w", err)
	}

	var reply struct {
		Rankings []Ranking `json:"rankings"`
	}
	if err := r.Client.CompleteJSON(ctx, buf.String(), &reply); err != nil {
		return nil, err
	}

	pos := make(map[int]int)
	var out []Ranking
	for _, rk := range reply.Rankings {
		if rk.Index < 0 || rk.Index >= len(cands) {
			continue
		}
		rk.Primary = clampScore(rk.Primary)
		rk.Secondary = clampScore(rk.Secondary)
		if i, dup := pos[rk.Index]; dup {
			out[i] = rk
			continue
		}
		pos[rk.Index] = len(out)
		out = append(out, rk)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned no usable rankings")
	}
	return out, nil
}

func clampScore(v int) int {
	return max(0, min(100, v))
}
