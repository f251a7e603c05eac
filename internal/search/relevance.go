// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/refresolve/pkg/types"
)

// Completer sends a prompt to a language model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var relevancePromptTmpl = template.Must(template.New("relevance").Parse(`You are writing the relevance note for one citation of a work in a book manuscript.

Work:
{{.Citation}}

This citation is discussed through the following source:
{{.Secondary}}

{{- if .Avoid}}

Other citations of the same work already use these notes. Write something
distinct that does not repeat them:
{{range .Avoid}}- {{.}}
{{end}}
{{- end}}

Write one or two plain sentences explaining why the work matters at this
point in the manuscript. Reply with the note only.
`))

// LLMRelevance writes relevance text for instance records.
type LLMRelevance struct {
	Client Completer
}

// Write returns a relevance note for inst. avoid holds the notes of the
// parent and sibling instances; a reply equal to one of them is an error.
func (l LLMRelevance) Write(ctx context.Context, inst *types.Reference, avoid []string) (string, error) {
	secondary := inst.URLs.Secondary
	if secondary == "" {
		secondary = "(none selected)"
	}
	var kept []string
	for _, a := range avoid {
		if a = strings.TrimSpace(a); a != "" {
			kept = append(kept, a)
		}
	}

	var buf bytes.Buffer
	err := relevancePromptTmpl.Execute(&buf, struct {
		Citation  string
		Secondary string
		Avoid     []string
	}{inst.Citation(), secondary, kept})
	if err != nil {
		return "", fmt.Errorf("rendering relevance prompt: %w", err)
	}

	text, err := l.Client.Complete(ctx, buf.String())
	if err != nil {
		return "", err
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", fmt.Errorf("%s: model returned empty relevance text", inst.ID)
	}
	for _, a := range kept {
		if strings.EqualFold(text, a) {
			return "", fmt.Errorf("%s: relevance text repeats an existing note", inst.ID)
		}
	}
	return text, nil
}
