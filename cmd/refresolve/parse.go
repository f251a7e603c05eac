// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refresolve/internal/parser"
	"github.com/pdiddy/refresolve/internal/recordstore"
	"github.com/pdiddy/refresolve/pkg/types"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>|-",
	Short: "Parse raw reference lines and show the extracted fields",
	Long: `Parse reads raw reference lines ("[id] Author (year). Title. Publisher.
Relevance: ...") from a file or stdin and prints the extracted fields with
the confidence of each. Lines without a leading [id] are reported and
skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().Bool("json", false, "output references as JSON")
	parseCmd.Flags().Bool("yaml", false, "output references as YAML")
	parseCmd.Flags().Bool("records", false, "output single-line records")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	var refs []*types.Reference
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		ref, err := parser.Parse(line)
		if err != nil {
			var pe *types.ParseError
			if errors.As(err, &pe) {
				pe.Line = n
			}
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			continue
		}
		refs = append(refs, ref)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	asRecords, _ := cmd.Flags().GetBool("records")
	switch {
	case asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(refs)
	case asYAML:
		return yaml.NewEncoder(os.Stdout).Encode(refs)
	case asRecords:
		return recordstore.Write(os.Stdout, refs)
	}
	formatParsed(os.Stdout, refs)
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

func formatParsed(w io.Writer, refs []*types.Reference) {
	if len(refs) == 0 {
		fmt.Fprintln(w, "No references found.")
		return
	}
	for _, ref := range refs {
		fmt.Fprintf(w, "[%s]\n", ref.ID)
		for _, f := range types.Fields {
			fmt.Fprintf(w, "  %-12s %-10s %s\n", f, ref.Confidence.Get(f), fieldValue(ref, f))
		}
	}
	fmt.Fprintf(w, "\n%d references\n", len(refs))
}

func fieldValue(ref *types.Reference, f types.Field) string {
	switch f {
	case types.FieldAuthors:
		return ref.Authors
	case types.FieldYear:
		return ref.Year
	case types.FieldTitle:
		return ref.Title
	case types.FieldPublication:
		return ref.Publication
	case types.FieldRelevance:
		return ref.RelevanceText
	}
	return ""
}

// loadRecords reads a records file and reports unparseable lines.
func loadRecords(path string) (*recordstore.File, error) {
	f, err := recordstore.Load(path)
	if err != nil {
		return nil, err
	}
	for _, pe := range f.Skipped {
		fmt.Fprintf(os.Stderr, "warning: %v\n", pe)
	}
	if f.Legacy {
		fmt.Fprintf(os.Stderr, "Read %s in the legacy multi-line layout; it will be written back as single-line records.\n", path)
	}
	return f, nil
}
